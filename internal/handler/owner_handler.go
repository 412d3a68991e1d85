package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Parastud/ParkEase/internal/application"
	"github.com/Parastud/ParkEase/internal/pkg/auth"
	"github.com/Parastud/ParkEase/internal/pkg/middleware"
	"github.com/Parastud/ParkEase/internal/pkg/response"
)

// OwnerHandler handles HTTP requests for owner business profiles.
type OwnerHandler struct {
	service *application.OwnerService
}

// NewOwnerHandler creates a new OwnerHandler.
func NewOwnerHandler(service *application.OwnerService) *OwnerHandler {
	return &OwnerHandler{service: service}
}

// RegisterRoutes registers all owner profile routes on the given router
// group.
func (h *OwnerHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	owners := r.Group("/api/v1/owners")
	owners.Use(middleware.AuthMiddleware(jwtManager))
	{
		owners.POST("/register", middleware.RequireRole(auth.RoleOwner), h.RegisterOwner)
		owners.GET("/profile", middleware.RequireRole(auth.RoleOwner), h.GetProfile)
	}
}

// RegisterOwner handles POST /api/v1/owners/register. Creates the
// profile or updates an existing one.
func (h *OwnerHandler) RegisterOwner(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.OwnerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RegisterOwner(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetProfile handles GET /api/v1/owners/profile.
func (h *OwnerHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
