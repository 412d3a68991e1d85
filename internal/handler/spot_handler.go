package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Parastud/ParkEase/internal/application"
	"github.com/Parastud/ParkEase/internal/pkg/auth"
	"github.com/Parastud/ParkEase/internal/pkg/middleware"
	"github.com/Parastud/ParkEase/internal/pkg/response"
)

// SpotHandler handles HTTP requests for the parking-spot catalog.
type SpotHandler struct {
	service *application.SpotService
}

// NewSpotHandler creates a new SpotHandler.
func NewSpotHandler(service *application.SpotService) *SpotHandler {
	return &SpotHandler{service: service}
}

// RegisterRoutes registers all spot routes on the given router group.
// Browsing and nearby search are public; mutations require the owner
// role.
func (h *SpotHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	spots := r.Group("/api/v1/spots")
	{
		spots.GET("", h.ListSpots)
		spots.GET("/nearby", h.NearbySpots)
		spots.GET("/:id", h.GetSpot)
		spots.POST("", authMW, middleware.RequireRole(auth.RoleOwner), h.CreateSpot)
		spots.PUT("/:id", authMW, middleware.RequireRole(auth.RoleOwner), h.UpdateSpot)
		spots.DELETE("/:id", authMW, middleware.RequireRole(auth.RoleOwner), h.DeleteSpot)
	}

	owners := r.Group("/api/v1/owners")
	owners.Use(authMW)
	{
		owners.GET("/spots", middleware.RequireRole(auth.RoleOwner), h.ListOwnerSpots)
	}
}

// ListSpots handles GET /api/v1/spots.
func (h *SpotHandler) ListSpots(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListSpots(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// NearbySpots handles GET /api/v1/spots/nearby?lat=&lng=&radius_km=.
func (h *SpotHandler) NearbySpots(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.BadRequest(c, "invalid lat")
		return
	}

	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		response.BadRequest(c, "invalid lng")
		return
	}

	radiusKm, err := strconv.ParseFloat(c.DefaultQuery("radius_km", "5"), 64)
	if err != nil || radiusKm <= 0 {
		response.BadRequest(c, "invalid radius_km")
		return
	}

	result, err := h.service.NearbySpots(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetSpot handles GET /api/v1/spots/:id.
func (h *SpotHandler) GetSpot(c *gin.Context) {
	spotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid spot ID")
		return
	}

	result, err := h.service.GetSpot(c.Request.Context(), spotID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateSpot handles POST /api/v1/spots.
func (h *SpotHandler) CreateSpot(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.SpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateSpot(c.Request.Context(), ownerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateSpot handles PUT /api/v1/spots/:id.
func (h *SpotHandler) UpdateSpot(c *gin.Context) {
	spotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid spot ID")
		return
	}

	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.SpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateSpot(c.Request.Context(), ownerID, spotID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteSpot handles DELETE /api/v1/spots/:id.
func (h *SpotHandler) DeleteSpot(c *gin.Context) {
	spotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid spot ID")
		return
	}

	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.DeleteSpot(c.Request.Context(), ownerID, spotID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// ListOwnerSpots handles GET /api/v1/owners/spots.
func (h *SpotHandler) ListOwnerSpots(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetOwnerSpots(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
