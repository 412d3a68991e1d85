package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Parastud/ParkEase/internal/application"
	"github.com/Parastud/ParkEase/internal/pkg/auth"
	"github.com/Parastud/ParkEase/internal/pkg/middleware"
	"github.com/Parastud/ParkEase/internal/pkg/response"
)

// AdminHandler handles admin HTTP requests: manual expiry sweeps and
// owner verification.
type AdminHandler struct {
	sweeper *application.ExpirySweeper
	owners  *application.OwnerService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sweeper *application.ExpirySweeper, owners *application.OwnerService) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, owners: owners}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.POST("/sweep", h.Sweep)
		admin.POST("/owners/:id/verify", h.VerifyOwner)
	}
}

// Sweep handles POST /api/v1/admin/sweep. Runs one sweep pass
// immediately and reports how many bookings it completed.
func (h *AdminHandler) Sweep(c *gin.Context) {
	completed, err := h.sweeper.SweepNow(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"completed": completed})
}

// VerifyOwner handles POST /api/v1/admin/owners/:id/verify.
func (h *AdminHandler) VerifyOwner(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid owner ID")
		return
	}

	result, err := h.owners.VerifyOwner(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
