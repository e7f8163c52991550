package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// DashboardHandler serves the per-role dashboards.
type DashboardHandler struct {
	service *service.DashboardService
	access  *service.AccessService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService, access *service.AccessService) *DashboardHandler {
	return &DashboardHandler{service: svc, access: access}
}

// Me godoc
// @Summary Route to the caller's dashboard
// @Description Returns the dashboard payload matching the caller's role
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	switch claims.Role {
	case models.RoleStudent:
		res, err := h.service.StudentDashboard(ctx, claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, res, nil)
	case models.RoleParent:
		res, err := h.service.ParentDashboard(ctx, claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, res, nil)
	case models.RoleTeacher:
		res, err := h.service.TeacherDashboard(ctx, claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, res, nil)
	case models.RoleAdmin:
		res, err := h.service.AdminDashboard(ctx)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, res, nil)
	default:
		// Unknown roles are routed back to login, not treated as an error.
		response.JSON(c, http.StatusOK, gin.H{"dashboard": string(h.access.RouteDashboard(claims.Role))}, nil)
	}
}

// Route godoc
// @Summary Resolve dashboard destination
// @Description Returns the dashboard route for the caller's role without the payload
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/route [get]
func (h *DashboardHandler) Route(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"dashboard": string(h.access.RouteDashboard(claims.Role))}, nil)
}
