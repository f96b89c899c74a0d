package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/services"
	"github.com/lestari-hub/forestry-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:      NewBaseHandler(logger),
		dashboardService: dashboardService,
	}
}

// GetOverview returns the landing-page aggregates
// @Summary Get dashboard overview
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardOverview
// @Failure 403 {object} ErrorResponse
// @Router /dashboard/overview [get]
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	overview, err := h.dashboardService.GetOverview(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
