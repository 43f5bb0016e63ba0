package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/isow/backend/internal/application/dashboard"
)

// DashboardHandler serves the home dashboard data
type DashboardHandler struct {
	BaseHandler
	service *dashboard.Service
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview godoc
// @ID           getDashboardOverview
// @Summary      Dashboard overview
// @Description  Returns the user and company counts plus the chart, notification and pagination widgets
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[dashboard.Overview]
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, overview)
}
