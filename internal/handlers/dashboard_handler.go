package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fidiestro/sanse-backend/internal/services"
)

// DashboardHandler exposes the account overview.
type DashboardHandler struct {
	dashboard services.DashboardServicer
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary returns balances, investment totals and recent activity
// @Summary     Get my dashboard
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardSummary
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	summary, err := h.dashboard.Summary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
