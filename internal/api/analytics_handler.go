package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/analytics"
	"github.com/joshijeet02/Career-huntin/internal/api/middleware"
	"github.com/joshijeet02/Career-huntin/internal/dashboard"
)

// AnalyticsHandler exposes the funnel and the dashboard payload.
type AnalyticsHandler struct {
	db *gorm.DB
}

// NewAnalyticsHandler creates the handler.
func NewAnalyticsHandler(db *gorm.DB) *AnalyticsHandler {
	return &AnalyticsHandler{db: db}
}

// Funnel returns the application funnel counts.
func (h *AnalyticsHandler) Funnel(c *gin.Context) {
	funnel, err := analytics.ComputeFunnel(c.Request.Context(), h.db)
	if err != nil {
		middleware.LoggerFromContext(c).Error("funnel computation failed", slog.Any("error", err))
		Internal(c, "failed to compute funnel")
		return
	}
	c.JSON(http.StatusOK, funnel)
}

// DashboardData returns the aggregated operator view, optionally
// narrowed by the source, geography, role_family and status query
// parameters.
func (h *AnalyticsHandler) DashboardData(c *gin.Context) {
	filters := dashboard.Filters{
		Source:     c.Query("source"),
		Geography:  c.Query("geography"),
		RoleFamily: c.Query("role_family"),
		Status:     c.Query("status"),
	}

	data, err := dashboard.Collect(c.Request.Context(), h.db, filters)
	if err != nil {
		middleware.LoggerFromContext(c).Error("dashboard collection failed", slog.Any("error", err))
		Internal(c, "failed to collect dashboard data")
		return
	}
	c.JSON(http.StatusOK, data)
}
