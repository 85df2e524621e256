package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshijeet02/Career-huntin/internal/api/middleware"
	"github.com/joshijeet02/Career-huntin/internal/orchestrator"
)

// OrchestratorHandler triggers the daily cycle on demand.
type OrchestratorHandler struct {
	orchestrator *orchestrator.Orchestrator
}

// NewOrchestratorHandler creates the handler.
func NewOrchestratorHandler(o *orchestrator.Orchestrator) *OrchestratorHandler {
	return &OrchestratorHandler{orchestrator: o}
}

// RunDaily runs one full pipeline cycle and returns its summary.
func (h *OrchestratorHandler) RunDaily(c *gin.Context) {
	result, err := h.orchestrator.RunDailyCycle(c.Request.Context())
	if err != nil {
		middleware.LoggerFromContext(c).Error("daily cycle failed", slog.Any("error", err))
		Internal(c, "daily cycle failed")
		return
	}
	c.JSON(http.StatusOK, result)
}
