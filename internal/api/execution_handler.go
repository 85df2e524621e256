package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshijeet02/Career-huntin/internal/api/middleware"
	"github.com/joshijeet02/Career-huntin/internal/execution"
)

// ExecutionHandler exposes plan execution.
type ExecutionHandler struct {
	execution *execution.Engine
}

// NewExecutionHandler creates the handler.
func NewExecutionHandler(executionEngine *execution.Engine) *ExecutionHandler {
	return &ExecutionHandler{execution: executionEngine}
}

// RunPlan executes every item of a plan and returns the per-item
// outcomes.
func (h *ExecutionHandler) RunPlan(c *gin.Context) {
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	plan, results, err := h.execution.ExecutePlan(c.Request.Context(), planID)
	switch {
	case errors.Is(err, execution.ErrPlanNotFound):
		NotFound(c, err.Error())
		return
	case errors.Is(err, execution.ErrPlanCompleted):
		Conflict(c, err.Error())
		return
	case err != nil:
		middleware.LoggerFromContext(c).Error("plan execution failed", slog.Any("error", err))
		Internal(c, "plan execution failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan_id": plan.ID,
		"status":  plan.Status,
		"items":   results,
	})
}
