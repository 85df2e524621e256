package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/joshijeet02/Career-huntin/internal/api/middleware"
	"github.com/joshijeet02/Career-huntin/internal/execution"
	"github.com/joshijeet02/Career-huntin/internal/review"
)

// ReviewHandler exposes batch decisions and single-item quick apply.
type ReviewHandler struct {
	review    *review.Engine
	execution *execution.Engine
}

// NewReviewHandler creates the handler.
func NewReviewHandler(reviewEngine *review.Engine, executionEngine *execution.Engine) *ReviewHandler {
	return &ReviewHandler{review: reviewEngine, execution: executionEngine}
}

// DecisionRequest carries the reviewer verdicts for one batch.
type DecisionRequest struct {
	Decisions []review.Decision `json:"decisions" binding:"required"`
}

// DecideBatch applies reviewer decisions and returns the resulting
// execution plan counters.
func (h *ReviewHandler) DecideBatch(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	plan, err := h.review.ApplyDecisions(c.Request.Context(), batchID, req.Decisions)
	switch {
	case errors.Is(err, review.ErrBatchNotFound):
		NotFound(c, err.Error())
		return
	case errors.Is(err, review.ErrBatchNotOpen):
		Conflict(c, err.Error())
		return
	case err != nil:
		middleware.LoggerFromContext(c).Error("batch decision failed", slog.Any("error", err))
		Internal(c, "failed to apply decisions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"execution_plan_id": plan.ID,
		"approved_count":    plan.ApprovedCount,
		"rejected_count":    plan.RejectedCount,
		"deferred_count":    plan.DeferredCount,
	})
}

// QuickApply approves and executes a single batch item in one call.
func (h *ReviewHandler) QuickApply(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	plan, results, err := h.execution.QuickApply(c.Request.Context(), itemID)
	switch {
	case errors.Is(err, execution.ErrItemNotFound), errors.Is(err, execution.ErrDraftsNotFound):
		NotFound(c, err.Error())
		return
	case errors.Is(err, execution.ErrAlreadyExecuted):
		Conflict(c, err.Error())
		return
	case err != nil:
		middleware.LoggerFromContext(c).Error("quick apply failed", slog.Any("error", err))
		Internal(c, "quick apply failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan_id": plan.ID,
		"status":  plan.Status,
		"items":   results,
	})
}

// parseIDParam parses a positive numeric path parameter, responding
// with 400 itself when the value is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}
