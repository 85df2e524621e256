package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/joshijeet02/Career-huntin/internal/orchestrator"
)

// CycleHandler consumes the scheduled pipeline:daily-cycle task.
type CycleHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       *slog.Logger
}

// NewCycleHandler creates the handler.
func NewCycleHandler(o *orchestrator.Orchestrator, logger *slog.Logger) *CycleHandler {
	return &CycleHandler{orchestrator: o, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *CycleHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	result, err := h.orchestrator.RunDailyCycle(ctx)
	if err != nil {
		h.logger.Error("daily cycle failed", slog.Any("error", err))
		return err
	}

	h.logger.Info("scheduled daily cycle finished",
		slog.Uint64("run_id", uint64(result.RunID)),
		slog.Int("discovered", result.DiscoveredCount),
		slog.Int("approved", result.ApprovedItems),
		slog.Int("executed", result.ExecutedItems),
		slog.Int("followups", result.FollowUpsCreated),
	)
	return nil
}
