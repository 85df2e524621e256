// Package worker consumes queue tasks: due follow-up reminders and the
// scheduled daily pipeline cycle.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/audit"
	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/tasks"
)

// FollowUpHandler consumes followup:due tasks. Sending the actual
// nudge stays manual; the handler surfaces the reminder and leaves an
// audit entry.
type FollowUpHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewFollowUpHandler creates the handler.
func NewFollowUpHandler(db *gorm.DB, logger *slog.Logger) *FollowUpHandler {
	return &FollowUpHandler{db: db, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *FollowUpHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.FollowUpDuePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(slog.Uint64("follow_up_task_id", uint64(payload.FollowUpTaskID)))

	var task database.FollowUpTask
	if err := h.db.WithContext(ctx).First(&task, payload.FollowUpTaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("follow-up task not found, skipping")
			return nil
		}
		log.Error("query follow-up task failed", slog.Any("error", err))
		return err
	}
	if task.Status != database.FollowUpStatusPending {
		log.Info("follow-up no longer pending, skipping",
			slog.String("status", task.Status))
		return nil
	}

	var job database.JobRecord
	company := ""
	if err := h.db.WithContext(ctx).First(&job, task.JobID).Error; err == nil {
		company = job.Company
	}

	log.Info("follow-up due",
		slog.Uint64("job_id", uint64(task.JobID)),
		slog.String("company", company),
		slog.String("channel", task.Channel),
		slog.Time("due_at", task.DueAt),
	)

	return audit.Log(ctx, h.db, "follow_up_task", task.ID, "due", map[string]interface{}{
		"job_id":  task.JobID,
		"channel": task.Channel,
	})
}
