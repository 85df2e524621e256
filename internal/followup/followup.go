// Package followup schedules deferred outreach reminders after
// successful sends.
package followup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/metrics"
	"github.com/joshijeet02/Career-huntin/internal/tasks"
)

// DueOffset places every follow-up on a later day than the outreach it
// follows; a same-day nudge reads as spam.
const DueOffset = 24*time.Hour + 7*time.Hour

// Enqueuer hands scheduled tasks to the queue. *asynq.Client satisfies
// it; a nil Enqueuer keeps scheduling store-only.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler creates follow-up tasks for executed plans.
type Scheduler struct {
	db       *gorm.DB
	enqueuer Enqueuer
	logger   *slog.Logger
	// now is swappable for tests.
	now func() time.Time
}

// NewScheduler constructs a Scheduler. enqueuer may be nil.
func NewScheduler(db *gorm.DB, enqueuer Enqueuer, logger *slog.Logger) *Scheduler {
	return &Scheduler{db: db, enqueuer: enqueuer, logger: logger, now: time.Now}
}

// SchedulePlanFollowUps creates one pending follow-up per successful
// outreach event of the plan, deduplicated per (job, outreach draft)
// while a pending task exists. It returns the number of tasks created.
func (s *Scheduler) SchedulePlanFollowUps(ctx context.Context, planID uint) (int, error) {
	db := s.db.WithContext(ctx)

	var events []database.ExecutionEvent
	if err := db.
		Where("plan_id = ? AND event_type = ? AND status = ?",
			planID, database.EventTypeOutreach, database.EventStatusSuccess).
		Find(&events).Error; err != nil {
		return 0, fmt.Errorf("load outreach events: %w", err)
	}

	created := 0
	for _, event := range events {
		var planItem database.ExecutionPlanItem
		if err := db.First(&planItem, event.PlanItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return created, fmt.Errorf("load plan item: %w", err)
		}
		var batchItem database.ReviewBatchItem
		if err := db.First(&batchItem, planItem.BatchItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return created, fmt.Errorf("load batch item: %w", err)
		}
		var outreach database.OutreachDraft
		if err := db.First(&outreach, batchItem.OutreachDraftID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return created, fmt.Errorf("load outreach draft: %w", err)
		}

		var pending int64
		if err := db.Model(&database.FollowUpTask{}).
			Where("job_id = ? AND outreach_draft_id = ? AND status = ?",
				event.JobID, outreach.ID, database.FollowUpStatusPending).
			Count(&pending).Error; err != nil {
			return created, fmt.Errorf("count pending follow-ups: %w", err)
		}
		if pending > 0 {
			continue
		}

		task := database.FollowUpTask{
			JobID:           event.JobID,
			OutreachDraftID: outreach.ID,
			DueAt:           s.now().UTC().Add(DueOffset),
			Channel:         event.Channel,
			Status:          database.FollowUpStatusPending,
		}
		if err := db.Create(&task).Error; err != nil {
			return created, fmt.Errorf("create follow-up task: %w", err)
		}
		created++
		metrics.FollowUpsScheduled.Inc()

		if s.enqueuer != nil {
			queued, err := tasks.NewFollowUpDueTask(task.ID)
			if err != nil {
				return created, err
			}
			if _, err := s.enqueuer.Enqueue(queued, asynq.ProcessAt(task.DueAt)); err != nil {
				s.logger.Warn("enqueue follow-up task failed",
					slog.Uint64("task_id", uint64(task.ID)),
					slog.Any("error", err),
				)
			}
		}
	}

	return created, nil
}
