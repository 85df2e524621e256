// Package execution drives approved plan items through the compliance
// gate and a bounded retry loop, recording every attempt as an
// append-only event.
package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/audit"
	"github.com/joshijeet02/Career-huntin/internal/compliance"
	"github.com/joshijeet02/Career-huntin/internal/config"
	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/metrics"
)

// MaxAttempts bounds the retry loop per plan item.
const MaxAttempts = 3

// Execution failure modes surfaced to the caller.
var (
	ErrPlanNotFound    = errors.New("execution plan not found")
	ErrPlanCompleted   = errors.New("execution plan already completed")
	ErrItemNotFound    = errors.New("batch item not found")
	ErrDraftsNotFound  = errors.New("drafts not found for batch item")
	ErrAlreadyExecuted = errors.New("job already executed successfully")
)

// ItemResult summarizes the outcome of one plan item.
type ItemResult struct {
	PlanItemID   uint   `json:"plan_item_id"`
	Action       string `json:"action"`
	Channel      string `json:"channel"`
	Status       string `json:"status"`
	Attempts     int    `json:"attempts"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Engine executes plans.
type Engine struct {
	db        *gorm.DB
	gate      *compliance.Gate
	connector Connector
	prefs     config.PipelineConfig
	logger    *slog.Logger
}

// NewEngine constructs an execution Engine.
func NewEngine(db *gorm.DB, gate *compliance.Gate, connector Connector, prefs config.PipelineConfig, logger *slog.Logger) *Engine {
	return &Engine{db: db, gate: gate, connector: connector, prefs: prefs, logger: logger}
}

// ExecutePlan runs every item of a plan through the gate and the retry
// loop, then marks the plan completed. Completed means fully attempted,
// not all succeeded. Re-running a completed plan is rejected unless plan
// re-execution is explicitly enabled, in which case every item runs
// again and events are duplicated.
func (e *Engine) ExecutePlan(ctx context.Context, planID uint) (*database.ExecutionPlan, []ItemResult, error) {
	db := e.db.WithContext(ctx)

	var plan database.ExecutionPlan
	switch err := db.First(&plan, planID).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, ErrPlanNotFound
	case err != nil:
		return nil, nil, fmt.Errorf("load plan: %w", err)
	}
	if plan.Status == database.PlanStatusCompleted && !e.prefs.AllowPlanReexecution {
		return nil, nil, ErrPlanCompleted
	}

	var items []database.ExecutionPlanItem
	if err := db.Where("plan_id = ?", planID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, nil, fmt.Errorf("load plan items: %w", err)
	}

	results := make([]ItemResult, 0, len(items))
	for i := range items {
		item := &items[i]

		var batchItem database.ReviewBatchItem
		if err := db.First(&batchItem, item.BatchItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, nil, fmt.Errorf("load batch item: %w", err)
		}
		var job database.JobRecord
		if err := db.First(&job, batchItem.JobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, nil, fmt.Errorf("load job: %w", err)
		}

		result, err := e.executeItem(ctx, &plan, item, &batchItem, &job)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, result)
	}

	if err := db.Model(&plan).Update("status", database.PlanStatusCompleted).Error; err != nil {
		return nil, nil, fmt.Errorf("complete plan: %w", err)
	}
	plan.Status = database.PlanStatusCompleted

	succeeded := 0
	for _, r := range results {
		if r.Status == database.PlanItemStatusSuccess {
			succeeded++
		}
	}
	if err := audit.Log(ctx, db, "execution_plan", plan.ID, "executed", map[string]interface{}{
		"items":   len(results),
		"success": succeeded,
	}); err != nil {
		return nil, nil, err
	}

	e.logger.Info("plan executed",
		slog.Uint64("plan_id", uint64(plan.ID)),
		slog.Int("items", len(results)),
		slog.Int("succeeded", succeeded),
	)
	return &plan, results, nil
}

// executeItem gates one item and, when allowed, attempts its action up
// to MaxAttempts times. Every attempt leaves an event; the job status
// side effect applies only on success.
func (e *Engine) executeItem(
	ctx context.Context,
	plan *database.ExecutionPlan,
	item *database.ExecutionPlanItem,
	batchItem *database.ReviewBatchItem,
	job *database.JobRecord,
) (ItemResult, error) {
	db := e.db.WithContext(ctx)
	eventType := database.EventTypeApplication
	if item.Action == database.ActionSendOutreach {
		eventType = database.EventTypeOutreach
	}

	allowed, reason, err := e.gate.Check(ctx, batchItem.ID, item.Action)
	if err != nil {
		return ItemResult{}, err
	}
	if !allowed {
		if err := e.setItemStatus(ctx, item, database.PlanItemStatusBlocked); err != nil {
			return ItemResult{}, err
		}
		if err := e.emitEvent(ctx, plan, item, job, eventType, database.EventStatusBlocked, 1, reason); err != nil {
			return ItemResult{}, err
		}
		return ItemResult{
			PlanItemID:   item.ID,
			Action:       item.Action,
			Channel:      item.Channel,
			Status:       database.PlanItemStatusBlocked,
			Attempts:     1,
			ErrorMessage: reason,
		}, nil
	}

	var lastFailure string
	attempts := 0
	for attempts = 1; attempts <= MaxAttempts; attempts++ {
		attemptErr := e.connector.Attempt(ctx, job, item.Action, attempts)
		if attemptErr == nil {
			break
		}
		lastFailure = attemptErr.Error()
		if err := e.emitEvent(ctx, plan, item, job, eventType, database.EventStatusRetrying, attempts, lastFailure); err != nil {
			return ItemResult{}, err
		}
	}

	if attempts > MaxAttempts {
		// All attempts exhausted.
		if err := e.setItemStatus(ctx, item, database.PlanItemStatusFailed); err != nil {
			return ItemResult{}, err
		}
		if err := e.emitEvent(ctx, plan, item, job, eventType, database.EventStatusFailed, MaxAttempts, lastFailure); err != nil {
			return ItemResult{}, err
		}
		return ItemResult{
			PlanItemID:   item.ID,
			Action:       item.Action,
			Channel:      item.Channel,
			Status:       database.PlanItemStatusFailed,
			Attempts:     MaxAttempts,
			ErrorMessage: lastFailure,
		}, nil
	}

	if err := e.setItemStatus(ctx, item, database.PlanItemStatusSuccess); err != nil {
		return ItemResult{}, err
	}
	if err := e.emitEvent(ctx, plan, item, job, eventType, database.EventStatusSuccess, attempts, ""); err != nil {
		return ItemResult{}, err
	}

	// Only the application action advances a job out of
	// pending_review; outreach alone never moves a never-applied job.
	switch item.Action {
	case database.ActionSubmitApplication:
		if err := db.Model(job).Update("status", database.JobStatusApplied).Error; err != nil {
			return ItemResult{}, fmt.Errorf("update job status: %w", err)
		}
		job.Status = database.JobStatusApplied
	case database.ActionSendOutreach:
		if job.Status == database.JobStatusApplied {
			if err := db.Model(job).Update("status", database.JobStatusOutreachSent).Error; err != nil {
				return ItemResult{}, fmt.Errorf("update job status: %w", err)
			}
			job.Status = database.JobStatusOutreachSent
		}
	}

	return ItemResult{
		PlanItemID: item.ID,
		Action:     item.Action,
		Channel:    item.Channel,
		Status:     database.PlanItemStatusSuccess,
		Attempts:   attempts,
	}, nil
}

// QuickApply approves a single batch item and executes the resulting
// one-item plan. Unlike plan execution, it refuses jobs that already
// carry a successful event so a double click never duplicates sends.
func (e *Engine) QuickApply(ctx context.Context, batchItemID uint) (*database.ExecutionPlan, []ItemResult, error) {
	db := e.db.WithContext(ctx)

	var item database.ReviewBatchItem
	switch err := db.First(&item, batchItemID).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, ErrItemNotFound
	case err != nil:
		return nil, nil, fmt.Errorf("load batch item: %w", err)
	}

	var appDraft database.ApplicationDraft
	var outreach database.OutreachDraft
	if err := db.First(&appDraft, item.ApplicationDraftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDraftsNotFound
		}
		return nil, nil, fmt.Errorf("load application draft: %w", err)
	}
	if err := db.First(&outreach, item.OutreachDraftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDraftsNotFound
		}
		return nil, nil, fmt.Errorf("load outreach draft: %w", err)
	}

	var priorSuccesses int64
	if err := db.Model(&database.ExecutionEvent{}).
		Where("job_id = ? AND status = ?", item.JobID, database.EventStatusSuccess).
		Count(&priorSuccesses).Error; err != nil {
		return nil, nil, fmt.Errorf("count prior successes: %w", err)
	}
	if priorSuccesses > 0 {
		return nil, nil, ErrAlreadyExecuted
	}

	plan := database.ExecutionPlan{
		BatchID:       item.BatchID,
		Status:        database.PlanStatusCreated,
		ApprovedCount: 1,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, update := range []struct {
			model interface{}
			id    uint
		}{
			{&database.ReviewBatchItem{}, item.ID},
			{&database.ApplicationDraft{}, appDraft.ID},
			{&database.OutreachDraft{}, outreach.ID},
		} {
			if err := tx.Model(update.model).Where("id = ?", update.id).
				Update("status", database.ReviewStatusApproved).Error; err != nil {
				return fmt.Errorf("approve item: %w", err)
			}
		}

		if err := tx.Create(&plan).Error; err != nil {
			return fmt.Errorf("create plan: %w", err)
		}
		planItems := []database.ExecutionPlanItem{
			{
				PlanID:      plan.ID,
				BatchItemID: item.ID,
				Action:      database.ActionSubmitApplication,
				Channel:     database.ChannelJobBoard,
				Status:      database.PlanItemStatusApproved,
			},
			{
				PlanID:      plan.ID,
				BatchItemID: item.ID,
				Action:      database.ActionSendOutreach,
				Channel:     database.ChannelLinkedInEmail,
				Status:      database.PlanItemStatusApproved,
			},
		}
		return tx.Create(&planItems).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return e.ExecutePlan(ctx, plan.ID)
}

func (e *Engine) setItemStatus(ctx context.Context, item *database.ExecutionPlanItem, status string) error {
	if err := e.db.WithContext(ctx).Model(&database.ExecutionPlanItem{}).
		Where("id = ?", item.ID).Update("status", status).Error; err != nil {
		return fmt.Errorf("update plan item status: %w", err)
	}
	item.Status = status
	return nil
}

func (e *Engine) emitEvent(
	ctx context.Context,
	plan *database.ExecutionPlan,
	item *database.ExecutionPlanItem,
	job *database.JobRecord,
	eventType, status string,
	attempt int,
	errorMessage string,
) error {
	event := database.ExecutionEvent{
		PlanID:       plan.ID,
		PlanItemID:   item.ID,
		JobID:        job.ID,
		EventType:    eventType,
		Channel:      item.Channel,
		Status:       status,
		Attempt:      attempt,
		ErrorMessage: errorMessage,
	}
	if err := e.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("create execution event: %w", err)
	}
	metrics.ExecutionEvents.WithLabelValues(eventType, status).Inc()
	return nil
}
