// Package orchestrator chains the pipeline stages into the daily
// cycle: discover, draft, and when auto-execution is enabled, decide,
// execute, schedule follow-ups and export the tracking snapshot.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/config"
	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/discovery"
	"github.com/joshijeet02/Career-huntin/internal/drafting"
	"github.com/joshijeet02/Career-huntin/internal/execution"
	"github.com/joshijeet02/Career-huntin/internal/followup"
	"github.com/joshijeet02/Career-huntin/internal/review"
	"github.com/joshijeet02/Career-huntin/internal/tracking"
)

// Result summarizes one daily cycle.
type Result struct {
	RunID            uint   `json:"run_id"`
	BatchID          *uint  `json:"batch_id"`
	ExecutionPlanID  *uint  `json:"execution_plan_id"`
	DiscoveredCount  int    `json:"discovered_count"`
	ApprovedItems    int    `json:"approved_items"`
	ExecutedItems    int    `json:"executed_items"`
	FollowUpsCreated int    `json:"followups_created"`
	SnapshotPath     string `json:"tracking_snapshot_path,omitempty"`
}

// Orchestrator wires the stage engines together.
type Orchestrator struct {
	db        *gorm.DB
	discovery *discovery.Engine
	drafting  *drafting.Engine
	review    *review.Engine
	execution *execution.Engine
	followups *followup.Scheduler
	tracking  *tracking.Exporter
	cfg       config.PipelineConfig
	snapshot  config.SnapshotConfig
	logger    *slog.Logger
}

// New constructs an Orchestrator from the stage engines.
func New(
	db *gorm.DB,
	discoveryEngine *discovery.Engine,
	draftingEngine *drafting.Engine,
	reviewEngine *review.Engine,
	executionEngine *execution.Engine,
	followups *followup.Scheduler,
	exporter *tracking.Exporter,
	cfg config.PipelineConfig,
	snapshot config.SnapshotConfig,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		db:        db,
		discovery: discoveryEngine,
		drafting:  draftingEngine,
		review:    reviewEngine,
		execution: executionEngine,
		followups: followups,
		tracking:  exporter,
		cfg:       cfg,
		snapshot:  snapshot,
		logger:    logger,
	}
}

// RunDailyCycle runs one full pass of the pipeline. Without the
// auto-execution double opt-in it stops after drafting and leaves the
// batch for human review.
func (o *Orchestrator) RunDailyCycle(ctx context.Context) (*Result, error) {
	run, err := o.discovery.Run(ctx, o.cfg.SourceConfigID)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}

	batch, err := o.drafting.BuildBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("drafting: %w", err)
	}
	if batch == nil {
		batch, err = o.latestPendingBatch(ctx)
		if err != nil {
			return nil, err
		}
	}

	result := &Result{
		RunID:           run.ID,
		DiscoveredCount: run.DiscoveredCount - run.DedupedCount,
	}
	if batch != nil {
		id := batch.ID
		result.BatchID = &id
	}

	if batch == nil || !o.cfg.AutoExecuteEnabled() {
		o.logger.Info("daily cycle stopped before execution",
			slog.Bool("auto_execute", o.cfg.AutoExecuteEnabled()),
			slog.Bool("has_batch", batch != nil),
		)
		return result, nil
	}

	decisions, err := o.approveAll(ctx, batch.ID)
	if err != nil {
		return nil, err
	}
	plan, err := o.review.ApplyDecisions(ctx, batch.ID, decisions)
	if err != nil {
		return nil, fmt.Errorf("apply decisions: %w", err)
	}
	planID := plan.ID
	result.ExecutionPlanID = &planID
	result.ApprovedItems = plan.ApprovedCount

	_, items, err := o.execution.ExecutePlan(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("execute plan: %w", err)
	}
	result.ExecutedItems = len(items)

	created, err := o.followups.SchedulePlanFollowUps(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("schedule follow-ups: %w", err)
	}
	result.FollowUpsCreated = created

	if _, err := o.tracking.Export(ctx); err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}
	result.SnapshotPath = o.snapshot.Path

	o.logger.Info("daily cycle completed",
		slog.Uint64("run_id", uint64(result.RunID)),
		slog.Uint64("plan_id", uint64(planID)),
		slog.Int("executed_items", result.ExecutedItems),
	)
	return result, nil
}

func (o *Orchestrator) latestPendingBatch(ctx context.Context) (*database.ReviewBatch, error) {
	var batch database.ReviewBatch
	err := o.db.WithContext(ctx).
		Where("status = ?", database.ReviewStatusPending).
		Order("created_at DESC").
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pending batch: %w", err)
	}
	return &batch, nil
}

func (o *Orchestrator) approveAll(ctx context.Context, batchID uint) ([]review.Decision, error) {
	var items []database.ReviewBatchItem
	if err := o.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load batch items: %w", err)
	}
	decisions := make([]review.Decision, 0, len(items))
	for _, item := range items {
		decisions = append(decisions, review.Decision{
			BatchItemID: item.ID,
			Decision:    review.DecisionApprove,
		})
	}
	return decisions, nil
}
