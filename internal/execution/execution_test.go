package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/compliance"
	"github.com/joshijeet02/Career-huntin/internal/config"
	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/review"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProfile(t *testing.T, db *gorm.DB) {
	t.Helper()
	profile := database.CandidateProfile{Version: 1, FullName: "Jeet Joshi", Email: "jeet@example.com"}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	policy := database.TargetingPolicy{
		ProfileVersion:        1,
		SuppressionCompanies:  datatypes.NewJSONSlice([]string{}),
		SuppressionDomains:    datatypes.NewJSONSlice([]string{}),
		ApplicationDailyLimit: 40,
		OutreachDailyLimit:    40,
	}
	if err := db.Create(&policy).Error; err != nil {
		t.Fatalf("create policy: %v", err)
	}
}

// seedApprovedPlan builds one pending job with drafts and a decided
// batch, returning the plan carrying the two approved actions.
func seedApprovedPlan(t *testing.T, db *gorm.DB, company string) (*database.ExecutionPlan, database.ReviewBatchItem) {
	t.Helper()
	job := database.JobRecord{
		Source:      "company_site",
		SourceJobID: company,
		Company:     company,
		Title:       "Analyst",
		Location:    "Mumbai, India",
		ApplyURL:    "https://careers.example.com/" + strings.ReplaceAll(strings.ToLower(company), " ", "-"),
		Description: "desc",
		Fingerprint: "fp-" + company,
		Status:      database.JobStatusPendingReview,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	appDraft := database.ApplicationDraft{JobID: job.ID, ProfileVersion: 1, CVContent: "cv content", Status: database.ReviewStatusPending}
	if err := db.Create(&appDraft).Error; err != nil {
		t.Fatalf("create application draft: %v", err)
	}
	outreach := database.OutreachDraft{
		JobID:           job.ID,
		ConnectionNote:  "note for " + company,
		FollowUpMessage: "follow up",
		EmailVariant:    "email",
		Status:          database.ReviewStatusPending,
	}
	if err := db.Create(&outreach).Error; err != nil {
		t.Fatalf("create outreach draft: %v", err)
	}
	batch := database.ReviewBatch{Status: database.ReviewStatusPending, ItemCount: 1}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("create batch: %v", err)
	}
	item := database.ReviewBatchItem{
		BatchID:            batch.ID,
		ApplicationDraftID: appDraft.ID,
		OutreachDraftID:    outreach.ID,
		JobID:              job.ID,
		Status:             database.ReviewStatusPending,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}

	plan, err := review.NewEngine(db).ApplyDecisions(context.Background(), batch.ID, []review.Decision{
		{BatchItemID: item.ID, Decision: review.DecisionApprove},
	})
	if err != nil {
		t.Fatalf("apply decisions: %v", err)
	}
	return plan, item
}

func newEngine(db *gorm.DB, prefs config.PipelineConfig) *Engine {
	gate := compliance.NewGate(db, prefs)
	return NewEngine(db, gate, MockConnector{}, prefs, slog.Default())
}

func TestExecutePlanHappyPath(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)
	plan, item := seedApprovedPlan(t, db, "Acme")
	engine := newEngine(db, config.PipelineConfig{})

	executed, results, err := engine.ExecutePlan(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("execute plan: %v", err)
	}
	if executed.Status != database.PlanStatusCompleted {
		t.Fatalf("plan status = %q, want completed", executed.Status)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, result := range results {
		if result.Status != database.PlanItemStatusSuccess {
			t.Fatalf("item %d status = %q, want success", result.PlanItemID, result.Status)
		}
		if result.Attempts != 1 {
			t.Fatalf("item %d attempts = %d, want 1", result.PlanItemID, result.Attempts)
		}
	}

	var events []database.ExecutionEvent
	if err := db.Where("plan_id = ?", plan.ID).Order("id ASC").Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].EventType != database.EventTypeApplication || events[1].EventType != database.EventTypeOutreach {
		t.Fatalf("event types = %s/%s", events[0].EventType, events[1].EventType)
	}

	var job database.JobRecord
	if err := db.First(&job, item.JobID).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != database.JobStatusOutreachSent {
		t.Fatalf("job status = %q, want outreach_sent after apply then outreach", job.Status)
	}
}

func TestExecutePlanTransientRetries(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)
	plan, _ := seedApprovedPlan(t, db, "Transient Labs")
	engine := newEngine(db, config.PipelineConfig{})

	_, results, err := engine.ExecutePlan(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("execute plan: %v", err)
	}
	for _, result := range results {
		if result.Status != database.PlanItemStatusSuccess {
			t.Fatalf("transient failures should recover, got %q", result.Status)
		}
		if result.Attempts != MaxAttempts {
			t.Fatalf("attempts = %d, want %d", result.Attempts, MaxAttempts)
		}
	}

	var retrying int64
	if err := db.Model(&database.ExecutionEvent{}).
		Where("plan_id = ? AND status = ?", plan.ID, database.EventStatusRetrying).
		Count(&retrying).Error; err != nil {
		t.Fatalf("count retrying: %v", err)
	}
	// Two actions, each failing twice before the final attempt lands.
	if retrying != 4 {
		t.Fatalf("retrying events = %d, want 4", retrying)
	}
}

func TestExecutePlanRerunGuard(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)
	plan, _ := seedApprovedPlan(t, db, "Acme")
	engine := newEngine(db, config.PipelineConfig{})
	ctx := context.Background()

	if _, _, err := engine.ExecutePlan(ctx, plan.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, _, err := engine.ExecutePlan(ctx, plan.ID); !errors.Is(err, ErrPlanCompleted) {
		t.Fatalf("err = %v, want ErrPlanCompleted", err)
	}
}

func TestExecutePlanRerunAllowedDuplicatesEvents(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)
	plan, _ := seedApprovedPlan(t, db, "Acme")
	engine := newEngine(db, config.PipelineConfig{AllowPlanReexecution: true})
	ctx := context.Background()

	if _, _, err := engine.ExecutePlan(ctx, plan.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, _, err := engine.ExecutePlan(ctx, plan.ID); err != nil {
		t.Fatalf("re-run: %v", err)
	}

	var events int64
	if err := db.Model(&database.ExecutionEvent{}).
		Where("plan_id = ?", plan.ID).
		Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 4 {
		t.Fatalf("events after re-run = %d, want 4", events)
	}
}

func TestExecutePlanUnknownPlan(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(db, config.PipelineConfig{})
	if _, _, err := engine.ExecutePlan(context.Background(), 404); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("err = %v, want ErrPlanNotFound", err)
	}
}

func TestQuickApplyExecutesOnce(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	job := database.JobRecord{
		Source:      "company_site",
		SourceJobID: "quick",
		Company:     "QuickCo",
		Title:       "Analyst",
		Location:    "Mumbai, India",
		ApplyURL:    "https://careers.quickco.example/analyst",
		Description: "desc",
		Fingerprint: "fp-quick",
		Status:      database.JobStatusPendingReview,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	appDraft := database.ApplicationDraft{JobID: job.ID, ProfileVersion: 1, CVContent: "cv", Status: database.ReviewStatusPending}
	if err := db.Create(&appDraft).Error; err != nil {
		t.Fatalf("create application draft: %v", err)
	}
	outreach := database.OutreachDraft{JobID: job.ID, ConnectionNote: "note", FollowUpMessage: "f", EmailVariant: "e", Status: database.ReviewStatusPending}
	if err := db.Create(&outreach).Error; err != nil {
		t.Fatalf("create outreach draft: %v", err)
	}
	batch := database.ReviewBatch{Status: database.ReviewStatusPending, ItemCount: 1}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("create batch: %v", err)
	}
	item := database.ReviewBatchItem{
		BatchID:            batch.ID,
		ApplicationDraftID: appDraft.ID,
		OutreachDraftID:    outreach.ID,
		JobID:              job.ID,
		Status:             database.ReviewStatusPending,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}

	engine := newEngine(db, config.PipelineConfig{})
	plan, results, err := engine.QuickApply(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("quick apply: %v", err)
	}
	if plan.ApprovedCount != 1 || len(results) != 2 {
		t.Fatalf("approved=%d results=%d, want 1/2", plan.ApprovedCount, len(results))
	}

	if _, _, err := engine.QuickApply(context.Background(), item.ID); !errors.Is(err, ErrAlreadyExecuted) {
		t.Fatalf("err = %v, want ErrAlreadyExecuted", err)
	}
}
