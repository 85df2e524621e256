package drafting

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

	"github.com/joshijeet02/Career-huntin/internal/database"
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

func seedProfile(t *testing.T, db *gorm.DB, withVariants bool) {
	t.Helper()
	profile := database.CandidateProfile{
		Version:  1,
		FullName: "Jeet Joshi",
		Email:    "jeet@example.com",
		Skills:   datatypes.NewJSONSlice([]string{"economics", "research", "excel", "stata", "writing"}),
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if !withVariants {
		return
	}
	variants := []database.CVVariant{
		{ProfileVersion: 1, Name: "general", Content: "General CV content"},
		{ProfileVersion: 1, Name: "backend focus", Content: "Backend CV content"},
	}
	for i := range variants {
		if err := db.Create(&variants[i]).Error; err != nil {
			t.Fatalf("create variant: %v", err)
		}
	}
}

func seedJob(t *testing.T, db *gorm.DB, company, title, status string, score float64, coverLetter bool) database.JobRecord {
	t.Helper()
	job := database.JobRecord{
		Source:              "company_site",
		SourceJobID:         company + "-" + title,
		Company:             company,
		Title:               title,
		Location:            "Mumbai, India",
		ApplyURL:            "https://careers.example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Description:         "Role description",
		RequiredSkills:      datatypes.NewJSONSlice([]string{"economics", "excel"}),
		CoverLetterRequired: coverLetter,
		Fingerprint:         company + "|" + title,
		RelevanceScore:      score,
		Status:              status,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestBuildBatchNoProfile(t *testing.T) {
	db := newTestDB(t)
	seedJob(t, db, "Acme", "Analyst", database.JobStatusNew, 50, false)

	batch, err := NewEngine(db, slog.Default()).BuildBatch(context.Background())
	if err != nil {
		t.Fatalf("build batch: %v", err)
	}
	if batch != nil {
		t.Fatalf("expected no batch without a profile")
	}
}

func TestBuildBatchNoVariants(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, false)
	seedJob(t, db, "Acme", "Analyst", database.JobStatusNew, 50, false)

	_, err := NewEngine(db, slog.Default()).BuildBatch(context.Background())
	if !errors.Is(err, ErrNoVariants) {
		t.Fatalf("err = %v, want ErrNoVariants", err)
	}
}

func TestBuildBatchSkipsBlockedJobs(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, true)
	seedJob(t, db, "Blocked Co", "Analyst", database.JobStatusBlocked, 0, false)
	eligible := seedJob(t, db, "Acme", "Economic Analyst", database.JobStatusNew, 72, false)

	batch, err := NewEngine(db, slog.Default()).BuildBatch(context.Background())
	if err != nil {
		t.Fatalf("build batch: %v", err)
	}
	if batch == nil || batch.ItemCount != 1 {
		t.Fatalf("batch should contain exactly the eligible job")
	}

	var item database.ReviewBatchItem
	if err := db.Where("batch_id = ?", batch.ID).First(&item).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.JobID != eligible.ID {
		t.Fatalf("item job = %d, want %d", item.JobID, eligible.ID)
	}
	if item.PriorityScore != 72 {
		t.Fatalf("priority score = %.2f, want 72", item.PriorityScore)
	}
}

func TestBuildBatchOrdersByRelevance(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, true)
	low := seedJob(t, db, "LowCo", "Analyst A", database.JobStatusNew, 30, false)
	high := seedJob(t, db, "HighCo", "Analyst B", database.JobStatusNew, 90, false)

	batch, err := NewEngine(db, slog.Default()).BuildBatch(context.Background())
	if err != nil {
		t.Fatalf("build batch: %v", err)
	}

	var items []database.ReviewBatchItem
	if err := db.Where("batch_id = ?", batch.ID).Order("id ASC").Find(&items).Error; err != nil {
		t.Fatalf("load items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].JobID != high.ID || items[1].JobID != low.ID {
		t.Fatalf("items not drafted in relevance order")
	}
}

func TestBuildBatchDraftContents(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, true)
	withLetter := seedJob(t, db, "LetterCo", "Policy Analyst", database.JobStatusNew, 80, true)
	without := seedJob(t, db, "PlainCo", "Strategy Analyst", database.JobStatusNew, 60, false)

	batch, err := NewEngine(db, slog.Default()).BuildBatch(context.Background())
	if err != nil {
		t.Fatalf("build batch: %v", err)
	}
	if batch.ItemCount != 2 {
		t.Fatalf("item count = %d, want 2", batch.ItemCount)
	}

	var drafts []database.ApplicationDraft
	if err := db.Order("id ASC").Find(&drafts).Error; err != nil {
		t.Fatalf("load drafts: %v", err)
	}
	for _, draft := range drafts {
		if draft.CVContent == "" {
			t.Fatalf("draft %d missing cv content", draft.ID)
		}
		patch := draft.CVPatch.Data()
		if len(patch.SkillsHighlighted) == 0 {
			t.Fatalf("draft %d has no highlighted skills", draft.ID)
		}
		switch draft.JobID {
		case withLetter.ID:
			if !strings.Contains(draft.CoverLetter, "LetterCo") {
				t.Fatalf("required cover letter missing company name")
			}
		case without.ID:
			if draft.CoverLetter != "" {
				t.Fatalf("cover letter drafted where none required")
			}
		}
	}

	var outreach []database.OutreachDraft
	if err := db.Find(&outreach).Error; err != nil {
		t.Fatalf("load outreach: %v", err)
	}
	if len(outreach) != 2 {
		t.Fatalf("outreach drafts = %d, want 2", len(outreach))
	}
	for _, o := range outreach {
		contacts := o.Contacts.Data()
		if len(contacts) != 2 {
			t.Fatalf("outreach %d contacts = %d, want 2", o.ID, len(contacts))
		}
		if o.ConnectionNote == "" || o.FollowUpMessage == "" || o.EmailVariant == "" {
			t.Fatalf("outreach %d missing a message variant", o.ID)
		}
	}

	var jobs []database.JobRecord
	if err := db.Where("status = ?", database.JobStatusPendingReview).Find(&jobs).Error; err != nil {
		t.Fatalf("load jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs moved to pending_review = %d, want 2", len(jobs))
	}
}
