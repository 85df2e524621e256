package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/config"
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

func testPrefs() config.PipelineConfig {
	return config.PipelineConfig{
		SourceConfigID:        "test-run",
		GeographyPriority:     []string{"Mumbai", "Gurugram", "Bangalore", "International"},
		InternationalPriority: []string{"UK", "US", "Singapore", "Netherlands"},
		DomesticCities:        []string{"mumbai", "gurugram", "bangalore"},
		SourcePriority: []string{
			"Venture Capital Careers",
			"Company career pages (direct)",
			"Wellfound",
			"Y Combinator Work at a Startup",
			"IMF recruitment",
			"World Bank careers",
			"Devex",
			"Built In",
			"LinkedIn",
		},
	}
}

func seedProfile(t *testing.T, db *gorm.DB, suppressedCompanies []string) {
	t.Helper()
	profile := database.CandidateProfile{
		Version:  1,
		FullName: "Jeet Joshi",
		Email:    "jeet@example.com",
		Skills: datatypes.NewJSONSlice([]string{
			"economics", "research", "market analysis", "excel",
			"stata", "policy analysis", "writing", "strategy",
		}),
		Preferences: datatypes.JSONMap{"remote_preferred": true},
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	policy := database.TargetingPolicy{
		ProfileVersion:        1,
		RoleFamilies:          datatypes.NewJSONSlice([]string{"analyst", "consulting", "strategy"}),
		SuppressionCompanies:  datatypes.NewJSONSlice(suppressedCompanies),
		SuppressionDomains:    datatypes.NewJSONSlice([]string{}),
		ApplicationDailyLimit: 40,
		OutreachDailyLimit:    40,
	}
	if err := db.Create(&policy).Error; err != nil {
		t.Fatalf("create policy: %v", err)
	}
}

func TestRunDedupsWithinOneFetch(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, nil)
	engine := NewEngine(db, FixtureSource{}, testPrefs(), slog.Default())

	run, err := engine.Run(context.Background(), "daily")
	if err != nil {
		t.Fatalf("run discovery: %v", err)
	}
	if run.DiscoveredCount != 6 {
		t.Fatalf("discovered = %d, want 6", run.DiscoveredCount)
	}
	if run.DedupedCount != 1 {
		t.Fatalf("deduped = %d, want 1", run.DedupedCount)
	}

	var count int64
	if err := db.Model(&database.JobRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	if count != 5 {
		t.Fatalf("job records = %d, want 5", count)
	}
}

func TestRunSecondPassDedupsEverything(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, nil)
	engine := NewEngine(db, FixtureSource{}, testPrefs(), slog.Default())
	ctx := context.Background()

	if _, err := engine.Run(ctx, "daily"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := engine.Run(ctx, "daily")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.DedupedCount != 6 {
		t.Fatalf("second run deduped = %d, want 6", second.DedupedCount)
	}

	var count int64
	if err := db.Model(&database.JobRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	if count != 5 {
		t.Fatalf("job records after second run = %d, want 5", count)
	}
}

func TestRunBlocksSuppressedCompany(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, []string{"NorthBridge Ventures"})
	engine := NewEngine(db, FixtureSource{}, testPrefs(), slog.Default())

	if _, err := engine.Run(context.Background(), "daily"); err != nil {
		t.Fatalf("run discovery: %v", err)
	}

	var job database.JobRecord
	if err := db.Where("company = ?", "NorthBridge Ventures").First(&job).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != database.JobStatusBlocked {
		t.Fatalf("status = %q, want %q", job.Status, database.JobStatusBlocked)
	}
	if job.RelevanceScore != 0 {
		t.Fatalf("blocked job should not be scored, got %.2f", job.RelevanceScore)
	}
}

func TestRunScoresNewJobs(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, nil)
	engine := NewEngine(db, FixtureSource{}, testPrefs(), slog.Default())

	if _, err := engine.Run(context.Background(), "daily"); err != nil {
		t.Fatalf("run discovery: %v", err)
	}

	var jobs []database.JobRecord
	if err := db.Find(&jobs).Error; err != nil {
		t.Fatalf("load jobs: %v", err)
	}
	for _, job := range jobs {
		if job.Status != database.JobStatusNew {
			t.Fatalf("job %q status = %q, want new", job.Company, job.Status)
		}
		if job.RelevanceScore <= 0 || job.RelevanceScore > 100 {
			t.Fatalf("job %q score %.2f out of range", job.Company, job.RelevanceScore)
		}
	}
}
