package analytics

import (
	"context"
	"fmt"
	"strings"
	"testing"

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

func seedEvent(t *testing.T, db *gorm.DB, eventType, status string) {
	t.Helper()
	event := database.ExecutionEvent{
		PlanID:     1,
		PlanItemID: 1,
		JobID:      1,
		EventType:  eventType,
		Channel:    database.ChannelJobBoard,
		Status:     status,
		Attempt:    1,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
}

func TestComputeFunnelCountsSuccessesPerStage(t *testing.T) {
	db := newTestDB(t)
	seedEvent(t, db, database.EventTypeApplication, database.EventStatusSuccess)
	seedEvent(t, db, database.EventTypeApplication, database.EventStatusSuccess)
	seedEvent(t, db, database.EventTypeApplication, database.EventStatusFailed)
	seedEvent(t, db, database.EventTypeReply, database.EventStatusSuccess)
	seedEvent(t, db, database.EventTypeInterview, database.EventStatusSuccess)
	seedEvent(t, db, database.EventTypeOutreach, database.EventStatusSuccess)

	funnel, err := ComputeFunnel(context.Background(), db)
	if err != nil {
		t.Fatalf("compute funnel: %v", err)
	}
	if funnel.Applied != 2 {
		t.Fatalf("applied = %d, want 2 successes only", funnel.Applied)
	}
	if funnel.Replied != 1 || funnel.Interview != 1 || funnel.Offers != 0 {
		t.Fatalf("funnel = %+v", funnel)
	}
}

func TestComputeFunnelEmptyStore(t *testing.T) {
	db := newTestDB(t)
	funnel, err := ComputeFunnel(context.Background(), db)
	if err != nil {
		t.Fatalf("compute funnel: %v", err)
	}
	if *funnel != (Funnel{}) {
		t.Fatalf("funnel = %+v, want all zeros", funnel)
	}
}
