package tracking

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

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

type fakeUploader struct {
	objects map[string][]byte
}

func (u *fakeUploader) UploadSnapshot(_ context.Context, objectName string, reader io.Reader, _ int64) error {
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	b, _ := io.ReadAll(reader)
	u.objects[objectName] = b
	return nil
}

func seedEvents(t *testing.T, db *gorm.DB, n int) []database.ExecutionEvent {
	t.Helper()
	job := database.JobRecord{
		Source:      "company_site",
		SourceJobID: "j1",
		Company:     "Acme",
		Title:       "Analyst",
		Location:    "Mumbai, India",
		ApplyURL:    "https://careers.acme.example/a",
		Description: "desc",
		Fingerprint: "fp-1",
		Status:      database.JobStatusApplied,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}

	events := make([]database.ExecutionEvent, 0, n)
	for i := 0; i < n; i++ {
		event := database.ExecutionEvent{
			PlanID:     1,
			PlanItemID: uint(i + 1),
			JobID:      job.ID,
			EventType:  database.EventTypeApplication,
			Channel:    database.ChannelJobBoard,
			Status:     database.EventStatusSuccess,
			Attempt:    1,
		}
		if err := db.Create(&event).Error; err != nil {
			t.Fatalf("create event: %v", err)
		}
		events = append(events, event)
	}
	return events
}

func TestExportWritesSnapshotNewestFirst(t *testing.T) {
	db := newTestDB(t)
	events := seedEvents(t, db, 3)

	path := filepath.Join(t.TempDir(), "snapshot.csv")
	exporter := NewExporter(db, config.SnapshotConfig{Path: path}, nil, slog.Default())

	rows, err := exporter.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if rows != 3 {
		t.Fatalf("rows = %d, want 3", rows)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("csv rows = %d, want header + 3", len(records))
	}

	wantHeader := "event_id,created_at_utc,job_id,company,title,event_type,channel,status,attempt,error_message"
	if got := strings.Join(records[0], ","); got != wantHeader {
		t.Fatalf("header = %q, want %q", got, wantHeader)
	}

	// Newest event first: ids were created in ascending order.
	newest := strconv.FormatUint(uint64(events[len(events)-1].ID), 10)
	if records[1][0] != newest {
		t.Fatalf("first data row id = %s, want newest id %s", records[1][0], newest)
	}
	if records[1][3] != "Acme" || records[1][4] != "Analyst" {
		t.Fatalf("job columns = %s/%s, want Acme/Analyst", records[1][3], records[1][4])
	}
}

func TestExportOverwritesPreviousSnapshot(t *testing.T) {
	db := newTestDB(t)
	seedEvents(t, db, 1)

	path := filepath.Join(t.TempDir(), "snapshot.csv")
	exporter := NewExporter(db, config.SnapshotConfig{Path: path}, nil, slog.Default())
	ctx := context.Background()

	if _, err := exporter.Export(ctx); err != nil {
		t.Fatalf("first export: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read first: %v", err)
	}

	if _, err := exporter.Export(ctx); err != nil {
		t.Fatalf("second export: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("unchanged store should produce an identical snapshot")
	}
}

func TestExportUploadsWhenConfigured(t *testing.T) {
	db := newTestDB(t)
	seedEvents(t, db, 2)

	uploader := &fakeUploader{}
	path := filepath.Join(t.TempDir(), "snapshot.csv")
	exporter := NewExporter(db, config.SnapshotConfig{Path: path, Upload: true}, uploader, slog.Default())

	if _, err := exporter.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	uploaded, ok := uploader.objects["snapshot.csv"]
	if !ok {
		t.Fatalf("snapshot was not uploaded")
	}
	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !bytes.Equal(uploaded, onDisk) {
		t.Fatalf("uploaded bytes differ from the local snapshot")
	}
}
