// Package tracking exports the execution event trail as a CSV
// snapshot, newest events first, and optionally mirrors it to object
// storage.
package tracking

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/config"
	"github.com/joshijeet02/Career-huntin/internal/database"
)

var snapshotHeader = []string{
	"event_id", "created_at_utc", "job_id", "company", "title",
	"event_type", "channel", "status", "attempt", "error_message",
}

// Uploader mirrors an exported snapshot to object storage.
// *storage.Client satisfies it; a nil Uploader keeps exports local.
type Uploader interface {
	UploadSnapshot(ctx context.Context, objectName string, reader io.Reader, size int64) error
}

// Exporter writes the tracking snapshot.
type Exporter struct {
	db       *gorm.DB
	cfg      config.SnapshotConfig
	uploader Uploader
	logger   *slog.Logger
}

// NewExporter constructs an Exporter. uploader may be nil.
func NewExporter(db *gorm.DB, cfg config.SnapshotConfig, uploader Uploader, logger *slog.Logger) *Exporter {
	return &Exporter{db: db, cfg: cfg, uploader: uploader, logger: logger}
}

// Export overwrites the snapshot file with every execution event,
// newest first, and returns the number of data rows written.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	var events []database.ExecutionEvent
	if err := e.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&events).Error; err != nil {
		return 0, fmt.Errorf("load execution events: %w", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(snapshotHeader); err != nil {
		return 0, fmt.Errorf("write snapshot header: %w", err)
	}

	for i := range events {
		event := &events[i]
		var job database.JobRecord
		company, title := "", ""
		switch err := e.db.WithContext(ctx).First(&job, event.JobID).Error; {
		case err == nil:
			company, title = job.Company, job.Title
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return 0, fmt.Errorf("load job %d: %w", event.JobID, err)
		}

		row := []string{
			strconv.FormatUint(uint64(event.ID), 10),
			event.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			strconv.FormatUint(uint64(event.JobID), 10),
			company,
			title,
			event.EventType,
			event.Channel,
			event.Status,
			strconv.Itoa(event.Attempt),
			event.ErrorMessage,
		}
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("write snapshot row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("flush snapshot: %w", err)
	}

	if dir := filepath.Dir(e.cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	if err := os.WriteFile(e.cfg.Path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write snapshot file: %w", err)
	}

	if e.cfg.Upload && e.uploader != nil {
		objectName := filepath.Base(e.cfg.Path)
		if err := e.uploader.UploadSnapshot(ctx, objectName, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
			e.logger.Warn("snapshot upload failed",
				slog.String("object", objectName),
				slog.Any("error", err),
			)
		}
	}

	e.logger.Info("tracking snapshot exported",
		slog.String("path", e.cfg.Path),
		slog.Int("rows", len(events)),
	)
	return len(events), nil
}
