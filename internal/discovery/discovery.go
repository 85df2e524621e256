// Package discovery pulls candidate jobs from a source, deduplicates
// them by fingerprint, scores the survivors and persists new records.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/audit"
	"github.com/joshijeet02/Career-huntin/internal/config"
	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/metrics"
	"github.com/joshijeet02/Career-huntin/internal/profiles"
	"github.com/joshijeet02/Career-huntin/internal/scoring"
)

// Engine runs discovery cycles against one Source.
type Engine struct {
	db     *gorm.DB
	source Source
	prefs  config.PipelineConfig
	logger *slog.Logger
}

// NewEngine constructs a discovery Engine.
func NewEngine(db *gorm.DB, source Source, prefs config.PipelineConfig, logger *slog.Logger) *Engine {
	return &Engine{db: db, source: source, prefs: prefs, logger: logger}
}

// Run performs one discovery invocation: fetch, fingerprint, dedup,
// block-or-score, persist. Duplicates increment the run's deduped
// counter and never touch the first-seen record.
func (e *Engine) Run(ctx context.Context, sourceConfigID string) (*database.DiscoveryRun, error) {
	sourceJobs, err := e.source.Fetch(ctx, sourceConfigID)
	if err != nil {
		return nil, fmt.Errorf("fetch source jobs: %w", err)
	}

	run := &database.DiscoveryRun{
		SourceConfigID:  sourceConfigID,
		DiscoveredCount: len(sourceJobs),
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, policy, err := profiles.Active(ctx, tx)
		if err != nil {
			return err
		}

		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("create discovery run: %w", err)
		}

		deduped := 0
		for _, raw := range sourceJobs {
			fp := Fingerprint(raw.Company, raw.Title, raw.Location, raw.ApplyURL)

			var existing database.JobRecord
			switch err := tx.Where("fingerprint = ?", fp).First(&existing).Error; {
			case err == nil:
				deduped++
				continue
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return fmt.Errorf("lookup fingerprint: %w", err)
			}

			job := database.JobRecord{
				Source:              raw.Source,
				SourceJobID:         raw.SourceJobID,
				Company:             raw.Company,
				Title:               raw.Title,
				Location:            raw.Location,
				ApplyURL:            raw.ApplyURL,
				Description:         raw.Description,
				RequiredSkills:      datatypes.NewJSONSlice(raw.RequiredSkills),
				CoverLetterRequired: raw.CoverLetterRequired,
				Fingerprint:         fp,
				RawData: datatypes.JSONMap{
					"source":        raw.Source,
					"source_job_id": raw.SourceJobID,
				},
			}

			if scoring.ShouldBlock(&job, policy) {
				job.Status = database.JobStatusBlocked
			} else {
				job.RelevanceScore = scoring.Relevance(&job, profile, policy, e.prefs)
				job.Status = database.JobStatusNew
			}

			if err := tx.Create(&job).Error; err != nil {
				return fmt.Errorf("create job record: %w", err)
			}
			metrics.JobsDiscovered.WithLabelValues(job.Status).Inc()

			if err := audit.Log(ctx, tx, "job_record", job.ID, "discovered", map[string]interface{}{
				"source": raw.Source,
				"score":  job.RelevanceScore,
				"status": job.Status,
			}); err != nil {
				return err
			}
		}

		run.DedupedCount = deduped
		if err := tx.Model(run).Update("deduped_count", deduped).Error; err != nil {
			return fmt.Errorf("update discovery run: %w", err)
		}

		return audit.Log(ctx, tx, "discovery_run", run.ID, "completed", map[string]interface{}{
			"source_config_id": sourceConfigID,
			"count":            run.DiscoveredCount,
			"deduped":          deduped,
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("discovery run completed",
		slog.Uint64("run_id", uint64(run.ID)),
		slog.Int("discovered", run.DiscoveredCount),
		slog.Int("deduped", run.DedupedCount),
	)
	return run, nil
}
