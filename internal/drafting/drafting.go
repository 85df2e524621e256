// Package drafting builds application and outreach drafts for newly
// discovered jobs and groups them into one review batch per
// invocation.
package drafting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/audit"
	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/profiles"
)

// ErrNoVariants aborts drafting for the whole cycle: a batch is never
// built partially without CV content to attach.
var ErrNoVariants = errors.New("no cv variants found for active profile")

// variantKeywords are the title keyword families that select a
// matching CV variant by name.
var variantKeywords = []string{"backend", "platform"}

// Engine drafts applications and outreach for jobs in state new.
type Engine struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewEngine constructs a drafting Engine.
func NewEngine(db *gorm.DB, logger *slog.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// BuildBatch drafts every job in state new and groups the results into
// one new review batch. It returns (nil, nil) when there is no active
// profile or no eligible job, and ErrNoVariants when the active
// profile has zero CV variants.
func (e *Engine) BuildBatch(ctx context.Context) (*database.ReviewBatch, error) {
	var batch *database.ReviewBatch

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, _, err := profiles.Active(ctx, tx)
		if err != nil {
			return err
		}
		if profile == nil {
			return nil
		}

		var jobs []database.JobRecord
		if err := tx.
			Where("status = ?", database.JobStatusNew).
			Order("relevance_score DESC, id ASC").
			Find(&jobs).Error; err != nil {
			return fmt.Errorf("load new jobs: %w", err)
		}
		if len(jobs) == 0 {
			return nil
		}

		variants, err := profiles.Variants(ctx, tx, profile.Version)
		if err != nil {
			return err
		}
		if len(variants) == 0 {
			return ErrNoVariants
		}

		batch = &database.ReviewBatch{
			Status:    database.ReviewStatusPending,
			GroupedBy: "company_priority",
		}
		if err := tx.Create(batch).Error; err != nil {
			return fmt.Errorf("create review batch: %w", err)
		}

		for i := range jobs {
			job := &jobs[i]
			variant := chooseVariant(variants, job.Title)

			appDraft := database.ApplicationDraft{
				JobID:          job.ID,
				ProfileVersion: profile.Version,
				CVVariantID:    variant.ID,
				CVPatch:        datatypes.NewJSONType(buildCVPatch(job, profile)),
				CVContent:      variant.Content,
				CoverLetter:    coverLetter(job, profile),
				Status:         database.ReviewStatusPending,
			}
			if err := tx.Create(&appDraft).Error; err != nil {
				return fmt.Errorf("create application draft: %w", err)
			}

			outreach := buildOutreach(job, profile)
			if err := tx.Create(&outreach).Error; err != nil {
				return fmt.Errorf("create outreach draft: %w", err)
			}

			item := database.ReviewBatchItem{
				BatchID:            batch.ID,
				ApplicationDraftID: appDraft.ID,
				OutreachDraftID:    outreach.ID,
				JobID:              job.ID,
				Status:             database.ReviewStatusPending,
				PriorityScore:      job.RelevanceScore,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("create batch item: %w", err)
			}

			if err := tx.Model(job).Update("status", database.JobStatusPendingReview).Error; err != nil {
				return fmt.Errorf("update job status: %w", err)
			}
			if err := audit.Log(ctx, tx, "job_record", job.ID, "drafted_for_review", map[string]interface{}{
				"batch_id": batch.ID,
				"score":    job.RelevanceScore,
			}); err != nil {
				return err
			}
		}

		batch.ItemCount = len(jobs)
		if err := tx.Model(batch).Update("item_count", batch.ItemCount).Error; err != nil {
			return fmt.Errorf("update batch item count: %w", err)
		}

		return audit.Log(ctx, tx, "review_batch", batch.ID, "created", map[string]interface{}{
			"item_count": batch.ItemCount,
		})
	})
	if err != nil {
		return nil, err
	}

	if batch != nil {
		e.logger.Info("review batch created",
			slog.Uint64("batch_id", uint64(batch.ID)),
			slog.Int("items", batch.ItemCount),
		)
	}
	return batch, nil
}

// chooseVariant prefers a variant whose name shares a keyword family
// with the job title, else the first variant by creation order.
func chooseVariant(variants []database.CVVariant, jobTitle string) *database.CVVariant {
	title := strings.ToLower(jobTitle)
	for _, keyword := range variantKeywords {
		if !strings.Contains(title, keyword) {
			continue
		}
		for i := range variants {
			if strings.Contains(strings.ToLower(variants[i].Name), keyword) {
				return &variants[i]
			}
		}
	}
	return &variants[0]
}

func buildCVPatch(job *database.JobRecord, profile *database.CandidateProfile) database.CVPatch {
	required := make(map[string]struct{}, len(job.RequiredSkills))
	for _, skill := range job.RequiredSkills {
		required[strings.ToLower(skill)] = struct{}{}
	}

	var top []string
	for _, skill := range profile.Skills {
		if _, ok := required[strings.ToLower(skill)]; ok {
			top = append(top, skill)
		}
		if len(top) == 6 {
			break
		}
	}

	return database.CVPatch{
		SummaryUpdate:     fmt.Sprintf("Emphasize impact for %s at %s.", job.Title, job.Company),
		SkillsHighlighted: top,
		Why:               fmt.Sprintf("Matched required skills for %s and aligned achievements to job description.", job.Title),
	}
}

func coverLetter(job *database.JobRecord, profile *database.CandidateProfile) string {
	if !job.CoverLetterRequired {
		return ""
	}
	return fmt.Sprintf(
		"Dear %s team,\n\n"+
			"I am excited to apply for the %s role. "+
			"My background in %s aligns with your needs.\n\n"+
			"I would value the opportunity to discuss how I can contribute quickly.\n\n"+
			"Best regards,\n%s",
		job.Company, job.Title, strings.Join(firstN(profile.Skills, 4), ", "), profile.FullName,
	)
}

func buildOutreach(job *database.JobRecord, profile *database.CandidateProfile) database.OutreachDraft {
	companySlug := strings.ReplaceAll(strings.ToLower(job.Company), " ", "-")
	contacts := []database.Contact{
		{
			Name:       fmt.Sprintf("%s Hiring Manager", job.Company),
			Title:      fmt.Sprintf("Hiring Manager, %s", job.Title),
			ProfileURL: fmt.Sprintf("https://www.linkedin.com/company/%s", companySlug),
			Confidence: 0.74,
		},
		{
			Name:       fmt.Sprintf("%s Recruiter", job.Company),
			Title:      "Technical Recruiter",
			ProfileURL: fmt.Sprintf("https://www.linkedin.com/company/%s", companySlug),
			Confidence: 0.68,
		},
	}

	return database.OutreachDraft{
		JobID:    job.ID,
		Contacts: datatypes.NewJSONType(contacts),
		ConnectionNote: fmt.Sprintf(
			"Hi, I just applied for %s at %s. I'd love to connect and share a concise overview of my relevant experience.",
			job.Title, job.Company,
		),
		FollowUpMessage: fmt.Sprintf(
			"Thanks for connecting. I'm highly interested in %s. Happy to send a short portfolio of recent impact aligned to this role.",
			job.Title,
		),
		EmailVariant: fmt.Sprintf(
			"Subject: Interest in %s at %s\n\nHi team,\n\nI've applied for %s and wanted to share a brief intro. "+
				"I bring strong experience in %s and would welcome a conversation.\n\nRegards,\n%s",
			job.Title, job.Company, job.Title, strings.Join(firstN(profile.Skills, 4), ", "), profile.FullName,
		),
		Status: database.ReviewStatusPending,
	}
}

func firstN(values []string, n int) []string {
	if len(values) < n {
		return values
	}
	return values[:n]
}
