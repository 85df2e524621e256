// Package compliance gates every plan item immediately before
// execution: suppression lists, rate limits, message uniqueness and
// draft completeness. Checks are ordered and the first failure wins.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/config"
	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/profiles"
)

const defaultDailyLimit = 40

// uniquenessThreshold is the global anti-spam ceiling on byte-identical
// connection notes across all outreach drafts, not just one batch.
const uniquenessThreshold = 10

// Gate evaluates pre-execution policy checks.
type Gate struct {
	db    *gorm.DB
	prefs config.PipelineConfig
	// now is swappable for tests of the daily rate window.
	now func() time.Time
}

// NewGate constructs a Gate.
func NewGate(db *gorm.DB, prefs config.PipelineConfig) *Gate {
	return &Gate{db: db, prefs: prefs, now: time.Now}
}

// Check runs the ordered checks for one batch item and action. A policy
// block returns (false, reason) and a nil error; a non-nil error means
// the store failed, not that the item was blocked.
func (g *Gate) Check(ctx context.Context, batchItemID uint, action string) (bool, string, error) {
	db := g.db.WithContext(ctx)

	var item database.ReviewBatchItem
	switch err := db.First(&item, batchItemID).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, "Review item not found", nil
	case err != nil:
		return false, "", fmt.Errorf("load batch item: %w", err)
	}

	var job database.JobRecord
	switch err := db.First(&job, item.JobID).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, "Job not found", nil
	case err != nil:
		return false, "", fmt.Errorf("load job: %w", err)
	}

	_, policy, err := profiles.Active(ctx, db)
	if err != nil {
		return false, "", err
	}

	applicationLimit, outreachLimit := defaultDailyLimit, defaultDailyLimit
	if policy != nil {
		if blocked, reason := suppressed(&job, policy); blocked {
			return false, reason, nil
		}
		applicationLimit = policy.ApplicationDailyLimit
		outreachLimit = policy.OutreachDailyLimit
	}

	eventType, limit := database.EventTypeApplication, applicationLimit
	if action == database.ActionSendOutreach {
		eventType, limit = database.EventTypeOutreach, outreachLimit
	}
	count, err := g.successCount(ctx, eventType)
	if err != nil {
		return false, "", err
	}
	if count >= int64(limit) {
		return false, fmt.Sprintf("Rate limit exceeded for %s", eventType), nil
	}

	if action == database.ActionSendOutreach {
		var outreach database.OutreachDraft
		switch err := db.First(&outreach, item.OutreachDraftID).Error; {
		case err == nil:
			var identical int64
			if err := db.Model(&database.OutreachDraft{}).
				Where("connection_note = ?", outreach.ConnectionNote).
				Count(&identical).Error; err != nil {
				return false, "", fmt.Errorf("count identical notes: %w", err)
			}
			if identical > uniquenessThreshold {
				return false, "Message uniqueness guard triggered", nil
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return false, "", fmt.Errorf("load outreach draft: %w", err)
		}
	}

	if action == database.ActionSubmitApplication {
		var draft database.ApplicationDraft
		switch err := db.First(&draft, item.ApplicationDraftID).Error; {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return false, "Application draft missing", nil
		case err != nil:
			return false, "", fmt.Errorf("load application draft: %w", err)
		}
		if strings.TrimSpace(draft.CVContent) == "" {
			return false, "Missing CV content", nil
		}
	}

	return true, "", nil
}

// suppressed checks the policy suppression lists: exact company match,
// then domain substring against the apply URL host.
func suppressed(job *database.JobRecord, policy *database.TargetingPolicy) (bool, string) {
	company := strings.ToLower(job.Company)
	for _, name := range policy.SuppressionCompanies {
		if company == strings.ToLower(name) {
			return true, "Company is suppressed"
		}
	}

	host := ""
	if u, err := url.Parse(job.ApplyURL); err == nil {
		host = strings.ToLower(u.Host)
	}
	for _, domain := range policy.SuppressionDomains {
		if domain != "" && strings.Contains(host, strings.ToLower(domain)) {
			return true, "Domain is suppressed"
		}
	}

	return false, ""
}

// successCount counts successful events of one type inside the
// configured rate window. The daily window uses the current UTC day;
// all_time keeps the pre-migration behavior of counting everything.
func (g *Gate) successCount(ctx context.Context, eventType string) (int64, error) {
	query := g.db.WithContext(ctx).Model(&database.ExecutionEvent{}).
		Where("event_type = ? AND status = ?", eventType, database.EventStatusSuccess)

	if g.prefs.RateLimitWindow != config.RateLimitWindowAllTime {
		now := g.now().UTC()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		query = query.Where("created_at >= ?", dayStart)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s successes: %w", eventType, err)
	}
	return count, nil
}
