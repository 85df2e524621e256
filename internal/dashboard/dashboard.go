// Package dashboard assembles the read-only operator view: KPIs,
// status histogram, recent activity and target highlights.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/database"
)

const previewLimit = 12

// highSignalSources mark boards whose postings are worth surfacing even
// without a keyword hit, provided the score is high enough.
var highSignalSources = map[string]bool{
	"venture_capital_careers": true,
	"wellfound":               true,
	"yc_jobs":                 true,
	"company_site":            true,
	"imf":                     true,
	"world_bank":              true,
	"un":                      true,
	"adb":                     true,
}

// Filters narrow the job set the dashboard aggregates over. Empty
// fields match everything.
type Filters struct {
	Source     string
	Geography  string
	RoleFamily string
	Status     string
}

// EventView is one row of the recent activity feed.
type EventView struct {
	CreatedAt    string `json:"created_at"`
	Company      string `json:"company"`
	Title        string `json:"title"`
	EventType    string `json:"event_type"`
	Channel      string `json:"channel"`
	Status       string `json:"status"`
	Attempt      int    `json:"attempt"`
	ErrorMessage string `json:"error_message"`
}

// FollowUpView is one pending follow-up row.
type FollowUpView struct {
	DueAt   string `json:"due_at"`
	Company string `json:"company"`
	Title   string `json:"title"`
	Channel string `json:"channel"`
	Status  string `json:"status"`
}

// JobView is one job row of the queue preview or top-target list.
type JobView struct {
	JobID    uint    `json:"job_id"`
	Company  string  `json:"company"`
	Title    string  `json:"title"`
	Location string  `json:"location"`
	Score    float64 `json:"score"`
	Source   string  `json:"source"`
	Status   string  `json:"status"`
	ApplyURL string  `json:"apply_url"`
}

// Data is the full dashboard payload.
type Data struct {
	KPIs            map[string]int64 `json:"kpis"`
	JobStatusCounts map[string]int64 `json:"job_status_counts"`
	RecentEvents    []EventView      `json:"recent_events"`
	FollowUps       []FollowUpView   `json:"followups"`
	QueuePreview    []JobView        `json:"queue_preview"`
	TopTargets      []JobView        `json:"top_targets"`
}

// Collect builds the dashboard payload for the given filters.
func Collect(ctx context.Context, db *gorm.DB, filters Filters) (*Data, error) {
	tx := db.WithContext(ctx)

	var jobs []database.JobRecord
	if err := tx.Order("relevance_score DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}

	filtered := make([]database.JobRecord, 0, len(jobs))
	filteredIDs := make(map[uint]bool)
	for _, job := range jobs {
		if !matchesFilters(&job, filters) {
			continue
		}
		filtered = append(filtered, job)
		filteredIDs[job.ID] = true
	}

	kpis, err := collectKPIs(tx, filtered, filteredIDs)
	if err != nil {
		return nil, err
	}

	statusCounts := make(map[string]int64)
	for _, job := range filtered {
		statusCounts[job.Status]++
	}

	recentEvents, err := collectRecentEvents(tx, filteredIDs)
	if err != nil {
		return nil, err
	}

	followUps, err := collectFollowUps(tx, filteredIDs)
	if err != nil {
		return nil, err
	}

	queuePreview, err := collectQueuePreview(tx, filteredIDs)
	if err != nil {
		return nil, err
	}

	topTargets := make([]JobView, 0)
	for _, job := range filtered {
		if !isTopTarget(&job) {
			continue
		}
		topTargets = append(topTargets, jobView(&job, job.Status))
	}
	sort.SliceStable(topTargets, func(i, j int) bool {
		return topTargets[i].Score > topTargets[j].Score
	})
	if len(topTargets) > previewLimit {
		topTargets = topTargets[:previewLimit]
	}

	return &Data{
		KPIs:            kpis,
		JobStatusCounts: statusCounts,
		RecentEvents:    recentEvents,
		FollowUps:       followUps,
		QueuePreview:    queuePreview,
		TopTargets:      topTargets,
	}, nil
}

func matchesFilters(job *database.JobRecord, filters Filters) bool {
	if filters.Source != "" && !strings.EqualFold(job.Source, filters.Source) {
		return false
	}
	if filters.Geography != "" &&
		!strings.Contains(strings.ToLower(job.Location), strings.ToLower(filters.Geography)) {
		return false
	}
	if filters.Status != "" && !strings.EqualFold(job.Status, filters.Status) {
		return false
	}
	return matchesRoleFamily(job, filters.RoleFamily)
}

func matchesRoleFamily(job *database.JobRecord, roleFamily string) bool {
	rf := strings.ToLower(strings.TrimSpace(roleFamily))
	if rf == "" {
		return true
	}
	text := strings.ToLower(job.Title + " " + job.Description)
	switch rf {
	case "vc":
		return strings.Contains(text, "venture") ||
			strings.Contains(text, "investment") ||
			strings.Contains(text, "vc")
	case "consulting":
		return strings.Contains(text, "consult") ||
			strings.Contains(text, "advisory") ||
			strings.Contains(text, "strategy")
	case "economics_ai":
		return (strings.Contains(text, "econom") || strings.Contains(text, "policy")) &&
			(strings.Contains(text, "ai") ||
				strings.Contains(text, "llm") ||
				strings.Contains(text, "automation"))
	default:
		return strings.Contains(text, rf)
	}
}

// isTopTarget flags the jobs worth a manual look: a VC, consulting or
// AI-economics keyword hit, or a high-signal source scoring 70+.
func isTopTarget(job *database.JobRecord) bool {
	text := strings.ToLower(job.Title + " " + job.Description)
	vc := strings.Contains(text, "venture") ||
		strings.Contains(text, "investment") ||
		strings.Contains(text, "vc")
	consulting := strings.Contains(text, "consult") ||
		strings.Contains(text, "advisory") ||
		strings.Contains(text, "strategy")
	aiEcon := (strings.Contains(text, "econom") || strings.Contains(text, "policy")) &&
		(strings.Contains(text, "ai") ||
			strings.Contains(text, "automation") ||
			strings.Contains(text, "llm"))
	return vc || consulting || aiEcon ||
		(highSignalSources[job.Source] && job.RelevanceScore >= 70)
}

func collectKPIs(tx *gorm.DB, filtered []database.JobRecord, filteredIDs map[uint]bool) (map[string]int64, error) {
	applied := int64(0)
	for _, job := range filtered {
		if job.Status == database.JobStatusApplied || job.Status == database.JobStatusOutreachSent {
			applied++
		}
	}

	ids := make([]uint, 0, len(filteredIDs))
	for id := range filteredIDs {
		ids = append(ids, id)
	}

	pendingItems, pendingFollowUps := int64(0), int64(0)
	if len(ids) > 0 {
		if err := tx.Model(&database.ReviewBatchItem{}).
			Where("status = ? AND job_id IN ?", database.ReviewStatusPending, ids).
			Count(&pendingItems).Error; err != nil {
			return nil, fmt.Errorf("count pending review items: %w", err)
		}
		if err := tx.Model(&database.FollowUpTask{}).
			Where("status = ? AND job_id IN ?", database.FollowUpStatusPending, ids).
			Count(&pendingFollowUps).Error; err != nil {
			return nil, fmt.Errorf("count pending follow-ups: %w", err)
		}
	}

	var activeBatches int64
	if err := tx.Model(&database.ReviewBatch{}).
		Where("status = ?", database.ReviewStatusPending).
		Count(&activeBatches).Error; err != nil {
		return nil, fmt.Errorf("count active batches: %w", err)
	}

	return map[string]int64{
		"total_jobs":           int64(len(filtered)),
		"applied_jobs":         applied,
		"pending_review_items": pendingItems,
		"pending_followups":    pendingFollowUps,
		"active_batches":       activeBatches,
	}, nil
}

func collectRecentEvents(tx *gorm.DB, filteredIDs map[uint]bool) ([]EventView, error) {
	var events []database.ExecutionEvent
	if err := tx.Order("created_at DESC, id DESC").
		Limit(previewLimit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("load recent events: %w", err)
	}

	views := make([]EventView, 0, len(events))
	for i := range events {
		event := &events[i]
		if len(filteredIDs) > 0 && !filteredIDs[event.JobID] {
			continue
		}
		company, title := jobIdentity(tx, event.JobID)
		views = append(views, EventView{
			CreatedAt:    event.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Company:      company,
			Title:        title,
			EventType:    event.EventType,
			Channel:      event.Channel,
			Status:       event.Status,
			Attempt:      event.Attempt,
			ErrorMessage: event.ErrorMessage,
		})
	}
	return views, nil
}

func collectFollowUps(tx *gorm.DB, filteredIDs map[uint]bool) ([]FollowUpView, error) {
	var rows []database.FollowUpTask
	if err := tx.Where("status = ?", database.FollowUpStatusPending).
		Order("due_at ASC").
		Limit(previewLimit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load pending follow-ups: %w", err)
	}

	views := make([]FollowUpView, 0, len(rows))
	for _, row := range rows {
		if len(filteredIDs) > 0 && !filteredIDs[row.JobID] {
			continue
		}
		company, title := jobIdentity(tx, row.JobID)
		views = append(views, FollowUpView{
			DueAt:   row.DueAt.UTC().Format("2006-01-02T15:04:05Z"),
			Company: company,
			Title:   title,
			Channel: row.Channel,
			Status:  row.Status,
		})
	}
	return views, nil
}

func collectQueuePreview(tx *gorm.DB, filteredIDs map[uint]bool) ([]JobView, error) {
	var items []database.ReviewBatchItem
	if err := tx.Where("status = ?", database.ReviewStatusPending).
		Order("priority_score DESC").
		Limit(previewLimit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load queue preview: %w", err)
	}

	views := make([]JobView, 0, len(items))
	for _, item := range items {
		var job database.JobRecord
		if err := tx.First(&job, item.JobID).Error; err != nil {
			continue
		}
		if len(filteredIDs) > 0 && !filteredIDs[job.ID] {
			continue
		}
		views = append(views, jobView(&job, item.Status))
	}
	return views, nil
}

func jobView(job *database.JobRecord, status string) JobView {
	return JobView{
		JobID:    job.ID,
		Company:  job.Company,
		Title:    job.Title,
		Location: job.Location,
		Score:    job.RelevanceScore,
		Source:   job.Source,
		Status:   status,
		ApplyURL: job.ApplyURL,
	}
}

func jobIdentity(tx *gorm.DB, jobID uint) (string, string) {
	var job database.JobRecord
	if err := tx.First(&job, jobID).Error; err != nil {
		return "", ""
	}
	return job.Company, job.Title
}
