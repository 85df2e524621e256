package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/api/middleware"
	"github.com/joshijeet02/Career-huntin/internal/audit"
	"github.com/joshijeet02/Career-huntin/internal/database"
	"github.com/joshijeet02/Career-huntin/internal/discovery"
	"github.com/joshijeet02/Career-huntin/internal/drafting"
)

// JobsHandler exposes discovery and the review queue.
type JobsHandler struct {
	db        *gorm.DB
	discovery *discovery.Engine
	drafting  *drafting.Engine
}

// NewJobsHandler creates the handler.
func NewJobsHandler(db *gorm.DB, discoveryEngine *discovery.Engine, draftingEngine *drafting.Engine) *JobsHandler {
	return &JobsHandler{db: db, discovery: discoveryEngine, drafting: draftingEngine}
}

// DiscoverRequest names the source configuration to pull from.
type DiscoverRequest struct {
	SourceConfigID string `json:"source_config_id" binding:"required"`
}

// Discover runs one discovery pass and drafts the newly found jobs
// into a review batch.
func (h *JobsHandler) Discover(c *gin.Context) {
	var req DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	log := middleware.LoggerFromContext(c)
	ctx := c.Request.Context()

	run, err := h.discovery.Run(ctx, req.SourceConfigID)
	if err != nil {
		log.Error("discovery run failed", slog.Any("error", err))
		Internal(c, "discovery failed")
		return
	}

	batch, err := h.drafting.BuildBatch(ctx)
	if err != nil {
		log.Error("drafting failed", slog.Any("error", err))
		Internal(c, "drafting failed")
		return
	}
	if batch != nil {
		if err := audit.Log(ctx, h.db, "review_batch", batch.ID, "queued", map[string]interface{}{
			"from_run_id": run.ID,
		}); err != nil {
			log.Error("audit write failed", slog.Any("error", err))
			Internal(c, "drafting failed")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":           run.ID,
		"discovered_count": run.DiscoveredCount - run.DedupedCount,
	})
}

// QueueContact mirrors one outreach contact in queue responses.
type QueueContact struct {
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	ProfileURL string  `json:"profile_url"`
	Confidence float64 `json:"confidence"`
}

// QueueItem is one reviewable job with both drafts inlined.
type QueueItem struct {
	BatchItemID        uint             `json:"batch_item_id"`
	JobID              uint             `json:"job_id"`
	Company            string           `json:"company"`
	Title              string           `json:"title"`
	Location           string           `json:"location"`
	RelevanceScore     float64          `json:"relevance_score"`
	ApplicationDraftID uint             `json:"application_draft_id"`
	CVPatch            database.CVPatch `json:"cv_patch"`
	CoverLetter        string           `json:"cover_letter"`
	OutreachDraftID    uint             `json:"outreach_draft_id"`
	Contacts           []QueueContact   `json:"contacts"`
	ConnectionNote     string           `json:"connection_note"`
	FollowUpMessage    string           `json:"follow_up_message"`
	EmailVariant       string           `json:"email_variant"`
	Status             string           `json:"status"`
}

// QueueBatch is one review batch with its items ordered by priority.
type QueueBatch struct {
	BatchID   uint        `json:"batch_id"`
	Status    string      `json:"status"`
	GroupedBy string      `json:"grouped_by"`
	ItemCount int         `json:"item_count"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []QueueItem `json:"items"`
}

// Queue lists review batches by status, newest first, with items
// ordered by priority score.
func (h *JobsHandler) Queue(c *gin.Context) {
	status := c.DefaultQuery("status", database.ReviewStatusPending)
	ctx := c.Request.Context()
	db := h.db.WithContext(ctx)

	var batches []database.ReviewBatch
	if err := db.Where("status = ?", status).Order("created_at DESC").Find(&batches).Error; err != nil {
		middleware.LoggerFromContext(c).Error("load batches failed", slog.Any("error", err))
		Internal(c, "failed to load queue")
		return
	}

	out := make([]QueueBatch, 0, len(batches))
	for _, batch := range batches {
		var items []database.ReviewBatchItem
		if err := db.Where("batch_id = ?", batch.ID).
			Order("priority_score DESC").
			Find(&items).Error; err != nil {
			middleware.LoggerFromContext(c).Error("load batch items failed", slog.Any("error", err))
			Internal(c, "failed to load queue")
			return
		}

		queueItems := make([]QueueItem, 0, len(items))
		for _, item := range items {
			queueItem, ok := h.buildQueueItem(db, item)
			if !ok {
				continue
			}
			queueItems = append(queueItems, queueItem)
		}

		out = append(out, QueueBatch{
			BatchID:   batch.ID,
			Status:    batch.Status,
			GroupedBy: batch.GroupedBy,
			ItemCount: batch.ItemCount,
			CreatedAt: batch.CreatedAt,
			Items:     queueItems,
		})
	}

	c.JSON(http.StatusOK, out)
}

// buildQueueItem inlines the drafts of one batch item. Items with
// missing drafts or jobs are skipped rather than failing the listing.
func (h *JobsHandler) buildQueueItem(db *gorm.DB, item database.ReviewBatchItem) (QueueItem, bool) {
	var appDraft database.ApplicationDraft
	var outreach database.OutreachDraft
	var job database.JobRecord
	for _, load := range []error{
		db.First(&appDraft, item.ApplicationDraftID).Error,
		db.First(&outreach, item.OutreachDraftID).Error,
		db.First(&job, item.JobID).Error,
	} {
		if errors.Is(load, gorm.ErrRecordNotFound) {
			return QueueItem{}, false
		}
		if load != nil {
			return QueueItem{}, false
		}
	}

	contacts := make([]QueueContact, 0)
	for _, contact := range outreach.Contacts.Data() {
		contacts = append(contacts, QueueContact(contact))
	}

	return QueueItem{
		BatchItemID:        item.ID,
		JobID:              job.ID,
		Company:            job.Company,
		Title:              job.Title,
		Location:           job.Location,
		RelevanceScore:     job.RelevanceScore,
		ApplicationDraftID: appDraft.ID,
		CVPatch:            appDraft.CVPatch.Data(),
		CoverLetter:        appDraft.CoverLetter,
		OutreachDraftID:    outreach.ID,
		Contacts:           contacts,
		ConnectionNote:     outreach.ConnectionNote,
		FollowUpMessage:    outreach.FollowUpMessage,
		EmailVariant:       outreach.EmailVariant,
		Status:             item.Status,
	}, true
}
