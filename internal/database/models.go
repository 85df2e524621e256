package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job lifecycle statuses. A blocked job is terminal; outreach_sent may
// still receive follow-ups.
const (
	JobStatusNew           = "new"
	JobStatusBlocked       = "blocked"
	JobStatusPendingReview = "pending_review"
	JobStatusApplied       = "applied"
	JobStatusOutreachSent  = "outreach_sent"
)

// Review statuses shared by batches, batch items and drafts.
const (
	ReviewStatusPending  = "pending_review"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
	ReviewStatusDeferred = "deferred"
	BatchStatusDecided   = "decided"
)

// Execution plan and plan item statuses.
const (
	PlanStatusCreated   = "created"
	PlanStatusCompleted = "completed"

	PlanItemStatusApproved = "approved"
	PlanItemStatusSuccess  = "success"
	PlanItemStatusFailed   = "failed"
	PlanItemStatusBlocked  = "blocked"
)

// Plan item actions and channels.
const (
	ActionSubmitApplication = "submit_application"
	ActionSendOutreach      = "send_outreach"

	ChannelJobBoard      = "job_board"
	ChannelLinkedInEmail = "linkedin_email"
)

// Execution event types and statuses. Reply, interview and offer events
// are recorded by external processes, never by the execution engine.
const (
	EventTypeApplication = "application"
	EventTypeOutreach    = "outreach"
	EventTypeReply       = "reply"
	EventTypeInterview   = "interview"
	EventTypeOffer       = "offer"

	EventStatusSuccess  = "success"
	EventStatusRetrying = "retrying"
	EventStatusFailed   = "failed"
	EventStatusBlocked  = "blocked"
)

// FollowUpStatusPending is the only status this system writes; task
// completion belongs to an external process.
const FollowUpStatusPending = "pending"

// CandidateProfile is an immutable, versioned snapshot of the candidate.
// Each ingest creates the next version; only the highest version is
// considered active.
type CandidateProfile struct {
	gorm.Model
	Version      int    `gorm:"index;not null"`
	FullName     string `gorm:"size:255;not null"`
	Email        string `gorm:"size:255;not null"`
	Skills       datatypes.JSONSlice[string]
	Achievements datatypes.JSONSlice[string]
	Preferences  datatypes.JSONMap
	RawProfile   datatypes.JSONMap
}

// CVVariant is a named CV content blob scoped to one profile version.
type CVVariant struct {
	gorm.Model
	ProfileVersion int    `gorm:"index;not null"`
	Name           string `gorm:"size:255;not null"`
	Metadata       datatypes.JSONMap
	Content        string `gorm:"type:text;not null"`
}

// TargetingPolicy holds suppression lists, filters and per-action daily
// rate limits for one profile version.
type TargetingPolicy struct {
	gorm.Model
	ProfileVersion        int `gorm:"index;not null"`
	RoleFamilies          datatypes.JSONSlice[string]
	Geos                  datatypes.JSONSlice[string]
	Seniority             datatypes.JSONSlice[string]
	Compensation          datatypes.JSONMap
	MustHave              datatypes.JSONSlice[string]
	Avoid                 datatypes.JSONSlice[string]
	SuppressionCompanies  datatypes.JSONSlice[string]
	SuppressionDomains    datatypes.JSONSlice[string]
	ApplicationDailyLimit int `gorm:"default:40"`
	OutreachDailyLimit    int `gorm:"default:40"`
}

// JobRecord is one discovered posting. The fingerprint uniquely
// identifies a posting across sources and carries the dedup guarantee
// down to the store as a unique index.
type JobRecord struct {
	gorm.Model
	Source              string `gorm:"size:100;not null"`
	SourceJobID         string `gorm:"size:255;not null"`
	Company             string `gorm:"size:255;not null;index"`
	Title               string `gorm:"size:255;not null;index"`
	Location            string `gorm:"size:255;not null"`
	ApplyURL            string `gorm:"size:1000;not null"`
	Description         string `gorm:"type:text;not null"`
	RequiredSkills      datatypes.JSONSlice[string]
	CoverLetterRequired bool
	Fingerprint         string  `gorm:"size:64;not null;uniqueIndex"`
	RelevanceScore      float64 `gorm:"not null;default:0"`
	Status              string  `gorm:"size:64;not null;default:new;index"`
	RawData             datatypes.JSONMap
}

// DiscoveryRun records the counters of one discovery invocation.
type DiscoveryRun struct {
	gorm.Model
	SourceConfigID  string `gorm:"size:255;not null"`
	DiscoveredCount int
	DedupedCount    int
}

// CVPatch is the structured application-draft edit applied on top of
// the selected CV variant.
type CVPatch struct {
	SummaryUpdate     string   `json:"summary_update"`
	SkillsHighlighted []string `json:"skills_highlighted"`
	Why               string   `json:"why"`
}

// ApplicationDraft pairs a job with a CV variant plus patch. An empty
// cover letter means the job did not require one.
type ApplicationDraft struct {
	gorm.Model
	JobID          uint `gorm:"index"`
	ProfileVersion int  `gorm:"index;not null"`
	CVVariantID    uint `gorm:"index"`
	CVPatch        datatypes.JSONType[CVPatch]
	CVContent      string `gorm:"type:text;not null"`
	CoverLetter    string `gorm:"type:text"`
	Status         string `gorm:"size:64;not null;default:pending_review;index"`
}

// Contact is one synthetic outreach target.
type Contact struct {
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	ProfileURL string  `json:"profile_url"`
	Confidence float64 `json:"confidence"`
}

// OutreachDraft holds the contact list and message variants for a job.
type OutreachDraft struct {
	gorm.Model
	JobID           uint `gorm:"index"`
	Contacts        datatypes.JSONType[[]Contact]
	ConnectionNote  string `gorm:"type:text;not null"`
	FollowUpMessage string `gorm:"type:text;not null"`
	EmailVariant    string `gorm:"type:text;not null"`
	Status          string `gorm:"size:64;not null;default:pending_review;index"`
}

// ReviewBatch groups drafted jobs for one review pass. The
// pending_review -> decided transition is one-way; a batch is never
// reopened.
type ReviewBatch struct {
	gorm.Model
	Status    string `gorm:"size:64;not null;default:pending_review;index"`
	GroupedBy string `gorm:"size:64;default:company_priority"`
	ItemCount int
}

// ReviewBatchItem links one job and its draft pair to a batch.
// PriorityScore is a copy of the job relevance at batch time.
type ReviewBatchItem struct {
	gorm.Model
	BatchID            uint   `gorm:"index"`
	ApplicationDraftID uint   `gorm:"index"`
	OutreachDraftID    uint   `gorm:"index"`
	JobID              uint   `gorm:"index"`
	Status             string `gorm:"size:64;not null;default:pending_review;index"`
	PriorityScore      float64
}

// ExecutionPlan aggregates the decisions of one decided batch.
type ExecutionPlan struct {
	gorm.Model
	BatchID       uint   `gorm:"index"`
	Status        string `gorm:"size:64;not null;default:created;index"`
	ApprovedCount int
	RejectedCount int
	DeferredCount int
}

// ExecutionPlanItem is one concrete action derived from an approved
// batch item.
type ExecutionPlanItem struct {
	gorm.Model
	PlanID      uint   `gorm:"index"`
	BatchItemID uint   `gorm:"index"`
	Action      string `gorm:"size:64;not null"`
	Channel     string `gorm:"size:64;not null"`
	Status      string `gorm:"size:64;default:approved"`
}

// ExecutionEvent is the append-only audit trail of every execution
// attempt, including retries. Events are never updated or deleted.
type ExecutionEvent struct {
	gorm.Model
	PlanID       uint   `gorm:"index"`
	PlanItemID   uint   `gorm:"index"`
	JobID        uint   `gorm:"index"`
	EventType    string `gorm:"size:64;not null;index"`
	Channel      string `gorm:"size:64;not null"`
	Status       string `gorm:"size:64;not null;index"`
	Attempt      int    `gorm:"default:1"`
	ErrorMessage string `gorm:"type:text"`
}

// FollowUpTask is a deferred reminder created after successful
// outreach, unique per (job, outreach draft) while pending.
type FollowUpTask struct {
	gorm.Model
	JobID           uint      `gorm:"index"`
	OutreachDraftID uint      `gorm:"index"`
	DueAt           time.Time `gorm:"not null;index"`
	Channel         string    `gorm:"size:64;not null;default:linkedin_email"`
	Status          string    `gorm:"size:64;not null;default:pending;index"`
}

// AuditLog is a generic append-only side channel; pipeline logic never
// reads it back.
type AuditLog struct {
	gorm.Model
	EntityType string `gorm:"size:64;not null;index"`
	EntityID   uint   `gorm:"not null;index"`
	Action     string `gorm:"size:128;not null;index"`
	Details    datatypes.JSONMap
}

// Migrate creates or updates the schema for every pipeline entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CandidateProfile{},
		&CVVariant{},
		&TargetingPolicy{},
		&JobRecord{},
		&DiscoveryRun{},
		&ApplicationDraft{},
		&OutreachDraft{},
		&ReviewBatch{},
		&ReviewBatchItem{},
		&ExecutionPlan{},
		&ExecutionPlanItem{},
		&ExecutionEvent{},
		&FollowUpTask{},
		&AuditLog{},
	)
}
