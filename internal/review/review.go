// Package review applies human (or auto-policy) decisions to a pending
// batch and derives the execution plan for its approvals.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/audit"
	"github.com/joshijeet02/Career-huntin/internal/database"
)

// Decision verbs. Anything that is not approve or reject resolves to
// DefaultDecision; so does any batch item without a decision entry.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
	DecisionDefer   = "defer"

	DefaultDecision = DecisionDefer
)

// Batch decision failure modes surfaced to the caller.
var (
	ErrBatchNotFound = errors.New("review batch not found")
	ErrBatchNotOpen  = errors.New("review batch is not open for decisions")
)

// Edits is the closed set of reviewer-editable draft fields. Nil
// fields are left untouched; set fields are applied verbatim before
// the decision takes effect.
type Edits struct {
	CoverLetter    *string           `json:"cover_letter"`
	CVPatch        *database.CVPatch `json:"cv_patch"`
	ConnectionNote *string           `json:"connection_note"`
	EmailVariant   *string           `json:"email_variant"`
}

// Decision is one reviewer verdict for one batch item.
type Decision struct {
	BatchItemID uint   `json:"batch_item_id" binding:"required"`
	Decision    string `json:"decision" binding:"required"`
	Edits       *Edits `json:"edits"`
}

// Engine decides batches.
type Engine struct {
	db *gorm.DB
}

// NewEngine constructs a review Engine.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// ApplyDecisions resolves every item of a pending batch and returns
// the resulting execution plan. The batch transitions to decided
// exactly once: the status flip is a check-and-set inside the same
// transaction that creates the plan, so a batch can never be decided
// twice even under concurrent callers. A plan is created even when
// nothing was approved.
func (e *Engine) ApplyDecisions(ctx context.Context, batchID uint, decisions []Decision) (*database.ExecutionPlan, error) {
	plan := &database.ExecutionPlan{BatchID: batchID, Status: database.PlanStatusCreated}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch database.ReviewBatch
		switch err := tx.First(&batch, batchID).Error; {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrBatchNotFound
		case err != nil:
			return fmt.Errorf("load batch: %w", err)
		}

		res := tx.Model(&database.ReviewBatch{}).
			Where("id = ? AND status = ?", batchID, database.ReviewStatusPending).
			Update("status", database.BatchStatusDecided)
		if res.Error != nil {
			return fmt.Errorf("decide batch: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrBatchNotOpen
		}

		decisionByItem := make(map[uint]Decision, len(decisions))
		for _, d := range decisions {
			decisionByItem[d.BatchItemID] = d
		}

		var items []database.ReviewBatchItem
		if err := tx.Where("batch_id = ?", batchID).Order("id ASC").Find(&items).Error; err != nil {
			return fmt.Errorf("load batch items: %w", err)
		}

		if err := tx.Create(plan).Error; err != nil {
			return fmt.Errorf("create execution plan: %w", err)
		}

		for i := range items {
			item := &items[i]
			decision, ok := decisionByItem[item.ID]
			if !ok {
				// Unreviewed items stay out of execution by default.
				if err := setItemStatus(tx, item, database.ReviewStatusDeferred, false); err != nil {
					return err
				}
				plan.DeferredCount++
				continue
			}

			if err := applyEdits(tx, item, decision.Edits); err != nil {
				return err
			}

			switch normalize(decision.Decision) {
			case DecisionApprove:
				if err := setItemStatus(tx, item, database.ReviewStatusApproved, true); err != nil {
					return err
				}
				plan.ApprovedCount++

				planItems := []database.ExecutionPlanItem{
					{
						PlanID:      plan.ID,
						BatchItemID: item.ID,
						Action:      database.ActionSubmitApplication,
						Channel:     database.ChannelJobBoard,
						Status:      database.PlanItemStatusApproved,
					},
					{
						PlanID:      plan.ID,
						BatchItemID: item.ID,
						Action:      database.ActionSendOutreach,
						Channel:     database.ChannelLinkedInEmail,
						Status:      database.PlanItemStatusApproved,
					},
				}
				if err := tx.Create(&planItems).Error; err != nil {
					return fmt.Errorf("create plan items: %w", err)
				}
			case DecisionReject:
				if err := setItemStatus(tx, item, database.ReviewStatusRejected, true); err != nil {
					return err
				}
				plan.RejectedCount++
			default:
				if err := setItemStatus(tx, item, database.ReviewStatusDeferred, true); err != nil {
					return err
				}
				plan.DeferredCount++
			}
		}

		if err := tx.Model(plan).Updates(map[string]interface{}{
			"approved_count": plan.ApprovedCount,
			"rejected_count": plan.RejectedCount,
			"deferred_count": plan.DeferredCount,
		}).Error; err != nil {
			return fmt.Errorf("update plan counts: %w", err)
		}

		return audit.Log(ctx, tx, "review_batch", batchID, "decision_applied", map[string]interface{}{
			"execution_plan_id": plan.ID,
			"approved":          plan.ApprovedCount,
			"rejected":          plan.RejectedCount,
			"deferred":          plan.DeferredCount,
		})
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func normalize(decision string) string {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case DecisionApprove:
		return DecisionApprove
	case DecisionReject:
		return DecisionReject
	default:
		return DefaultDecision
	}
}

// setItemStatus propagates the decision to the batch item and, unless
// the item was skipped entirely, to both of its drafts.
func setItemStatus(tx *gorm.DB, item *database.ReviewBatchItem, status string, propagate bool) error {
	if err := tx.Model(&database.ReviewBatchItem{}).Where("id = ?", item.ID).Update("status", status).Error; err != nil {
		return fmt.Errorf("update batch item status: %w", err)
	}
	item.Status = status
	if !propagate {
		return nil
	}
	if err := tx.Model(&database.ApplicationDraft{}).Where("id = ?", item.ApplicationDraftID).Update("status", status).Error; err != nil {
		return fmt.Errorf("update application draft status: %w", err)
	}
	if err := tx.Model(&database.OutreachDraft{}).Where("id = ?", item.OutreachDraftID).Update("status", status).Error; err != nil {
		return fmt.Errorf("update outreach draft status: %w", err)
	}
	return nil
}

func applyEdits(tx *gorm.DB, item *database.ReviewBatchItem, edits *Edits) error {
	if edits == nil {
		return nil
	}

	if edits.CoverLetter != nil || edits.CVPatch != nil {
		updates := map[string]interface{}{}
		if edits.CoverLetter != nil {
			updates["cover_letter"] = *edits.CoverLetter
		}
		if edits.CVPatch != nil {
			updates["cv_patch"] = datatypes.NewJSONType(*edits.CVPatch)
		}
		if err := tx.Model(&database.ApplicationDraft{}).Where("id = ?", item.ApplicationDraftID).Updates(updates).Error; err != nil {
			return fmt.Errorf("apply application edits: %w", err)
		}
	}

	if edits.ConnectionNote != nil || edits.EmailVariant != nil {
		updates := map[string]interface{}{}
		if edits.ConnectionNote != nil {
			updates["connection_note"] = *edits.ConnectionNote
		}
		if edits.EmailVariant != nil {
			updates["email_variant"] = *edits.EmailVariant
		}
		if err := tx.Model(&database.OutreachDraft{}).Where("id = ?", item.OutreachDraftID).Updates(updates).Error; err != nil {
			return fmt.Errorf("apply outreach edits: %w", err)
		}
	}

	return nil
}
