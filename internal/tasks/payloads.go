package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants keep queue producers and consumers in sync.
const (
	TypeFollowUpDue = "followup:due"
	TypeDailyCycle  = "pipeline:daily-cycle"
)

// FollowUpDuePayload identifies the follow-up task that has come due.
type FollowUpDuePayload struct {
	FollowUpTaskID uint `json:"follow_up_task_id"`
}

// NewFollowUpDueTask builds the queue task fired when a scheduled
// follow-up reaches its due time.
func NewFollowUpDueTask(id uint) (*asynq.Task, error) {
	payload, err := json.Marshal(FollowUpDuePayload{FollowUpTaskID: id})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeFollowUpDue, payload), nil
}

// NewDailyCycleTask builds the scheduled task that runs one full
// discovery-to-tracking cycle.
func NewDailyCycleTask() *asynq.Task {
	return asynq.NewTask(TypeDailyCycle, nil)
}
