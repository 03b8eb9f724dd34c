package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeCampaignDeliver = "campaign:deliver"
	TypeCampaignsDue    = "campaign:due"
)

// Task queues
const (
	QueueCritical = "critical" // campaign delivery
	QueueDefault  = "default"
	QueueLow      = "low" // periodic sweeps
)

// Task timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
	TimeoutLong   = 30 * time.Minute
)

// Task retry settings
const (
	RetryMax     = 5
	RetryDefault = 3
	RetryMin     = 1
)

type CampaignPayload struct {
	EmailID uint64 `json:"email_id"`
}

func NewCampaignTask(emailID uint64) (*asynq.Task, error) {
	payload, err := json.Marshal(CampaignPayload{EmailID: emailID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCampaignDeliver, payload,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(RetryDefault),
		asynq.Timeout(TimeoutMedium),
	), nil
}

func NewDueSweepTask() *asynq.Task {
	return asynq.NewTask(TypeCampaignsDue, nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(RetryMin),
		asynq.Timeout(TimeoutShort),
	)
}

func parseCampaignPayload(t *asynq.Task) (CampaignPayload, error) {
	var p CampaignPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if p.EmailID == 0 {
		return p, fmt.Errorf("%s payload has no email id: %w", t.Type(), asynq.SkipRetry)
	}
	return p, nil
}
