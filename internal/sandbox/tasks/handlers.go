package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"tourdesk/internal/sandbox/services"
	"tourdesk/internal/sandbox/tasks/rate"
	console "tourdesk/internal/utils/logger"
)

// errRateLimited is retried after the limiter window and does not count as a failure
type errRateLimited struct {
	retryIn time.Duration
}

func (e *errRateLimited) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.retryIn)
}

func isRateLimited(err error) (*errRateLimited, bool) {
	var rl *errRateLimited
	ok := errors.As(err, &rl)
	return rl, ok
}

// TaskHandler runs campaign work pulled off the queue
type TaskHandler struct {
	campaigns *services.CampaignService
	limiter   *rate.QueueRateLimiter
	logger    *console.Logger
}

// NewTaskHandler creates a handler; limiter may be nil to deliver unthrottled
func NewTaskHandler(campaigns *services.CampaignService, limiter *rate.QueueRateLimiter) *TaskHandler {
	return &TaskHandler{
		campaigns: campaigns,
		limiter:   limiter,
		logger:    console.New("TASK-HANDLER"),
	}
}

func (h *TaskHandler) HandleCampaignDeliver(ctx context.Context, t *asynq.Task) error {
	p, err := parseCampaignPayload(t)
	if err != nil {
		return err
	}

	if h.limiter != nil {
		ok, err := h.limiter.Allow(ctx, "deliver")
		if err != nil {
			h.logger.Warn("Rate limiter unavailable, delivering anyway: %v", err)
		} else if !ok {
			return &errRateLimited{retryIn: h.limiter.Window()}
		}
	}

	h.logger.Info("Delivering campaign #%d", p.EmailID)
	if err := h.campaigns.Deliver(ctx, p.EmailID); err != nil {
		return h.logger.Error("Failed to deliver campaign #%d", err, p.EmailID)
	}
	return nil
}

func (h *TaskHandler) HandleCampaignsDue(ctx context.Context, t *asynq.Task) error {
	n, err := h.campaigns.SendDue(ctx)
	if err != nil {
		return h.logger.Error("Failed to sweep scheduled campaigns", err)
	}
	if n > 0 {
		h.logger.Success("Started %d scheduled campaigns", n)
	}
	return nil
}

// Mux routes every task type to its handler
func (h *TaskHandler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCampaignDeliver, h.HandleCampaignDeliver)
	mux.HandleFunc(TypeCampaignsDue, h.HandleCampaignsDue)
	return mux
}
