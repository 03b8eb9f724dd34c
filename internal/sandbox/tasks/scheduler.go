package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"tourdesk/internal/config"
	"tourdesk/internal/sandbox/services"
	console "tourdesk/internal/utils/logger"
)

// DefaultDueSpec is how often scheduled campaigns are checked
const DefaultDueSpec = "@every 1m"

// Scheduler starts due campaigns periodically
type Scheduler interface {
	Start() error
	Stop()
}

// QueueScheduler enqueues the due sweep through asynq so only one sandbox
// instance runs it per tick.
type QueueScheduler struct {
	scheduler *asynq.Scheduler
	spec      string
	logger    *console.Logger
}

func NewQueueScheduler(cfg config.RedisConfig, spec string) *QueueScheduler {
	if spec == "" {
		spec = DefaultDueSpec
	}
	return &QueueScheduler{
		scheduler: asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{Location: time.UTC}),
		spec:      spec,
		logger:    console.New("SCHEDULER"),
	}
}

func (s *QueueScheduler) Start() error {
	entryID, err := s.scheduler.Register(s.spec, NewDueSweepTask())
	if err != nil {
		return fmt.Errorf("failed to register due sweep: %w", err)
	}
	s.logger.Info("Registered %s %s (%s)", TypeCampaignsDue, s.spec, entryID)
	return s.scheduler.Start()
}

func (s *QueueScheduler) Stop() {
	s.scheduler.Shutdown()
	s.logger.Info("Task scheduler stopped")
}

// LocalScheduler runs the sweep in process when no Redis is configured
type LocalScheduler struct {
	cron      *cron.Cron
	spec      string
	campaigns *services.CampaignService
	logger    *console.Logger
}

func NewLocalScheduler(campaigns *services.CampaignService, spec string) *LocalScheduler {
	if spec == "" {
		spec = DefaultDueSpec
	}
	return &LocalScheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:      spec,
		campaigns: campaigns,
		logger:    console.New("SCHEDULER"),
	}
}

func (s *LocalScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("Checking scheduled campaigns %s", s.spec)
	return nil
}

func (s *LocalScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), TimeoutShort)
	defer cancel()
	n, err := s.campaigns.SendDue(ctx)
	if err != nil {
		s.logger.Warn("Scheduled campaign sweep failed: %v", err)
		return
	}
	if n > 0 {
		s.logger.Success("Started %d scheduled campaigns", n)
	}
}

func (s *LocalScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Task scheduler stopped")
}
