package tasks

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"tourdesk/internal/config"
	console "tourdesk/internal/utils/logger"
)

const concurrency = 10

var queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// Server processes queued tasks
type Server struct {
	server  *asynq.Server
	handler *TaskHandler
	logger  *console.Logger
}

func retryDelay(n int, err error, t *asynq.Task) time.Duration {
	if rl, ok := isRateLimited(err); ok {
		return rl.retryIn
	}
	return asynq.DefaultRetryDelayFunc(n, err, t)
}

func isFailure(err error) bool {
	_, limited := isRateLimited(err)
	return !limited
}

func NewServer(cfg config.RedisConfig, handler *TaskHandler) *Server {
	server := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency:    concurrency,
		Queues:         queues,
		StrictPriority: true,
		RetryDelayFunc: retryDelay,
		IsFailure:      isFailure,
	})

	return &Server{
		server:  server,
		handler: handler,
		logger:  console.New("TASK-SERVER"),
	}
}

// Start starts processing in the background
func (s *Server) Start() error {
	s.logger.Info("Starting task server concurrency %d queues %v", concurrency, queues)
	if err := s.server.Start(s.handler.Mux()); err != nil {
		return fmt.Errorf("failed to start task server: %w", err)
	}
	return nil
}

// Shutdown waits for running tasks, then stops
func (s *Server) Shutdown() {
	s.logger.Info("Shutting down task server")
	s.server.Shutdown()
}
