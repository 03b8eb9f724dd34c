package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"tourdesk/internal/config"
	"tourdesk/internal/sandbox/services"
	console "tourdesk/internal/utils/logger"
)

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewRedisClient builds a go-redis client for the same server asynq uses
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// TaskClient enqueues background work
type TaskClient struct {
	client *asynq.Client
	logger *console.Logger
}

var _ services.Enqueuer = (*TaskClient)(nil)

func NewTaskClient(cfg config.RedisConfig) *TaskClient {
	return &TaskClient{
		client: asynq.NewClient(redisOpt(cfg)),
		logger: console.New("TASKS"),
	}
}

// EnqueueCampaign implements services.Enqueuer
func (c *TaskClient) EnqueueCampaign(ctx context.Context, emailID uint64) error {
	task, err := NewCampaignTask(emailID)
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue campaign %d: %w", emailID, err)
	}
	c.logger.Info("Enqueued campaign #%d as %s on %s", emailID, info.ID, info.Queue)
	return nil
}

// Close closes the underlying asynq client
func (c *TaskClient) Close() error {
	return c.client.Close()
}
