package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimit struct {
	Window  time.Duration // e.g., 1 minute, 1 hour
	MaxJobs int           // max jobs per window
}

type QueueConfig struct {
	Name      string
	RateLimit RateLimit
}

// QueueRateLimiter is a sliding window counter kept in a Redis sorted set,
// shared by every worker that talks to the same Redis.
type QueueRateLimiter struct {
	redis  *redis.Client
	config QueueConfig
	now    func() time.Time
}

func NewQueueRateLimiter(redis *redis.Client, config QueueConfig) *QueueRateLimiter {
	return &QueueRateLimiter{
		redis:  redis,
		config: config,
		now:    time.Now,
	}
}

func (qrl *QueueRateLimiter) Window() time.Duration {
	return qrl.config.RateLimit.Window
}

// Allow records one job for identifier and reports whether it fits the window
func (qrl *QueueRateLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	key := fmt.Sprintf("tourdesk:rate:%s:%s", qrl.config.Name, identifier)

	now := qrl.now().UnixNano()
	windowStart := now - qrl.config.RateLimit.Window.Nanoseconds()

	pipe := qrl.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	card := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.Expire(ctx, key, qrl.config.RateLimit.Window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis pipeline error: %w", err)
	}
	return card.Val() < int64(qrl.config.RateLimit.MaxJobs), nil
}
