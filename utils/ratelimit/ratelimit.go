package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

// Limiter answers whether a keyed caller may proceed right now.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (bool, error)
	AllowN(ctx context.Context, key string, n int, rule Rule) (bool, error)
	Remaining(ctx context.Context, key string, rule Rule) (int, error)
	Reset(ctx context.Context, key string, rule Rule) error
}

// Rule is one limit: at most Limit hits per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// WindowLimiter counts hits in fixed Redis windows. Counters are shared by
// every node talking to the same Redis, so limits hold across the fleet.
// With failOpen set, a Redis outage admits traffic instead of refusing it.
type WindowLimiter struct {
	rdb      *redis.Client
	log      *logger.Logger
	failOpen bool
}

func NewWindowLimiter(rdb *redis.Client, log *logger.Logger, failOpen bool) *WindowLimiter {
	return &WindowLimiter{rdb: rdb, log: log, failOpen: failOpen}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string, rule Rule) (bool, error) {
	return l.AllowN(ctx, key, 1, rule)
}

func (l *WindowLimiter) AllowN(ctx context.Context, key string, n int, rule Rule) (bool, error) {
	bucket := bucketKey(key, time.Now(), rule.Window)

	pipe := l.rdb.Pipeline()
	incr := pipe.IncrBy(ctx, bucket, int64(n))
	// The extra second keeps a counter alive across the window boundary
	// instead of expiring mid-check.
	pipe.Expire(ctx, bucket, rule.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		if l.failOpen {
			l.log.Warn("rate limit check failed, admitting", zap.String("key", key), zap.Error(err))
			return true, nil
		}
		return false, fmt.Errorf("rate limit check: %w", err)
	}

	allowed := incr.Val() <= int64(rule.Limit)
	if !allowed {
		l.log.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", incr.Val()),
			zap.Int("limit", rule.Limit),
		)
	}
	return allowed, nil
}

// Remaining reports how many hits the key has left in the current window.
func (l *WindowLimiter) Remaining(ctx context.Context, key string, rule Rule) (int, error) {
	count, err := l.rdb.Get(ctx, bucketKey(key, time.Now(), rule.Window)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return rule.Limit, nil
		}
		return 0, fmt.Errorf("rate limit remaining: %w", err)
	}
	remaining := rule.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the key's current window.
func (l *WindowLimiter) Reset(ctx context.Context, key string, rule Rule) error {
	if err := l.rdb.Del(ctx, bucketKey(key, time.Now(), rule.Window)).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}

func bucketKey(key string, now time.Time, window time.Duration) string {
	seconds := int64(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("ratelimit:%s:%d", key, now.Unix()/seconds)
}
