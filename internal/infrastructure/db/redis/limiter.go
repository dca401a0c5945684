package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxFailures = 5
	defaultWindow      = 15 * time.Minute
)

// AttemptLimiter counts failed attempts per scope and subject in Redis and
// reports when the budget for the current window is spent.
// Key format: attempts:<scope>:<subject>
type AttemptLimiter struct {
	client      *redis.Client
	maxFailures int64
	window      time.Duration
}

// NewAttemptLimiter creates an AttemptLimiter. Non-positive values fall back
// to 5 failures per 15 minutes.
func NewAttemptLimiter(client *redis.Client, maxFailures int, window time.Duration) *AttemptLimiter {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &AttemptLimiter{client: client, maxFailures: int64(maxFailures), window: window}
}

// Exceeded reports whether subject has used up its failures for scope.
func (l *AttemptLimiter) Exceeded(ctx context.Context, scope, subject string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(scope, subject)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("attempts check: %w", err)
	}
	return n >= l.maxFailures, nil
}

// RecordFailure increments the failure counter. The window starts at the
// first failure and is not extended by later ones.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, scope, subject string) error {
	key := l.key(scope, subject)
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("attempts record: %w", err)
	}
	return nil
}

// Reset clears the counter, typically after a successful attempt.
func (l *AttemptLimiter) Reset(ctx context.Context, scope, subject string) error {
	return l.client.Del(ctx, l.key(scope, subject)).Err()
}

func (l *AttemptLimiter) key(scope, subject string) string {
	return fmt.Sprintf("attempts:%s:%s", scope, subject)
}
