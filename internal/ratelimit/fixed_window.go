package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gradehub/api-gateway/internal/ratelimit/store"
)

var _ Limiter = (*FixedWindowLimiter)(nil)

// FixedWindowLimiter implements fixed window counting over a shared counter
// store. Each key's hits are counted per non-overlapping window; the counter
// expires with the window, so stale windows clean themselves up.
//
// The increment and the threshold check are deliberately not a
// check-then-increment pair: the store's IncrementWithExpiry is a single
// atomic operation and the decision is made on its return value, which keeps
// the limiter correct across concurrent gateway instances. The count may
// briefly exceed the threshold under race, which only makes the limiter
// stricter, never looser.
type FixedWindowLimiter struct {
	store  store.Store
	limit  int
	window time.Duration
	logger *zap.Logger
}

// defaultWindow replaces a non-positive window; getWindowStart divides by
// the window length, so zero is never allowed through.
const defaultWindow = time.Second

// NewFixedWindowLimiter creates a new fixed window rate limiter. A
// non-positive window falls back to defaultWindow.
func NewFixedWindowLimiter(s store.Store, limit int, window time.Duration, logger *zap.Logger) *FixedWindowLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		logger.Warn("non-positive rate limit window, using default",
			zap.Duration("window", window),
			zap.Duration("default", defaultWindow),
		)
		window = defaultWindow
	}

	return &FixedWindowLimiter{
		store:  s,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Allow implements Limiter.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := time.Now()
	windowStart := l.getWindowStart(now)

	// TTL gets a small buffer so a counter never expires before its window
	// ends on a store with coarser clock resolution.
	expiration := l.window + time.Second

	count, err := l.store.IncrementWithExpiry(ctx, l.windowKey(key, windowStart), 1, expiration)
	if err != nil {
		return nil, fmt.Errorf("rate limit counter increment: %w", err)
	}

	allowed := count <= int64(l.limit)

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	resetAfter := windowStart.Add(l.window).Sub(now)
	if resetAfter < 0 {
		resetAfter = 0
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = resetAfter
	}

	return &Result{
		Allowed:    allowed,
		Limit:      l.limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
		RetryAfter: retryAfter,
	}, nil
}

// Limit implements Limiter.
func (l *FixedWindowLimiter) Limit() Limit {
	return Limit{
		Requests: l.limit,
		Window:   l.window,
	}
}

// Reset implements Limiter.
func (l *FixedWindowLimiter) Reset(ctx context.Context, key string) error {
	windowStart := l.getWindowStart(time.Now())
	if err := l.store.Delete(ctx, l.windowKey(key, windowStart)); err != nil {
		l.logger.Warn("failed to delete window counter", zap.Error(err))
		return err
	}
	return nil
}

// getWindowStart returns the start time of the window containing t.
func (l *FixedWindowLimiter) getWindowStart(t time.Time) time.Time {
	windowNanos := l.window.Nanoseconds()
	return time.Unix(0, (t.UnixNano()/windowNanos)*windowNanos)
}

// windowKey builds the store key for a client identity and window bucket.
func (l *FixedWindowLimiter) windowKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%d", key, windowStart.UnixNano())
}
