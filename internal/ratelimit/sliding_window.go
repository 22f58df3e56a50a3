package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SlidingWindowLimiter throttles per-user request rates with a
// timestamp-scored set trimmed to the trailing window. Smoother at window
// boundaries than fixed windows, at O(log n) per request.
type SlidingWindowLimiter struct {
	store  Store
	prefix string
	limit  int
	window time.Duration

	now func() time.Time
}

func NewSlidingWindowLimiter(store Store, prefix string, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, userID string) (Decision, error) {
	key := fmt.Sprintf("%s:%s", l.prefix, userID)
	now := l.now()
	cutoff := now.Add(-l.window)

	if err := l.store.ZRemRangeByScore(ctx, key, 0, float64(cutoff.UnixMilli())); err != nil {
		return Decision{}, fmt.Errorf("sliding window trim %s: %w", key, err)
	}

	// Member must be unique per request; two requests in the same millisecond
	// would otherwise collapse into one entry.
	member := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString())
	if err := l.store.ZAdd(ctx, key, float64(now.UnixMilli()), member); err != nil {
		return Decision{}, fmt.Errorf("sliding window add %s: %w", key, err)
	}

	// Self-clean idle users: the set outlives the window by a minute, then drops.
	if err := l.store.Expire(ctx, key, l.window+time.Minute); err != nil {
		return Decision{}, fmt.Errorf("sliding window expire %s: %w", key, err)
	}

	count, err := l.store.ZCard(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("sliding window card %s: %w", key, err)
	}

	if count > int64(l.limit) {
		return Decision{Allowed: false, RetryAfter: l.window}, nil
	}

	return Decision{Allowed: true, Remaining: l.limit - int(count)}, nil
}
