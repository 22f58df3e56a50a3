package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Decision is the outcome of a limiter check. RetryAfter is only meaningful
// when Allowed is false.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// FixedWindowLimiter counts requests per identifier inside TTL-bounded
// windows. One atomic INCR per request; the first hit in a window sets the
// TTL, so windows are relative and survive clock skew across instances.
type FixedWindowLimiter struct {
	store   Store
	purpose string
	limit   int
	window  time.Duration
}

func NewFixedWindowLimiter(store Store, purpose string, limit int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:   store,
		purpose: purpose,
		limit:   limit,
		window:  window,
	}
}

// Allow records one request for the identifier (an IP or user id) and decides
// whether it fits in the current window.
func (l *FixedWindowLimiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	key := fmt.Sprintf("%s:%s", l.purpose, identifier)

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("fixed window incr %s: %w", key, err)
	}

	if count == 1 {
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			return Decision{}, fmt.Errorf("fixed window expire %s: %w", key, err)
		}
	}

	if count > int64(l.limit) {
		retryAfter, err := l.store.TTL(ctx, key)
		switch {
		case err != nil:
			// TTL lookup is best-effort; fall back to the full window.
			retryAfter = l.window
		case retryAfter < 0:
			// Counter without an expiry: the first-hit EXPIRE was lost (a
			// crash between INCR and EXPIRE), and the key would throttle this
			// identifier forever. Re-arm it.
			if err := l.store.Expire(ctx, key, l.window); err != nil {
				return Decision{}, fmt.Errorf("fixed window re-arm %s: %w", key, err)
			}
			retryAfter = l.window
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	return Decision{Allowed: true, Remaining: l.limit - int(count)}, nil
}
