package ratelimit

import (
	"context"
	"time"
)

// Store is the narrow slice of an atomic key-value service the limiters and
// the lockout engine need. Keeping it this small makes the Redis client
// swappable and gives tests a single seam to fake.
type Store interface {
	// Incr atomically increments the integer at key and returns the new value.
	// A missing key counts from zero.
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining lifetime of key, or a negative duration when
	// the key has no expiry or does not exist.
	TTL(ctx context.Context, key string) (time.Duration, error)
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) error
	ZCard(ctx context.Context, key string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}
