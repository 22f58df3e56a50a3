package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	failKeyPrefix = "login:fail"
	lockKeyPrefix = "login:lock"
)

// Lockout tracks failed logins per user and flips the account into a
// TTL-bounded locked state once the threshold is crossed. It only touches the
// fast store; the durable is_locked flag on the user record is the caller's
// responsibility, so the two layers stay independently testable.
type Lockout struct {
	store        Store
	log          *zap.Logger
	maxFailures  int
	failWindow   time.Duration
	lockDuration time.Duration
}

func NewLockout(store Store, log *zap.Logger, maxFailures int, failWindow, lockDuration time.Duration) *Lockout {
	return &Lockout{
		store:        store,
		log:          log,
		maxFailures:  maxFailures,
		failWindow:   failWindow,
		lockDuration: lockDuration,
	}
}

// RecordFailure counts one failed attempt and reports whether the account
// just crossed the lock threshold. The increment and the lock set are each
// atomic, but not jointly: two racing failures may both observe sub-threshold
// counts and only one of them sets the lock, which is fine — the lock still
// lands once the threshold is crossed.
func (l *Lockout) RecordFailure(ctx context.Context, userID string) (locked bool, failures int, err error) {
	failKey := fmt.Sprintf("%s:%s", failKeyPrefix, userID)

	count, err := l.store.Incr(ctx, failKey)
	if err != nil {
		return false, 0, fmt.Errorf("lockout incr %s: %w", failKey, err)
	}
	if count == 1 {
		if err := l.store.Expire(ctx, failKey, l.failWindow); err != nil {
			return false, int(count), fmt.Errorf("lockout expire %s: %w", failKey, err)
		}
	}

	if count < int64(l.maxFailures) {
		return false, int(count), nil
	}

	lockKey := fmt.Sprintf("%s:%s", lockKeyPrefix, userID)
	if err := l.store.SetWithTTL(ctx, lockKey, "1", l.lockDuration); err != nil {
		return false, int(count), fmt.Errorf("lockout set %s: %w", lockKey, err)
	}

	l.log.Warn("account locked after repeated failed logins",
		zap.String("user_id", userID),
		zap.Int64("failures", count),
		zap.Duration("lock_duration", l.lockDuration),
	)

	return true, int(count), nil
}

// RecordSuccess clears the failure counter and any live lock. This is the
// only path that resets the state machine before natural TTL expiry.
func (l *Lockout) RecordSuccess(ctx context.Context, userID string) error {
	failKey := fmt.Sprintf("%s:%s", failKeyPrefix, userID)
	lockKey := fmt.Sprintf("%s:%s", lockKeyPrefix, userID)

	if err := l.store.Del(ctx, failKey, lockKey); err != nil {
		return fmt.Errorf("lockout reset %s: %w", userID, err)
	}
	return nil
}

// IsLocked reports whether a lock entry is currently live in the fast store.
// Callers fall back to the durable user flag when this errors.
func (l *Lockout) IsLocked(ctx context.Context, userID string) (bool, error) {
	lockKey := fmt.Sprintf("%s:%s", lockKeyPrefix, userID)

	exists, err := l.store.Exists(ctx, lockKey)
	if err != nil {
		return false, fmt.Errorf("lockout check %s: %w", lockKey, err)
	}
	return exists, nil
}

// LockTTL returns how long the current lock has left, or zero when unlocked.
func (l *Lockout) LockTTL(ctx context.Context, userID string) (time.Duration, error) {
	lockKey := fmt.Sprintf("%s:%s", lockKeyPrefix, userID)

	ttl, err := l.store.TTL(ctx, lockKey)
	if err != nil {
		return 0, fmt.Errorf("lockout ttl %s: %w", lockKey, err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
