package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for tests and single-instance
// development runs. Anything beyond one process needs the Redis store: these
// counters are invisible to other instances.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]memoryEntry
	zsets  map[string]*memoryZSet

	// Now is swappable so tests can move the clock.
	Now func() time.Time
}

type memoryEntry struct {
	count     int64
	value     string
	expiresAt time.Time
}

type memoryZSet struct {
	members   map[string]float64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]memoryEntry),
		zsets:  make(map[string]*memoryZSet),
		Now:    time.Now,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.values[key]
	if !ok || s.expired(entry.expiresAt) {
		entry = memoryEntry{}
	}
	entry.count++
	s.values[key] = entry
	return entry.count, nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.values[key]; ok {
		entry.expiresAt = s.Now().Add(ttl)
		s.values[key] = entry
	}
	if zset, ok := s.zsets[key]; ok {
		zset.expiresAt = s.Now().Add(ttl)
	}
	return nil
}

func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.values[key]; ok && !s.expired(entry.expiresAt) {
		if entry.expiresAt.IsZero() {
			return -1, nil
		}
		return entry.expiresAt.Sub(s.Now()), nil
	}
	if zset, ok := s.zsets[key]; ok && !s.expired(zset.expiresAt) {
		if zset.expiresAt.IsZero() {
			return -1, nil
		}
		return zset.expiresAt.Sub(s.Now()), nil
	}
	return -2, nil
}

func (s *MemoryStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	zset, ok := s.zsets[key]
	if !ok || s.expired(zset.expiresAt) {
		zset = &memoryZSet{members: make(map[string]float64)}
		s.zsets[key] = zset
	}
	zset.members[member] = score
	return nil
}

func (s *MemoryStore) ZRemRangeByScore(_ context.Context, key string, min, max float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	zset, ok := s.zsets[key]
	if !ok || s.expired(zset.expiresAt) {
		return nil
	}
	for member, score := range zset.members {
		if score >= min && score <= max {
			delete(zset.members, member)
		}
	}
	return nil
}

func (s *MemoryStore) ZCard(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zset, ok := s.zsets[key]
	if !ok || s.expired(zset.expiresAt) {
		return 0, nil
	}
	return int64(len(zset.members)), nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.values[key]; ok && !s.expired(entry.expiresAt) {
		return true, nil
	}
	if zset, ok := s.zsets[key]; ok && !s.expired(zset.expiresAt) {
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.values, key)
		delete(s.zsets, key)
	}
	return nil
}

func (s *MemoryStore) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = memoryEntry{value: value, expiresAt: s.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) expired(expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !s.Now().Before(expiresAt)
}
