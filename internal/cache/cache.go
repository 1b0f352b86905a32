// Package cache provides the byte-oriented key/value stores backing the tool
// result cache: an in-process MemoryStore and a Redis backed RedisStore.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a TTL key/value store.
type Store interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. A ttl <= 0 keeps the entry until evicted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// minSweepSize is the entry count at which Set first drops expired entries.
const minSweepSize = 256

// MemoryStore is a process-local Store. Expired entries are dropped when read
// and swept in Set whenever the map has doubled since the last sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
	sweepAt int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now, sweepAt: minSweepSize}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}

	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}

	return append([]byte(nil), e.value...), true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e

	if len(s.entries) >= s.sweepAt {
		s.sweep()
	}

	return nil
}

func (s *MemoryStore) sweep() {
	now := s.now()
	for k, e := range s.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.sweepAt = max(minSweepSize, 2*len(s.entries))
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
