package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process snapshot cache.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
	ttl       time.Duration
	now       func() time.Time
}

// NewMemoryStore constructs a memory store with the given freshness window.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		snapshots: make(map[string]Snapshot),
		ttl:       ttl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// MemoryOption configures the memory store.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(store *MemoryStore) {
		if store != nil && now != nil {
			store.now = now
		}
	}
}

// Get returns the cached snapshot when it is still within the freshness
// window. Expired entries are removed.
func (s *MemoryStore) Get(_ context.Context, source string) (Snapshot, bool, error) {
	if s == nil {
		return Snapshot{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[source]
	if !ok {
		return Snapshot{}, false, nil
	}
	if s.ttl > 0 && s.now().Sub(snap.LoadedAt) >= s.ttl {
		delete(s.snapshots, source)
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Put stores a snapshot for the source.
func (s *MemoryStore) Put(_ context.Context, source string, snap Snapshot) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[source] = snap
	return nil
}

// Invalidate drops the snapshot for the source.
func (s *MemoryStore) Invalidate(_ context.Context, source string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, source)
	return nil
}
