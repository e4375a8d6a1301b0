package application

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	dashboard "feedboard/internal/dashboard/domain"
	records "feedboard/internal/records/domain"
)

// Session owns one user's filter state and value-column toggle for the
// duration of their visit. All access goes through the service, which holds
// mu across each synchronous interaction pass.
type Session struct {
	ID string

	mu       sync.Mutex
	state    *dashboard.FilterState
	mode     records.ValueMode
	lastSeen time.Time
}

// SessionStore keeps sessions by ID, expiring them after an idle TTL.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore constructs a store with the given idle TTL.
func NewSessionStore(ttl time.Duration, opts ...SessionOption) *SessionStore {
	store := &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// SessionOption configures the session store.
type SessionOption func(*SessionStore)

// WithSessionClock overrides the time source, for tests.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(store *SessionStore) {
		if store != nil && now != nil {
			store.now = now
		}
	}
}

// Get returns the session for id, touching its idle timer.
func (s *SessionStore) Get(id string) (*Session, bool) {
	if s == nil || id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess, true
}

// Create mints a new session with the given default value mode.
func (s *SessionStore) Create(mode records.ValueMode) *Session {
	sess := &Session{
		ID:       newSessionID(),
		mode:     mode,
		lastSeen: s.now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[sess.ID] = sess
	return sess
}

// Len returns the live session count.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) sweepLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(buf)
}
