// Package store holds the in-memory session registry.
package store

import (
	"sync"

	"github.com/arbiterhq/arbiter/domain"
)

// Store is the authoritative registry of session aggregates, keyed by
// session id. It supports concurrent insert and lookup; all per-session
// mutation happens on the Session itself.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// New creates an empty store.
func New() *Store {
	return &Store{sessions: make(map[string]*domain.Session)}
}

// Put registers a session. Existing entries with the same id are replaced;
// callers generate unique ids so this only matters in tests.
func (s *Store) Put(sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionID] = sess
}

// Get returns the session with the given id, or nil when unknown.
func (s *Store) Get(sessionID string) *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

// Len returns the number of registered sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
