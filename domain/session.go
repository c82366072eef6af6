package domain

import (
	"sync"
	"sync/atomic"
	"time"
)

// Session is the root aggregate for one debate run. Configuration is fixed at
// creation; mutable state is guarded by an internal lock so the advancement
// loop and concurrent snapshot readers never race.
type Session struct {
	SessionID string
	Config    DebateConfig
	CreatedAt time.Time

	advancing atomic.Bool

	mu        sync.RWMutex
	status    Status
	turns     []Turn
	score     Scoreboard
	outcome   *Outcome
	updatedAt time.Time
	startedAt time.Time
	endedAt   *time.Time
}

// NewSession creates a pending session with the given id and configuration.
func NewSession(id string, cfg DebateConfig, now time.Time) *Session {
	return &Session{
		SessionID: id,
		Config:    cfg,
		CreatedAt: now,
		status:    StatusPending,
		updatedAt: now,
		startedAt: now,
	}
}

// TryBeginAdvance acquires the re-entrancy guard. It returns false when an
// advancement is already in flight, in which case the caller must back off.
func (s *Session) TryBeginAdvance() bool {
	return s.advancing.CompareAndSwap(false, true)
}

// EndAdvance releases the re-entrancy guard.
func (s *Session) EndAdvance() {
	s.advancing.Store(false)
}

// Status returns the current lifecycle status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Terminal reports whether the session has reached a terminal status.
func (s *Session) Terminal() bool {
	return s.Status().Terminal()
}

// MarkRunning transitions a non-terminal session to running. Returns false if
// the session is already terminal.
func (s *Session) MarkRunning(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return false
	}
	s.status = StatusRunning
	s.updatedAt = now
	return true
}

// AppendTurn records a turn. Turns are immutable once appended.
func (s *Session) AppendTurn(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
	s.updatedAt = t.CreatedAt
}

// Turns returns a copy of the recorded turns.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// LastTurns returns copies of up to n most recent turns, oldest first.
func (s *Session) LastTurns(n int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.turns) {
		n = len(s.turns)
	}
	out := make([]Turn, n)
	copy(out, s.turns[len(s.turns)-n:])
	return out
}

// Rounds returns the number of completed rounds, derived from the referee
// turn count rather than stored redundantly.
func (s *Session) Rounds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.turns {
		if t.Role == RoleReferee {
			n++
		}
	}
	return n
}

// AddScore increments the two sides of the scoreboard and returns the new
// totals.
func (s *Session) AddScore(proponent, skeptic int) Scoreboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score.Proponent += proponent
	s.score.Skeptic += skeptic
	return s.score
}

// Score returns the current scoreboard.
func (s *Session) Score() Scoreboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.score
}

// StartedAt returns the timestamp advancement began.
func (s *Session) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// Finalize atomically transitions the session to the given terminal status
// and records the outcome. It returns false without touching state when the
// session is already terminal, which makes double finalization a no-op.
func (s *Session) Finalize(status Status, outcome *Outcome, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return false
	}
	s.status = status
	s.outcome = outcome
	s.endedAt = &now
	s.updatedAt = now
	return true
}

// Outcome returns the terminal outcome, or nil before finalization.
func (s *Session) Outcome() *Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome
}

// Snapshot returns a consistent point-in-time copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return Snapshot{
		SessionID: s.SessionID,
		Status:    s.status,
		Config:    s.Config,
		Turns:     turns,
		Score:     s.score,
		Outcome:   s.outcome,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updatedAt,
		EndedAt:   s.endedAt,
	}
}
