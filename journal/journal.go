// Package journal provides the per-session append-only event log with
// cursor-based replay and live fan-out to subscribed listeners.
package journal

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbiterhq/arbiter/domain"
)

// DefaultCapacity bounds the number of buffered events per session.
const DefaultCapacity = 500

// Listener receives every event appended for a session after subscription.
type Listener func(ev domain.StreamEvent)

// Journal owns the bounded event buffers and listener sets, keyed by session
// id. All methods are safe for concurrent use.
type Journal struct {
	capacity int
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionLog
}

type sessionLog struct {
	nextSeq   uint64
	events    []domain.StreamEvent
	listeners map[uint64]Listener
	nextLis   uint64
}

// New creates a journal with the given per-session buffer capacity.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int, log zerolog.Logger) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{
		capacity: capacity,
		log:      log.With().Str("component", "journal").Logger(),
		sessions: make(map[string]*sessionLog),
	}
}

func (j *Journal) sessionLocked(sessionID string) *sessionLog {
	sl, ok := j.sessions[sessionID]
	if !ok {
		sl = &sessionLog{nextSeq: 1, listeners: make(map[uint64]Listener)}
		j.sessions[sessionID] = sl
	}
	return sl
}

// Append assigns the next sequence number, buffers the event (evicting the
// oldest entry once the buffer exceeds capacity; surviving entries keep their
// sequence numbers), and delivers it to every current listener. A panicking
// listener is logged and skipped; it never blocks delivery to the others.
func (j *Journal) Append(sessionID string, ev domain.StreamEvent) domain.StreamEvent {
	j.mu.Lock()
	sl := j.sessionLocked(sessionID)
	ev.Seq = sl.nextSeq
	ev.SessionID = sessionID
	ev.Ts = time.Now().UnixMilli()
	sl.nextSeq++
	sl.events = append(sl.events, ev)
	if len(sl.events) > j.capacity {
		sl.events = sl.events[len(sl.events)-j.capacity:]
	}
	listeners := make([]Listener, 0, len(sl.listeners))
	for _, l := range sl.listeners {
		listeners = append(listeners, l)
	}
	j.mu.Unlock()

	for _, l := range listeners {
		j.notify(sessionID, l, ev)
	}
	return ev
}

func (j *Journal) notify(sessionID string, l Listener, ev domain.StreamEvent) {
	defer func() {
		if r := recover(); r != nil {
			j.log.Error().
				Str("session_id", sessionID).
				Uint64("seq", ev.Seq).
				Interface("panic", r).
				Msg("listener panicked, dropping delivery")
		}
	}()
	l(ev)
}

// Replay returns all still-buffered events with sequence number greater than
// since, in ascending order. Events already evicted are silently absent.
func (j *Journal) Replay(sessionID string, since uint64) []domain.StreamEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	sl, ok := j.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]domain.StreamEvent, 0, len(sl.events))
	for _, ev := range sl.events {
		if ev.Seq > since {
			out = append(out, ev)
		}
	}
	return out
}

// OldestSeq returns the sequence number of the oldest buffered event, or
// false when the buffer is empty. Callers can use it to detect replay gaps.
func (j *Journal) OldestSeq(sessionID string) (uint64, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	sl, ok := j.sessions[sessionID]
	if !ok || len(sl.events) == 0 {
		return 0, false
	}
	return sl.events[0].Seq, true
}

// Subscribe registers a listener for live events on a session. The returned
// function removes the listener; once the last listener is gone the set is
// dropped so idle sessions hold no listener state.
func (j *Journal) Subscribe(sessionID string, l Listener) func() {
	j.mu.Lock()
	sl := j.sessionLocked(sessionID)
	id := sl.nextLis
	sl.nextLis++
	sl.listeners[id] = l
	j.mu.Unlock()

	return func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if sl, ok := j.sessions[sessionID]; ok {
			delete(sl.listeners, id)
		}
	}
}

// ListenerCount returns the number of live listeners for a session.
func (j *Journal) ListenerCount(sessionID string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	sl, ok := j.sessions[sessionID]
	if !ok {
		return 0
	}
	return len(sl.listeners)
}
