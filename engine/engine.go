// Package engine implements the round-based debate orchestration loop: the
// lifecycle scheduler, turn synthesis, verifier sweep, scoreboard, and
// outcome finalizer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arbiterhq/arbiter/capability"
	"github.com/arbiterhq/arbiter/config"
	"github.com/arbiterhq/arbiter/domain"
	"github.com/arbiterhq/arbiter/journal"
	"github.com/arbiterhq/arbiter/metrics"
	"github.com/arbiterhq/arbiter/store"
)

// ErrNotFound is returned for operations on unknown session ids.
var ErrNotFound = errors.New("session not found")

// Archiver is the best-effort sink for generated turns.
type Archiver interface {
	Store(ctx context.Context, t domain.Turn) (string, error)
}

// Provider produces the text of the next turn from the session state.
// Verdicts carries the current round's sweep results and is only non-nil for
// referee turns.
type Provider interface {
	Synthesize(role domain.Role, snap domain.Snapshot, verdicts []domain.VerifierResult) (string, error)
}

// Engine drives debate sessions from start to terminal outcome. Many
// sessions may advance concurrently; each session's loop is serialized by
// its re-entrancy guard.
type Engine struct {
	store    *store.Store
	journal  *journal.Journal
	registry *capability.Registry
	provider Provider
	archive  Archiver
	metrics  *metrics.Metrics
	cfg      *config.Config
	log      zerolog.Logger
}

// New wires the engine with its collaborators. archive may be nil, in which
// case turns carry no archival references.
func New(st *store.Store, jr *journal.Journal, reg *capability.Registry, provider Provider, archive Archiver, m *metrics.Metrics, cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		store:    st,
		journal:  jr,
		registry: reg,
		provider: provider,
		archive:  archive,
		metrics:  m,
		cfg:      cfg,
		log:      log.With().Str("component", "engine").Logger(),
	}
}

// Journal exposes the event journal for transports.
func (e *Engine) Journal() *journal.Journal {
	return e.journal
}

// Registry exposes the capability registry for transports.
func (e *Engine) Registry() *capability.Registry {
	return e.registry
}

// Start validates the configuration, creates a pending session, emits its
// first status event, and schedules an asynchronous advancement. It never
// blocks on the debate itself.
func (e *Engine) Start(cfg domain.DebateConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid debate config: %w", err)
	}

	sessionID := "deb_" + uuid.New().String()[:8]
	sess := domain.NewSession(sessionID, cfg, time.Now())
	e.store.Put(sess)

	e.journal.Append(sessionID, domain.StreamEvent{
		Type:   domain.EventTypeStatus,
		Status: domain.StatusPending,
		Score:  sess.Score(),
	})
	e.metrics.SessionStarted()

	e.log.Info().
		Str("session_id", sessionID).
		Int("max_rounds", cfg.MaxRounds).
		Int64("max_wall_ms", cfg.MaxWallMS).
		Strs("verifiers", cfg.Verifiers).
		Msg("session started")

	go e.advance(sessionID)
	return sessionID, nil
}

// Resume is an idempotent wake-up hint. Redundant calls and calls on
// terminal sessions are no-ops; only unknown ids are an error.
func (e *Engine) Resume(sessionID string) error {
	sess := e.store.Get(sessionID)
	if sess == nil {
		return ErrNotFound
	}
	if sess.Terminal() {
		return nil
	}
	go e.advance(sessionID)
	return nil
}

// Snapshot returns the externally visible state of a session.
func (e *Engine) Snapshot(sessionID string) (domain.Snapshot, error) {
	sess := e.store.Get(sessionID)
	if sess == nil {
		return domain.Snapshot{}, ErrNotFound
	}
	return sess.Snapshot(), nil
}

// advance runs the session loop until a termination condition holds. The
// re-entrancy guard makes concurrent calls no-ops: at most one advancement
// per session is in flight, and the in-flight one re-checks all conditions
// itself, so dropped wake-ups are harmless.
func (e *Engine) advance(sessionID string) {
	sess := e.store.Get(sessionID)
	if sess == nil {
		return
	}
	if !sess.TryBeginAdvance() {
		return
	}
	defer sess.EndAdvance()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Str("session_id", sessionID).
				Interface("panic", r).
				Msg("advancement loop panicked")
			e.finalize(sess, domain.StatusAborted, "internal error")
		}
	}()

	if sess.Terminal() {
		return
	}

	sess.MarkRunning(time.Now())
	e.journal.Append(sessionID, domain.StreamEvent{
		Type:   domain.EventTypeStatus,
		Status: domain.StatusRunning,
		Score:  sess.Score(),
	})

	ctx := context.Background()
	for {
		if e.elapsed(sess) >= sess.Config.Wall() {
			e.finalize(sess, domain.StatusTimeout, "wall-clock budget exceeded")
			return
		}
		if sess.Rounds() >= sess.Config.MaxRounds {
			e.finalize(sess, domain.StatusCompleted, "max rounds reached")
			return
		}

		if done, err := e.runRound(ctx, sess); err != nil {
			e.log.Error().
				Str("session_id", sessionID).
				Err(err).
				Msg("round failed")
			e.finalize(sess, domain.StatusAborted, "internal error")
			return
		} else if done {
			return
		}

		e.yield()
	}
}

// runRound produces one proponent/skeptic/referee cycle. It returns done
// when a stop rule (or the mid-round timeout re-check) finalized the
// session.
func (e *Engine) runRound(ctx context.Context, sess *domain.Session) (bool, error) {
	round := sess.Rounds() + 1

	if _, err := e.takeTurn(ctx, sess, round, domain.RoleProponent, nil); err != nil {
		return false, err
	}
	e.yield()

	if e.elapsed(sess) >= sess.Config.Wall() {
		e.finalize(sess, domain.StatusTimeout, "wall-clock budget exceeded")
		return true, nil
	}

	if _, err := e.takeTurn(ctx, sess, round, domain.RoleSkeptic, nil); err != nil {
		return false, err
	}

	results := e.sweep(ctx, sess, round)

	if _, err := e.takeTurn(ctx, sess, round, domain.RoleReferee, results); err != nil {
		return false, err
	}

	score := e.applyScore(sess, results)
	e.journal.Append(sess.SessionID, domain.StreamEvent{
		Type:   domain.EventTypeStatus,
		Status: sess.Status(),
		Score:  score,
	})

	return e.applyStopRules(sess, results), nil
}

func (e *Engine) elapsed(sess *domain.Session) time.Duration {
	return time.Since(sess.StartedAt())
}

// yield hands control back to the runtime between turns and rounds so one
// session cannot monopolize the scheduler.
func (e *Engine) yield() {
	time.Sleep(e.cfg.YieldInterval)
}
