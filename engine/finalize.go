package engine

import (
	"fmt"
	"time"

	"github.com/arbiterhq/arbiter/domain"
)

// keyTurnCount bounds how many trailing turns an outcome cites as decisive.
const keyTurnCount = 5

// finalize computes and records the terminal verdict. It is idempotent: a
// session that is already terminal is left untouched and no events are
// emitted, which resolves races between stop rules and timeout checks.
func (e *Engine) finalize(sess *domain.Session, status domain.Status, defaultVerdict string) {
	now := time.Now()
	score := sess.Score()

	diff := score.Proponent - score.Skeptic
	total := score.Proponent + score.Skeptic
	if total < 1 {
		total = 1
	}
	abs := diff
	if abs < 0 {
		abs = -abs
	}
	confidence := 0.5 + float64(abs)/float64(total)/2
	if confidence > 0.95 {
		confidence = 0.95
	}

	var winner domain.Role
	switch {
	case diff > 0:
		winner = domain.RoleProponent
	case diff < 0:
		winner = domain.RoleSkeptic
	}

	verdict := defaultVerdict
	if verdict == "" {
		if winner == "" {
			verdict = "stalemate"
		} else {
			verdict = fmt.Sprintf("%s leads %d-%d", winner, score.Proponent, score.Skeptic)
		}
	}

	var keyIDs []string
	for _, t := range sess.LastTurns(keyTurnCount) {
		keyIDs = append(keyIDs, t.TurnID)
	}

	outcome := &domain.Outcome{
		SessionID:   sess.SessionID,
		Verdict:     verdict,
		Confidence:  confidence,
		WinningRole: winner,
		KeyTurnIDs:  keyIDs,
		FinalizedAt: now,
	}

	if !sess.Finalize(status, outcome, now) {
		return
	}

	e.metrics.SessionFinished(now.Sub(sess.StartedAt()))
	e.log.Info().
		Str("session_id", sess.SessionID).
		Str("status", string(status)).
		Str("verdict", verdict).
		Int("proponent", score.Proponent).
		Int("skeptic", score.Skeptic).
		Msg("session finalized")

	e.journal.Append(sess.SessionID, domain.StreamEvent{
		Type:    domain.EventTypeOutcome,
		Status:  status,
		Score:   score,
		Outcome: outcome,
	})
	e.journal.Append(sess.SessionID, domain.StreamEvent{
		Type:   domain.EventTypeStatus,
		Status: status,
		Score:  score,
	})
}
