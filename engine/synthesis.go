package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/domain"
)

// maxCitations bounds the recency evidence trail attached to each turn.
const maxCitations = 4

// takeTurn synthesizes, archives, records, and publishes one turn.
func (e *Engine) takeTurn(ctx context.Context, sess *domain.Session, round int, role domain.Role, verdicts []domain.VerifierResult) (domain.Turn, error) {
	snap := sess.Snapshot()

	text, err := e.provider.Synthesize(role, snap, verdicts)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("synthesize %s turn: %w", role, err)
	}

	turn := domain.Turn{
		TurnID:    "trn_" + uuid.New().String()[:8],
		SessionID: sess.SessionID,
		Round:     round,
		Role:      role,
		Text:      text,
		Citations: recentCitations(snap.Turns),
		Verdicts:  verdicts,
		CreatedAt: time.Now(),
	}

	if e.archive != nil {
		ref, err := e.archive.Store(ctx, turn)
		if err != nil {
			// Archival is best-effort; the turn proceeds without a reference.
			e.log.Warn().
				Str("session_id", sess.SessionID).
				Str("turn_id", turn.TurnID).
				Err(err).
				Msg("failed to archive turn")
		} else {
			turn.ArchiveRef = ref
		}
	}

	sess.AppendTurn(turn)
	e.journal.Append(sess.SessionID, domain.StreamEvent{
		Type:   domain.EventTypeTurn,
		Status: sess.Status(),
		Score:  sess.Score(),
		Turn:   &turn,
	})
	e.metrics.TurnCompleted(role)

	return turn, nil
}

// recentCitations collects the archival references of up to the last
// maxCitations turns, deduplicated, oldest first.
func recentCitations(turns []domain.Turn) []string {
	start := len(turns) - maxCitations
	if start < 0 {
		start = 0
	}
	seen := make(map[string]bool)
	var refs []string
	for _, t := range turns[start:] {
		if t.ArchiveRef == "" || seen[t.ArchiveRef] {
			continue
		}
		seen[t.ArchiveRef] = true
		refs = append(refs, t.ArchiveRef)
	}
	return refs
}

// TemplateProvider is the default deterministic content provider. It is a
// stand-in for a language-model-backed generator; the control loop depends
// only on the Provider interface.
type TemplateProvider struct{}

// Synthesize produces role-aware templated text.
func (TemplateProvider) Synthesize(role domain.Role, snap domain.Snapshot, verdicts []domain.VerifierResult) (string, error) {
	switch role {
	case domain.RoleProponent:
		if prior := lastNonReferee(snap.Turns); prior != nil {
			return fmt.Sprintf("Responding to the %s: the case for %q still holds, and the prior exchange strengthens it.", prior.Role, snap.Config.Goal), nil
		}
		return fmt.Sprintf("Opening argument: the available evidence supports %q.", snap.Config.Goal), nil

	case domain.RoleSkeptic:
		if prior := lastNonReferee(snap.Turns); prior != nil {
			return fmt.Sprintf("Challenging the %s's last point: what evidence backs %q? Unsupported assertions should be discounted.", prior.Role, snap.Config.Goal), nil
		}
		return fmt.Sprintf("The claim %q is asserted without evidence; it deserves scrutiny.", snap.Config.Goal), nil

	case domain.RoleReferee:
		ok := 0
		for _, v := range verdicts {
			if v.OK {
				ok++
			}
		}
		if len(verdicts) == 0 {
			return fmt.Sprintf("Round review: no verifiers configured; score stands at proponent %d, skeptic %d.", snap.Score.Proponent, snap.Score.Skeptic), nil
		}
		return fmt.Sprintf("Round review: %d of %d checks passed; score stands at proponent %d, skeptic %d.", ok, len(verdicts), snap.Score.Proponent, snap.Score.Skeptic), nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

func lastNonReferee(turns []domain.Turn) *domain.Turn {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != domain.RoleReferee {
			return &turns[i]
		}
	}
	return nil
}
