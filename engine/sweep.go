package engine

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/arbiterhq/arbiter/capability"
	"github.com/arbiterhq/arbiter/domain"
)

// maxReasonLen truncates verifier failure reasons before they reach the
// referee turn.
const maxReasonLen = 200

// sweep invokes the session's configured verifiers in order. Every failure
// mode (unregistered name, returned error, panic) becomes a failing result;
// a misbehaving verifier never aborts the sweep.
func (e *Engine) sweep(ctx context.Context, sess *domain.Session, round int) []domain.VerifierResult {
	names := sess.Config.Verifiers
	if len(names) == 0 {
		return nil
	}

	in := e.sweepInput(sess, round)

	results := make([]domain.VerifierResult, 0, len(names))
	for _, name := range names {
		res := domain.VerifierResult{Name: name}

		h := e.registry.Resolve(name)
		if h == nil {
			res.Reason = "not registered"
		} else {
			out, err := invokeSafe(ctx, h, in)
			if err != nil {
				res.Reason = truncate(err.Error(), maxReasonLen)
			} else {
				res.OK = out.OK
				res.Reason = truncate(out.Reason, maxReasonLen)
			}
		}

		e.metrics.VerifierResult(name, res.OK)
		results = append(results, res)
	}
	return results
}

func (e *Engine) sweepInput(sess *domain.Session, round int) capability.Input {
	in := capability.Input{
		Goal:        sess.Config.Goal,
		Round:       round,
		Attachments: sess.Config.Context,
	}
	if last := lastNonReferee(sess.Turns()); last != nil {
		in.LastTurn = last.Text
		in.Citations = len(last.Citations)
	}
	score := sess.Score()
	in.Telemetry = fmt.Sprintf("score proponent=%d skeptic=%d", score.Proponent, score.Skeptic)
	return in
}

// invokeSafe converts a panicking capability into an ordinary error.
func invokeSafe(ctx context.Context, h capability.Handler, in capability.Input) (out capability.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("verifier panicked: %v", r)
		}
	}()
	return h.Invoke(ctx, in)
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
