package engine

import "github.com/arbiterhq/arbiter/domain"

// applyScore updates the scoreboard from one round's sweep. An empty sweep
// gives both sides a nominal momentum point; otherwise the majority verdict
// decides, and an exact tie credits both.
func (e *Engine) applyScore(sess *domain.Session, results []domain.VerifierResult) domain.Scoreboard {
	if len(results) == 0 {
		return sess.AddScore(1, 1)
	}

	ok, fail := tally(results)
	p, s := 0, 0
	if ok >= fail {
		p = 1
	}
	if fail >= ok {
		s = 1
	}
	return sess.AddScore(p, s)
}

// applyStopRules evaluates the post-round termination rules in fixed order
// and finalizes on the first match. Returns true when the session ended.
func (e *Engine) applyStopRules(sess *domain.Session, results []domain.VerifierResult) bool {
	if sess.Rounds() >= sess.Config.MaxRounds {
		e.finalize(sess, domain.StatusCompleted, "max rounds reached")
		return true
	}
	if e.elapsed(sess) >= sess.Config.Wall() {
		e.finalize(sess, domain.StatusTimeout, "wall-clock budget exceeded")
		return true
	}
	if len(results) > 0 {
		ok, fail := tally(results)
		if fail == 0 {
			e.finalize(sess, domain.StatusCompleted, "agreement reached")
			return true
		}
		if ok == 0 {
			e.finalize(sess, domain.StatusCompleted, "claim refuted")
			return true
		}
	}
	return false
}

func tally(results []domain.VerifierResult) (ok, fail int) {
	for _, r := range results {
		if r.OK {
			ok++
		} else {
			fail++
		}
	}
	return ok, fail
}
