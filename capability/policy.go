package capability

import (
	"context"

	"github.com/arbiterhq/arbiter/policy"
)

// NewPolicyVerifier wraps a rego policy engine as a verification capability.
// A "pass" decision is a passing result; anything else fails with the
// policy's reason.
func NewPolicyVerifier(engine *policy.Engine) Handler {
	return HandlerFunc{
		CapName: NamePolicyCompliance,
		Fn: func(ctx context.Context, in Input) (Result, error) {
			decision, reason, err := engine.Evaluate(ctx, map[string]interface{}{
				"goal":      in.Goal,
				"round":     in.Round,
				"last_turn": in.LastTurn,
				"citations": in.Citations,
			})
			if err != nil {
				return Result{}, err
			}
			if decision == "pass" {
				return Result{OK: true, Reason: "policy satisfied"}, nil
			}
			if reason == "" {
				reason = "policy decision: " + decision
			}
			return Result{OK: false, Reason: reason}, nil
		},
	}
}
