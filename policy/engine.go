// Package policy evaluates rego policies over debate state.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.debate_policy.decision"),
		rego.Module("debate_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the debate policy. Input carries goal, round, last turn
// text, and citation count. Returns the decision ("pass" or "fail") and an
// optional reason.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy is expected to define a default.
		return "pass", "default", nil
	}

	val := results[0].Expressions[0].Value
	if s, ok := val.(string); ok {
		return s, "", nil
	}
	if m, ok := val.(map[string]interface{}); ok {
		decision, _ := m["decision"].(string)
		reason, _ := m["reason"].(string)
		if decision != "" {
			return decision, reason, nil
		}
	}

	return "pass", "unexpected return type", nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package debate_policy

import rego.v1

default decision := "pass"

# A turn with no text says nothing worth scoring.
decision := "fail" if {
	trim_space(input.last_turn) == ""
}

# Past the opening round, claims must carry an evidence trail.
decision := "fail" if {
	input.round > 1
	input.citations == 0
}
`
