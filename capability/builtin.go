package capability

import (
	"context"
	"fmt"
)

// Built-in verifiers. These are deterministic stand-ins for real document
// search and contradiction scanning tools; sessions reference them by name.
const (
	NameEvidenceRecency   = "evidence.recency"
	NameConsistencyParity = "consistency.parity"
	NamePolicyCompliance  = "policy.compliance"
)

// EvidenceRecency passes when the side under review backed its turn with at
// least one citation, once there is prior material to cite.
func EvidenceRecency() Handler {
	return HandlerFunc{
		CapName: NameEvidenceRecency,
		Fn: func(ctx context.Context, in Input) (Result, error) {
			if in.Round <= 1 {
				return Result{OK: true, Reason: "opening round, no evidence trail expected"}, nil
			}
			if in.Citations == 0 {
				return Result{OK: false, Reason: "no citations into the archive"}, nil
			}
			return Result{OK: true, Reason: fmt.Sprintf("%d recent citations", in.Citations)}, nil
		},
	}
}

// ConsistencyParity alternates its verdict by round parity. It is a stand-in
// for a contradiction scanner and keeps multi-round runs from terminating on
// a unanimous sweep.
func ConsistencyParity() Handler {
	return HandlerFunc{
		CapName: NameConsistencyParity,
		Fn: func(ctx context.Context, in Input) (Result, error) {
			if in.Round%2 == 1 {
				return Result{OK: true, Reason: "no contradiction found"}, nil
			}
			return Result{OK: false, Reason: "unresolved tension with earlier turn"}, nil
		},
	}
}

// Defaults returns the built-in handler set, excluding the policy verifier
// which needs an engine injected (see NewPolicyVerifier).
func Defaults() []Handler {
	return []Handler{EvidenceRecency(), ConsistencyParity()}
}
