// Package domain defines the core domain models for the debate engine.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies which side of the debate produced a turn.
type Role string

const (
	RoleProponent Role = "proponent"
	RoleSkeptic   Role = "skeptic"
	RoleReferee   Role = "referee"
)

// Status represents the lifecycle status of a debate session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusTimeout   Status = "timeout"
	StatusAborted   Status = "aborted"
)

// Terminal reports whether a status permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusTimeout, StatusAborted:
		return true
	}
	return false
}

// EventType represents the type of a stream event.
type EventType string

const (
	EventTypeStatus  EventType = "status"
	EventTypeTurn    EventType = "turn"
	EventTypeOutcome EventType = "outcome"
)

// DebateConfig is the immutable configuration supplied at session start.
type DebateConfig struct {
	Goal        string            `json:"goal"`
	PrincipalID string            `json:"principal_id,omitempty"`
	MaxRounds   int               `json:"max_rounds"`
	MaxWallMS   int64             `json:"max_wall_ms"`
	Verifiers   []string          `json:"verifiers,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
}

// Wall returns the wall-clock budget as a duration.
func (c DebateConfig) Wall() time.Duration {
	return time.Duration(c.MaxWallMS) * time.Millisecond
}

// Validate rejects configurations the engine must never run with.
func (c DebateConfig) Validate() error {
	if strings.TrimSpace(c.Goal) == "" {
		return fmt.Errorf("goal is required")
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be positive, got %d", c.MaxRounds)
	}
	if c.MaxWallMS <= 0 {
		return fmt.Errorf("max_wall_ms must be positive, got %d", c.MaxWallMS)
	}
	return nil
}

// VerifierResult is a single capability invocation outcome attached to a
// referee turn.
type VerifierResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Turn is one utterance in a round. Turns are append-only: once recorded on
// a session they are never mutated.
type Turn struct {
	TurnID     string           `json:"turn_id"`
	SessionID  string           `json:"session_id"`
	Round      int              `json:"round"`
	Role       Role             `json:"role"`
	Text       string           `json:"text"`
	Citations  []string         `json:"citations,omitempty"`
	Verdicts   []VerifierResult `json:"verdicts,omitempty"`
	ArchiveRef string           `json:"archive_ref,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Scoreboard is the running two-sided score.
type Scoreboard struct {
	Proponent int `json:"proponent"`
	Skeptic   int `json:"skeptic"`
}

// Outcome is the terminal verdict of a session, produced exactly once.
type Outcome struct {
	SessionID   string    `json:"session_id"`
	Verdict     string    `json:"verdict"`
	Confidence  float64   `json:"confidence"`
	WinningRole Role      `json:"winning_role,omitempty"`
	KeyTurnIDs  []string  `json:"key_turn_ids,omitempty"`
	FinalizedAt time.Time `json:"finalized_at"`
}

// StreamEvent is one sequenced, immutable entry in a session's event journal.
// Exactly one of Turn or Outcome is set depending on Type; Status and Score
// are carried on every variant.
type StreamEvent struct {
	Seq       uint64     `json:"seq"`
	SessionID string     `json:"session_id"`
	Ts        int64      `json:"ts"` // Unix milliseconds
	Type      EventType  `json:"type"`
	Status    Status     `json:"status"`
	Score     Scoreboard `json:"scoreboard"`
	Turn      *Turn      `json:"turn,omitempty"`
	Outcome   *Outcome   `json:"outcome,omitempty"`
}

// Snapshot is a point-in-time copy of a session's externally visible state.
type Snapshot struct {
	SessionID string       `json:"session_id"`
	Status    Status       `json:"status"`
	Config    DebateConfig `json:"config"`
	Turns     []Turn       `json:"turns"`
	Score     Scoreboard   `json:"scoreboard"`
	Outcome   *Outcome     `json:"outcome,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
}
