// Package capability provides the named verifier registry consulted during
// the referee phase.
package capability

import "context"

// Input is the context snapshot handed to a verifier.
type Input struct {
	Goal        string            `json:"goal"`
	Round       int               `json:"round"`
	LastTurn    string            `json:"last_turn"`
	Citations   int               `json:"citations"`
	Attachments map[string]string `json:"attachments,omitempty"`
	Telemetry   string            `json:"telemetry,omitempty"`
}

// Result is a verifier's verdict on the current state of the debate.
type Result struct {
	OK     bool
	Reason string
}

// Handler is a single named verification capability. Invoke may return an
// error or panic; callers convert both into a failing result.
type Handler interface {
	Name() string
	Invoke(ctx context.Context, in Input) (Result, error)
}

// Registry is the lookup table of verification capabilities, populated at
// startup.
type Registry struct {
	handlers map[string]Handler
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler under its name, replacing any previous handler
// with the same name.
func (r *Registry) Register(h Handler) {
	if _, ok := r.handlers[h.Name()]; !ok {
		r.order = append(r.order, h.Name())
	}
	r.handlers[h.Name()] = h
}

// Resolve returns the handler registered under name, or nil.
func (r *Registry) Resolve(name string) Handler {
	return r.handlers[name]
}

// Names lists registered capability names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	CapName string
	Fn      func(ctx context.Context, in Input) (Result, error)
}

func (h HandlerFunc) Name() string { return h.CapName }

func (h HandlerFunc) Invoke(ctx context.Context, in Input) (Result, error) {
	return h.Fn(ctx, in)
}
