// Package metrics exposes the engine's prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arbiterhq/arbiter/domain"
)

// Metrics is the fire-and-forget counter sink reported to by the engine.
type Metrics struct {
	roundsCompleted *prometheus.CounterVec
	verifierResults *prometheus.CounterVec
	sessionDuration prometheus.Histogram
	sessionsStarted prometheus.Counter
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		roundsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbiter_rounds_completed_total",
			Help: "Completed debate turns by role.",
		}, []string{"role"}),
		verifierResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbiter_verifier_results_total",
			Help: "Verifier sweep results by capability name and outcome.",
		}, []string{"verifier", "outcome"}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbiter_session_duration_seconds",
			Help:    "Wall-clock duration of finished debate sessions.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbiter_sessions_started_total",
			Help: "Debate sessions accepted by the scheduler.",
		}),
	}
	reg.MustRegister(m.roundsCompleted, m.verifierResults, m.sessionDuration, m.sessionsStarted)
	return m
}

// SessionStarted counts an accepted start call.
func (m *Metrics) SessionStarted() {
	m.sessionsStarted.Inc()
}

// TurnCompleted counts one produced turn.
func (m *Metrics) TurnCompleted(role domain.Role) {
	m.roundsCompleted.WithLabelValues(string(role)).Inc()
}

// VerifierResult counts one sweep result, pass or fail.
func (m *Metrics) VerifierResult(name string, ok bool) {
	outcome := "fail"
	if ok {
		outcome = "pass"
	}
	m.verifierResults.WithLabelValues(name, outcome).Inc()
}

// SessionFinished reports the total wall-clock duration of a session.
func (m *Metrics) SessionFinished(d time.Duration) {
	m.sessionDuration.Observe(d.Seconds())
}
