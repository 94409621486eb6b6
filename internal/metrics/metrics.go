// Package metrics exposes Prometheus instruments for the intake assistant.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors recorded by the engine and session store.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	turns              *prometheus.CounterVec
	completions        *prometheus.CounterVec
	completionDuration prometheus.Histogram
	storeErrors        *prometheus.CounterVec
	sessions           prometheus.GaugeFunc
}

// New registers the collectors on a fresh registry.  activeSessions is
// sampled on every scrape.
func New(activeSessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_turns_total",
			Help: "Inbound messages handled, by stage at arrival.",
		}, []string{"stage"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_completions_total",
			Help: "Completion calls, by result.",
		}, []string{"result"}),
		completionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "intake_completion_duration_seconds",
			Help:    "Completion call latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_store_errors_total",
			Help: "Durable store failures, by operation.",
		}, []string{"op"}),
	}
	if activeSessions == nil {
		activeSessions = func() int { return 0 }
	}
	m.sessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "intake_sessions",
		Help: "Sessions held in memory.",
	}, func() float64 { return float64(activeSessions()) })

	reg.MustRegister(m.turns, m.completions, m.completionDuration, m.storeErrors, m.sessions)
	return m
}

// Turn counts one inbound message at stage.
func (m *Metrics) Turn(stage string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(stage).Inc()
}

// Completion records a completion call outcome ("ok", "error",
// "not_configured").
func (m *Metrics) Completion(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(result).Inc()
	m.completionDuration.Observe(d.Seconds())
}

// StoreError counts a failed durable store call.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
