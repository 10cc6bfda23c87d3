// Package metrics holds the Prometheus collectors for the companion service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// Collectors live in a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// Conversation metrics
	TurnsTotal              *prometheus.CounterVec
	GenerationFailuresTotal *prometheus.CounterVec
	GenerationDuration      prometheus.Histogram
	FallbackRepliesTotal    prometheus.Counter

	// Memory metrics
	ExtractionFailuresTotal   prometheus.Counter
	CandidatesCreatedTotal    prometheus.Counter
	DuplicatesSuppressedTotal prometheus.Counter
	MemoriesPurgedTotal       prometheus.Counter

	// Session metrics
	SessionsStartedTotal prometheus.Counter
	SessionsEndedTotal   prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates and registers all metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "companion_turns_total",
				Help: "Total number of conversation turns",
			},
			[]string{"mode"},
		),
		GenerationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "companion_generation_failures_total",
				Help: "Reply generation failures by attempt number",
			},
			[]string{"attempt"},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "companion_generation_duration_seconds",
				Help:    "Duration of reply generation calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		FallbackRepliesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "companion_fallback_replies_total",
				Help: "Turns answered with the fixed fallback reply",
			},
		),
		ExtractionFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "companion_extraction_failures_total",
				Help: "Memory extraction calls that failed",
			},
		),
		CandidatesCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "companion_candidates_created_total",
				Help: "Candidate memories persisted",
			},
		),
		DuplicatesSuppressedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "companion_duplicates_suppressed_total",
				Help: "Extracted candidates dropped as duplicates",
			},
		),
		MemoriesPurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "companion_memories_purged_total",
				Help: "Memories deleted by ephemeral session cleanup",
			},
		),
		SessionsStartedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "companion_sessions_started_total",
				Help: "Sessions started",
			},
		),
		SessionsEndedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "companion_sessions_ended_total",
				Help: "Sessions ended, explicitly or by rotation",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "companion_http_requests_total",
				Help: "HTTP requests by method, route pattern and status",
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		m.TurnsTotal,
		m.GenerationFailuresTotal,
		m.GenerationDuration,
		m.FallbackRepliesTotal,
		m.ExtractionFailuresTotal,
		m.CandidatesCreatedTotal,
		m.DuplicatesSuppressedTotal,
		m.MemoriesPurgedTotal,
		m.SessionsStartedTotal,
		m.SessionsEndedTotal,
		m.HTTPRequestsTotal,
	)
	return m
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
