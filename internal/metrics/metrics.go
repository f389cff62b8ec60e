// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all rota engine metrics
type Metrics struct {
	registry *prometheus.Registry

	// Rule engine
	ViolationsRaised   *prometheus.CounterVec
	ValidationDuration prometheus.Histogram

	// Mutation orchestration
	CommitOperations *prometheus.CounterVec

	// Schedule store
	ScheduleReloads *prometheus.CounterVec
}

// New creates and registers the metric set on its own registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.ViolationsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caretrack",
			Name:      "rule_violations_total",
			Help:      "Rule violations raised by the engine",
		},
		[]string{"rule", "severity"},
	)

	m.ValidationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "caretrack",
			Name:      "placement_validation_duration_seconds",
			Help:      "Time spent validating a proposed placement",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.CommitOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caretrack",
			Name:      "commit_operations_total",
			Help:      "Commit operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	m.ScheduleReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caretrack",
			Name:      "schedule_reloads_total",
			Help:      "Weekly schedule reloads by outcome",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(
		m.ViolationsRaised,
		m.ValidationDuration,
		m.CommitOperations,
		m.ScheduleReloads,
	)
	return m
}

// Handler returns the /metrics HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
