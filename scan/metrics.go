package scan

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scan engine.
type Metrics struct {
	Registry         *prometheus.Registry
	ScansTotal       *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	FetchErrorsTotal *prometheus.CounterVec
	RelayTotal       prometheus.Counter
	CyclesTotal      prometheus.Counter
	TargetsDue       prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	scans := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricesentry_scans_total",
			Help: "Total scan attempts by outcome.",
		},
		[]string{"outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricesentry_fetch_duration_seconds",
			Help:    "Page retrieval latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	fetchErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricesentry_fetch_errors_total",
			Help: "Total retrieval failures by type.",
		},
		[]string{"error_type"},
	)
	relay := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricesentry_relay_requests_total",
			Help: "Total scans routed through the metered relay.",
		},
	)
	cycles := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricesentry_cycles_total",
			Help: "Total scan cycles executed.",
		},
	)
	due := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricesentry_targets_due",
			Help: "Targets due at the start of the last cycle.",
		},
	)

	registry.MustRegister(scans, fetchDuration, fetchErrors, relay, cycles, due)

	return &Metrics{
		Registry:         registry,
		ScansTotal:       scans,
		FetchDuration:    fetchDuration,
		FetchErrorsTotal: fetchErrors,
		RelayTotal:       relay,
		CyclesTotal:      cycles,
		TargetsDue:       due,
	}
}

// IncScan increments the scan counter for an outcome label.
func (m *Metrics) IncScan(outcome string) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records a retrieval duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncFetchError increments the retrieval failure counter for a type label.
func (m *Metrics) IncFetchError(errorType string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncRelay increments the metered relay usage counter.
func (m *Metrics) IncRelay() {
	if m == nil {
		return
	}
	m.RelayTotal.Inc()
}

// CycleStarted records a new cycle and its due-target count.
func (m *Metrics) CycleStarted(due int) {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
	m.TargetsDue.Set(float64(due))
}
