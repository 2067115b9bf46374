// Package observability provides Prometheus metrics for the SocialWave services.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, so components can be constructed without instrumentation in tests.
type Metrics struct {
	// Facade metrics
	OperationsTotal *prometheus.CounterVec
	EventsTracked   *prometheus.CounterVec

	// Store metrics
	StoreEntries *prometheus.GaugeVec

	// Lifecycle metrics
	LifecycleTransitions *prometheus.CounterVec
	SnapshotDuration     *prometheus.HistogramVec
	SnapshotBytes        prometheus.Gauge
}

// NewMetrics creates and registers all metrics on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialwave_operations_total",
				Help: "Total number of facade operations by service, operation and result",
			},
			[]string{"service", "operation", "result"},
		),
		EventsTracked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialwave_events_tracked_total",
				Help: "Total number of tracked events by kind and platform",
			},
			[]string{"kind", "platform"},
		),
		StoreEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "socialwave_store_entries",
				Help: "Number of entries per store, sampled at each lifecycle transition",
			},
			[]string{"store"},
		),
		LifecycleTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialwave_lifecycle_transitions_total",
				Help: "Total number of drain, checkpoint and rehydrate runs by result",
			},
			[]string{"transition", "result"},
		),
		SnapshotDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socialwave_snapshot_duration_seconds",
				Help:    "Time spent capturing or restoring a snapshot image",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"transition"},
		),
		SnapshotBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "socialwave_snapshot_bytes",
				Help: "Size of the most recently written or read snapshot image",
			},
		),
	}

	registry.MustRegister(
		m.OperationsTotal,
		m.EventsTracked,
		m.StoreEntries,
		m.LifecycleTransitions,
		m.SnapshotDuration,
		m.SnapshotBytes,
	)

	return m
}

// RecordOperation counts one facade call.
func (m *Metrics) RecordOperation(service, operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OperationsTotal.WithLabelValues(service, operation, result).Inc()
}

// RecordEvent counts one tracked event.
func (m *Metrics) RecordEvent(kind, platform string) {
	if m == nil {
		return
	}
	m.EventsTracked.WithLabelValues(kind, platform).Inc()
}

// RecordTransition records the outcome and duration of a lifecycle transition.
func (m *Metrics) RecordTransition(transition string, started time.Time, imageBytes int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.LifecycleTransitions.WithLabelValues(transition, result).Inc()
	m.SnapshotDuration.WithLabelValues(transition).Observe(time.Since(started).Seconds())
	if err == nil && imageBytes > 0 {
		m.SnapshotBytes.Set(float64(imageBytes))
	}
}

// SetStoreEntries records the size of one store.
func (m *Metrics) SetStoreEntries(store string, n int) {
	if m == nil {
		return
	}
	m.StoreEntries.WithLabelValues(store).Set(float64(n))
}

// Handler returns the /metrics HTTP handler for registry.
func Handler(registry prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
