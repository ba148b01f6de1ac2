// Package metrics exposes the simulator's Prometheus instrumentation:
// ingestion throughput, rejection rates, and structural state that's
// otherwise invisible between notification ticks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fleetd.sh/internal/simulator"
	"fleetd.sh/internal/trace"
)

var (
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pajesim_events_total",
			Help: "Total number of trace events ingested, by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: accepted, rejected
	)

	EventErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pajesim_event_errors_total",
			Help: "Total number of rejected events, by error kind",
		},
		[]string{"error_kind"},
	)

	EventHandleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pajesim_event_handle_duration_seconds",
			Help:    "Time spent dispatching a single trace event",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	ContainersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pajesim_containers_created_total",
			Help: "Total number of containers created",
		},
	)

	ContainersDestroyedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pajesim_containers_destroyed_total",
			Help: "Total number of containers destroyed",
		},
	)

	ContainersOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pajesim_containers_open",
			Help: "Number of non-root containers not yet destroyed",
		},
	)

	OrphanLinksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pajesim_orphan_links_total",
			Help: "Total number of link halves left unpaired at Finish",
		},
	)

	LastKnownTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pajesim_last_known_time_seconds",
			Help: "Greatest Time field observed so far in the current run",
		},
	)
)

// RecordEvent records the outcome of a single InputEvent call.
func RecordEvent(kind, outcome string, durationSeconds float64) {
	EventsTotal.WithLabelValues(kind, outcome).Inc()
	EventHandleDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordEventError records a rejection's error kind.
func RecordEventError(errKind string) {
	EventErrorsTotal.WithLabelValues(errKind).Inc()
}

// Hooks builds a simulator.Hooks value that feeds every structural
// instrumentation point this package exposes, so callers can wire
// metrics in with a single simulator.WithHooks(metrics.Hooks()) option
// instead of hand-rolling each callback.
func Hooks() simulator.Hooks {
	return simulator.Hooks{
		EventAccepted: func(kind trace.Kind, elapsed time.Duration) {
			RecordEvent(string(kind), "accepted", elapsed.Seconds())
		},
		EventRejected: func(kind trace.Kind, err error) {
			EventsTotal.WithLabelValues(string(kind), "rejected").Inc()
		},
		ContainerCreated: func(string) {
			ContainersCreatedTotal.Inc()
			ContainersOpen.Inc()
		},
		ContainerDestroyed: func(string) {
			ContainersDestroyedTotal.Inc()
			ContainersOpen.Dec()
		},
		OrphanLinkDetected: func(typeID, key, containerID string) {
			OrphanLinksTotal.Inc()
		},
		TimeAdvanced: func(t float64) {
			LastKnownTime.Set(t)
		},
	}
}
