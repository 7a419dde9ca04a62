package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Cascade metrics
	StatusChanges       *prometheus.CounterVec
	ClinicsTransferred  prometheus.Counter
	ConflictsDetected   prometheus.Counter
	AppointmentsMarked  prometheus.Counter
	ServicesDeactivated prometheus.Counter
	DegradedMode        prometheus.Gauge

	// Outbox metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "complex_status_changes_total",
			Help:      "Total number of complex status changes",
		}, []string{"status"}),
		ClinicsTransferred: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clinics_transferred_total",
			Help:      "Total number of clinics moved between complexes",
		}),
		ConflictsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "working_hours_conflicts_total",
			Help:      "Total number of working-hours conflicts detected during transfers",
		}),
		AppointmentsMarked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_marked_for_rescheduling_total",
			Help:      "Total number of appointments flagged for rescheduling",
		}),
		ServicesDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "services_deactivated_total",
			Help:      "Total number of services deactivated by cascades",
		}),
		DegradedMode: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transactions_degraded",
			Help:      "1 when the store does not support transactions and writes are non-atomic",
		}),

		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}
