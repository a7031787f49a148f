package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the directory and reveal services.
// All methods are nil-safe so tests can pass a nil *Metrics.
type Metrics struct {
	// Reveal outcomes by type and outcome
	RevealOutcome *prometheus.CounterVec

	// Compensating writes executed (company create, profile create, reveal refund)
	Compensations *prometheus.CounterVec

	// Partitions that timed out during a fan-out search
	PartitionTimeouts prometheus.Counter

	// Fan-out search latency by entity
	SearchLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all collectors registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		RevealOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgrid_reveal_outcomes_total",
			Help: "Total reveal outcomes by reveal type and outcome",
		}, []string{"type", "outcome"}), // outcome: "revealed", "repeat", "insufficient", "rolled_back"

		Compensations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgrid_compensations_total",
			Help: "Compensating writes executed after a failed second step",
		}, []string{"operation"}), // operation: "company_create", "profile_create", "reveal"

		PartitionTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "leadgrid_partition_timeouts_total",
			Help: "Partitions dropped from fan-out searches due to timeout",
		}),

		SearchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadgrid_search_duration_seconds",
			Help:    "Duration of full partition fan-out searches",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"entity"}), // entity: "profile", "company"
	}
}

// IncrementRevealOutcome records the final state of a reveal attempt.
func (m *Metrics) IncrementRevealOutcome(revealType, outcome string) {
	if m != nil {
		m.RevealOutcome.WithLabelValues(revealType, outcome).Inc()
	}
}

// IncrementCompensation records an executed compensating write.
func (m *Metrics) IncrementCompensation(operation string) {
	if m != nil {
		m.Compensations.WithLabelValues(operation).Inc()
	}
}

// IncrementPartitionTimeout records a partition dropped from a search.
func (m *Metrics) IncrementPartitionTimeout() {
	if m != nil {
		m.PartitionTimeouts.Inc()
	}
}

// ObserveSearchLatency records the duration of a fan-out search.
func (m *Metrics) ObserveSearchLatency(entity string, d time.Duration) {
	if m != nil {
		m.SearchLatency.WithLabelValues(entity).Observe(d.Seconds())
	}
}
