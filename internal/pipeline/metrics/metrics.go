package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the pipeline orchestrator. All methods
// are nil-safe.
type Metrics struct {
	// Batch outcomes by source kind and status
	BatchesTotal *prometheus.CounterVec

	// Rows parsed per batch after scope filtering
	BatchRows *prometheus.HistogramVec

	// Per-batch wall time including fetch, parse, and persistence
	BatchDuration *prometheus.HistogramVec
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		BatchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "indexly_pipeline_batches_total",
			Help: "Total source batches processed by source kind and status",
		}, []string{"source", "status"}),

		BatchRows: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "indexly_pipeline_batch_rows",
			Help:    "Observation rows per batch after scope filtering",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}, []string{"source"}),

		BatchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "indexly_pipeline_batch_duration_seconds",
			Help:    "Per-batch duration including fetch, parse, and persistence",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"source"}),
	}
}

// ObserveBatch records one finished batch.
func (m *Metrics) ObserveBatch(sourceKind, status string, rows int, d time.Duration) {
	if m != nil {
		m.BatchesTotal.WithLabelValues(sourceKind, status).Inc()
		m.BatchRows.WithLabelValues(sourceKind).Observe(float64(rows))
		m.BatchDuration.WithLabelValues(sourceKind).Observe(d.Seconds())
	}
}
