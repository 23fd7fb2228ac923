package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ingestion engine. All methods are
// nil-safe so wiring metrics stays optional.
type Metrics struct {
	// Run outcomes by final status
	RunsTotal *prometheus.CounterVec

	// Raw audit rows persisted
	RawRowsTotal prometheus.Counter

	// Fact upserts performed
	FactsTotal prometheus.Counter

	// Transaction retries after transient storage failures
	RetriesTotal prometheus.Counter

	// End-to-end ingestion duration per batch
	IngestDuration prometheus.Histogram
}

// New creates a Metrics instance with all ingestion metrics registered.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "indexly_ingest_runs_total",
			Help: "Total ingestion runs by final status",
		}, []string{"status"}),

		RawRowsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "indexly_ingest_raw_rows_total",
			Help: "Total raw observation rows persisted to the audit table",
		}),

		FactsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "indexly_ingest_facts_total",
			Help: "Total series fact upserts performed",
		}),

		RetriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "indexly_ingest_retries_total",
			Help: "Total transaction retries after transient storage failures",
		}),

		IngestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "indexly_ingest_duration_seconds",
			Help:    "Duration of one ingestion invocation including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// IncrementRun records a run outcome.
func (m *Metrics) IncrementRun(status string) {
	if m != nil {
		m.RunsTotal.WithLabelValues(status).Inc()
	}
}

// AddRows records persisted raw and fact row counts.
func (m *Metrics) AddRows(raw, facts int) {
	if m != nil {
		m.RawRowsTotal.Add(float64(raw))
		m.FactsTotal.Add(float64(facts))
	}
}

// IncrementRetry records one transaction retry.
func (m *Metrics) IncrementRetry() {
	if m != nil {
		m.RetriesTotal.Inc()
	}
}

// ObserveIngestDuration records the duration of one ingestion invocation.
func (m *Metrics) ObserveIngestDuration(d time.Duration) {
	if m != nil {
		m.IngestDuration.Observe(d.Seconds())
	}
}
