// Package metrics holds the export counters. They are registered on a private
// registry and written to a node-exporter textfile at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quotes_export"

// Export is the set of counters of one process.
type Export struct {
	Registry *prometheus.Registry

	Jobs        *prometheus.CounterVec // by terminal state
	Rows        *prometheus.CounterVec // by format
	Bytes       *prometheus.CounterVec // by format
	Retries     prometheus.Counter
	VWAPSkipped prometheus.Counter
	Duration    *prometheus.HistogramVec // by format
}

// New registers the counters on a fresh registry.
func New() *Export {
	m := &Export{
		Registry: prometheus.NewRegistry(),
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_total",
			Help: "Export jobs by terminal state.",
		}, []string{"state"}),
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_total",
			Help: "Records written by output format.",
		}, []string{"format"}),
		Bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_total",
			Help: "Artifact bytes committed by output format.",
		}, []string{"format"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "timeout_retries_total",
			Help: "Encode attempts repeated after a stream timeout.",
		}),
		VWAPSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "vwap_exponents_skipped_total",
			Help: "VWAP sub-requests that failed to open.",
		}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "job_duration_seconds",
			Help:    "Wall time of finished jobs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"format"}),
	}
	m.Registry.MustRegister(m.Jobs, m.Rows, m.Bytes, m.Retries, m.VWAPSkipped, m.Duration)
	return m
}

// Job is the outcome of one finished job.
type Job struct {
	State    string
	Format   string
	Rows     int64
	Bytes    int64
	Retries  int
	Skipped  int
	Duration time.Duration
}

// Observe adds a finished job. A nil Export ignores it.
func (m *Export) Observe(j Job) {
	if m == nil {
		return
	}
	m.Jobs.WithLabelValues(j.State).Inc()
	m.Rows.WithLabelValues(j.Format).Add(float64(j.Rows))
	m.Bytes.WithLabelValues(j.Format).Add(float64(j.Bytes))
	m.Retries.Add(float64(j.Retries))
	m.VWAPSkipped.Add(float64(j.Skipped))
	if j.Duration > 0 {
		m.Duration.WithLabelValues(j.Format).Observe(j.Duration.Seconds())
	}
}

// WriteTextfile writes the registry in the text exposition format. An empty
// path or a nil Export is a no-op.
func (m *Export) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
