package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives operation outcomes from the readiness service.
type Recorder interface {
	// Observe records one operation outcome.
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	// ImportRows counts candidate rows of one import by outcome (inserted,
	// updated, skipped).
	ImportRows(source, outcome string, n int)
	// CombinedRows sets the current size of the combined table.
	CombinedRows(n int)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Observe(context.Context, string, bool, time.Duration) {}
func (Nop) ImportRows(string, string, int)                      {}
func (Nop) CombinedRows(int)                                    {}

// Prometheus is a Recorder backed by client_golang collectors.
type Prometheus struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	importRows *prometheus.CounterVec
	combined   prometheus.Gauge
}

// NewPrometheus creates the collectors and registers them with reg. A nil reg
// uses the default registerer.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prometheus{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "readiness",
			Name:      "operations_total",
			Help:      "Readiness operations by name and result.",
		}, []string{"operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "readiness",
			Name:      "operation_duration_seconds",
			Help:      "Duration of readiness operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "readiness",
			Name:      "import_rows_total",
			Help:      "Imported candidate rows by source and outcome.",
		}, []string{"source", "outcome"}),
		combined: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "readiness",
			Name:      "combined_rows",
			Help:      "Rows in the combined table after the last rebuild.",
		}),
	}
	for _, c := range []prometheus.Collector{p.operations, p.durations, p.importRows, p.combined} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	p.operations.WithLabelValues(operation, result).Inc()
	p.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *Prometheus) ImportRows(source, outcome string, n int) {
	if n <= 0 {
		return
	}
	p.importRows.WithLabelValues(source, outcome).Add(float64(n))
}

func (p *Prometheus) CombinedRows(n int) { p.combined.Set(float64(n)) }
