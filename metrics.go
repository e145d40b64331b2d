package tabula

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus instrumentation for dataset operations.
// It is opt-in via WithMetrics; a nil *Metrics is a no-op.
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics creates the dataset collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tabula",
				Subsystem: "dataset",
				Name:      "operations_total",
				Help:      "Dataset load/save/reload operations by slot and status",
			},
			[]string{"op", "slot", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tabula",
				Subsystem: "dataset",
				Name:      "operation_duration_seconds",
				Help:      "Dataset load/save/reload duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op", "slot"},
		),
	}
	reg.MustRegister(m.Operations, m.Duration)
	return m
}

func (m *Metrics) observe(op, slot string, err error, start time.Time) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Operations.WithLabelValues(op, slot, status).Inc()
	m.Duration.WithLabelValues(op, slot).Observe(time.Since(start).Seconds())
}
