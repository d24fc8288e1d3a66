package push

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
	OutcomeGone    = "gone"
)

// Metrics tracks dispatcher activity.
type Metrics struct {
	Deliveries  *prometheus.CounterVec
	RunDuration prometheus.Histogram
	Runs        prometheus.Counter
}

// NewMetrics registers the dispatcher metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Deliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lovetoday",
				Subsystem: "push",
				Name:      "deliveries_total",
				Help:      "Per-subscriber dispatch outcomes",
			},
			[]string{"outcome"},
		),
		RunDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "lovetoday",
				Subsystem: "push",
				Name:      "dispatch_duration_seconds",
				Help:      "Time taken by one dispatch run",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Runs: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lovetoday",
				Subsystem: "push",
				Name:      "dispatch_runs_total",
				Help:      "Number of dispatch runs",
			},
		),
	}
}
