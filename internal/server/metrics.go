package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the agent service.
type Metrics struct {
	TurnsTotal   *prometheus.CounterVec
	StepsTotal   *prometheus.CounterVec
	TurnDuration prometheus.Histogram
}

// NewMetrics registers the service metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgraph",
			Name:      "turns_total",
			Help:      "Completed workflow turns by outcome.",
		}, []string{"outcome"}),
		StepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgraph",
			Name:      "steps_total",
			Help:      "Executed workflow steps by state.",
		}, []string{"state"}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agentgraph",
			Name:      "turn_duration_seconds",
			Help:      "Wall-clock duration of workflow turns.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}
