package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "combo_runs_total",
			Help: "Total number of optimizer runs",
		},
		[]string{"status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "combo_run_duration_seconds",
			Help:    "Optimizer run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	r.SplitAttemptsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "combo_split_attempts_total",
			Help: "Total number of perturbation attempts",
		},
		[]string{"strategy", "outcome"},
	)

	r.MovesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "combo_moves_total",
			Help: "Total number of local search moves applied",
		},
		[]string{"kind"},
	)

	r.Modularity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "combo_modularity",
			Help: "Modularity of the last result",
		},
	)

	r.Communities = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "combo_communities",
			Help: "Number of communities in the last result",
		},
	)
}
