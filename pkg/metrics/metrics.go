package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordRun records a finished optimizer run
func (r *Registry) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// RecordResult sets the gauges describing the last result
func (r *Registry) RecordResult(modularity float64, communities int) {
	r.Modularity.Set(modularity)
	r.Communities.Set(float64(communities))
}

// RecordGraph sets the size of the graph being optimized
func (r *Registry) RecordGraph(nodes, edges int) {
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
}

// RecordSplitAttempt counts one perturbation attempt
func (r *Registry) RecordSplitAttempt(strategy, outcome string) {
	r.SplitAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordMoves adds local search moves of the given kind
func (r *Registry) RecordMoves(kind string, n int) {
	if n <= 0 {
		return
	}
	r.MovesTotal.WithLabelValues(kind).Add(float64(n))
}

// UpdateSystemMetrics samples goroutine and memory statistics
func (r *Registry) UpdateSystemMetrics() {
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// WriteToTextfile writes the registry in the Prometheus text format, for
// the node exporter's textfile collector.
func (r *Registry) WriteToTextfile(path string) error {
	r.UpdateSystemMetrics()
	return prometheus.WriteToTextfile(path, r.registry)
}
