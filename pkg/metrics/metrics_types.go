// Package metrics exposes the optimizer's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome and status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OutcomeImproved = "improved"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"

	MoveNode  = "node"
	MoveMerge = "merge"
	MoveSplit = "split"
)

// Registry holds all metrics for the optimizer
type Registry struct {
	// Run Metrics
	RunsTotal          *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	SplitAttemptsTotal *prometheus.CounterVec
	MovesTotal         *prometheus.CounterVec
	Modularity         prometheus.Gauge
	Communities        prometheus.Gauge

	// Graph Metrics
	GraphNodes prometheus.Gauge
	GraphEdges prometheus.Gauge

	// System Metrics
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initRunMetrics()
	r.initGraphMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
