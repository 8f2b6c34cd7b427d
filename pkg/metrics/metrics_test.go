package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.RunsTotal == nil {
		t.Error("RunsTotal not initialized")
	}
	if r.SplitAttemptsTotal == nil {
		t.Error("SplitAttemptsTotal not initialized")
	}
	if r.GraphNodes == nil {
		t.Error("GraphNodes not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()

	r1.RecordRun(StatusSuccess, time.Millisecond)

	if got := counterValue(t, r2.RunsTotal, StatusSuccess); got != 0 {
		t.Errorf("second registry saw %v runs, want 0", got)
	}
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()

	r.RecordRun(StatusSuccess, 10*time.Millisecond)
	r.RecordRun(StatusSuccess, 20*time.Millisecond)
	r.RecordRun(StatusError, 5*time.Millisecond)

	if got := counterValue(t, r.RunsTotal, StatusSuccess); got != 2 {
		t.Errorf("Success counter = %v, want 2", got)
	}
	if got := counterValue(t, r.RunsTotal, StatusError); got != 1 {
		t.Errorf("Error counter = %v, want 1", got)
	}

	var metric dto.Metric
	if err := r.RunDuration.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Histogram sample count = %v, want 3", metric.Histogram.GetSampleCount())
	}
}

func TestGaugeMetrics(t *testing.T) {
	r := NewRegistry()
	r.RecordResult(0.4198, 4)
	r.RecordGraph(34, 78)

	tests := []struct {
		name  string
		gauge prometheus.Gauge
		want  float64
	}{
		{"modularity", r.Modularity, 0.4198},
		{"communities", r.Communities, 4},
		{"nodes", r.GraphNodes, 34},
		{"edges", r.GraphEdges, 78},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gaugeValue(t, tt.gauge); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRecordSplitAttemptAndMoves(t *testing.T) {
	r := NewRegistry()

	r.RecordSplitAttempt("random", OutcomeImproved)
	r.RecordSplitAttempt("random", OutcomeRejected)
	r.RecordSplitAttempt("random", OutcomeRejected)
	r.RecordSplitAttempt("fixed", OutcomeSkipped)

	if got := counterValue(t, r.SplitAttemptsTotal, "random", OutcomeRejected); got != 2 {
		t.Errorf("random/rejected = %v, want 2", got)
	}
	if got := counterValue(t, r.SplitAttemptsTotal, "fixed", OutcomeSkipped); got != 1 {
		t.Errorf("fixed/skipped = %v, want 1", got)
	}

	r.RecordMoves(MoveNode, 12)
	r.RecordMoves(MoveSplit, 0)
	if got := counterValue(t, r.MovesTotal, MoveNode); got != 12 {
		t.Errorf("node moves = %v, want 12", got)
	}
	if got := counterValue(t, r.MovesTotal, MoveSplit); got != 0 {
		t.Errorf("split moves = %v, want 0", got)
	}
}

func TestSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics()

	if got := gaugeValue(t, r.GoRoutines); got < 1 {
		t.Errorf("goroutines = %v, want at least 1", got)
	}
	if got := gaugeValue(t, r.MemorySysBytes); got <= 0 {
		t.Errorf("memory sys bytes = %v, want > 0", got)
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.RecordRun(StatusSuccess, time.Millisecond)
	r.RecordSplitAttempt("random", OutcomeImproved)
	r.RecordMoves(MoveMerge, 1)

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	names := make(map[string]bool)
	for _, m := range metrics {
		name := m.GetName()
		names[name] = true
		if !strings.HasPrefix(name, "combo_") {
			t.Errorf("Metric %s does not have combo_ prefix", name)
		}
	}
	for _, expected := range []string{
		"combo_runs_total",
		"combo_run_duration_seconds",
		"combo_split_attempts_total",
		"combo_moves_total",
		"combo_modularity",
		"combo_graph_nodes",
	} {
		if !names[expected] {
			t.Errorf("Expected metric %s not found", expected)
		}
	}
}

func TestWriteToTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordResult(0.5, 2)

	path := filepath.Join(t.TempDir(), "combo.prom")
	if err := r.WriteToTextfile(path); err != nil {
		t.Fatalf("WriteToTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), "combo_modularity 0.5") {
		t.Errorf("textfile missing modularity gauge:\n%s", data)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RecordSplitAttempt("random", OutcomeRejected)
			}
		}()
	}
	wg.Wait()

	if got := counterValue(t, r.SplitAttemptsTotal, "random", OutcomeRejected); got != 1000 {
		t.Errorf("counter = %v, want 1000", got)
	}
}

func BenchmarkRecordSplitAttempt(b *testing.B) {
	r := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordSplitAttempt("random", OutcomeRejected)
	}
}
