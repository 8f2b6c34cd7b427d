// Package combo partitions graphs into communities by maximizing
// modularity. A run brings a starting partition to a local optimum with
// node moves, merges and splits, then spends a budget of perturbations
// (forced splits followed by another local search) trying to escape it.
package combo

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/dd0wney/cluso-combo/pkg/graph"
	"github.com/dd0wney/cluso-combo/pkg/logging"
	"github.com/dd0wney/cluso-combo/pkg/metrics"
	"github.com/dd0wney/cluso-combo/pkg/modularity"
	"github.com/dd0wney/cluso-combo/pkg/pajek"
	"github.com/dd0wney/cluso-combo/pkg/partition"
	"github.com/dd0wney/cluso-combo/pkg/perturb"
	"github.com/dd0wney/cluso-combo/pkg/search"
	"github.com/dd0wney/cluso-combo/pkg/validation"
)

// pcgStream keeps the second PCG word distinct from the seed.
const pcgStream = 0x9e3779b97f4a7c15

// Result is the best partition a run found.
type Result struct {
	// Labels assigns each node a community, numbered from 0 in order of
	// first appearance.
	Labels       []int         `json:"labels" yaml:"labels"`
	Modularity   float64       `json:"modularity" yaml:"modularity"`
	Communities  int           `json:"communities" yaml:"communities"`
	Attempts     int           `json:"attempts" yaml:"attempts"`
	Improvements int           `json:"improvements" yaml:"improvements"`
	Seed         int64         `json:"seed" yaml:"seed"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Stats        search.Stats  `json:"stats" yaml:"stats"`
}

// OptimizeEdges builds a graph of n nodes from edges and optimizes it.
func OptimizeEdges(n int, edges []graph.Edge, directed bool, opts Options) (*Result, error) {
	g, err := graph.New(n, edges, directed)
	if err != nil {
		return nil, err
	}
	return Optimize(g, opts)
}

// OptimizeMatrix optimizes the graph given by a square adjacency matrix.
func OptimizeMatrix(matrix [][]float64, opts Options) (*Result, error) {
	g, err := graph.FromMatrix(matrix)
	if err != nil {
		return nil, err
	}
	return Optimize(g, opts)
}

// OptimizeFile reads a Pajek network and optimizes it.
func OptimizeFile(path string, opts Options) (*Result, error) {
	net, err := pajek.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Optimize(net.Graph, opts)
}

// Optimize partitions g.
func Optimize(g *graph.Graph, opts Options) (*Result, error) {
	start := time.Now()
	res, err := optimize(g, opts)
	if opts.Metrics != nil {
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusError
		}
		opts.Metrics.RecordRun(status, time.Since(start))
	}
	if res != nil {
		res.Duration = time.Since(start)
	}
	return res, err
}

func optimize(g *graph.Graph, opts Options) (*Result, error) {
	if g == nil {
		return nil, &graph.Error{Op: "Optimize", Edge: -1, Context: "nil graph", Cause: graph.ErrInvalidGraph}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	seed := opts.RandomSeed
	if seed == RandomSeedFromEntropy {
		seed = rand.Int64()
	}
	n := g.NodeCount()
	logger := logging.OrNop(opts.Logger).With(logging.Component("combo"), logging.Seed(seed))
	if opts.Metrics != nil {
		opts.Metrics.RecordGraph(n, g.EdgeCount())
	}

	timer := logging.StartTimer(logger, "optimization finished",
		logging.Nodes(n), logging.Edges(g.EdgeCount()))

	if g.TotalWeight() == 0 {
		p := initial(g, opts.MaxCommunities, true)
		res := &Result{Labels: p.Labels(), Communities: p.Live(), Seed: seed}
		record(opts.Metrics, res)
		timer.End(logging.Modularity(0), logging.Communities(res.Communities))
		return res, nil
	}

	oracle := modularity.New(g, opts.Resolution)
	engine := search.New(g, oracle, search.Options{
		Workers: validation.DefaultOrInt(opts.Workers, runtime.GOMAXPROCS(0)),
		Logger:  logger,
	})

	p := initial(g, opts.MaxCommunities, opts.StartSeparate)
	stats, err := engine.Run(p)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	best := p.Clone()

	onImprove := func(*partition.State, float64) error { return nil }
	if opts.IntermediateResultsPath != "" {
		path := opts.IntermediateResultsPath
		onImprove = func(s *partition.State, q float64) error {
			return WriteIntermediate(path, s.Labels(), q)
		}
		if err := onImprove(best, oracle.Modularity(best)); err != nil {
			timer.EndError(err)
			return nil, err
		}
	}

	ctrl := perturb.New(engine, oracle, rand.New(rand.NewPCG(uint64(seed), uint64(seed)^pcgStream)), perturb.Options{
		Attempts:       opts.SplitAttempts,
		FixedSplitStep: opts.FixedSplitStep,
		Logger:         logger,
		Observer:       observe(opts),
		OnImprove:      onImprove,
	})
	summary, err := ctrl.Run(p, best)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	stats.Add(summary.Stats)

	if err := best.Verify(); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		timer.EndError(err)
		return nil, err
	}

	res := &Result{
		Labels:       best.Labels(),
		Modularity:   oracle.Modularity(best),
		Communities:  best.Live(),
		Attempts:     summary.Attempts,
		Improvements: summary.Improvements,
		Seed:         seed,
		Stats:        stats,
	}
	record(opts.Metrics, res)
	timer.End(
		logging.Modularity(res.Modularity),
		logging.Communities(res.Communities),
		logging.Int("attempts", res.Attempts),
		logging.Int("improvements", res.Improvements))
	return res, nil
}

// initial returns singletons when requested and the bound allows them,
// otherwise every node in one community.
func initial(g *graph.Graph, capacity int, separate bool) *partition.State {
	if separate {
		if p, err := partition.NewSingletons(g, capacity); err == nil {
			return p
		}
	}
	return partition.New(g, capacity)
}

func observe(opts Options) perturb.Observer {
	if opts.Metrics == nil {
		return opts.Observer
	}
	return func(a perturb.Attempt) {
		outcome := metrics.OutcomeRejected
		switch {
		case a.Skipped:
			outcome = metrics.OutcomeSkipped
		case a.Improved:
			outcome = metrics.OutcomeImproved
		}
		opts.Metrics.RecordSplitAttempt(a.Strategy, outcome)
		if opts.Observer != nil {
			opts.Observer(a)
		}
	}
}

func record(m *metrics.Registry, res *Result) {
	if m == nil {
		return
	}
	m.RecordResult(res.Modularity, res.Communities)
	m.RecordMoves(metrics.MoveNode, res.Stats.NodeMoves)
	m.RecordMoves(metrics.MoveMerge, res.Stats.Merges)
	m.RecordMoves(metrics.MoveSplit, res.Stats.Splits)
}
