// Package search drives a partition to a local modularity optimum with three
// kinds of moves: single nodes changing community, the best pair of
// communities merging, and communities splitting in two.
package search

import (
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-combo/pkg/graph"
	"github.com/dd0wney/cluso-combo/pkg/logging"
	"github.com/dd0wney/cluso-combo/pkg/modularity"
	"github.com/dd0wney/cluso-combo/pkg/parallel"
	"github.com/dd0wney/cluso-combo/pkg/partition"
)

// MinGain is the smallest modularity change treated as an improvement.
const MinGain = 1e-10

// Options configures an Engine.
type Options struct {
	// Workers bounds the goroutines used for bisection searches. Values
	// below two search serially.
	Workers int
	Logger  logging.Logger
}

// Stats counts the moves applied by Run.
type Stats struct {
	Cycles    int `json:"cycles" yaml:"cycles"`
	NodeMoves int `json:"node_moves" yaml:"node_moves"`
	Merges    int `json:"merges" yaml:"merges"`
	Splits    int `json:"splits" yaml:"splits"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Cycles += o.Cycles
	s.NodeMoves += o.NodeMoves
	s.Merges += o.Merges
	s.Splits += o.Splits
}

// Engine performs local search over partitions of one graph. An Engine keeps
// scratch buffers and must not run on two partitions at once.
type Engine struct {
	g       *graph.Graph
	oracle  *modularity.Oracle
	workers int
	logger  logging.Logger

	conn    []float64
	touched []int
}

// New creates an engine for g scored by oracle.
func New(g *graph.Graph, oracle *modularity.Oracle, opts Options) *Engine {
	return &Engine{
		g:       g,
		oracle:  oracle,
		workers: opts.Workers,
		logger:  logging.OrNop(opts.Logger).With(logging.Component("search")),
	}
}

// Oracle returns the modularity oracle the engine optimizes.
func (e *Engine) Oracle() *modularity.Oracle { return e.oracle }

// Run repeats node-move, merge and split phases until a whole cycle leaves
// the partition unchanged.
func (e *Engine) Run(p *partition.State) (Stats, error) {
	var stats Stats
	if e.g.NodeCount() < 2 {
		return stats, nil
	}

	for {
		stats.Cycles++

		moves := e.MoveNodes(p)
		stats.NodeMoves += moves

		merged, err := e.MergeBest(p)
		if err != nil {
			return stats, err
		}
		if merged {
			stats.Merges++
		}

		splits, err := e.SplitCommunities(p)
		if err != nil {
			return stats, err
		}
		stats.Splits += splits

		if logging.Enabled(e.logger, logging.DebugLevel) {
			e.logger.Debug("search cycle",
				logging.Int("cycle", stats.Cycles),
				logging.Int("node_moves", moves),
				logging.Bool("merged", merged),
				logging.Int("splits", splits),
				logging.Communities(p.Live()),
				logging.Modularity(e.oracle.Modularity(p)))
		}

		if moves == 0 && !merged && splits == 0 {
			return stats, nil
		}
	}
}

// MoveNodes sweeps the nodes in index order, moving each to the community
// with the best gain, until a sweep moves nothing. It returns the number of
// moves applied.
func (e *Engine) MoveNodes(p *partition.State) int {
	total := 0
	for {
		moved := 0
		for u := 0; u < e.g.NodeCount(); u++ {
			if e.moveNode(p, u) {
				moved++
			}
		}
		total += moved
		if moved == 0 {
			return total
		}
	}
}

type candidate struct {
	target int // argument for partition.State.Move
	id     int // community id used to break ties
	delta  float64
}

func (c candidate) beats(o candidate, found bool) bool {
	if !found {
		return c.delta > MinGain
	}
	return c.delta > o.delta || (c.delta == o.delta && c.id < o.id)
}

func (e *Engine) moveNode(p *partition.State, u int) bool {
	e.gather(p, u)
	defer e.reset()

	old := p.CommunityOf(u)
	connOld := e.conn[old]

	var best candidate
	found := false
	for _, c := range e.touched {
		if c == old {
			continue
		}
		cand := candidate{target: c, id: c, delta: e.oracle.MoveDelta(p, u, c, connOld, e.conn[c])}
		if cand.beats(best, found) {
			best, found = cand, true
		}
	}
	if p.Size(old) > 1 && p.CanGrow() {
		cand := candidate{
			target: partition.NoCommunity,
			id:     p.NextID(),
			delta:  e.oracle.MoveDelta(p, u, partition.NoCommunity, connOld, 0),
		}
		if cand.beats(best, found) {
			best, found = cand, true
		}
	}

	if !found {
		return false
	}
	if _, err := p.Move(u, best.target); err != nil {
		return false
	}
	return true
}

// gather accumulates u's symmetric connection weight to every neighboring
// community into e.conn, listing the touched ids in e.touched.
func (e *Engine) gather(p *partition.State, u int) {
	if len(e.conn) < p.Slots() {
		e.conn = append(e.conn, make([]float64, p.Slots()-len(e.conn))...)
	}
	add := func(to []int, w []float64) {
		for i, v := range to {
			c := p.CommunityOf(v)
			if e.conn[c] == 0 {
				e.touched = append(e.touched, c)
			}
			e.conn[c] += w[i]
		}
	}
	add(e.g.Out(u))
	add(e.g.In(u))
}

func (e *Engine) reset() {
	for _, c := range e.touched {
		e.conn[c] = 0
	}
	e.touched = e.touched[:0]
}

// Merge describes merging community Drop into Keep.
type Merge struct {
	Keep, Drop int
	Delta      float64
}

// BestMerge returns the adjacent pair of communities whose merge changes
// modularity the most. Unless allowLoss is set only merges gaining more than
// MinGain qualify. Ties go to the lexicographically smallest pair.
func (e *Engine) BestMerge(p *partition.State, allowLoss bool) (Merge, bool) {
	between := make(map[[2]int]float64)
	for u := 0; u < e.g.NodeCount(); u++ {
		cu := p.CommunityOf(u)
		to, w := e.g.Out(u)
		for i, v := range to {
			cv := p.CommunityOf(v)
			if cu == cv {
				continue
			}
			key := [2]int{min(cu, cv), max(cu, cv)}
			between[key] += w[i]
		}
	}

	pairs := make([][2]int, 0, len(between))
	for key := range between {
		pairs = append(pairs, key)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	var best Merge
	found := false
	for _, pair := range pairs {
		delta := e.oracle.MergeDelta(p, pair[0], pair[1], between[pair])
		if !allowLoss && delta <= MinGain {
			continue
		}
		if !found || delta > best.Delta {
			best, found = Merge{Keep: pair[0], Drop: pair[1], Delta: delta}, true
		}
	}
	return best, found
}

// MergeBest applies the single best improving merge, if any.
func (e *Engine) MergeBest(p *partition.State) (bool, error) {
	m, ok := e.BestMerge(p, false)
	if !ok {
		return false, nil
	}
	if err := p.Merge(m.Keep, m.Drop); err != nil {
		return false, fmt.Errorf("apply merge: %w", err)
	}
	return true, nil
}

// SplitCommunities searches a bisection for every community of two or more
// nodes and applies those that improve modularity, in community-id order,
// while capacity allows. It returns the number of splits applied.
func (e *Engine) SplitCommunities(p *partition.State) (int, error) {
	if !p.CanGrow() {
		return 0, nil
	}

	groups := p.Groups()
	var targets []int
	for c, members := range groups {
		if len(members) >= 2 {
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	results := make([]Bisection, len(targets))
	err := parallel.ForEach(e.workers, len(targets), func(i int) {
		results[i] = Bisect(e.oracle, p, groups[targets[i]])
	})
	if err != nil {
		return 0, fmt.Errorf("bisection search: %w", err)
	}

	applied := 0
	for _, r := range results {
		if r.Gain <= MinGain {
			continue
		}
		if !p.CanGrow() {
			break
		}
		if _, err := p.Split(r.Moved); err != nil {
			return applied, fmt.Errorf("apply split: %w", err)
		}
		applied++
	}
	return applied, nil
}
