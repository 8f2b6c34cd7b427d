// Package perturb escapes local optima by splitting a community, letting the
// local search settle again and keeping the result only when it beats the
// best partition seen so far.
package perturb

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/dd0wney/cluso-combo/pkg/logging"
	"github.com/dd0wney/cluso-combo/pkg/modularity"
	"github.com/dd0wney/cluso-combo/pkg/partition"
	"github.com/dd0wney/cluso-combo/pkg/search"
)

const (
	minAutoAttempts = 4
	maxAutoAttempts = 500
)

// AutoAttempts returns the attempt budget used when none is configured:
// 2·⌈√n⌉ clamped to [4, 500].
func AutoAttempts(n int) int {
	a := 2 * int(math.Ceil(math.Sqrt(float64(n))))
	return min(max(a, minAutoAttempts), maxAutoAttempts)
}

// Attempt describes one perturbation.
type Attempt struct {
	Index     int    `json:"index"`
	Strategy  string `json:"strategy"`
	Pattern   string `json:"pattern,omitempty"`
	Community int    `json:"community"`
	// Modularity is the score after the local search that followed the split.
	Modularity float64      `json:"modularity"`
	Best       float64      `json:"best"`
	Improved   bool         `json:"improved"`
	Skipped    bool         `json:"skipped,omitempty"`
	Stats      search.Stats `json:"stats"`
}

// Observer receives every attempt after it completes.
type Observer func(Attempt)

// Options configures a Controller.
type Options struct {
	// Attempts is the budget; zero selects AutoAttempts.
	Attempts int
	// FixedSplitStep makes every FixedSplitStep-th attempt use the next
	// fixed pattern instead of a random split. Zero disables it.
	FixedSplitStep int
	Logger         logging.Logger
	Observer       Observer
	// OnImprove is called with the new best partition after each
	// improvement. An error aborts the run.
	OnImprove func(best *partition.State, q float64) error
}

// Summary reports the outcome of Run.
type Summary struct {
	Attempts     int
	Improvements int
	Modularity   float64
	Stats        search.Stats
}

// Controller runs the perturbation loop.
type Controller struct {
	engine *search.Engine
	oracle *modularity.Oracle
	rng    *rand.Rand
	opts   Options
	logger logging.Logger

	fixed int // fixed patterns used so far
}

// New creates a controller. rng is owned by the controller for the
// duration of Run.
func New(engine *search.Engine, oracle *modularity.Oracle, rng *rand.Rand, opts Options) *Controller {
	return &Controller{
		engine: engine,
		oracle: oracle,
		rng:    rng,
		opts:   opts,
		logger: logging.OrNop(opts.Logger).With(logging.Component("perturb")),
	}
}

// Budget returns the number of attempts Run makes for a graph of n nodes.
func (c *Controller) Budget(n int) int {
	if c.opts.Attempts > 0 {
		return c.opts.Attempts
	}
	return AutoAttempts(n)
}

// Run perturbs p, a locally optimal partition, for the whole budget. best
// must start as a copy of p; it ends holding the best partition found, and
// p is rolled back to it.
func (c *Controller) Run(p, best *partition.State) (Summary, error) {
	bestQ := c.oracle.Modularity(best)
	summary := Summary{Modularity: bestQ}
	budget := c.Budget(p.Graph().NodeCount())

	for i := 1; i <= budget; i++ {
		summary.Attempts++
		attempt, err := c.attempt(p, i)
		if err != nil {
			return summary, fmt.Errorf("attempt %d: %w", i, err)
		}
		summary.Stats.Add(attempt.Stats)

		if !attempt.Skipped && attempt.Modularity > bestQ+search.MinGain {
			best.CopyFrom(p)
			bestQ = attempt.Modularity
			attempt.Improved = true
			summary.Improvements++

			c.logger.Info("improved partition",
				logging.Attempt(i),
				logging.Strategy(attempt.Strategy),
				logging.Modularity(bestQ),
				logging.Communities(best.Live()))

			if c.opts.OnImprove != nil {
				if err := c.opts.OnImprove(best, bestQ); err != nil {
					return summary, fmt.Errorf("attempt %d: %w", i, err)
				}
			}
		} else {
			p.CopyFrom(best)
		}

		attempt.Best = bestQ
		if c.opts.Observer != nil {
			c.opts.Observer(attempt)
		}
	}

	summary.Modularity = bestQ
	return summary, nil
}

func (c *Controller) attempt(p *partition.State, index int) (Attempt, error) {
	a := Attempt{Index: index, Strategy: StrategyRandom, Community: partition.NoCommunity}

	if !p.CanGrow() {
		m, ok := c.engine.BestMerge(p, true)
		if !ok {
			return c.skip(a, "no adjacent communities to merge at capacity"), nil
		}
		if err := p.Merge(m.Keep, m.Drop); err != nil {
			return a, fmt.Errorf("forced merge: %w", err)
		}
	}

	community, ok := c.pickCommunity(p)
	if !ok {
		return c.skip(a, "no community with two or more nodes"), nil
	}
	a.Community = community

	sub := search.NewSubgraph(c.oracle, p, p.Members(community))
	var side []bool
	if step := c.opts.FixedSplitStep; step > 0 && index%step == 0 {
		pattern := Patterns[c.fixed%len(Patterns)]
		c.fixed++
		a.Strategy, a.Pattern = StrategyFixed, pattern.Name
		side = pattern.Fn(sub)
		if degenerate(side) {
			a.Pattern = PatternHalves
			side = halves(sub)
		}
	} else {
		side = randomSplit(sub, c.rng)
	}

	if _, err := p.Split(sub.Select(side)); err != nil {
		return a, fmt.Errorf("split community %d: %w", community, err)
	}

	stats, err := c.engine.Run(p)
	if err != nil {
		return a, err
	}
	a.Stats = stats
	a.Modularity = c.oracle.Modularity(p)

	if logging.Enabled(c.logger, logging.DebugLevel) {
		c.logger.Debug("attempt finished",
			logging.Attempt(index),
			logging.Strategy(a.Strategy),
			logging.String("pattern", a.Pattern),
			logging.Community(community),
			logging.Modularity(a.Modularity))
	}
	return a, nil
}

func (c *Controller) skip(a Attempt, reason string) Attempt {
	a.Skipped = true
	c.logger.Debug("attempt skipped", logging.Attempt(a.Index), logging.String("reason", reason))
	return a
}

// pickCommunity chooses a uniformly random node among those in communities
// of at least two nodes and returns its community, so larger communities
// are picked proportionally more often.
func (c *Controller) pickCommunity(p *partition.State) (int, bool) {
	n := p.Graph().NodeCount()
	eligible := 0
	for u := 0; u < n; u++ {
		if p.Size(p.CommunityOf(u)) >= 2 {
			eligible++
		}
	}
	if eligible == 0 {
		return partition.NoCommunity, false
	}
	target := c.rng.IntN(eligible)
	for u := 0; u < n; u++ {
		if p.Size(p.CommunityOf(u)) < 2 {
			continue
		}
		if target == 0 {
			return p.CommunityOf(u), true
		}
		target--
	}
	return partition.NoCommunity, false
}
