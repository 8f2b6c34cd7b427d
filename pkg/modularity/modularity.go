// Package modularity evaluates the modularity of a partition and the change
// in modularity caused by moving nodes, merging communities or splitting one.
//
// For a graph with arc weights A, total weight T, out-weights k⁺ and
// in-weights k⁻ the quality of a partition is
//
//	Q = Σ_c [ I(c)/T - γ·K⁺(c)·K⁻(c)/T² ]
//
// where I(c) sums A over ordered pairs inside c and K± sum the member
// weights. Undirected graphs have k⁺ = k⁻, which gives the familiar
// squared-degree form.
package modularity

import (
	"github.com/dd0wney/cluso-combo/pkg/graph"
	"github.com/dd0wney/cluso-combo/pkg/partition"
)

// Oracle answers modularity queries for one graph and resolution.
type Oracle struct {
	g     *graph.Graph
	gamma float64
	total float64
}

// New returns an oracle for g with resolution gamma.
func New(g *graph.Graph, gamma float64) *Oracle {
	return &Oracle{g: g, gamma: gamma, total: g.TotalWeight()}
}

// Graph returns the graph the oracle evaluates.
func (o *Oracle) Graph() *graph.Graph { return o.g }

// Resolution returns γ.
func (o *Oracle) Resolution() float64 { return o.gamma }

// Modularity returns Q for the partition from its aggregates.
func (o *Oracle) Modularity(p *partition.State) float64 {
	if o.total == 0 {
		return 0
	}
	var q float64
	for c := 0; c < p.Slots(); c++ {
		if !p.Alive(c) {
			continue
		}
		q += o.Community(p.Internal(c), p.OutSum(c), p.InSum(c))
	}
	return q
}

// Community returns the contribution of one community to Q.
func (o *Oracle) Community(internal, outSum, inSum float64) float64 {
	if o.total == 0 {
		return 0
	}
	return internal/o.total - o.gamma*outSum*inSum/(o.total*o.total)
}

// Join returns the change in Q from uniting two disjoint groups, where
// between is Σ A(a,b) + A(b,a) across them. Adding a single node to a group
// is the special case where the node is one of the groups.
func (o *Oracle) Join(between, outA, inA, outB, inB float64) float64 {
	if o.total == 0 {
		return 0
	}
	return between/o.total - o.gamma*(outA*inB+outB*inA)/(o.total*o.total)
}

// MoveDelta returns the change in Q from moving u into target, or into a new
// community when target is partition.NoCommunity. connOld and connNew are
// u's symmetric connection weights (partition.State.Connection) to its
// current community and to target.
func (o *Oracle) MoveDelta(p *partition.State, u, target int, connOld, connNew float64) float64 {
	old := p.CommunityOf(u)
	if target == old {
		return 0
	}
	out, in := o.g.OutWeight(u), o.g.InWeight(u)
	remove := o.Join(connOld, out, in, p.OutSum(old)-out, p.InSum(old)-in)
	var add float64
	if target != partition.NoCommunity {
		add = o.Join(connNew, out, in, p.OutSum(target), p.InSum(target))
	}
	return add - remove
}

// MergeDelta returns the change in Q from merging c1 and c2, given the
// symmetric weight between them.
func (o *Oracle) MergeDelta(p *partition.State, c1, c2 int, between float64) float64 {
	return o.Join(between, p.OutSum(c1), p.InSum(c1), p.OutSum(c2), p.InSum(c2))
}

// SplitDelta returns the change in Q from separating two halves of one
// community, given the symmetric weight between the halves.
func (o *Oracle) SplitDelta(between, outA, inA, outB, inB float64) float64 {
	return -o.Join(between, outA, inA, outB, inB)
}

// Reference computes Q by the node-pair double summation
//
//	Σ_{a,b same community} [ A(a,b)/T - γ·k⁺(a)·k⁻(b)/T² ]
//
// It costs O(N²) and exists to check the aggregate form.
func Reference(g *graph.Graph, labels []int, gamma float64) float64 {
	total := g.TotalWeight()
	if total == 0 {
		return 0
	}
	n := g.NodeCount()
	var q float64
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			if labels[a] != labels[b] {
				continue
			}
			q += g.Weight(a, b)/total - gamma*g.OutWeight(a)*g.InWeight(b)/(total*total)
		}
	}
	return q
}
