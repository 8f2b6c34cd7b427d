// Package graph holds the immutable weighted graph the optimizer works on.
//
// Arcs are kept in compressed sparse row form. Undirected edges are stored in
// both directions so that every node sees its full neighborhood through Out.
// Self-loops live outside the CSR arrays and are reported through SelfLoop.
package graph

import (
	"math"
	"sort"
)

// Edge is a weighted edge between two node indices.
type Edge struct {
	From   int
	To     int
	Weight float64
}

// Graph is a weighted, directed or undirected graph over nodes 0..N-1.
type Graph struct {
	n        int
	directed bool

	outStart []int
	outTo    []int
	outW     []float64

	inStart []int
	inTo    []int
	inW     []float64

	// self[u] is A(u,u): an undirected self-loop of weight w counts 2w.
	self []float64

	outWeight []float64
	inWeight  []float64
	total     float64
	edgeCount int
}

type pairKey struct{ u, v int }

// New builds a graph from an edge list. Parallel edges are summed; for
// undirected graphs (u,v) and (v,u) denote the same edge.
func New(nodeCount int, edges []Edge, directed bool) (*Graph, error) {
	if nodeCount <= 0 {
		return nil, invalid("New", -1, "node count %d must be positive", nodeCount)
	}

	weights := make(map[pairKey]float64, len(edges))
	order := make([]pairKey, 0, len(edges))
	for i, e := range edges {
		if e.From < 0 || e.From >= nodeCount || e.To < 0 || e.To >= nodeCount {
			return nil, invalid("New", i, "endpoint (%d,%d) outside [0,%d)", e.From, e.To, nodeCount)
		}
		if e.Weight < 0 || math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return nil, invalid("New", i, "weight %v must be a non-negative finite number", e.Weight)
		}
		k := pairKey{e.From, e.To}
		if !directed && k.u > k.v {
			k.u, k.v = k.v, k.u
		}
		if _, seen := weights[k]; !seen {
			order = append(order, k)
		}
		weights[k] += e.Weight
	}

	g := &Graph{
		n:         nodeCount,
		directed:  directed,
		self:      make([]float64, nodeCount),
		outWeight: make([]float64, nodeCount),
		inWeight:  make([]float64, nodeCount),
	}

	var arcs []Edge
	for _, k := range order {
		w := weights[k]
		if w == 0 {
			continue
		}
		g.edgeCount++
		if k.u == k.v {
			if directed {
				g.self[k.u] += w
			} else {
				g.self[k.u] += 2 * w
			}
			continue
		}
		arcs = append(arcs, Edge{From: k.u, To: k.v, Weight: w})
		if !directed {
			arcs = append(arcs, Edge{From: k.v, To: k.u, Weight: w})
		}
	}

	g.outStart, g.outTo, g.outW = buildCSR(nodeCount, arcs, false)
	if directed {
		g.inStart, g.inTo, g.inW = buildCSR(nodeCount, arcs, true)
	} else {
		g.inStart, g.inTo, g.inW = g.outStart, g.outTo, g.outW
	}

	for u := 0; u < nodeCount; u++ {
		g.outWeight[u] = g.self[u]
		g.inWeight[u] = g.self[u]
		for i := g.outStart[u]; i < g.outStart[u+1]; i++ {
			g.outWeight[u] += g.outW[i]
		}
		for i := g.inStart[u]; i < g.inStart[u+1]; i++ {
			g.inWeight[u] += g.inW[i]
		}
		g.total += g.outWeight[u]
	}

	return g, nil
}

// buildCSR lays arcs out grouped by source (or by target when reversed),
// neighbors sorted by index so iteration order is deterministic.
func buildCSR(n int, arcs []Edge, reversed bool) ([]int, []int, []float64) {
	start := make([]int, n+1)
	for _, a := range arcs {
		src := a.From
		if reversed {
			src = a.To
		}
		start[src+1]++
	}
	for u := 0; u < n; u++ {
		start[u+1] += start[u]
	}

	to := make([]int, len(arcs))
	w := make([]float64, len(arcs))
	next := make([]int, n)
	copy(next, start[:n])
	for _, a := range arcs {
		src, dst := a.From, a.To
		if reversed {
			src, dst = dst, src
		}
		to[next[src]] = dst
		w[next[src]] = a.Weight
		next[src]++
	}

	for u := 0; u < n; u++ {
		lo, hi := start[u], start[u+1]
		sort.Sort(&arcSorter{to: to[lo:hi], w: w[lo:hi]})
	}
	return start, to, w
}

type arcSorter struct {
	to []int
	w  []float64
}

func (s *arcSorter) Len() int           { return len(s.to) }
func (s *arcSorter) Less(i, j int) bool { return s.to[i] < s.to[j] }
func (s *arcSorter) Swap(i, j int) {
	s.to[i], s.to[j] = s.to[j], s.to[i]
	s.w[i], s.w[j] = s.w[j], s.w[i]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return g.n }

// Directed reports whether arcs are directed.
func (g *Graph) Directed() bool { return g.directed }

// EdgeCount returns the number of distinct edges (arcs for directed graphs)
// with positive weight, self-loops included.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Out returns the out-neighbors of u and the arc weights, self-loop excluded.
// The slices alias internal storage and must not be modified.
func (g *Graph) Out(u int) ([]int, []float64) {
	lo, hi := g.outStart[u], g.outStart[u+1]
	return g.outTo[lo:hi], g.outW[lo:hi]
}

// In returns the in-neighbors of u and the arc weights, self-loop excluded.
// For undirected graphs it is identical to Out.
func (g *Graph) In(u int) ([]int, []float64) {
	lo, hi := g.inStart[u], g.inStart[u+1]
	return g.inTo[lo:hi], g.inW[lo:hi]
}

// Degree returns the number of arcs incident to u over both directions,
// self-loop excluded.
func (g *Graph) Degree(u int) int {
	if !g.directed {
		return g.outStart[u+1] - g.outStart[u]
	}
	return g.outStart[u+1] - g.outStart[u] + g.inStart[u+1] - g.inStart[u]
}

// SelfLoop returns A(u,u).
func (g *Graph) SelfLoop(u int) float64 { return g.self[u] }

// OutWeight returns Σ_v A(u,v).
func (g *Graph) OutWeight(u int) float64 { return g.outWeight[u] }

// InWeight returns Σ_v A(v,u).
func (g *Graph) InWeight(u int) float64 { return g.inWeight[u] }

// TotalWeight returns T = Σ_{u,v} A(u,v).
func (g *Graph) TotalWeight() float64 { return g.total }

// Weight returns A(u,v).
func (g *Graph) Weight(u, v int) float64 {
	if u == v {
		return g.self[u]
	}
	to, w := g.Out(u)
	i := sort.SearchInts(to, v)
	if i < len(to) && to[i] == v {
		return w[i]
	}
	return 0
}

// Edges returns the canonical edge list: undirected edges once with
// From <= To, self-loops with the weight they were built from.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edgeCount)
	for u := 0; u < g.n; u++ {
		if g.self[u] > 0 {
			w := g.self[u]
			if !g.directed {
				w /= 2
			}
			edges = append(edges, Edge{From: u, To: u, Weight: w})
		}
		to, w := g.Out(u)
		for i, v := range to {
			if !g.directed && v < u {
				continue
			}
			edges = append(edges, Edge{From: u, To: v, Weight: w[i]})
		}
	}
	return edges
}
