package search

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/dd0wney/cluso-combo/pkg/modularity"
	"github.com/dd0wney/cluso-combo/pkg/partition"
)

const (
	powerIterations = 500
	powerTolerance  = 1e-9
)

// Arc is a weighted link between two members of a Subgraph. Weight holds
// A(i,j) + A(j,i).
type Arc struct {
	To     int
	Weight float64
}

// Subgraph is one community viewed in isolation, with members renumbered
// 0..Len()-1 in increasing node order.
type Subgraph struct {
	oracle   *modularity.Oracle
	nodes    []int
	adj      [][]Arc
	self     []float64
	out, in  []float64
	outTotal float64
	inTotal  float64
}

// NewSubgraph extracts the members of one community of p. members must be
// sorted and all belong to the same community.
func NewSubgraph(o *modularity.Oracle, p *partition.State, members []int) *Subgraph {
	g := o.Graph()
	k := len(members)
	s := &Subgraph{
		oracle: o,
		nodes:  members,
		adj:    make([][]Arc, k),
		self:   make([]float64, k),
		out:    make([]float64, k),
		in:     make([]float64, k),
	}
	if k == 0 {
		return s
	}

	c := p.CommunityOf(members[0])
	pos := make(map[int]int, k)
	for i, u := range members {
		pos[u] = i
	}

	acc := make([]float64, k)
	var touched []int
	add := func(to []int, w []float64) {
		for idx, v := range to {
			if p.CommunityOf(v) != c {
				continue
			}
			j := pos[v]
			if acc[j] == 0 {
				touched = append(touched, j)
			}
			acc[j] += w[idx]
		}
	}

	for i, u := range members {
		add(g.Out(u))
		add(g.In(u))
		sort.Ints(touched)
		arcs := make([]Arc, len(touched))
		for n, j := range touched {
			arcs[n] = Arc{To: j, Weight: acc[j]}
			acc[j] = 0
		}
		touched = touched[:0]

		s.adj[i] = arcs
		s.self[i] = g.SelfLoop(u)
		s.out[i] = g.OutWeight(u)
		s.in[i] = g.InWeight(u)
		s.outTotal += s.out[i]
		s.inTotal += s.in[i]
	}
	return s
}

// Len returns the number of members.
func (s *Subgraph) Len() int { return len(s.nodes) }

// Node maps local index i back to its graph node.
func (s *Subgraph) Node(i int) int { return s.nodes[i] }

// Neighbors returns the in-community links of member i sorted by index.
func (s *Subgraph) Neighbors(i int) []Arc { return s.adj[i] }

// Strength returns the weighted degree of member i over both directions.
func (s *Subgraph) Strength(i int) float64 { return s.out[i] + s.in[i] }

// Select returns the graph nodes of the members with side[i] set.
func (s *Subgraph) Select(side []bool) []int {
	var nodes []int
	for i, b := range side {
		if b {
			nodes = append(nodes, s.nodes[i])
		}
	}
	return nodes
}

// Gain returns the modularity change from splitting the community along
// side.
func (s *Subgraph) Gain(side []bool) float64 {
	var between, outB, inB float64
	for i, arcs := range s.adj {
		if side[i] {
			outB += s.out[i]
			inB += s.in[i]
		}
		for _, a := range arcs {
			if side[i] != side[a.To] {
				between += a.Weight
			}
		}
	}
	// Each cut link was seen from both ends.
	return s.gain(between/2, outB, inB)
}

func (s *Subgraph) gain(between, outB, inB float64) float64 {
	return s.oracle.SplitDelta(between, s.outTotal-outB, s.inTotal-inB, outB, inB)
}

// flip returns the cut weight change when member i changes side.
func (s *Subgraph) flip(i int, side []bool) float64 {
	var same, other float64
	for _, a := range s.adj[i] {
		if side[a.To] == side[i] {
			same += a.Weight
		} else {
			other += a.Weight
		}
	}
	return same - other
}

// BFSOrder returns every member in breadth-first order starting at start;
// members unreachable from it follow, each component rooted at its lowest
// index.
func (s *Subgraph) BFSOrder(start int) []int {
	k := s.Len()
	order := make([]int, 0, k)
	seen := make([]bool, k)
	visit := func(root int) {
		seen[root] = true
		order = append(order, root)
		for head := len(order) - 1; head < len(order); head++ {
			for _, a := range s.adj[order[head]] {
				if !seen[a.To] {
					seen[a.To] = true
					order = append(order, a.To)
				}
			}
		}
	}
	if k > 0 {
		visit(start)
	}
	for i := 0; i < k; i++ {
		if !seen[i] {
			visit(i)
		}
	}
	return order
}

// Halves puts the first ⌈len/2⌉ entries of order on side false and the rest
// on side true.
func Halves(order []int) []bool {
	side := make([]bool, len(order))
	for pos, i := range order {
		side[i] = pos >= (len(order)+1)/2
	}
	return side
}

// Spectral splits the members by the sign of the leading eigenvector of the
// community's modularity matrix, found by power iteration on the matrix
// shifted to be positive semi-definite. It returns nil when every member
// lands on the same side or the graph has no weight.
func (s *Subgraph) Spectral() []bool {
	k := s.Len()
	total := s.oracle.Graph().TotalWeight()
	if k < 2 || total == 0 {
		return nil
	}
	scale := s.oracle.Resolution() / (2 * total)

	// Row sums of the unrestricted matrix become its diagonal correction;
	// shift bounds every Gershgorin disc.
	rowSum := make([]float64, k)
	var shift float64
	for i := range s.adj {
		var link float64
		for _, a := range s.adj[i] {
			link += a.Weight / 2
		}
		null := scale * (s.out[i]*s.inTotal + s.in[i]*s.outTotal)
		rowSum[i] = link + s.self[i] - null
		shift = math.Max(shift, link+s.self[i]+null+math.Abs(rowSum[i]))
	}

	x := make([]float64, k)
	for i := range x {
		x[i] = math.Sin(float64(i + 1))
	}
	floats.Scale(1/floats.Norm(x, 2), x)
	y := make([]float64, k)

	for iter := 0; iter < powerIterations; iter++ {
		inDot := floats.Dot(s.in, x)
		outDot := floats.Dot(s.out, x)
		for i := range y {
			v := (s.self[i] - rowSum[i] + shift) * x[i]
			for _, a := range s.adj[i] {
				v += a.Weight / 2 * x[a.To]
			}
			v -= scale * (s.out[i]*inDot + s.in[i]*outDot)
			y[i] = v
		}
		norm := floats.Norm(y, 2)
		if norm == 0 {
			return nil
		}
		floats.Scale(1/norm, y)
		done := floats.Distance(x, y, 2) < powerTolerance
		x, y = y, x
		if done {
			break
		}
	}

	side := make([]bool, k)
	positives := 0
	for i, v := range x {
		if v > 0 {
			side[i] = true
			positives++
		}
	}
	if positives == 0 || positives == k {
		return nil
	}
	return side
}
