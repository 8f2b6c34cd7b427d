package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-combo/pkg/graph"
	"github.com/dd0wney/cluso-combo/pkg/modularity"
	"github.com/dd0wney/cluso-combo/pkg/partition"
)

func wholeGraph(g *graph.Graph) (*partition.State, []int) {
	p := partition.New(g, partition.Unlimited)
	return p, p.Members(0)
}

func TestBisect_ExhaustiveFindsTriangles(t *testing.T) {
	g := twoTriangles(t)
	o := modularity.New(g, 1)
	p, members := wholeGraph(g)

	b := Bisect(o, p, members)
	assert.Equal(t, SeedExhaustive, b.Seed)
	assert.Equal(t, []int{3, 4, 5}, b.Moved)
	assert.InDelta(t, 5.0/14.0, b.Gain, 1e-12)
}

func TestBisect_MatchesBruteForce(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		g := randomGraph(seed, 9, seed%2 == 0)
		o := modularity.New(g, 1)
		p, members := wholeGraph(g)
		base := o.Modularity(p)

		b := Bisect(o, p, members)

		best := math.Inf(-1)
		for mask := 1; mask < 1<<8; mask++ {
			labels := make([]int, 9)
			for i := 1; i < 9; i++ {
				if mask&(1<<(i-1)) != 0 {
					labels[i] = 1
				}
			}
			best = math.Max(best, modularity.Reference(g, labels, 1)-base)
		}
		assert.InDelta(t, best, b.Gain, 1e-9, "seed %d", seed)
		assert.NotContains(t, b.Moved, 0)
	}
}

func TestBisect_LargeCommunity(t *testing.T) {
	g := plantedGraph(t, 2, 20, false, 4)
	o := modularity.New(g, 1)
	p, members := wholeGraph(g)

	b := Bisect(o, p, members)
	require.Contains(t, []string{SeedSpectral, SeedBFS}, b.Seed)
	require.Greater(t, b.Gain, MinGain)

	moved := make(map[int]bool)
	for _, u := range b.Moved {
		moved[u] = true
	}
	for u := 0; u < 20; u++ {
		assert.False(t, moved[u], "node %d of the first group moved", u)
	}
	for u := 20; u < 40; u++ {
		assert.True(t, moved[u], "node %d of the second group stayed", u)
	}
}

func TestBisect_TooSmall(t *testing.T) {
	g := twoTriangles(t)
	p, _ := partition.NewSingletons(g, partition.Unlimited)
	b := Bisect(modularity.New(g, 1), p, []int{0})
	assert.Nil(t, b.Moved)
	assert.True(t, math.IsInf(b.Gain, -1))
}

func TestSubgraph_Gain(t *testing.T) {
	g := twoTriangles(t)
	o := modularity.New(g, 1)
	p, members := wholeGraph(g)
	s := NewSubgraph(o, p, members)

	side := []bool{false, false, false, true, true, true}
	assert.InDelta(t, 5.0/14.0, s.Gain(side), 1e-12)
	assert.Equal(t, []int{3, 4, 5}, s.Select(side))

	// Node 2 links 0, 1 and 3 with symmetric weight 2 each.
	assert.Equal(t, []Arc{{To: 0, Weight: 2}, {To: 1, Weight: 2}, {To: 3, Weight: 2}}, s.Neighbors(2))
	assert.Equal(t, 6.0, s.Strength(2))
}

func TestSubgraph_Refine(t *testing.T) {
	g := twoTriangles(t)
	o := modularity.New(g, 1)
	p, members := wholeGraph(g)
	s := NewSubgraph(o, p, members)

	side := []bool{false, true, false, true, false, true}
	gain := s.Refine(side)
	assert.InDelta(t, s.Gain(side), gain, 1e-12)
	assert.InDelta(t, 5.0/14.0, gain, 1e-12)
	assert.Equal(t, side[0], side[1])
	assert.NotEqual(t, side[0], side[3])
}

func TestSubgraph_BFSOrderAndHalves(t *testing.T) {
	g, err := graph.New(5, []graph.Edge{
		{From: 0, To: 2, Weight: 1}, {From: 2, To: 1, Weight: 1}, {From: 3, To: 4, Weight: 1},
	}, false)
	require.NoError(t, err)
	p, members := wholeGraph(g)
	s := NewSubgraph(modularity.New(g, 1), p, members)

	order := s.BFSOrder(0)
	assert.Equal(t, []int{0, 2, 1, 3, 4}, order)
	assert.Equal(t, []bool{false, false, false, true, true}, Halves(order))
}

func TestSubgraph_Spectral(t *testing.T) {
	g := plantedGraph(t, 2, 15, true, 8)
	p, members := wholeGraph(g)
	s := NewSubgraph(modularity.New(g, 1), p, members)

	side := s.Spectral()
	require.NotNil(t, side)
	for u := 1; u < 15; u++ {
		assert.Equal(t, side[0], side[u], "node %d", u)
	}
	for u := 15; u < 30; u++ {
		assert.NotEqual(t, side[0], side[u], "node %d", u)
	}

	empty, err := graph.New(3, nil, false)
	require.NoError(t, err)
	ep, em := wholeGraph(empty)
	assert.Nil(t, NewSubgraph(modularity.New(empty, 1), ep, em).Spectral())
}
