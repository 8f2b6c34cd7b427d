package search

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-combo/pkg/graph"
	"github.com/dd0wney/cluso-combo/pkg/modularity"
	"github.com/dd0wney/cluso-combo/pkg/partition"
)

func twoTriangles(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(6, []graph.Edge{
		{From: 0, To: 1, Weight: 1}, {From: 1, To: 2, Weight: 1}, {From: 0, To: 2, Weight: 1},
		{From: 3, To: 4, Weight: 1}, {From: 4, To: 5, Weight: 1}, {From: 3, To: 5, Weight: 1},
		{From: 2, To: 3, Weight: 1},
	}, false)
	require.NoError(t, err)
	return g
}

// plantedGraph builds groups of size cluster with dense links inside and a
// sparse ring of links between consecutive groups.
func plantedGraph(t *testing.T, groups, cluster int, directed bool, seed uint64) *graph.Graph {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, 3))
	var edges []graph.Edge
	for c := 0; c < groups; c++ {
		base := c * cluster
		for i := 0; i < cluster; i++ {
			for j := i + 1; j < cluster; j++ {
				if r.Float64() < 0.7 {
					edges = append(edges, graph.Edge{From: base + i, To: base + j, Weight: 1})
				}
			}
		}
		next := ((c + 1) % groups) * cluster
		edges = append(edges, graph.Edge{From: base, To: next + 1, Weight: 1})
	}
	g, err := graph.New(groups*cluster, edges, directed)
	require.NoError(t, err)
	return g
}

func randomGraph(seed uint64, n int, directed bool) *graph.Graph {
	r := rand.New(rand.NewPCG(seed, 5))
	var edges []graph.Edge
	for i := 0; i < 2*n; i++ {
		edges = append(edges, graph.Edge{
			From:   r.IntN(n),
			To:     r.IntN(n),
			Weight: float64(1 + r.IntN(3)),
		})
	}
	g, err := graph.New(n, edges, directed)
	if err != nil {
		panic(err)
	}
	return g
}

func TestRun_TwoTriangles(t *testing.T) {
	g := twoTriangles(t)
	o := modularity.New(g, 1)
	p, err := partition.NewSingletons(g, partition.Unlimited)
	require.NoError(t, err)

	stats, err := New(g, o, Options{}).Run(p)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, p.Labels())
	assert.InDelta(t, 5.0/14.0, o.Modularity(p), 1e-12)
	assert.Positive(t, stats.Cycles)
	assert.Positive(t, stats.NodeMoves)
	require.NoError(t, p.Verify())
}

func TestRun_SplitsSingleCommunity(t *testing.T) {
	g := twoTriangles(t)
	o := modularity.New(g, 1)
	p := partition.New(g, partition.Unlimited)

	stats, err := New(g, o, Options{}).Run(p)
	require.NoError(t, err)

	assert.Equal(t, 2, p.Live())
	assert.InDelta(t, 5.0/14.0, o.Modularity(p), 1e-12)
	assert.Positive(t, stats.Splits+stats.NodeMoves)
}

func TestRun_SingleNode(t *testing.T) {
	g, err := graph.New(1, []graph.Edge{{From: 0, To: 0, Weight: 2}}, false)
	require.NoError(t, err)
	p := partition.New(g, partition.Unlimited)

	stats, err := New(g, modularity.New(g, 1), Options{}).Run(p)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 1, p.Live())
}

func TestRun_RespectsCapacity(t *testing.T) {
	g := plantedGraph(t, 4, 5, false, 1)
	o := modularity.New(g, 1)
	p := partition.New(g, 2)

	_, err := New(g, o, Options{}).Run(p)
	require.NoError(t, err)
	assert.LessOrEqual(t, p.Live(), 2)
	require.NoError(t, p.Verify())
}

// TestRun_LocallyOptimal checks by brute force that no node move, merge or
// bisection improves a converged partition.
func TestRun_LocallyOptimal(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		for _, directed := range []bool{false, true} {
			n := 4 + int(seed%7)
			g := randomGraph(seed, n, directed)
			o := modularity.New(g, 1)
			p, err := partition.NewSingletons(g, partition.Unlimited)
			require.NoError(t, err)

			_, err = New(g, o, Options{}).Run(p)
			require.NoError(t, err)
			require.NoError(t, p.Verify())

			labels := p.Assignment()
			q := modularity.Reference(g, labels, 1)
			assertNoImprovement(t, g, labels, q, seed, directed)
		}
	}
}

func assertNoImprovement(t *testing.T, g *graph.Graph, labels []int, q float64, seed uint64, directed bool) {
	t.Helper()
	n := g.NodeCount()
	fresh := n + 1
	better := func(candidate []int) bool {
		return modularity.Reference(g, candidate, 1) > q+1e-9
	}

	// Single node moves, including to a fresh community.
	for u := 0; u < n; u++ {
		for c := 0; c <= fresh; c++ {
			candidate := append([]int(nil), labels...)
			candidate[u] = c
			if better(candidate) {
				t.Fatalf("seed %d directed=%v: moving node %d to %d improves modularity", seed, directed, u, c)
			}
		}
	}

	groups := map[int][]int{}
	for u, c := range labels {
		groups[c] = append(groups[c], u)
	}

	// Merges.
	for a := range groups {
		for b := range groups {
			if a >= b {
				continue
			}
			candidate := append([]int(nil), labels...)
			for _, u := range groups[b] {
				candidate[u] = a
			}
			if better(candidate) {
				t.Fatalf("seed %d directed=%v: merging %d and %d improves modularity", seed, directed, a, b)
			}
		}
	}

	// Every bisection of every community.
	for c, members := range groups {
		k := len(members)
		for mask := 1; mask < 1<<(k-1); mask++ {
			candidate := append([]int(nil), labels...)
			for i := 1; i < k; i++ {
				if mask&(1<<(i-1)) != 0 {
					candidate[members[i]] = fresh
				}
			}
			if better(candidate) {
				t.Fatalf("seed %d directed=%v: splitting community %d improves modularity", seed, directed, c)
			}
		}
	}
}

func TestRun_WorkersDoNotChangeResult(t *testing.T) {
	g := plantedGraph(t, 6, 16, false, 9)
	o := modularity.New(g, 1)

	var want []int
	for _, workers := range []int{1, 2, 8} {
		p := partition.New(g, partition.Unlimited)
		_, err := New(g, o, Options{Workers: workers}).Run(p)
		require.NoError(t, err)
		if want == nil {
			want = p.Assignment()
			continue
		}
		assert.Equal(t, want, p.Assignment(), "workers=%d", workers)
	}
}

func TestBestMerge(t *testing.T) {
	g := twoTriangles(t)
	o := modularity.New(g, 1)
	p, err := partition.FromLabels(g, []int{0, 0, 0, 1, 1, 1}, partition.Unlimited)
	require.NoError(t, err)
	e := New(g, o, Options{})

	_, ok := e.BestMerge(p, false)
	assert.False(t, ok, "merging the triangles loses modularity")

	m, ok := e.BestMerge(p, true)
	require.True(t, ok)
	assert.Equal(t, Merge{Keep: 0, Drop: 1, Delta: m.Delta}, m)
	assert.InDelta(t, -5.0/14.0, m.Delta, 1e-12)

	merged, err := e.MergeBest(p)
	require.NoError(t, err)
	assert.False(t, merged)
}

func TestStats_Add(t *testing.T) {
	s := Stats{Cycles: 1, NodeMoves: 2}
	s.Add(Stats{Cycles: 3, Merges: 1, Splits: 4})
	assert.Equal(t, Stats{Cycles: 4, NodeMoves: 2, Merges: 1, Splits: 4}, s)
}
