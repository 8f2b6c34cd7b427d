package perturb

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-combo/pkg/graph"
	"github.com/dd0wney/cluso-combo/pkg/modularity"
	"github.com/dd0wney/cluso-combo/pkg/partition"
	"github.com/dd0wney/cluso-combo/pkg/search"
)

// star returns a subgraph over a star centered on node 2 plus the pendant
// edge 3-4.
func star(t *testing.T) *search.Subgraph {
	t.Helper()
	g, err := graph.New(5, []graph.Edge{
		{From: 2, To: 0, Weight: 1}, {From: 2, To: 1, Weight: 1}, {From: 2, To: 3, Weight: 1},
		{From: 3, To: 4, Weight: 1},
	}, false)
	require.NoError(t, err)
	p := partition.New(g, partition.Unlimited)
	return search.NewSubgraph(modularity.New(g, 1), p, p.Members(0))
}

func TestPatterns(t *testing.T) {
	s := star(t)
	tests := []struct {
		pattern string
		want    []bool
	}{
		{PatternParity, []bool{false, true, false, true, false}},
		{PatternHalves, []bool{false, false, false, true, true}},
		// Strengths 2,2,6,4,2: median 2.
		{PatternDegree, []bool{false, false, true, true, false}},
		// BFS from 0 visits 0, 2, 1, 3, 4.
		{PatternBFS, []bool{false, false, false, true, true}},
		{PatternHub, []bool{true, true, true, true, false}},
	}

	byName := map[string]Pattern{}
	for _, p := range Patterns {
		byName[p.Name] = p
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, byName[tt.pattern].Fn(s))
		})
	}
}

func TestPatterns_Order(t *testing.T) {
	names := make([]string, len(Patterns))
	for i, p := range Patterns {
		names[i] = p.Name
	}
	assert.Equal(t, []string{
		PatternParity, PatternHalves, PatternDegree, PatternBFS, PatternHub, PatternSpectral,
	}, names)
}

func TestSpectralPattern_DegenerateWithoutEdges(t *testing.T) {
	g, err := graph.New(4, nil, false)
	require.NoError(t, err)
	p := partition.New(g, partition.Unlimited)
	s := search.NewSubgraph(modularity.New(g, 1), p, p.Members(0))

	assert.True(t, degenerate(spectral(s)))
	assert.True(t, degenerate(degree(s)), "equal strengths put everyone on one side")
}

func TestRandomSplit_NeverDegenerate(t *testing.T) {
	s := star(t)
	rng := rand.New(rand.NewPCG(11, 13))
	for i := 0; i < 500; i++ {
		side := randomSplit(s, rng)
		require.Len(t, side, 5)
		require.False(t, degenerate(side), "iteration %d produced %v", i, side)
	}
}
