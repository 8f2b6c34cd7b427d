package perturb

import (
	"math/rand/v2"
	"sort"

	"github.com/dd0wney/cluso-combo/pkg/search"
)

// Pattern names. StrategyRandom labels attempts that used a random split.
const (
	StrategyRandom = "random"
	StrategyFixed  = "fixed"

	PatternParity   = "parity"
	PatternHalves   = "halves"
	PatternDegree   = "degree"
	PatternBFS      = "bfs"
	PatternHub      = "hub"
	PatternSpectral = "spectral"
)

// Pattern is a deterministic bisection rule. Fn may return a degenerate
// assignment (one side empty); callers fall back to halves.
type Pattern struct {
	Name string
	Fn   func(s *search.Subgraph) []bool
}

// Patterns is the cycle of fixed splits in the order they are used.
var Patterns = []Pattern{
	{PatternParity, parity},
	{PatternHalves, halves},
	{PatternDegree, degree},
	{PatternBFS, bfs},
	{PatternHub, hub},
	{PatternSpectral, spectral},
}

func parity(s *search.Subgraph) []bool {
	side := make([]bool, s.Len())
	for i := range side {
		side[i] = i%2 == 1
	}
	return side
}

func halves(s *search.Subgraph) []bool {
	order := make([]int, s.Len())
	for i := range order {
		order[i] = i
	}
	return search.Halves(order)
}

func degree(s *search.Subgraph) []bool {
	k := s.Len()
	strengths := make([]float64, k)
	for i := range strengths {
		strengths[i] = s.Strength(i)
	}
	sorted := append([]float64(nil), strengths...)
	sort.Float64s(sorted)
	median := (sorted[(k-1)/2] + sorted[k/2]) / 2

	side := make([]bool, k)
	for i, v := range strengths {
		side[i] = v > median
	}
	return side
}

func bfs(s *search.Subgraph) []bool {
	return search.Halves(s.BFSOrder(0))
}

func hub(s *search.Subgraph) []bool {
	center := 0
	for i := 1; i < s.Len(); i++ {
		if s.Strength(i) > s.Strength(center) {
			center = i
		}
	}
	side := make([]bool, s.Len())
	side[center] = true
	for _, a := range s.Neighbors(center) {
		side[a.To] = true
	}
	return side
}

func spectral(s *search.Subgraph) []bool {
	side := s.Spectral()
	if side == nil {
		return make([]bool, s.Len())
	}
	return side
}

// degenerate reports whether side leaves one half empty.
func degenerate(side []bool) bool {
	trues := 0
	for _, b := range side {
		if b {
			trues++
		}
	}
	return trues == 0 || trues == len(side)
}

// randomSplit sends every member to a uniformly random side, then moves one
// member over if a side came out empty. s must hold at least two members.
func randomSplit(s *search.Subgraph, rng *rand.Rand) []bool {
	k := s.Len()
	side := make([]bool, k)
	trues := 0
	for i := range side {
		if rng.IntN(2) == 1 {
			side[i] = true
			trues++
		}
	}
	switch trues {
	case 0:
		side[rng.IntN(k)] = true
	case k:
		side[rng.IntN(k)] = false
	}
	return side
}
