package search

import (
	"math"
	"math/bits"

	"github.com/dd0wney/cluso-combo/pkg/modularity"
	"github.com/dd0wney/cluso-combo/pkg/partition"
)

// ExhaustiveLimit is the largest community whose bisections are enumerated
// completely.
const ExhaustiveLimit = 12

const maxRefinePasses = 64

// Seed names the method that produced a bisection.
const (
	SeedExhaustive = "exhaustive"
	SeedSpectral   = "spectral"
	SeedBFS        = "bfs"
)

// Bisection is the best split found for one community.
type Bisection struct {
	// Moved holds the graph nodes that would leave for a new community.
	// The lowest member always stays.
	Moved []int
	Gain  float64
	Seed  string
}

// Bisect searches for the split of members (one community of p, sorted)
// with the highest modularity gain. It only reads p.
func Bisect(o *modularity.Oracle, p *partition.State, members []int) Bisection {
	if len(members) < 2 {
		return Bisection{Gain: math.Inf(-1)}
	}
	s := NewSubgraph(o, p, members)

	var (
		side []bool
		gain float64
		seed string
	)
	if s.Len() <= ExhaustiveLimit {
		side, gain = s.exhaustive()
		seed = SeedExhaustive
	} else {
		gain = math.Inf(-1)
		if spectral := s.Spectral(); spectral != nil {
			side, gain = spectral, s.Refine(spectral)
			seed = SeedSpectral
		}
		bfs := Halves(s.BFSOrder(0))
		if g := s.Refine(bfs); g > gain {
			side, gain = bfs, g
			seed = SeedBFS
		}
	}

	if side[0] {
		for i := range side {
			side[i] = !side[i]
		}
	}
	return Bisection{Moved: s.Select(side), Gain: gain, Seed: seed}
}

// exhaustive enumerates every bisection with member 0 on side false in Gray
// code order, so each step flips one member and updates the cut
// incrementally.
func (s *Subgraph) exhaustive() ([]bool, float64) {
	k := s.Len()
	side := make([]bool, k)
	best := make([]bool, k)
	bestGain := math.Inf(-1)

	var between, outB, inB float64
	for step := uint(1); step < 1<<(k-1); step++ {
		i := bits.TrailingZeros(step) + 1
		between += s.flip(i, side)
		if side[i] {
			outB -= s.out[i]
			inB -= s.in[i]
		} else {
			outB += s.out[i]
			inB += s.in[i]
		}
		side[i] = !side[i]

		if g := s.gain(between, outB, inB); g > bestGain {
			copy(best, side)
			bestGain = g
		}
	}
	return best, bestGain
}

// Refine improves side in place by moving single members across the cut
// while that gains more than MinGain and leaves both sides non-empty. It
// returns the gain of the final split.
func (s *Subgraph) Refine(side []bool) float64 {
	var between, outB, inB float64
	sizeB := 0
	for i, arcs := range s.adj {
		if side[i] {
			outB += s.out[i]
			inB += s.in[i]
			sizeB++
		}
		for _, a := range arcs {
			if side[i] != side[a.To] {
				between += a.Weight
			}
		}
	}
	between /= 2
	current := s.gain(between, outB, inB)

	k := s.Len()
	for pass := 0; pass < maxRefinePasses; pass++ {
		moved := false
		for i := 0; i < k; i++ {
			if (side[i] && sizeB == 1) || (!side[i] && sizeB == k-1) {
				continue
			}
			nb := between + s.flip(i, side)
			no, ni, ns := outB+s.out[i], inB+s.in[i], sizeB+1
			if side[i] {
				no, ni, ns = outB-s.out[i], inB-s.in[i], sizeB-1
			}
			g := s.gain(nb, no, ni)
			if g-current <= MinGain {
				continue
			}
			side[i] = !side[i]
			between, outB, inB, sizeB = nb, no, ni, ns
			current = g
			moved = true
		}
		if !moved {
			break
		}
	}
	return current
}
