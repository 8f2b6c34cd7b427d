package graph

import (
	"sort"

	gonum "gonum.org/v1/gonum/graph"
)

// FromGonum converts a gonum graph. Graphs implementing gonum's Directed
// interface become directed; edge weights are taken from Weighted graphs and
// default to 1 otherwise. The returned slice maps node index to gonum id.
func FromGonum(g gonum.Graph) (*Graph, []int64, error) {
	nodes := gonum.NodesOf(g.Nodes())
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	_, directed := g.(gonum.Directed)
	weighted, isWeighted := g.(gonum.Weighted)

	var edges []Edge
	for i, id := range ids {
		for _, n := range gonum.NodesOf(g.From(id)) {
			j := index[n.ID()]
			if !directed && j < i {
				continue
			}
			w := 1.0
			if isWeighted {
				if ew, ok := weighted.Weight(id, n.ID()); ok {
					w = ew
				}
			}
			edges = append(edges, Edge{From: i, To: j, Weight: w})
		}
	}

	out, err := New(len(ids), edges, directed)
	if err != nil {
		return nil, nil, err
	}
	return out, ids, nil
}
