package graph

// FromMatrix builds a graph from a square adjacency matrix. The graph is
// undirected when the matrix is symmetric; otherwise every non-zero entry
// matrix[i][j] becomes an arc i->j.
func FromMatrix(matrix [][]float64) (*Graph, error) {
	n := len(matrix)
	if n == 0 {
		return nil, invalid("FromMatrix", -1, "matrix is empty")
	}
	for i, row := range matrix {
		if len(row) != n {
			return nil, invalid("FromMatrix", -1, "row %d has %d columns, want %d", i, len(row), n)
		}
	}

	directed := false
	for i := 0; i < n && !directed; i++ {
		for j := i + 1; j < n; j++ {
			if matrix[i][j] != matrix[j][i] {
				directed = true
				break
			}
		}
	}

	var edges []Edge
	for i := 0; i < n; i++ {
		lo := 0
		if !directed {
			lo = i
		}
		for j := lo; j < n; j++ {
			if w := matrix[i][j]; w != 0 {
				edges = append(edges, Edge{From: i, To: j, Weight: w})
			}
		}
	}
	return New(n, edges, directed)
}
