package pajek

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-combo/pkg/graph"
)

const triangles = `% two triangles joined by one edge
*Vertices 6
1 "alpha"
2 "beta gamma"
3 delta
*Edges
1 2
2 3
1 3 1.0
4 5
5 6 1
4 6
3 4 1
`

func TestRead_Undirected(t *testing.T) {
	net, err := Read(strings.NewReader(triangles))
	require.NoError(t, err)

	g := net.Graph
	assert.Equal(t, 6, g.NodeCount())
	assert.False(t, g.Directed())
	assert.Equal(t, 7, g.EdgeCount())
	assert.Equal(t, 14.0, g.TotalWeight())
	assert.Equal(t, 1.0, g.Weight(2, 3))
	assert.Equal(t, []string{"alpha", "beta gamma", "delta", "4", "5", "6"}, net.Labels)
}

func TestRead_KeywordsAreCaseInsensitive(t *testing.T) {
	net, err := Read(strings.NewReader("*VERTICES 2\n*arcs\n1 2 2.5\n"))
	require.NoError(t, err)
	assert.True(t, net.Graph.Directed())
	assert.Equal(t, 2.5, net.Graph.Weight(0, 1))
	assert.Equal(t, 0.0, net.Graph.Weight(1, 0))
}

func TestRead_MixedSectionsAreDirected(t *testing.T) {
	net, err := Read(strings.NewReader("*Vertices 3\n*Arcs\n1 2\n*Edges\n2 3 4\n"))
	require.NoError(t, err)

	g := net.Graph
	require.True(t, g.Directed())
	assert.Equal(t, 1.0, g.Weight(0, 1))
	assert.Equal(t, 0.0, g.Weight(1, 0))
	assert.Equal(t, 4.0, g.Weight(1, 2))
	assert.Equal(t, 4.0, g.Weight(2, 1))
	assert.Equal(t, 9.0, g.TotalWeight())
}

func TestRead_SelfLoop(t *testing.T) {
	net, err := Read(strings.NewReader("*Vertices 2\n*Edges\n1 1 3\n1 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 6.0, net.Graph.SelfLoop(0))
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"missing header", "*Edges\n1 2\n", 1},
		{"empty file", "", 0},
		{"data before header", "1 2\n", 1},
		{"bad vertex count", "*Vertices x\n", 1},
		{"zero vertices", "*Vertices 0\n", 1},
		{"duplicate header", "*Vertices 2\n*Vertices 3\n", 2},
		{"unknown section", "*Vertices 2\n*Matrix\n", 2},
		{"index out of range", "*Vertices 2\n*Edges\n1 3\n", 3},
		{"zero index", "*Vertices 2\n*Edges\n0 1\n", 3},
		{"single index", "*Vertices 2\n*Edges\n1\n", 3},
		{"bad weight", "*Vertices 2\n\n% comment\n*Edges\n1 2 heavy\n", 5},
		{"negative weight", "*Vertices 2\n*Edges\n1 2 -1\n", 3},
		{"unterminated label", "*Vertices 2\n1 \"open\n", 2},
		{"bad vertex index", "*Vertices 2\nfirst \"x\"\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrGraphFormat)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.line, fe.Line)
		})
	}
}

func TestFormatError_Message(t *testing.T) {
	err := formatError(7, "1 x", "invalid vertex index %q", "x")
	assert.Equal(t, `pajek: line 7: invalid vertex index "x": "1 x"`, err.Error())

	whole := &FormatError{Reason: "missing *Vertices header"}
	assert.Equal(t, "pajek: missing *Vertices header", whole.Error())
}

func TestWrite_RoundTrip(t *testing.T) {
	for _, directed := range []bool{false, true} {
		g, err := graph.New(4, []graph.Edge{
			{From: 0, To: 1, Weight: 1.5},
			{From: 1, To: 2, Weight: 2},
			{From: 3, To: 3, Weight: 0.25},
			{From: 2, To: 0, Weight: 1},
		}, directed)
		require.NoError(t, err)
		labels := []string{"a", `say "hi"`, "c", "d"}

		var buf bytes.Buffer
		require.NoError(t, Write(&buf, g, labels))

		net, err := Read(&buf)
		require.NoError(t, err)
		assertSameGraph(t, g, net.Graph)
		assert.Equal(t, []string{"a", "say 'hi'", "c", "d"}, net.Labels)
	}
}

func TestWrite_LabelCountMismatch(t *testing.T) {
	g, err := graph.New(2, nil, false)
	require.NoError(t, err)
	assert.Error(t, Write(&bytes.Buffer{}, g, []string{"only one"}))
}

func TestFiles_RoundTrip(t *testing.T) {
	net, err := Read(strings.NewReader(triangles))
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"triangles.net", "triangles.net.sz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, net.Graph, net.Labels))

			got, err := ReadFile(path)
			require.NoError(t, err)
			assertSameGraph(t, net.Graph, got.Graph)
			assert.Equal(t, net.Labels, got.Labels)
		})
	}

	// The compressed file must not be readable as plain text.
	raw, err := os.ReadFile(filepath.Join(dir, "triangles.net.sz"))
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(raw, []byte("*Vertices")))
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.net"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func assertSameGraph(t *testing.T, want, got *graph.Graph) {
	t.Helper()
	require.Equal(t, want.NodeCount(), got.NodeCount())
	assert.Equal(t, want.Directed(), got.Directed())
	assert.Equal(t, want.TotalWeight(), got.TotalWeight())
	for u := 0; u < want.NodeCount(); u++ {
		for v := 0; v < want.NodeCount(); v++ {
			assert.Equal(t, want.Weight(u, v), got.Weight(u, v), "A(%d,%d)", u, v)
		}
	}
}
