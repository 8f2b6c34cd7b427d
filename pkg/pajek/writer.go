package pajek

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-combo/pkg/graph"
)

// Write serializes g to w. labels may be nil; otherwise it must hold one
// label per node.
func Write(w io.Writer, g *graph.Graph, labels []string) error {
	if labels != nil && len(labels) != g.NodeCount() {
		return fmt.Errorf("pajek: %d labels for %d nodes", len(labels), g.NodeCount())
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "*Vertices %d\n", g.NodeCount())
	for i, label := range labels {
		fmt.Fprintf(bw, "%d \"%s\"\n", i+1, strings.ReplaceAll(label, `"`, `'`))
	}

	if g.Directed() {
		bw.WriteString("*Arcs\n")
	} else {
		bw.WriteString("*Edges\n")
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "%d %d %s\n", e.From+1, e.To+1, strconv.FormatFloat(e.Weight, 'g', -1, 64))
	}
	return bw.Flush()
}

// WriteFile writes the network to path, snappy-compressed when the name
// ends in CompressedSuffix.
func WriteFile(path string, g *graph.Graph, labels []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create network: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if !IsCompressed(path) {
		return Write(f, g, labels)
	}

	sw := snappy.NewBufferedWriter(f)
	if err := Write(sw, g, labels); err != nil {
		return err
	}
	return sw.Close()
}
