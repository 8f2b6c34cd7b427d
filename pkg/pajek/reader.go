// Package pajek reads and writes networks in the Pajek .net format.
//
// Node indices in files are 1-based; node i in a file is index i-1 in the
// returned graph. Files whose name ends in ".sz" hold a snappy framed
// stream.
package pajek

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cluso-combo/pkg/graph"
)

// CompressedSuffix marks snappy-compressed network files.
const CompressedSuffix = ".sz"

const maxLineBytes = 16 << 20

// Network is a parsed Pajek file.
type Network struct {
	Graph *graph.Graph
	// Labels holds the vertex label of each node; nodes without a vertex
	// line are labeled with their 1-based index.
	Labels []string
}

// IsCompressed reports whether name refers to a snappy-compressed file.
func IsCompressed(name string) bool {
	return strings.HasSuffix(name, CompressedSuffix)
}

// ReadFile parses the network stored at path. Plain files are memory-mapped;
// compressed files are streamed through the snappy decoder.
func ReadFile(path string) (*Network, error) {
	if IsCompressed(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open network: %w", err)
		}
		defer f.Close()
		return ReadCompressed(f)
	}

	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open network: %w", err)
	}
	defer m.Close()
	return Read(io.NewSectionReader(m, 0, int64(m.Len())))
}

// ReadCompressed parses a snappy framed stream holding a network.
func ReadCompressed(r io.Reader) (*Network, error) {
	return Read(snappy.NewReader(r))
}

type section int

const (
	sectionNone section = iota
	sectionVertices
	sectionEdges
	sectionArcs
)

type link struct {
	from, to int
	weight   float64
	directed bool
}

// Read parses a network from r.
func Read(r io.Reader) (*Network, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var (
		n       = -1
		labels  []string
		links   []link
		current = sectionNone
		hasArcs bool
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}

		if strings.HasPrefix(line, "*") {
			fields := strings.Fields(line)
			switch strings.ToLower(fields[0]) {
			case "*vertices":
				if n >= 0 {
					return nil, formatError(lineNo, raw, "duplicate *Vertices header")
				}
				if len(fields) < 2 {
					return nil, formatError(lineNo, raw, "missing vertex count")
				}
				count, err := strconv.Atoi(fields[1])
				if err != nil || count <= 0 {
					return nil, formatError(lineNo, raw, "vertex count must be a positive integer")
				}
				n = count
				labels = make([]string, n)
				current = sectionVertices
			case "*edges":
				current = sectionEdges
			case "*arcs":
				current = sectionArcs
				hasArcs = true
			default:
				return nil, formatError(lineNo, raw, "unknown section %s", fields[0])
			}
			if current != sectionVertices && n < 0 {
				return nil, formatError(lineNo, raw, "section before *Vertices header")
			}
			continue
		}

		switch current {
		case sectionNone:
			return nil, formatError(lineNo, raw, "data before *Vertices header")
		case sectionVertices:
			index, label, err := parseVertex(line, n)
			if err != nil {
				return nil, formatError(lineNo, raw, "%v", err)
			}
			labels[index] = label
		case sectionEdges, sectionArcs:
			l, err := parseLink(line, n)
			if err != nil {
				return nil, formatError(lineNo, raw, "%v", err)
			}
			l.directed = current == sectionArcs
			links = append(links, l)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read network: %w", err)
	}
	if n < 0 {
		return nil, &FormatError{Reason: "missing *Vertices header"}
	}

	for i := range labels {
		if labels[i] == "" {
			labels[i] = strconv.Itoa(i + 1)
		}
	}

	edges := make([]graph.Edge, 0, len(links))
	for _, l := range links {
		edges = append(edges, graph.Edge{From: l.from, To: l.to, Weight: l.weight})
		// Mixed files are directed; undirected entries hold both arcs.
		if hasArcs && !l.directed {
			edges = append(edges, graph.Edge{From: l.to, To: l.from, Weight: l.weight})
		}
	}

	g, err := graph.New(n, edges, hasArcs)
	if err != nil {
		return nil, fmt.Errorf("pajek: %w", err)
	}
	return &Network{Graph: g, Labels: labels}, nil
}

func parseIndex(field string, n int) (int, error) {
	i, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid vertex index %q", field)
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("vertex index %d outside [1, %d]", i, n)
	}
	return i - 1, nil
}

func parseVertex(line string, n int) (int, string, error) {
	head, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		head, rest = line[:i], line[i+1:]
	}
	index, err := parseIndex(head, n)
	if err != nil {
		return 0, "", err
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return index, "", nil
	}
	if rest[0] == '"' {
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return 0, "", fmt.Errorf("unterminated vertex label")
		}
		return index, rest[1 : end+1], nil
	}
	return index, strings.Fields(rest)[0], nil
}

func parseLink(line string, n int) (link, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return link{}, fmt.Errorf("expected two vertex indices")
	}
	from, err := parseIndex(fields[0], n)
	if err != nil {
		return link{}, err
	}
	to, err := parseIndex(fields[1], n)
	if err != nil {
		return link{}, err
	}

	weight := 1.0
	if len(fields) > 2 {
		weight, err = strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return link{}, fmt.Errorf("invalid weight %q", fields[2])
		}
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return link{}, fmt.Errorf("weight %v must be finite and non-negative", weight)
		}
	}
	return link{from: from, to: to, weight: weight}, nil
}
