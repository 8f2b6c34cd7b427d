package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-combo/pkg/combo"
)

// Report is the structured result written for the json and yaml formats.
type Report struct {
	combo.Result `json:",inline" yaml:",inline"`

	RunID string `json:"run_id" yaml:"run_id"`
	Input string `json:"input" yaml:"input"`

	// Nodes holds the vertex labels from the network, indexed like Labels.
	Nodes []string `json:"nodes" yaml:"nodes"`
}

func writeReport(w io.Writer, format string, report *Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		return writeText(w, report)
	}
	return fmt.Errorf("unknown format %q", format)
}

// writeText writes "<index> <label> <community>" per node and a trailing
// "# modularity" line.
func writeText(w io.Writer, report *Report) error {
	bw := bufio.NewWriter(w)
	for u, c := range report.Labels {
		fmt.Fprintf(bw, "%d %s %d\n", u, report.Nodes[u], c)
	}
	fmt.Fprintf(bw, "# modularity %.10f\n", report.Modularity)
	return bw.Flush()
}
