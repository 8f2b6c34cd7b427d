// Command combo-watch runs the optimizer on a network and shows the
// perturbation attempts live in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/cluso-combo/pkg/combo"
	"github.com/dd0wney/cluso-combo/pkg/perturb"
	"github.com/dd0wney/cluso-combo/pkg/source"
)

func main() {
	input := flag.String("input", "", "Pajek network: a path, a .sz path or an s3://bucket/key URI")
	region := flag.String("region", "", "AWS region for s3:// inputs")
	resolution := flag.Float64("resolution", 1, "Modularity resolution γ")
	attempts := flag.Int("attempts", 0, "Split attempts, 0 sizes the budget from the node count")
	fixedStep := flag.Int("fixed-split-step", 0, "Use a fixed split pattern every N attempts, 0 disables")
	seed := flag.Int64("seed", combo.RandomSeedFromEntropy, "Random seed, -1 draws one from entropy")
	flag.Parse()

	if *input == "" {
		log.Fatal("--input is required")
	}

	loader := &source.Loader{Region: *region}
	network, err := loader.Load(context.Background(), *input)
	if err != nil {
		log.Fatalf("Failed to load network: %v", err)
	}

	opts := combo.DefaultOptions()
	opts.Resolution = *resolution
	opts.SplitAttempts = *attempts
	opts.FixedSplitStep = *fixedStep
	opts.RandomSeed = *seed
	if err := opts.Validate(); err != nil {
		log.Fatal(err)
	}

	budget := opts.SplitAttempts
	if budget == 0 {
		budget = perturb.AutoAttempts(network.Graph.NodeCount())
	}

	p := tea.NewProgram(newModel(*input, budget))
	opts.Observer = func(a perturb.Attempt) { p.Send(attemptMsg(a)) }

	go func() {
		res, err := combo.Optimize(network.Graph, opts)
		p.Send(doneMsg{result: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	m := final.(model)
	if m.err != nil {
		fmt.Fprintf(os.Stderr, "combo-watch: %v\n", m.err)
		os.Exit(1)
	}
	if m.result != nil {
		fmt.Printf("modularity %.10f, %d communities, seed %d\n",
			m.result.Modularity, m.result.Communities, m.result.Seed)
	}
}
