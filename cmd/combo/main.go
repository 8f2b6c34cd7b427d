// Command combo partitions a Pajek network into communities by maximizing
// modularity and prints the assignment.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-combo/pkg/combo"
	"github.com/dd0wney/cluso-combo/pkg/logging"
	"github.com/dd0wney/cluso-combo/pkg/metrics"
	"github.com/dd0wney/cluso-combo/pkg/source"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "combo: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := uuid.New().String()
	logger := logging.NewJSONLogger(stderr, logging.ParseLevel(cfg.LogLevel)).
		With(logging.String("run_id", runID))

	loader := &source.Loader{Region: cfg.Region}
	timer := logging.StartTimer(logger, "network loaded", logging.Path(cfg.Input))
	network, err := loader.Load(ctx, cfg.Input)
	if err != nil {
		timer.EndError(err)
		return err
	}
	timer.End(logging.Nodes(network.Graph.NodeCount()), logging.Edges(network.Graph.EdgeCount()))

	opts := cfg.Options()
	opts.Logger = logger
	if cfg.MetricsOut != "" {
		reg := metrics.NewRegistry()
		opts.Metrics = reg
		defer func() {
			reg.UpdateSystemMetrics()
			if werr := reg.WriteToTextfile(cfg.MetricsOut); werr != nil && err == nil {
				err = werr
			}
		}()
	}

	res, err := combo.Optimize(network.Graph, opts)
	if err != nil {
		logger.Error("optimization failed", logging.Error(err))
		return err
	}

	out := stdout
	if cfg.Output != "" {
		f, cerr := os.Create(cfg.Output)
		if cerr != nil {
			return fmt.Errorf("create output: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out = f
	}

	return writeReport(out, cfg.Format, &Report{
		RunID:  runID,
		Input:  cfg.Input,
		Nodes:  network.Labels,
		Result: *res,
	})
}
