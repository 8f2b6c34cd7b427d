package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-combo/pkg/combo"
	"github.com/dd0wney/cluso-combo/pkg/source"
	"github.com/dd0wney/cluso-combo/pkg/validation"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var formats = []string{FormatText, FormatJSON, FormatYAML}

var logLevels = []string{"debug", "info", "warn", "error"}

// Config holds the command line settings. A YAML file given with -config
// supplies defaults; flags set on the command line win.
type Config struct {
	Input          string  `yaml:"input"`
	Region         string  `yaml:"region"`
	Resolution     float64 `yaml:"resolution"`
	MaxCommunities int     `yaml:"max_communities"`
	Attempts       int     `yaml:"attempts"`
	FixedSplitStep int     `yaml:"fixed_split_step"`
	Seed           int64   `yaml:"seed"`
	StartSeparate  bool    `yaml:"start_separate"`
	Workers        int     `yaml:"workers"`
	Output         string  `yaml:"output"`
	Format         string  `yaml:"format"`
	Intermediate   string  `yaml:"intermediate"`
	MetricsOut     string  `yaml:"metrics_out"`
	LogLevel       string  `yaml:"log_level"`
}

// DefaultConfig mirrors combo.DefaultOptions.
func DefaultConfig() Config {
	opts := combo.DefaultOptions()
	return Config{
		Resolution:     opts.Resolution,
		MaxCommunities: opts.MaxCommunities,
		Attempts:       opts.SplitAttempts,
		FixedSplitStep: opts.FixedSplitStep,
		Seed:           opts.RandomSeed,
		StartSeparate:  opts.StartSeparate,
		Workers:        opts.Workers,
		Format:         FormatText,
		LogLevel:       "info",
	}
}

func newFlagSet(cfg *Config, configPath *string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("combo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(configPath, "config", "", "YAML configuration file")
	fs.StringVar(&cfg.Input, "input", cfg.Input, "Pajek network: a path, a .sz path or an s3://bucket/key URI")
	fs.StringVar(&cfg.Region, "region", cfg.Region, "AWS region for s3:// inputs")
	fs.Float64Var(&cfg.Resolution, "resolution", cfg.Resolution, "Modularity resolution γ")
	fs.IntVar(&cfg.MaxCommunities, "max-communities", cfg.MaxCommunities, "Community bound, -1 for none")
	fs.IntVar(&cfg.Attempts, "attempts", cfg.Attempts, "Split attempts, 0 sizes the budget from the node count")
	fs.IntVar(&cfg.FixedSplitStep, "fixed-split-step", cfg.FixedSplitStep, "Use a fixed split pattern every N attempts, 0 disables")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed, -1 draws one from entropy")
	fs.BoolVar(&cfg.StartSeparate, "start-separate", cfg.StartSeparate, "Start from one community per node")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel bisections, 0 uses GOMAXPROCS")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Result file (default stdout)")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Result format: text, json or yaml")
	fs.StringVar(&cfg.Intermediate, "intermediate", cfg.Intermediate, "Rewrite this file with the best partition after every improvement")
	fs.StringVar(&cfg.MetricsOut, "metrics-out", cfg.MetricsOut, "Write Prometheus metrics in text format to this file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	return fs
}

// parseConfig reads flags, layering them over the -config file when one
// is named.
func parseConfig(args []string, stderr io.Writer) (*Config, error) {
	cfg := DefaultConfig()
	var configPath string
	if err := newFlagSet(&cfg, &configPath, stderr).Parse(args); err != nil {
		return nil, err
	}
	if configPath == "" {
		return &cfg, nil
	}

	file, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	// Parse again on top of the file so explicit flags take precedence.
	if err := newFlagSet(file, &configPath, io.Discard).Parse(args); err != nil {
		return nil, err
	}
	return file, nil
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the settings the optimizer does not check itself.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("Config").
		Required("input", c.Input).
		Custom("input", func() error { return source.Validate(c.Input) }).
		OneOf("format", c.Format, formats).
		OneOf("log_level", c.LogLevel, logLevels).
		Add(c.Options().Validate()).
		Validate()
}

// Options converts the settings to optimizer options.
func (c *Config) Options() combo.Options {
	opts := combo.DefaultOptions()
	opts.Resolution = c.Resolution
	opts.MaxCommunities = c.MaxCommunities
	opts.SplitAttempts = c.Attempts
	opts.FixedSplitStep = c.FixedSplitStep
	opts.RandomSeed = c.Seed
	opts.StartSeparate = c.StartSeparate
	opts.Workers = c.Workers
	opts.IntermediateResultsPath = c.Intermediate
	return opts
}
