package tfw

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ngs-bits/tfw/flags"
)

// Config holds the application configuration
type Config struct {
	Filter       string // substring every selected '<case>::<method>' name contains
	ListFile     string // optional allow list, absolute
	OutDir       string // scratch directory, absolute
	SummaryTable bool   // print a per case table to Err after the run
	ResultsJSON  string // optional JSON results file, absolute
	Pushgateway  string // optional pushgateway URL for run metrics
	Out          io.Writer
	Err          io.Writer
	Log          log.Logger
}

// fileConfig mirrors the YAML config file. Pointers distinguish absent keys
// from zero values.
type fileConfig struct {
	Filter       *string `yaml:"filter"`
	List         *string `yaml:"list"`
	OutDir       *string `yaml:"out_dir"`
	SummaryTable *bool   `yaml:"summary_table"`
	ResultsJSON  *string `yaml:"results_json"`
	Pushgateway  *string `yaml:"pushgateway"`
}

// loadFileConfig reads the YAML defaults file. Unknown keys are rejected.
func loadFileConfig(path string) (*fileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// NewConfig creates a new Config from cli context. Explicitly set flags and
// env vars take precedence over the config file, which takes precedence over
// the flag defaults.
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	fc := &fileConfig{}
	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		var err error
		if fc, err = loadFileConfig(path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Filter:       stringOption(ctx, flags.Filter.Name, fc.Filter),
		ListFile:     stringOption(ctx, flags.List.Name, fc.List),
		OutDir:       stringOption(ctx, flags.OutDir.Name, fc.OutDir),
		SummaryTable: ctx.Bool(flags.SummaryTable.Name),
		ResultsJSON:  stringOption(ctx, flags.ResultsJSON.Name, fc.ResultsJSON),
		Pushgateway:  stringOption(ctx, flags.Pushgateway.Name, fc.Pushgateway),
		Out:          ctx.App.Writer,
		Err:          ctx.App.ErrWriter,
		Log:          log,
	}
	if !ctx.IsSet(flags.SummaryTable.Name) && fc.SummaryTable != nil {
		cfg.SummaryTable = *fc.SummaryTable
	}
	if cfg.OutDir == "" {
		cfg.OutDir = flags.OutDir.Value
	}

	// Resolve the absolute paths
	var err error
	if cfg.OutDir, err = filepath.Abs(cfg.OutDir); err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for output directory '%s': %w", cfg.OutDir, err)
	}
	if cfg.ListFile != "" {
		if cfg.ListFile, err = filepath.Abs(cfg.ListFile); err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for test list '%s': %w", cfg.ListFile, err)
		}
	}
	if cfg.ResultsJSON != "" {
		if cfg.ResultsJSON, err = filepath.Abs(cfg.ResultsJSON); err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for results file '%s': %w", cfg.ResultsJSON, err)
		}
	}
	return cfg, nil
}

func stringOption(ctx *cli.Context, name string, fromFile *string) string {
	if !ctx.IsSet(name) && fromFile != nil {
		return *fromFile
	}
	return ctx.String(name)
}
