package tfw

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ngs-bits/tfw/metrics"
	"github.com/ngs-bits/tfw/registry"
	"github.com/ngs-bits/tfw/reporting"
	"github.com/ngs-bits/tfw/runner"
	"github.com/ngs-bits/tfw/testlist"
)

// Framework wires a registry to a runner, its result sinks and the optional
// summary table and metrics push.
type Framework struct {
	config    *Config
	runner    runner.TestRunner
	formatter ResultFormatter
}

// New creates a Framework running the cases of reg. A test list that cannot
// be read is a RuntimeError.
func New(cfg *Config, reg *registry.Registry) (*Framework, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Err == nil {
		cfg.Err = os.Stderr
	}

	filter := testlist.Filter{Substring: cfg.Filter}
	if cfg.ListFile != "" {
		allow, err := testlist.LoadFile(cfg.ListFile)
		if err != nil {
			metrics.RecordErrorDetails("test_list", err)
			return nil, NewRuntimeError(err)
		}
		cfg.Log.Debug("Loaded test list", "file", cfg.ListFile, "entries", len(allow))
		filter.Allow = allow
	}

	sinks := []reporting.ResultSink{reporting.NewStreamSink(cfg.Out)}
	if cfg.ResultsJSON != "" {
		sinks = append(sinks, reporting.NewJSONSink(cfg.ResultsJSON))
	}

	r, err := runner.NewTestRunner(runner.Config{
		Registry: reg,
		Filter:   filter,
		OutDir:   cfg.OutDir,
		Sinks:    sinks,
		Log:      cfg.Log,
	})
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to create test runner: %w", err))
	}

	fw := &Framework{config: cfg, runner: r}
	if cfg.SummaryTable {
		fw.formatter = NewConsoleResultFormatter(cfg.Log, cfg.Err)
	}
	return fw, nil
}

// Run executes all selected test methods. A run that could not be carried
// out returns a RuntimeError; failed methods are reported in the result only.
func (f *Framework) Run(ctx context.Context) (*runner.RunnerResult, error) {
	result, err := f.runner.RunAllTests(ctx)
	if err != nil {
		metrics.RecordErrorDetails("run", err)
		return nil, NewRuntimeError(err)
	}

	if f.formatter != nil {
		if err := f.formatter.FormatResults(result); err != nil {
			f.config.Log.Warn("Failed to print summary table", "err", err)
		}
	}
	if f.config.Pushgateway != "" {
		if err := metrics.Push(ctx, f.config.Pushgateway); err != nil {
			// metrics are best effort and never change the outcome of the run
			f.config.Log.Warn("Failed to push metrics", "url", f.config.Pushgateway, "err", err)
		}
	}
	return result, nil
}

