package tfw

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"

	"github.com/ngs-bits/tfw/assert"
	"github.com/ngs-bits/tfw/flags"
	"github.com/ngs-bits/tfw/registry"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

// T is the handle every test method receives.
type T = assert.T

// NewCase starts a test case. Add methods with Add and pass it to Register.
func NewCase(name string) *registry.TestCase {
	return registry.NewTestCase(name)
}

// Register adds tc to the default registry, usually from an init function.
// It returns false if a case with the same name is already registered.
func Register(tc *registry.TestCase) bool {
	return registry.Register(tc)
}

// NewApp creates the command line app that runs the cases of reg. The error
// returned by Run maps to the exit code via ExitCode.
func NewApp(reg *registry.Registry) *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = filepath.Base(os.Args[0])
	app.Usage = "Run the registered test cases"
	app.Description = "Runs every registered test method that matches the filter and prints one PASS, SKIP or FAIL! line per method followed by the totals. Exits with the number of failed methods."
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = func(ctx *cli.Context) error {
		return run(ctx, reg)
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err != nil && !IsTestFailureError(err) {
			fmt.Fprintln(c.App.ErrWriter, err)
		}
	}
	return app
}

func run(ctx *cli.Context, reg *registry.Registry) error {
	logCfg := oplog.ReadCLIConfig(ctx)
	logger := oplog.NewLogger(ctx.App.ErrWriter, logCfg)
	oplog.SetGlobalLogHandler(logger.Handler())

	cfg, err := NewConfig(ctx, logger)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	fw, err := New(cfg, reg)
	if err != nil {
		return err
	}
	result, err := fw.Run(ctx.Context)
	if err != nil {
		return err
	}
	if result.Stats.Failed > 0 {
		return NewTestFailureError(result.Stats.Failed,
			fmt.Sprintf("%d of %d test methods failed", result.Stats.Failed, result.Stats.Total()))
	}
	return nil
}

// Main runs the cases of the default registry with the process arguments and
// exits. Call it from the main function of a test binary.
func Main() {
	app := NewApp(registry.Default())

	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Error("Failed to setup open telemetry", "message", err)
		os.Exit(ExitCode(NewRuntimeError(err)))
	}

	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	shutdown()
	os.Exit(ExitCode(err))
}
