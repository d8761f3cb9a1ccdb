package flags

import (
	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "TFW"

var (
	Filter = &cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"s"},
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FILTER"),
		Usage:   "Only run test methods whose '<case>::<method>' name contains this string",
	}
	List = &cli.StringFlag{
		Name:    "list",
		Aliases: []string{"l"},
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LIST"),
		Usage:   "Path to a file listing the '<case>::<method>' names to run, one per line ('#' starts a comment)",
	}
	OutDir = &cli.StringFlag{
		Name:    "out-dir",
		Value:   "out",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUT_DIR"),
		Usage:   "Scratch directory for test output and tool logs",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Path to a YAML file with defaults for the other flags",
	}
	SummaryTable = &cli.BoolFlag{
		Name:    "summary-table",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUMMARY_TABLE"),
		Usage:   "Print a per test case summary table to stderr after the run",
	}
	ResultsJSON = &cli.StringFlag{
		Name:    "results-json",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RESULTS_JSON"),
		Usage:   "Write all results as JSON to this file",
	}
	Pushgateway = &cli.StringFlag{
		Name:    "metrics.pushgateway",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "METRICS_PUSHGATEWAY"),
		Usage:   "Prometheus pushgateway URL the run metrics are pushed to (disabled if empty)",
	}
)

var optionalFlags = []cli.Flag{
	Filter,
	List,
	OutDir,
	ConfigFile,
	SummaryTable,
	ResultsJSON,
	Pushgateway,
}

var Flags []cli.Flag

func init() {
	Flags = append(Flags, optionalFlags...)
	Flags = append(Flags, oplog.CLIFlags(EnvVarPrefix)...)
}
