package tfw

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ngs-bits/tfw/flags"
)

// parseConfig runs NewConfig against the given command line
func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var cfg *Config
	var cfgErr error
	app := &cli.App{
		Flags: cliapp.ProtectFlags(flags.Flags),
		Action: func(ctx *cli.Context) error {
			cfg, cfgErr = NewConfig(ctx, log.New())
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"tfw"}, args...)))
	return cfg, cfgErr
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tfw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(t)
	require.NoError(t, err)

	expectedOut, err := filepath.Abs("out")
	require.NoError(t, err)
	assert.Equal(t, expectedOut, cfg.OutDir)
	assert.Empty(t, cfg.Filter)
	assert.Empty(t, cfg.ListFile)
	assert.Empty(t, cfg.ResultsJSON)
	assert.Empty(t, cfg.Pushgateway)
	assert.False(t, cfg.SummaryTable)
	assert.NotNil(t, cfg.Log)
}

func TestNewConfig_Flags(t *testing.T) {
	dir := t.TempDir()
	cfg, err := parseConfig(t,
		"-s", "Demo::",
		"-l", filepath.Join(dir, "list.txt"),
		"--out-dir", filepath.Join(dir, "scratch"),
		"--summary-table",
		"--results-json", filepath.Join(dir, "results.json"),
		"--metrics.pushgateway", "http://localhost:9091",
	)
	require.NoError(t, err)

	assert.Equal(t, "Demo::", cfg.Filter)
	assert.Equal(t, filepath.Join(dir, "list.txt"), cfg.ListFile)
	assert.Equal(t, filepath.Join(dir, "scratch"), cfg.OutDir)
	assert.True(t, cfg.SummaryTable)
	assert.Equal(t, filepath.Join(dir, "results.json"), cfg.ResultsJSON)
	assert.Equal(t, "http://localhost:9091", cfg.Pushgateway)
}

func TestNewConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, `
filter: "FromFile::"
out_dir: `+filepath.Join(dir, "file-out")+`
summary_table: true
pushgateway: http://gateway:9091
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := parseConfig(t, "--config", path)
		require.NoError(t, err)
		assert.Equal(t, "FromFile::", cfg.Filter)
		assert.Equal(t, filepath.Join(dir, "file-out"), cfg.OutDir)
		assert.True(t, cfg.SummaryTable)
		assert.Equal(t, "http://gateway:9091", cfg.Pushgateway)
	})

	t.Run("flags over file", func(t *testing.T) {
		cfg, err := parseConfig(t, "--config", path, "--filter", "FromFlag::", "--summary-table=false")
		require.NoError(t, err)
		assert.Equal(t, "FromFlag::", cfg.Filter)
		assert.False(t, cfg.SummaryTable)
		assert.Equal(t, filepath.Join(dir, "file-out"), cfg.OutDir)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("TFW_FILTER", "FromEnv::")
		cfg, err := parseConfig(t, "--config", path)
		require.NoError(t, err)
		assert.Equal(t, "FromEnv::", cfg.Filter)
	})
}

func TestNewConfig_FileErrors(t *testing.T) {
	_, err := parseConfig(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open config file")

	_, err = parseConfig(t, "--config", writeConfigFile(t, "unknown_key: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")

	cfg, err := parseConfig(t, "--config", writeConfigFile(t, ""))
	require.NoError(t, err)
	assert.Empty(t, cfg.Filter)
}
