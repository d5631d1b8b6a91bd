package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/exitsweep/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	pv, err := cfg.PointValue()
	require.NoError(t, err)
	assert.Equal(t, "0.2", pv.String())

	opts, err := cfg.SimOptions()
	require.NoError(t, err)
	assert.Equal(t, sim.CandleDirection, opts.TieBreak)
	assert.Equal(t, sim.SameDay, opts.Window)
	assert.Equal(t, int32(50), opts.EntryTolerance)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"sweep.yaml", "sweep.json"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), name)

			cfg := Default()
			cfg.Instrument.Symbol = "WDOK25"
			cfg.Simulation.Window = "unrestricted"
			require.NoError(t, cfg.SaveToFile(path))

			got, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestLoadPartialYAMLKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
instrument:
  symbol: IND
  point_value: "1.5"
data:
  candles_file: ind.csv
  trades_file: ops.csv
simulation:
  tie_break: stop-first
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ind.csv", cfg.Data.CandlesFile)
	assert.Equal(t, "America/Sao_Paulo", cfg.Data.Timezone)

	opts, err := cfg.SimOptions()
	require.NoError(t, err)
	assert.Equal(t, sim.StopFirst, opts.TieBreak)
	assert.Equal(t, "1.5", opts.PointValue.String())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mod  func(*Config)
		msg  string
	}{
		{"missing symbol", func(c *Config) { c.Instrument.Symbol = "" }, "instrument.symbol is required"},
		{"unknown symbol", func(c *Config) { c.Instrument.Symbol = "EURUSD" }, "unknown instrument"},
		{"bad point value", func(c *Config) { c.Instrument.PointValue = "-1" }, "point_value must be positive"},
		{"missing candles", func(c *Config) { c.Data.CandlesFile = "" }, "data.candles_file is required"},
		{"bad format", func(c *Config) { c.Data.CandlesFormat = "xlsx" }, "data.candles_format"},
		{"bad timezone", func(c *Config) { c.Data.Timezone = "Mars/Olympus" }, "data.timezone"},
		{"bad tie break", func(c *Config) { c.Simulation.TieBreak = "coin-flip" }, "simulation.tie_break"},
		{"bad window", func(c *Config) { c.Simulation.Window = "week" }, "simulation.window"},
		{"negative tolerance", func(c *Config) { c.Simulation.EntryTolerance = -1 }, "entry_tolerance"},
		{"bad grid", func(c *Config) { c.Grid.Target2.Step = 0 }, "grid"},
		{"bad rank", func(c *Config) { c.Sweep.RankBy = "sharpe" }, "sweep.rank_by"},
		{"bad journal", func(c *Config) { c.Journal.Type = "mongo" }, "journal.type"},
		{"csv without file", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }, "stats_file"},
		{"sqlite without path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }, "db_path"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mod(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instrument: [unclosed"), 0o644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestGridInFileReplacesDefaultGrid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grid:
  stop_loss: {from: 100, to: 200, step: 100}
  target1: {from: 50, to: 50, step: 50}
  target2: {from: 150, to: 150, step: 50}
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.Grid.Trailing, "default trailing axis must not leak into an explicit grid")
	assert.False(t, cfg.Grid.IncludeBase)
	assert.Equal(t, 2, cfg.Grid.Count())

	noGrid := filepath.Join(t.TempDir(), "nogrid.yaml")
	require.NoError(t, os.WriteFile(noGrid, []byte("instrument:\n  symbol: WIN\n"), 0o644))
	cfg, err = LoadFromFile(noGrid)
	require.NoError(t, err)
	assert.Equal(t, Default().Grid, cfg.Grid)
}
