package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/rustyeddy/exitsweep/ingest"
	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/results"
	"github.com/rustyeddy/exitsweep/sim"
	"github.com/rustyeddy/exitsweep/sweep"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents a complete sweep configuration
type Config struct {
	Instrument InstrumentConfig `json:"instrument" yaml:"instrument"`
	Data       DataConfig       `json:"data" yaml:"data"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Grid       sweep.Grid       `json:"grid" yaml:"grid"`
	Sweep      SweepConfig      `json:"sweep" yaml:"sweep"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// InstrumentConfig names the contract. PointValue overrides the table in
// market.Instruments when set.
type InstrumentConfig struct {
	Symbol     string `json:"symbol" yaml:"symbol"`
	PointValue string `json:"point_value,omitempty" yaml:"point_value,omitempty"`
}

// DataConfig locates the candle history and the trade report
type DataConfig struct {
	CandlesFile   string `json:"candles_file" yaml:"candles_file"`
	CandlesFormat string `json:"candles_format" yaml:"candles_format"` // "profit" or "bars"
	TradesFile    string `json:"trades_file" yaml:"trades_file"`
	Charset       string `json:"charset,omitempty" yaml:"charset,omitempty"`
	Timezone      string `json:"timezone" yaml:"timezone"`
	Rounding      string `json:"rounding,omitempty" yaml:"rounding,omitempty"` // "truncate" or "round"
}

// SimulationConfig contains simulator parameters
type SimulationConfig struct {
	TieBreak       string `json:"tie_break" yaml:"tie_break"`
	Window         string `json:"window" yaml:"window"`
	EntryTolerance int32  `json:"entry_tolerance" yaml:"entry_tolerance"`
}

// SweepConfig controls the worker pool and reporting
type SweepConfig struct {
	Workers int    `json:"workers" yaml:"workers"`
	RankBy  string `json:"rank_by" yaml:"rank_by"`
	Top     int    `json:"top" yaml:"top"`
	// Sample > 0 runs a seeded random subset of the grid instead of all of it.
	Sample int    `json:"sample,omitempty" yaml:"sample,omitempty"`
	Seed   uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	Chart  string `json:"chart,omitempty" yaml:"chart,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type      string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	StatsFile string `json:"stats_file,omitempty" yaml:"stats_file,omitempty"`
	DBPath    string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "json" or "console"
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Try YAML first, fall back to JSON
	cfg, err := decode(data, yaml.Unmarshal)
	if err != nil {
		cfg, err = decode(data, json.Unmarshal)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// decode overlays data on the defaults. A grid given in the file replaces
// the default grid as a whole, so axes it leaves out stay unset.
func decode(data []byte, unmarshal func([]byte, any) error) (*Config, error) {
	cfg := Default()
	if err := unmarshal(data, cfg); err != nil {
		return nil, err
	}

	var explicit struct {
		Grid *sweep.Grid `json:"grid" yaml:"grid"`
	}
	if err := unmarshal(data, &explicit); err != nil {
		return nil, err
	}
	if explicit.Grid != nil {
		cfg.Grid = *explicit.Grid
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Instrument.Symbol == "" {
		return fmt.Errorf("instrument.symbol is required")
	}
	if _, err := c.PointValue(); err != nil {
		return err
	}
	if c.Data.CandlesFile == "" {
		return fmt.Errorf("data.candles_file is required")
	}
	if c.Data.TradesFile == "" {
		return fmt.Errorf("data.trades_file is required")
	}
	if _, err := ingest.ParseFormat(c.Data.CandlesFormat); err != nil {
		return fmt.Errorf("data.candles_format: %w", err)
	}
	if _, err := ingest.ParseRounding(c.Data.Rounding); err != nil {
		return fmt.Errorf("data.rounding: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.SimOptions(); err != nil {
		return err
	}
	if c.Simulation.EntryTolerance < 0 {
		return fmt.Errorf("simulation.entry_tolerance must not be negative")
	}
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("sweep.workers must not be negative")
	}
	if _, err := results.ParseRankBy(c.Sweep.RankBy); err != nil {
		return fmt.Errorf("sweep.rank_by: %w", err)
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.StatsFile == "" {
			return fmt.Errorf("journal stats_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// PointValue resolves the currency value of one point per contract.
func (c *Config) PointValue() (decimal.Decimal, error) {
	if c.Instrument.PointValue != "" {
		v, err := decimal.NewFromString(c.Instrument.PointValue)
		if err != nil {
			return decimal.Zero, fmt.Errorf("instrument.point_value: %w", err)
		}
		if !v.IsPositive() {
			return decimal.Zero, fmt.Errorf("instrument.point_value must be positive")
		}
		return v, nil
	}
	meta, ok := market.LookupInstrument(c.Instrument.Symbol)
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown instrument %s: set instrument.point_value", c.Instrument.Symbol)
	}
	return meta.PointValue, nil
}

// Location loads data.timezone, defaulting to UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Data.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Data.Timezone)
	if err != nil {
		return nil, fmt.Errorf("data.timezone: %w", err)
	}
	return loc, nil
}

// SimOptions builds simulator options. The logger is left for the caller.
func (c *Config) SimOptions() (sim.Options, error) {
	opts := sim.DefaultOptions()

	tb, err := sim.ParseTieBreak(c.Simulation.TieBreak)
	if err != nil {
		return opts, fmt.Errorf("simulation.tie_break: %w", err)
	}
	w, err := sim.ParseWindow(c.Simulation.Window)
	if err != nil {
		return opts, fmt.Errorf("simulation.window: %w", err)
	}
	pv, err := c.PointValue()
	if err != nil {
		return opts, err
	}

	opts.TieBreak = tb
	opts.Window = w
	opts.PointValue = pv
	opts.EntryTolerance = c.Simulation.EntryTolerance
	return opts, nil
}

// IngestOptions builds the CSV reader options.
func (c *Config) IngestOptions() (ingest.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return ingest.Options{}, err
	}
	r, err := ingest.ParseRounding(c.Data.Rounding)
	if err != nil {
		return ingest.Options{}, err
	}
	return ingest.Options{Location: loc, Rounding: r}, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Instrument: InstrumentConfig{
			Symbol: "WIN",
		},
		Data: DataConfig{
			CandlesFile:   "./data/win_m1.csv",
			CandlesFormat: "profit",
			TradesFile:    "./data/operacoes.csv",
			Charset:       "utf-8",
			Timezone:      "America/Sao_Paulo",
			Rounding:      "truncate",
		},
		Simulation: SimulationConfig{
			TieBreak:       "candle-direction",
			Window:         "same-day",
			EntryTolerance: sim.DefaultEntryTolerance,
		},
		Grid: sweep.Grid{
			StopLoss:    sweep.Range{From: 100, To: 500, Step: 50},
			Target1:     sweep.Range{From: 50, To: 300, Step: 50},
			Target2:     sweep.Range{From: 100, To: 800, Step: 50},
			Trailing:    &sweep.PercentRange{From: 10, To: 50, Step: 5},
			IncludeBase: true,
		},
		Sweep: SweepConfig{
			Workers: 0,
			RankBy:  "hit-rate",
			Top:     20,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./exitsweep.sqlite",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
