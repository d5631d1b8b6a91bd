package cmd

import (
	"fmt"

	"github.com/rustyeddy/exitsweep/config"
	"github.com/rustyeddy/exitsweep/ingest"
	"github.com/rustyeddy/exitsweep/journal"
	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/sim"
	"go.uber.org/zap"
)

// inputs is everything a simulation needs from disk.
type inputs struct {
	index  *market.CandleIndex
	trades []market.TradeIntent
	sim    *sim.Simulator
}

func loadInputs(cfg *config.Config, log *zap.Logger) (*inputs, error) {
	iopts, err := cfg.IngestOptions()
	if err != nil {
		return nil, err
	}
	format, err := ingest.ParseFormat(cfg.Data.CandlesFormat)
	if err != nil {
		return nil, err
	}

	candles, err := ingest.LoadCandles(cfg.Data.CandlesFile, format, cfg.Data.Charset, iopts, log)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}
	index, err := market.NewCandleIndex(candles, iopts.Location)
	if err != nil {
		return nil, fmt.Errorf("index candles: %w", err)
	}
	first, last := index.Span()
	log.Info("candle history indexed",
		zap.Int("candles", index.Len()),
		zap.Int("days", index.Days()),
		zap.Int("duplicates", index.Duplicates()),
		zap.Time("from", first),
		zap.Time("to", last),
	)

	trades, err := ingest.LoadTrades(cfg.Data.TradesFile, cfg.Data.Charset, iopts, log)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	opts, err := cfg.SimOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = log.Named("sim")

	return &inputs{index: index, trades: trades, sim: sim.New(index, opts)}, nil
}

// openJournal returns the configured journal. extra journals, such as a
// per-command CSV report, are written alongside it. It is a variable so
// tests can wrap the journal it builds.
var openJournal = func(cfg *config.Config, extra ...journal.Journal) (journal.Journal, error) {
	var j journal.Journal
	var err error

	switch cfg.Journal.Type {
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.StatsFile, "")
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	default:
		j = journal.Discard
	}
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}

	if len(extra) == 0 {
		return j, nil
	}
	return journal.Multi(append([]journal.Journal{j}, extra...)...), nil
}

// closeOnce closes j the first time it is called. Commands defer it for
// early returns and call it before reporting success, since buffered rows
// and the last transaction are only written by Close.
func closeOnce(j journal.Journal) func() error {
	closed := false
	return func() error {
		if closed {
			return nil
		}
		closed = true
		if err := j.Close(); err != nil {
			return fmt.Errorf("close journal: %w", err)
		}
		return nil
	}
}
