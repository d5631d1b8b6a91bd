// Package journal persists sweep runs: the run header, the statistics of
// every evaluated policy and, optionally, per-trade outcomes.
package journal

import (
	"time"

	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/results"
	"github.com/rustyeddy/exitsweep/sim"
	"github.com/shopspring/decimal"
)

// Run describes one sweep or single-policy simulation.
type Run struct {
	RunID      string
	Created    time.Time
	Kind       string // "sweep" or "simulate"
	Instrument string
	PointValue decimal.Decimal

	CandlesFile string
	TradesFile  string
	From        time.Time
	To          time.Time
	Days        int
	Candles     int

	Trades   int
	Prepared int
	Skipped  results.Skips
	Policies int
	Rejected int

	TieBreak string
	Window   string
	RankBy   string
	Elapsed  time.Duration

	Config []byte // YAML snapshot of the configuration used
}

// OutcomeRecord is the flattened, storable form of a sim.TradeOutcome.
type OutcomeRecord struct {
	RunID      string
	Policy     string
	Symbol     string
	Side       market.Side
	Opened     time.Time
	Quantity   int
	Entry      market.Price
	Corrected  bool
	ClosedAt   time.Time
	Reason     sim.Reason
	TargetsHit int
	Points     float64
	PnL        decimal.Decimal
}

func NewOutcomeRecord(runID string, o sim.TradeOutcome) OutcomeRecord {
	return OutcomeRecord{
		RunID:      runID,
		Policy:     o.Policy.Key(),
		Symbol:     o.Trade.Symbol,
		Side:       o.Trade.Side,
		Opened:     o.Trade.Time,
		Quantity:   o.Trade.Quantity,
		Entry:      o.Entry,
		Corrected:  o.Corrected,
		ClosedAt:   o.ClosedAt,
		Reason:     o.Reason,
		TargetsHit: o.TargetsHit,
		Points:     o.RealizedPoints,
		PnL:        o.RealizedCurrency,
	}
}

type Journal interface {
	RecordRun(Run) error
	RecordStatistics(runID string, s results.PolicyStatistics) error
	RecordOutcome(runID string, o sim.TradeOutcome) error
	Close() error
}

// Discard accepts and drops everything.
var Discard Journal = discard{}

type discard struct{}

func (discard) RecordRun(Run) error { return nil }
func (discard) RecordStatistics(string, results.PolicyStatistics) error { return nil }
func (discard) RecordOutcome(string, sim.TradeOutcome) error { return nil }
func (discard) Close() error { return nil }
