// Package results folds trade outcomes into per-policy statistics and turns
// them into flat report rows.
package results

import (
	"errors"

	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/policy"
	"github.com/rustyeddy/exitsweep/sim"
	"github.com/shopspring/decimal"
)

// Skips counts trades that could not be simulated, by reason.
type Skips struct {
	EmptyHistory    int `json:"empty_history"`
	EntryOutOfRange int `json:"entry_out_of_range"`
	ZeroQuantity    int `json:"zero_quantity"`
	Other           int `json:"other"`
}

func (s Skips) Total() int {
	return s.EmptyHistory + s.EntryOutOfRange + s.ZeroQuantity + s.Other
}

// Count classifies a Prepare error and bumps the matching counter.
func (s *Skips) Count(err error) {
	switch {
	case errors.Is(err, market.ErrEmptyHistory):
		s.EmptyHistory++
	case errors.Is(err, sim.ErrEntryOutOfRange):
		s.EntryOutOfRange++
	case errors.Is(err, sim.ErrZeroQuantity):
		s.ZeroQuantity++
	default:
		s.Other++
	}
}

// PolicyStatistics is the aggregate over every simulated trade for one
// policy.
type PolicyStatistics struct {
	Policy policy.ExitPolicy

	TotalTrades    int
	Wins           int
	Losses         int
	Stops          int
	PartialTargets int
	FullTargets    int
	SessionCloses  int
	Corrected      int

	// Target1Hits..Target3Hits count trades that reached at least that
	// target, so Target1Hits >= Target2Hits >= Target3Hits.
	Target1Hits int
	Target2Hits int
	Target3Hits int

	TotalPnL    decimal.Decimal
	AvgPnL      decimal.Decimal
	GrossProfit decimal.Decimal
	GrossLoss   decimal.Decimal // negative or zero
	TotalPoints float64
	AvgPoints   float64

	Skipped Skips
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// HitRate is the percentage of trades closed with a profit.
func (s PolicyStatistics) HitRate() float64 { return rate(s.Wins, s.TotalTrades) }

func (s PolicyStatistics) LossRate() float64 { return rate(s.Losses, s.TotalTrades) }

func (s PolicyStatistics) StopRate() float64 { return rate(s.Stops, s.TotalTrades) }

// PartialRate is the share of trades whose highest fired target was the first.
func (s PolicyStatistics) PartialRate() float64 { return rate(s.PartialTargets, s.TotalTrades) }

// FullRate is the share of trades reaching the second target or beyond.
func (s PolicyStatistics) FullRate() float64 { return rate(s.FullTargets, s.TotalTrades) }

// TargetRate is the share of trades that reached target n (1 to 3).
func (s PolicyStatistics) TargetRate(n int) float64 {
	switch n {
	case 1:
		return rate(s.Target1Hits, s.TotalTrades)
	case 2:
		return rate(s.Target2Hits, s.TotalTrades)
	case 3:
		return rate(s.Target3Hits, s.TotalTrades)
	}
	return 0
}

// ProfitFactor is gross profit over gross loss, 0 when nothing was lost.
func (s PolicyStatistics) ProfitFactor() float64 {
	if s.GrossLoss.IsZero() {
		return 0
	}
	f, _ := s.GrossProfit.Div(s.GrossLoss.Abs()).Float64()
	return f
}

// Accumulator builds PolicyStatistics for a single policy. It is not safe
// for concurrent use; each worker owns its own.
type Accumulator struct {
	stats PolicyStatistics
}

func NewAccumulator(p policy.ExitPolicy) *Accumulator {
	return &Accumulator{stats: PolicyStatistics{
		Policy:      p,
		TotalPnL:    decimal.Zero,
		GrossProfit: decimal.Zero,
		GrossLoss:   decimal.Zero,
	}}
}

// Add folds one outcome.
func (a *Accumulator) Add(o sim.TradeOutcome) {
	s := &a.stats
	s.TotalTrades++

	switch o.RealizedCurrency.Sign() {
	case 1:
		s.Wins++
		s.GrossProfit = s.GrossProfit.Add(o.RealizedCurrency)
	case -1:
		s.Losses++
		s.GrossLoss = s.GrossLoss.Add(o.RealizedCurrency)
	}

	switch {
	case o.TargetsHit == 1:
		s.PartialTargets++
	case o.TargetsHit >= 2:
		s.FullTargets++
	}
	if o.TargetsHit >= 1 {
		s.Target1Hits++
	}
	if o.TargetsHit >= 2 {
		s.Target2Hits++
	}
	if o.TargetsHit >= 3 {
		s.Target3Hits++
	}

	switch {
	case o.Stopped():
		s.Stops++
	case o.Reason == sim.ReasonSessionClose:
		s.SessionCloses++
	}

	if o.Corrected {
		s.Corrected++
	}

	s.TotalPnL = s.TotalPnL.Add(o.RealizedCurrency)
	s.TotalPoints += o.RealizedPoints
}

// Skip records a trade that was not simulated.
func (a *Accumulator) Skip(err error) {
	a.stats.Skipped.Count(err)
}

// SetSkipped copies skip counts gathered elsewhere, typically while trades
// were prepared once for a whole sweep.
func (a *Accumulator) SetSkipped(s Skips) {
	a.stats.Skipped = s
}

// Statistics returns the finished aggregate. With no trades every figure is
// zero.
func (a *Accumulator) Statistics() PolicyStatistics {
	s := a.stats
	if s.TotalTrades > 0 {
		n := decimal.NewFromInt(int64(s.TotalTrades))
		s.AvgPnL = s.TotalPnL.DivRound(n, 4)
		s.AvgPoints = s.TotalPoints / float64(s.TotalTrades)
	} else {
		s.AvgPnL = decimal.Zero
	}
	return s
}
