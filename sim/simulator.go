// Package sim replays historical trades against minute candles under an exit
// policy and reports the resulting fills and P&L.
package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/policy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEntryOutOfRange = errors.New("entry out of range")
	ErrZeroQuantity    = errors.New("zero quantity")
)

// Simulator is stateless apart from its configuration and may be shared by
// any number of goroutines.
type Simulator struct {
	index *market.CandleIndex
	opts  Options
	log   *zap.Logger
}

func New(index *market.CandleIndex, opts Options) *Simulator {
	if opts.PointValue.IsZero() {
		opts.PointValue = decimal.NewFromInt(1)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Simulator{index: index, opts: opts, log: opts.Logger}
}

func (s *Simulator) Options() Options { return s.opts }

// Prepared is a trade resolved against the candle index with its entry
// corrected. It does not depend on the policy and can be replayed under any
// number of policies.
type Prepared struct {
	Trade     market.TradeIntent
	Entry     market.Price
	Corrected bool
	// AfterClose marks a trade placed after the last candle of its day. It
	// is closed at that candle's close without evaluating the policy.
	AfterClose bool
	candles    []market.Candle
}

// Prepare looks up the candle window for a trade and applies entry
// correction. It fails with ErrZeroQuantity, market.ErrEmptyHistory or
// ErrEntryOutOfRange; none of these are fatal to a sweep. A trade placed after
// the last candle of a day that has candles is prepared with AfterClose set.
func (s *Simulator) Prepare(t market.TradeIntent) (Prepared, error) {
	if t.Quantity <= 0 {
		return Prepared{}, fmt.Errorf("%w: trade at %s has quantity %d", ErrZeroQuantity, t.Time.Format(time.RFC3339), t.Quantity)
	}

	at := t.Time.Truncate(time.Minute)
	candles, err := s.index.CandlesFrom(at, s.opts.Window == SameDay)
	if err != nil {
		if last, ok := s.index.LastOfDay(at); ok && last.Time.Before(at) {
			s.log.Info("trade after the last candle of its day, closing at the day close",
				zap.Time("time", t.Time),
				zap.Time("last_candle", last.Time),
				zap.Int32("close", last.Close),
			)
			return Prepared{
				Trade:      t,
				Entry:      t.EntryPrice,
				AfterClose: true,
				candles:    []market.Candle{last},
			}, nil
		}
		s.log.Debug("no candles for trade",
			zap.Time("time", t.Time),
			zap.String("window", s.opts.Window.String()),
			zap.Error(err),
		)
		return Prepared{}, err
	}

	first := candles[0]
	entry := t.EntryPrice
	var dist int32
	switch {
	case entry < first.Low:
		dist = first.Low - entry
		entry = first.Low
	case entry > first.High:
		dist = entry - first.High
		entry = first.High
	}

	if dist > s.opts.EntryTolerance {
		s.log.Warn("entry outside first candle",
			zap.Time("time", t.Time),
			zap.Int32("entry", t.EntryPrice),
			zap.Int32("low", first.Low),
			zap.Int32("high", first.High),
			zap.Int32("distance", dist),
		)
		return Prepared{}, fmt.Errorf("%w: entry %d is %d points from [%d,%d] at %s",
			ErrEntryOutOfRange, t.EntryPrice, dist, first.Low, first.High, first.Time.Format(time.RFC3339))
	}
	if dist > 0 {
		s.log.Info("entry clamped to first candle",
			zap.Time("time", t.Time),
			zap.Int32("entry", t.EntryPrice),
			zap.Int32("corrected", entry),
		)
	}

	return Prepared{
		Trade:     t,
		Entry:     entry,
		Corrected: dist > 0,
		candles:   candles,
	}, nil
}

// Simulate prepares and runs a single trade.
func (s *Simulator) Simulate(t market.TradeIntent, pol policy.ExitPolicy) (TradeOutcome, error) {
	if err := pol.Validate(); err != nil {
		return TradeOutcome{}, err
	}
	p, err := s.Prepare(t)
	if err != nil {
		return TradeOutcome{}, err
	}
	return s.Run(p, pol), nil
}

// Run replays a prepared trade. The policy must already be valid.
func (s *Simulator) Run(p Prepared, pol policy.ExitPolicy) TradeOutcome {
	return s.run(p, pol, nil)
}

// RunTrace is Run with a callback receiving the effective stop level after
// every candle the position survives.
func (s *Simulator) RunTrace(p Prepared, pol policy.ExitPolicy, trace func(c market.Candle, stop market.Price)) TradeOutcome {
	return s.run(p, pol, trace)
}

func (s *Simulator) run(p Prepared, pol policy.ExitPolicy, trace func(market.Candle, market.Price)) TradeOutcome {
	side := p.Trade.Side
	stop, targets := pol.Levels(side, p.Entry)
	parts := pol.Split(p.Trade.Quantity)

	pos := &position{
		Side:        side,
		Entry:       p.Entry,
		Stop:        stop,
		Remaining:   p.Trade.Quantity,
		initialStop: stop,
		extreme:     p.Entry,
	}

	out := TradeOutcome{
		Trade:     p.Trade,
		Policy:    pol,
		Entry:     p.Entry,
		Corrected: p.Corrected,
		Fills:     make([]Fill, 0, len(targets)),
	}

	if len(p.candles) == 0 {
		s.settle(&out)
		return out
	}

	window := p.candles
	if p.AfterClose {
		window = nil
	}

	next := 0
	for _, c := range window {
		stopHit := pos.stopTouched(c)
		targetHit := next < len(targets) && pos.targetTouched(c, targets[next])

		if stopHit && targetHit {
			if s.stopWins(pos, c) {
				targetHit = false
			} else {
				stopHit = false
			}
		}

		if targetHit {
			for next < len(targets) && pos.targetTouched(c, targets[next]) {
				if parts[next] > 0 {
					s.fill(&out, pos, parts[next], targets[next], c.Time, targetReasons[next])
				}
				next++
				out.TargetsHit = next
			}
			if pos.Remaining == 0 {
				break
			}
		} else if stopHit {
			reason := ReasonStop
			if pos.trailed() {
				reason = ReasonTrailingStop
			}
			s.fill(&out, pos, pos.Remaining, pos.Stop, c.Time, reason)
			break
		}

		if pol.Trailing() {
			pos.ratchet(c, pol.TrailingPercent, pol.LastTarget(), pol.StopLoss)
		}
		if trace != nil {
			trace(c, pos.Stop)
		}
	}

	if pos.Remaining > 0 {
		last := p.candles[len(p.candles)-1]
		s.fill(&out, pos, pos.Remaining, last.Close, last.Time, ReasonSessionClose)
	}

	s.settle(&out)
	return out
}

func (s *Simulator) stopWins(pos *position, c market.Candle) bool {
	switch s.opts.TieBreak {
	case StopFirst:
		return true
	case TargetFirst:
		return false
	default:
		return pos.against(c)
	}
}

func (s *Simulator) fill(out *TradeOutcome, pos *position, qty int, price market.Price, at time.Time, reason Reason) {
	points := pos.Side.Sign() * market.Points(pos.Entry, price)
	out.Fills = append(out.Fills, Fill{
		Quantity: qty,
		Price:    price,
		Time:     at,
		Reason:   reason,
		Points:   points,
		PnL:      decimal.NewFromInt(points * int64(qty)).Mul(s.opts.PointValue),
	})
	pos.Remaining -= qty
	out.ClosedAt = at
	out.Reason = reason
}

func (s *Simulator) settle(out *TradeOutcome) {
	var weighted int64
	qty := 0
	total := decimal.Zero
	for _, f := range out.Fills {
		weighted += f.Points * int64(f.Quantity)
		qty += f.Quantity
		total = total.Add(f.PnL)
	}
	if qty > 0 {
		out.RealizedPoints = float64(weighted) / float64(qty)
	}
	out.RealizedCurrency = total
}
