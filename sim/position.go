package sim

import "github.com/rustyeddy/exitsweep/market"

// position is the mutable state of one (trade, policy) replay.
type position struct {
	Side      market.Side
	Entry     market.Price
	Stop      market.Price
	Remaining int

	initialStop market.Price
	trailing    bool
	extreme     market.Price
}

// stopTouched: long stop hit if low <= stop, short if high >= stop.
func (p *position) stopTouched(c market.Candle) bool {
	if p.Side == market.Long {
		return c.Low <= p.Stop
	}
	return c.High >= p.Stop
}

// targetTouched: long target hit if high >= level, short if low <= level.
func (p *position) targetTouched(c market.Candle, level market.Price) bool {
	if p.Side == market.Long {
		return c.High >= level
	}
	return c.Low <= level
}

// against reports a candle closing against the position or flat.
func (p *position) against(c market.Candle) bool {
	if p.Side == market.Long {
		return c.Down() || c.Flat()
	}
	return c.Up() || c.Flat()
}

// favorable is the best price the candle reached for the position.
func (p *position) favorable(c market.Candle) market.Price {
	if p.Side == market.Long {
		return c.High
	}
	return c.Low
}

func (p *position) better(a, b market.Price) bool {
	if p.Side == market.Long {
		return a > b
	}
	return a < b
}

// ratchet updates the trailing stop after a candle has been evaluated. The
// stop activates once the favorable excursion reaches pct of lastTarget and
// from then on follows the extreme at stopLoss distance, never retracing.
func (p *position) ratchet(c market.Candle, pct float64, lastTarget, stopLoss int32) {
	if fav := p.favorable(c); p.better(fav, p.extreme) {
		p.extreme = fav
	}
	if !p.trailing {
		move := float64(p.Side.Sign() * market.Points(p.Entry, p.extreme))
		if move*100 < pct*float64(lastTarget) {
			return
		}
		p.trailing = true
	}
	cand := p.extreme - market.Price(p.Side)*stopLoss
	if p.better(cand, p.Stop) {
		p.Stop = cand
	}
}

// trailed reports whether the trailing stop has moved the stop level.
func (p *position) trailed() bool {
	return p.Stop != p.initialStop
}
