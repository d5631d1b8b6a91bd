package sim

import (
	"time"

	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/policy"
	"github.com/shopspring/decimal"
)

type Reason string

const (
	ReasonStop         Reason = "Stop"
	ReasonTarget1      Reason = "Target1"
	ReasonTarget2      Reason = "Target2"
	ReasonTarget3      Reason = "Target3"
	ReasonTrailingStop Reason = "TrailingStop"
	ReasonSessionClose Reason = "SessionClose"
)

var targetReasons = [...]Reason{ReasonTarget1, ReasonTarget2, ReasonTarget3}

// Fill closes one tranche, or everything still open, at a single price.
type Fill struct {
	Quantity int
	Price    market.Price
	Time     time.Time
	Reason   Reason
	Points   int64 // signed, per contract
	PnL      decimal.Decimal
}

// TradeOutcome is the result of replaying one trade under one policy.
type TradeOutcome struct {
	Trade     market.TradeIntent // as supplied, never corrected
	Policy    policy.ExitPolicy
	Entry     market.Price // entry actually used
	Corrected bool

	Fills      []Fill
	TargetsHit int

	// RealizedPoints is the quantity weighted average of the fill points.
	RealizedPoints   float64
	RealizedCurrency decimal.Decimal
	ClosedAt         time.Time
	Reason           Reason
}

// Quantity sums the fill quantities.
func (o TradeOutcome) Quantity() int {
	n := 0
	for _, f := range o.Fills {
		n += f.Quantity
	}
	return n
}

// AvgExit is the quantity weighted exit price.
func (o TradeOutcome) AvgExit() float64 {
	var sum float64
	q := 0
	for _, f := range o.Fills {
		sum += float64(f.Price) * float64(f.Quantity)
		q += f.Quantity
	}
	if q == 0 {
		return 0
	}
	return sum / float64(q)
}

// Stopped reports whether the final exit was a fixed or trailing stop.
func (o TradeOutcome) Stopped() bool {
	return o.Reason == ReasonStop || o.Reason == ReasonTrailingStop
}
