package results

import (
	"strconv"
	"time"

	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/sim"
	"github.com/shopspring/decimal"
)

// Row is the flat export record of one PolicyStatistics.
type Row struct {
	Key             string
	StopLoss        int32
	Target1         int32
	Target2         int32
	Target3         int32
	TrailingPercent float64

	Trades        int
	Wins          int
	Losses        int
	Stops         int
	Partial       int
	Full          int
	Target1Hits   int
	Target2Hits   int
	Target3Hits   int
	SessionCloses int
	Skipped       int

	HitRate      float64
	LossRate     float64
	StopRate     float64
	PartialRate  float64
	FullRate     float64
	ProfitFactor float64
	AvgPoints    float64
	AvgPnL       decimal.Decimal
	TotalPnL     decimal.Decimal
}

func (s PolicyStatistics) Row() Row {
	p := s.Policy
	return Row{
		Key:             p.Key(),
		StopLoss:        p.StopLoss,
		Target1:         p.Target1,
		Target2:         p.Target2,
		Target3:         p.Target3,
		TrailingPercent: p.TrailingPercent,
		Trades:          s.TotalTrades,
		Wins:            s.Wins,
		Losses:          s.Losses,
		Stops:           s.Stops,
		Partial:         s.PartialTargets,
		Full:            s.FullTargets,
		Target1Hits:     s.Target1Hits,
		Target2Hits:     s.Target2Hits,
		Target3Hits:     s.Target3Hits,
		SessionCloses:   s.SessionCloses,
		Skipped:         s.Skipped.Total(),
		HitRate:         s.HitRate(),
		LossRate:        s.LossRate(),
		StopRate:        s.StopRate(),
		PartialRate:     s.PartialRate(),
		FullRate:        s.FullRate(),
		ProfitFactor:    s.ProfitFactor(),
		AvgPoints:       s.AvgPoints,
		AvgPnL:          s.AvgPnL,
		TotalPnL:        s.TotalPnL,
	}
}

func Rows(stats []PolicyStatistics) []Row {
	out := make([]Row, len(stats))
	for i, s := range stats {
		out[i] = s.Row()
	}
	return out
}

// Header lists the columns produced by Row.Strings.
func Header() []string {
	return []string{
		"policy", "stop_loss", "target1", "target2", "target3", "trailing_pct",
		"trades", "wins", "losses", "stops", "partial", "full", "t1_hits", "t2_hits", "t3_hits",
		"session_closes", "skipped",
		"hit_rate", "loss_rate", "stop_rate", "partial_rate", "full_rate",
		"profit_factor", "avg_points", "avg_pnl", "total_pnl",
	}
}

func (r Row) Strings() []string {
	return []string{
		r.Key,
		i32(r.StopLoss),
		i32(r.Target1),
		i32(r.Target2),
		i32(r.Target3),
		f(r.TrailingPercent),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		strconv.Itoa(r.Stops),
		strconv.Itoa(r.Partial),
		strconv.Itoa(r.Full),
		strconv.Itoa(r.Target1Hits),
		strconv.Itoa(r.Target2Hits),
		strconv.Itoa(r.Target3Hits),
		strconv.Itoa(r.SessionCloses),
		strconv.Itoa(r.Skipped),
		f(r.HitRate),
		f(r.LossRate),
		f(r.StopRate),
		f(r.PartialRate),
		f(r.FullRate),
		f(r.ProfitFactor),
		f(r.AvgPoints),
		r.AvgPnL.StringFixed(2),
		r.TotalPnL.StringFixed(2),
	}
}

// Operation is one line of the per-trade report.
type Operation struct {
	Symbol     string
	Side       market.Side
	Quantity   int
	Opened     time.Time
	Closed     time.Time
	Duration   time.Duration
	Entry      market.Price
	Corrected  bool
	AvgBuy     float64
	AvgSell    float64
	Points     float64
	PnL        decimal.Decimal
	Cumulative decimal.Decimal
	Reason     sim.Reason
	Targets    int
}

// Operations converts outcomes, in order, into report lines with a running
// P&L total.
func Operations(outcomes []sim.TradeOutcome) []Operation {
	out := make([]Operation, 0, len(outcomes))
	cum := decimal.Zero
	for _, o := range outcomes {
		cum = cum.Add(o.RealizedCurrency)

		exit := o.AvgExit()
		buy, sell := float64(o.Entry), exit
		if o.Trade.Side == market.Short {
			buy, sell = exit, float64(o.Entry)
		}

		out = append(out, Operation{
			Symbol:     o.Trade.Symbol,
			Side:       o.Trade.Side,
			Quantity:   o.Trade.Quantity,
			Opened:     o.Trade.Time,
			Closed:     o.ClosedAt,
			Duration:   o.ClosedAt.Sub(o.Trade.Time.Truncate(time.Minute)),
			Entry:      o.Entry,
			Corrected:  o.Corrected,
			AvgBuy:     buy,
			AvgSell:    sell,
			Points:     o.RealizedPoints,
			PnL:        o.RealizedCurrency,
			Cumulative: cum,
			Reason:     o.Reason,
			Targets:    o.TargetsHit,
		})
	}
	return out
}

func OperationHeader() []string {
	return []string{
		"symbol", "side", "quantity", "opened", "closed", "duration",
		"entry", "corrected", "avg_buy", "avg_sell", "points", "pnl", "cumulative", "reason", "targets",
	}
}

func (op Operation) Strings() []string {
	return []string{
		op.Symbol,
		op.Side.String(),
		strconv.Itoa(op.Quantity),
		op.Opened.Format(time.RFC3339),
		op.Closed.Format(time.RFC3339),
		op.Duration.String(),
		i32(op.Entry),
		strconv.FormatBool(op.Corrected),
		f(op.AvgBuy),
		f(op.AvgSell),
		f(op.Points),
		op.PnL.StringFixed(2),
		op.Cumulative.StringFixed(2),
		string(op.Reason),
		strconv.Itoa(op.Targets),
	}
}

func i32(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
