package sim

import (
	"testing"
	"time"

	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/policy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	brt  = time.FixedZone("BRT", -3*60*60)
	day0 = time.Date(2025, 3, 10, 9, 0, 0, 0, brt)
)

// ohlc is open, high, low, close.
type ohlc [4]market.Price

func minuteBars(start time.Time, bars ...ohlc) []market.Candle {
	out := make([]market.Candle, len(bars))
	for i, b := range bars {
		out[i] = market.Candle{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  b[0],
			High:  b[1],
			Low:   b[2],
			Close: b[3],
		}
	}
	return out
}

func newTestSim(t *testing.T, candles []market.Candle, mod func(*Options)) *Simulator {
	t.Helper()

	idx, err := market.NewCandleIndex(candles, brt)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.PointValue = decimal.RequireFromString("0.2")
	if mod != nil {
		mod(&opts)
	}
	return New(idx, opts)
}

func trade(side market.Side, entry market.Price, qty int) market.TradeIntent {
	return market.TradeIntent{
		Symbol:     "WINJ25",
		Time:       day0.Add(20 * time.Second),
		Side:       side,
		EntryPrice: entry,
		Quantity:   qty,
	}
}

var basic = policy.ExitPolicy{StopLoss: 300, Target1: 200, Target2: 500}

func TestTargetThenStop(t *testing.T) {
	t.Parallel()

	s := newTestSim(t, minuteBars(day0,
		ohlc{100000, 100250, 99900, 100100},
		ohlc{100000, 100050, 99600, 99650},
	), nil)

	out, err := s.Simulate(trade(market.Long, 100000, 2), basic)
	require.NoError(t, err)

	require.Len(t, out.Fills, 2)
	assert.Equal(t, int64(200), out.Fills[0].Points)
	assert.Equal(t, day0, out.Fills[0].Time)
	assert.Equal(t, ReasonTarget1, out.Fills[0].Reason)
	assert.Equal(t, market.Price(100200), out.Fills[0].Price)
	assert.Equal(t, ReasonStop, out.Fills[1].Reason)
	assert.Equal(t, market.Price(99700), out.Fills[1].Price)
	assert.Equal(t, int64(-300), out.Fills[1].Points)

	assert.Equal(t, 1, out.TargetsHit)
	assert.Equal(t, ReasonStop, out.Reason)
	assert.Equal(t, day0.Add(time.Minute), out.ClosedAt)
	assert.InDelta(t, -50.0, out.RealizedPoints, 1e-9)
	assert.True(t, decimal.RequireFromString("-20").Equal(out.RealizedCurrency), out.RealizedCurrency.String())
	assert.True(t, decimal.RequireFromString("40").Equal(out.Fills[0].PnL))
	assert.True(t, decimal.RequireFromString("-60").Equal(out.Fills[1].PnL))
}

func TestSessionCloseWhenNothingTouched(t *testing.T) {
	t.Parallel()

	bars := minuteBars(day0,
		ohlc{100000, 100150, 99850, 100100},
		ohlc{100100, 100120, 99900, 99950},
		ohlc{99950, 100100, 99900, 100050},
	)

	tests := []struct {
		name   string
		side   market.Side
		points float64
	}{
		{"long", market.Long, 50},
		{"short", market.Short, -50},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestSim(t, bars, nil)

			out, err := s.Simulate(trade(tt.side, 100000, 3), basic)
			require.NoError(t, err)

			require.Len(t, out.Fills, 1)
			assert.Equal(t, 3, out.Fills[0].Quantity)
			assert.Equal(t, ReasonSessionClose, out.Reason)
			assert.Equal(t, market.Price(100050), out.Fills[0].Price)
			assert.Equal(t, tt.points, out.RealizedPoints)
			assert.Equal(t, 0, out.TargetsHit)
			assert.Equal(t, day0.Add(2*time.Minute), out.ClosedAt)
		})
	}
}

func TestSameCandleTieBreak(t *testing.T) {
	t.Parallel()

	down := ohlc{100100, 100250, 99650, 99800}
	up := ohlc{99800, 100250, 99650, 100100}
	flat := ohlc{100000, 100250, 99650, 100000}

	tests := []struct {
		name     string
		tb       TieBreak
		bar      ohlc
		first    Reason
		qtyFirst int
	}{
		{"down candle stop wins", CandleDirection, down, ReasonStop, 2},
		{"flat candle stop wins", CandleDirection, flat, ReasonStop, 2},
		{"up candle target wins", CandleDirection, up, ReasonTarget1, 1},
		{"stop first on up candle", StopFirst, up, ReasonStop, 2},
		{"target first on down candle", TargetFirst, down, ReasonTarget1, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestSim(t, minuteBars(day0, tt.bar), func(o *Options) { o.TieBreak = tt.tb })

			out, err := s.Simulate(trade(market.Long, 100000, 2), basic)
			require.NoError(t, err)
			require.NotEmpty(t, out.Fills)
			assert.Equal(t, tt.first, out.Fills[0].Reason)
			assert.Equal(t, tt.qtyFirst, out.Fills[0].Quantity)
			assert.Equal(t, 2, out.Quantity())

			if tt.first == ReasonStop {
				assert.Equal(t, market.Price(99700), out.Fills[0].Price)
				assert.Equal(t, 0, out.TargetsHit)
				return
			}
			// the stop is not re-checked on the candle a target fired
			require.Len(t, out.Fills, 2)
			assert.Equal(t, ReasonSessionClose, out.Fills[1].Reason)
		})
	}
}

func TestSameCandleTieBreakShort(t *testing.T) {
	t.Parallel()

	// up candle is against a short
	s := newTestSim(t, minuteBars(day0, ohlc{99900, 100350, 99750, 100200}), nil)

	out, err := s.Simulate(trade(market.Short, 100000, 2), basic)
	require.NoError(t, err)
	require.Len(t, out.Fills, 1)
	assert.Equal(t, ReasonStop, out.Reason)
	assert.Equal(t, market.Price(100300), out.Fills[0].Price)
	assert.Equal(t, int64(-300), out.Fills[0].Points)
}

func TestThreeTargetsCascadeInOneCandle(t *testing.T) {
	t.Parallel()

	s := newTestSim(t, minuteBars(day0, ohlc{100000, 100900, 99950, 100850}), nil)
	pol := policy.ExitPolicy{StopLoss: 300, Target1: 200, Target2: 500, Target3: 800}

	out, err := s.Simulate(trade(market.Long, 100000, 4), pol)
	require.NoError(t, err)

	require.Len(t, out.Fills, 3)
	assert.Equal(t, []int{1, 1, 2}, []int{out.Fills[0].Quantity, out.Fills[1].Quantity, out.Fills[2].Quantity})
	assert.Equal(t, []market.Price{100200, 100500, 100800}, []market.Price{out.Fills[0].Price, out.Fills[1].Price, out.Fills[2].Price})
	assert.Equal(t, 3, out.TargetsHit)
	assert.Equal(t, ReasonTarget3, out.Reason)
	assert.InDelta(t, 575.0, out.RealizedPoints, 1e-9)
}

func TestZeroQuantityTrancheAdvancesState(t *testing.T) {
	t.Parallel()

	s := newTestSim(t, minuteBars(day0,
		ohlc{100000, 100250, 99950, 100200},
		ohlc{100200, 100210, 99600, 99650},
	), nil)

	out, err := s.Simulate(trade(market.Long, 100000, 1), basic)
	require.NoError(t, err)

	require.Len(t, out.Fills, 1)
	assert.Equal(t, ReasonStop, out.Fills[0].Reason)
	assert.Equal(t, 1, out.Fills[0].Quantity)
	assert.Equal(t, 1, out.TargetsHit)
}

func TestTrailingStopLong(t *testing.T) {
	t.Parallel()

	s := newTestSim(t, minuteBars(day0,
		ohlc{100000, 100250, 99950, 100200},
		ohlc{100200, 100600, 100150, 100550},
		ohlc{100550, 100700, 100450, 100500},
		ohlc{100500, 100520, 100350, 100380},
	), nil)
	pol := policy.ExitPolicy{StopLoss: 300, Target1: 200, Target2: 1000, TrailingPercent: 50}

	p, err := s.Prepare(trade(market.Long, 100000, 2))
	require.NoError(t, err)

	var stops []market.Price
	out := s.RunTrace(p, pol, func(_ market.Candle, stop market.Price) {
		stops = append(stops, stop)
	})

	assert.Equal(t, []market.Price{99700, 100300, 100400}, stops)
	for i := 1; i < len(stops); i++ {
		assert.GreaterOrEqual(t, stops[i], stops[i-1])
	}

	require.Len(t, out.Fills, 2)
	assert.Equal(t, ReasonTarget1, out.Fills[0].Reason)
	assert.Equal(t, ReasonTrailingStop, out.Fills[1].Reason)
	assert.Equal(t, market.Price(100400), out.Fills[1].Price)
	assert.InDelta(t, 300.0, out.RealizedPoints, 1e-9)
}

func TestTrailingStopShort(t *testing.T) {
	t.Parallel()

	s := newTestSim(t, minuteBars(day0,
		ohlc{100000, 100050, 99750, 99800},
		ohlc{99800, 99850, 99400, 99450},
		ohlc{99450, 99550, 99300, 99500},
		ohlc{99500, 99650, 99480, 99600},
	), nil)
	pol := policy.ExitPolicy{StopLoss: 300, Target1: 200, Target2: 1000, TrailingPercent: 50}

	p, err := s.Prepare(trade(market.Short, 100000, 2))
	require.NoError(t, err)

	var stops []market.Price
	out := s.RunTrace(p, pol, func(_ market.Candle, stop market.Price) {
		stops = append(stops, stop)
	})

	assert.Equal(t, []market.Price{100300, 99700, 99600}, stops)
	for i := 1; i < len(stops); i++ {
		assert.LessOrEqual(t, stops[i], stops[i-1])
	}

	require.Len(t, out.Fills, 2)
	assert.Equal(t, ReasonTrailingStop, out.Reason)
	assert.Equal(t, market.Price(99600), out.Fills[1].Price)
	assert.Equal(t, int64(400), out.Fills[1].Points)
}

func TestTrailingNotActivatedKeepsFixedStop(t *testing.T) {
	t.Parallel()

	s := newTestSim(t, minuteBars(day0,
		ohlc{100000, 100100, 99950, 100050},
		ohlc{100050, 100060, 99600, 99650},
	), nil)
	pol := policy.ExitPolicy{StopLoss: 300, Target1: 200, Target2: 1000, TrailingPercent: 50}

	out, err := s.Simulate(trade(market.Long, 100000, 2), pol)
	require.NoError(t, err)
	assert.Equal(t, ReasonStop, out.Reason)
	assert.Equal(t, market.Price(99700), out.Fills[0].Price)
}

func TestEntryCorrection(t *testing.T) {
	t.Parallel()

	bars := minuteBars(day0, ohlc{100000, 100100, 100000, 100050})

	tests := []struct {
		name      string
		entry     market.Price
		want      market.Price
		corrected bool
		err       error
	}{
		{"inside range", 100020, 100020, false, nil},
		{"below within tolerance", 99960, 100000, true, nil},
		{"above within tolerance", 100150, 100100, true, nil},
		{"exactly at tolerance", 99950, 100000, true, nil},
		{"below beyond tolerance", 99900, 0, false, ErrEntryOutOfRange},
		{"above beyond tolerance", 100151, 0, false, ErrEntryOutOfRange},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestSim(t, bars, nil)
			in := trade(market.Long, tt.entry, 2)

			p, err := s.Prepare(in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Entry)
			assert.Equal(t, tt.corrected, p.Corrected)
			assert.Equal(t, tt.entry, p.Trade.EntryPrice, "original intent untouched")
			assert.Equal(t, tt.entry, in.EntryPrice)

			out := s.Run(p, basic)
			assert.Equal(t, tt.want, out.Entry)
			assert.Equal(t, tt.entry, out.Trade.EntryPrice)
		})
	}
}

func TestPrepareErrors(t *testing.T) {
	t.Parallel()

	s := newTestSim(t, minuteBars(day0, ohlc{100000, 100100, 99900, 100050}), nil)

	_, err := s.Prepare(trade(market.Long, 100000, 0))
	assert.ErrorIs(t, err, ErrZeroQuantity)

	next := trade(market.Long, 100000, 1)
	next.Time = day0.Add(24 * time.Hour)
	_, err = s.Prepare(next)
	assert.ErrorIs(t, err, market.ErrEmptyHistory)

}

func TestTradeAfterLastCandleClosesAtDayClose(t *testing.T) {
	t.Parallel()

	bars := minuteBars(day0,
		ohlc{100000, 100100, 99900, 100050},
		ohlc{100050, 100080, 99950, 100020},
	)

	tests := []struct {
		name   string
		side   market.Side
		points int64
	}{
		{"long", market.Long, 20},
		{"short", market.Short, -20},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestSim(t, bars, nil)

			late := trade(tt.side, 100000, 2)
			late.Time = day0.Add(5 * time.Minute)

			p, err := s.Prepare(late)
			require.NoError(t, err)
			assert.True(t, p.AfterClose)
			assert.Equal(t, market.Price(100000), p.Entry)

			// a stop this tight would fire on the last candle if it were evaluated
			out := s.Run(p, policy.ExitPolicy{StopLoss: 10, Target1: 5, Target2: 15})
			require.Len(t, out.Fills, 1)
			assert.Equal(t, ReasonSessionClose, out.Reason)
			assert.Equal(t, market.Price(100020), out.Fills[0].Price)
			assert.Equal(t, 2, out.Fills[0].Quantity)
			assert.Equal(t, tt.points, out.Fills[0].Points)
			assert.Equal(t, day0.Add(time.Minute), out.ClosedAt)
			assert.Zero(t, out.TargetsHit)
			assert.True(t, decimal.NewFromInt(tt.points*2).Mul(decimal.RequireFromString("0.2")).Equal(out.RealizedCurrency))
		})
	}

	unrestricted := newTestSim(t, bars, func(o *Options) { o.Window = Unrestricted })
	late := trade(market.Long, 100000, 1)
	late.Time = day0.Add(5 * time.Minute)
	out, err := unrestricted.Simulate(late, basic)
	require.NoError(t, err)
	assert.Equal(t, ReasonSessionClose, out.Reason)
	assert.Equal(t, market.Price(100020), out.Fills[0].Price)
}

func TestRunWithoutCandlesIsEmpty(t *testing.T) {
	t.Parallel()

	s := newTestSim(t, minuteBars(day0, ohlc{100000, 100100, 99900, 100050}), nil)

	out := s.Run(Prepared{Trade: trade(market.Long, 100000, 2), Entry: 100000}, basic)
	assert.Empty(t, out.Fills)
	assert.Zero(t, out.TargetsHit)
	assert.True(t, out.RealizedCurrency.IsZero())
	assert.Zero(t, out.RealizedPoints)
}

func TestSimulateRejectsInvalidPolicy(t *testing.T) {
	t.Parallel()

	s := newTestSim(t, minuteBars(day0, ohlc{100000, 100100, 99900, 100050}), nil)
	_, err := s.Simulate(trade(market.Long, 100000, 1), policy.ExitPolicy{StopLoss: 100, Target1: 300, Target2: 200})
	assert.ErrorIs(t, err, policy.ErrInvalidPolicy)
}

func TestWindowModes(t *testing.T) {
	t.Parallel()

	bars := append(
		minuteBars(day0, ohlc{100000, 100100, 99900, 100050}, ohlc{100050, 100080, 99950, 100020}),
		minuteBars(day0.Add(24*time.Hour), ohlc{100000, 100010, 99500, 99550})...,
	)

	same := newTestSim(t, bars, nil)
	out, err := same.Simulate(trade(market.Long, 100000, 2), basic)
	require.NoError(t, err)
	assert.Equal(t, ReasonSessionClose, out.Reason)
	assert.Equal(t, market.Price(100020), out.Fills[0].Price)

	all := newTestSim(t, bars, func(o *Options) { o.Window = Unrestricted })
	out, err = all.Simulate(trade(market.Long, 100000, 2), basic)
	require.NoError(t, err)
	assert.Equal(t, ReasonStop, out.Reason)
	assert.Equal(t, day0.Add(24*time.Hour), out.ClosedAt)
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	s := newTestSim(t, wave(day0, 120), nil)
	pol := policy.ExitPolicy{StopLoss: 150, Target1: 100, Target2: 250, Target3: 400, TrailingPercent: 40}

	p, err := s.Prepare(trade(market.Long, 100000, 7))
	require.NoError(t, err)

	a := s.Run(p, pol)
	b := s.Run(p, pol)
	assert.Equal(t, a, b)
}

func TestFillQuantitiesSumToTradeQuantity(t *testing.T) {
	t.Parallel()

	bars := wave(day0, 240)
	s := newTestSim(t, bars, nil)

	var policies []policy.ExitPolicy
	for _, sl := range []int32{50, 150, 400} {
		for _, t1 := range []int32{50, 120} {
			policies = append(policies,
				policy.ExitPolicy{StopLoss: sl, Target1: t1, Target2: t1 + 100},
				policy.ExitPolicy{StopLoss: sl, Target1: t1, Target2: t1 + 100, Target3: t1 + 300},
				policy.ExitPolicy{StopLoss: sl, Target1: t1, Target2: t1 + 100, Target3: t1 + 300, TrailingPercent: 30},
			)
		}
	}

	for _, side := range []market.Side{market.Long, market.Short} {
		for q := 1; q <= 12; q++ {
			for offset := 0; offset < 200; offset += 37 {
				tr := trade(side, 100000, q)
				tr.Time = day0.Add(time.Duration(offset) * time.Minute)
				tr.EntryPrice = bars[offset].Close

				p, err := s.Prepare(tr)
				require.NoError(t, err)
				for _, pol := range policies {
					out := s.Run(p, pol)
					assert.Equal(t, q, out.Quantity(), "%s q=%d %s", side, q, pol.Key())
					for _, f := range out.Fills {
						assert.Positive(t, f.Quantity)
					}
				}
			}
		}
	}
}

// wave builds a deterministic zig-zag around 100000.
func wave(start time.Time, n int) []market.Candle {
	bars := make([]ohlc, n)
	price := market.Price(100000)
	for i := range bars {
		step := market.Price(((i*37)%11 - 5) * 20)
		open := price
		closeP := price + step
		hi, lo := open, closeP
		if lo > hi {
			hi, lo = lo, hi
		}
		bars[i] = ohlc{open, hi + 30, lo - 30, closeP}
		price = closeP
	}
	return minuteBars(start, bars...)
}
