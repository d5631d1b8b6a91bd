package market

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saoPaulo = time.FixedZone("BRT", -3*60*60)

func bar(day, hour, min int, o, h, l, c Price) Candle {
	return Candle{
		Time:  time.Date(2025, 3, day, hour, min, 0, 0, saoPaulo),
		Open:  o,
		High:  h,
		Low:   l,
		Close: c,
	}
}

func sampleCandles() []Candle {
	return []Candle{
		bar(11, 9, 2, 100, 110, 95, 105),
		bar(10, 17, 59, 100, 100, 100, 100),
		bar(10, 9, 0, 100, 120, 90, 110),
		bar(11, 9, 0, 100, 110, 95, 105),
		bar(10, 9, 1, 110, 115, 100, 101),
		bar(11, 9, 1, 105, 106, 99, 100),
	}
}

func TestNewCandleIndexGroupsAndSorts(t *testing.T) {
	t.Parallel()

	ci, err := NewCandleIndex(sampleCandles(), saoPaulo)
	require.NoError(t, err)

	assert.Equal(t, 6, ci.Len())
	assert.Equal(t, 2, ci.Days())
	assert.Equal(t, 0, ci.Duplicates())

	first, last := ci.Span()
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, saoPaulo), first)
	assert.Equal(t, time.Date(2025, 3, 11, 9, 2, 0, 0, saoPaulo), last)

	days := ci.DayStats()
	require.Len(t, days, 2)
	assert.Equal(t, 3, days[0].Candles)
	assert.Equal(t, 3, days[1].Candles)
	assert.Equal(t, time.Date(2025, 3, 10, 17, 59, 0, 0, saoPaulo), days[0].Last)
}

func TestNewCandleIndexDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := sampleCandles()
	orig := make([]Candle, len(in))
	copy(orig, in)

	_, err := NewCandleIndex(in, saoPaulo)
	require.NoError(t, err)
	assert.Equal(t, orig, in)
}

func TestNewCandleIndexDropsDuplicates(t *testing.T) {
	t.Parallel()

	in := append(sampleCandles(), bar(10, 9, 0, 1, 1, 1, 1))
	ci, err := NewCandleIndex(in, saoPaulo)
	require.NoError(t, err)

	assert.Equal(t, 6, ci.Len())
	assert.Equal(t, 1, ci.Duplicates())

	got, err := ci.CandlesFrom(time.Date(2025, 3, 10, 9, 0, 0, 0, saoPaulo), true)
	require.NoError(t, err)
	assert.Equal(t, Price(120), got[0].High, "first occurrence wins")
}

func TestNewCandleIndexRejectsCorruptCandles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    Candle
	}{
		{"high below low", bar(10, 9, 0, 100, 90, 95, 92)},
		{"open above high", bar(10, 9, 0, 130, 120, 90, 110)},
		{"close below low", bar(10, 9, 0, 100, 120, 90, 80)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCandleIndex([]Candle{bar(10, 8, 0, 1, 1, 1, 1), tt.c}, saoPaulo)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCandle))
		})
	}
}

func TestCandlesFromSameDay(t *testing.T) {
	t.Parallel()

	ci, err := NewCandleIndex(sampleCandles(), saoPaulo)
	require.NoError(t, err)

	got, err := ci.CandlesFrom(time.Date(2025, 3, 10, 9, 0, 30, 0, saoPaulo), true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Time.Minute())
	assert.Equal(t, 17, got[1].Time.Hour())

	got, err = ci.CandlesFrom(time.Date(2025, 3, 10, 8, 0, 0, 0, saoPaulo), true)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCandlesFromUnrestricted(t *testing.T) {
	t.Parallel()

	ci, err := NewCandleIndex(sampleCandles(), saoPaulo)
	require.NoError(t, err)

	got, err := ci.CandlesFrom(time.Date(2025, 3, 10, 9, 1, 0, 0, saoPaulo), false)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Time.Before(got[i].Time))
	}

	// a day without candles still finds the next day
	got, err = ci.CandlesFrom(time.Date(2025, 3, 9, 12, 0, 0, 0, saoPaulo), false)
	require.NoError(t, err)
	assert.Len(t, got, 6)
}

func TestCandlesFromEmptyHistory(t *testing.T) {
	t.Parallel()

	ci, err := NewCandleIndex(sampleCandles(), saoPaulo)
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		sameDay bool
	}{
		{"no candles that day", time.Date(2025, 3, 12, 9, 0, 0, 0, saoPaulo), true},
		{"after the last candle of the day", time.Date(2025, 3, 10, 18, 0, 0, 0, saoPaulo), true},
		{"after the end of history", time.Date(2025, 3, 11, 9, 3, 0, 0, saoPaulo), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ci.CandlesFrom(tt.at, tt.sameDay)
			assert.ErrorIs(t, err, ErrEmptyHistory)
		})
	}
}

func TestLastOfDay(t *testing.T) {
	t.Parallel()

	ci, err := NewCandleIndex(sampleCandles(), saoPaulo)
	require.NoError(t, err)

	last, ok := ci.LastOfDay(time.Date(2025, 3, 10, 18, 30, 0, 0, saoPaulo))
	require.True(t, ok)
	assert.Equal(t, bar(10, 17, 59, 100, 100, 100, 100), last)

	last, ok = ci.LastOfDay(time.Date(2025, 3, 11, 0, 0, 0, 0, saoPaulo))
	require.True(t, ok)
	assert.Equal(t, bar(11, 9, 2, 100, 110, 95, 105), last)

	_, ok = ci.LastOfDay(time.Date(2025, 3, 12, 9, 0, 0, 0, saoPaulo))
	assert.False(t, ok)
}

func TestParseSide(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Side{"C": Long, "v": Short, "buy": Long, "Short": Short} {
		got, err := ParseSide(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSide("x")
	assert.Error(t, err)
}

func TestLookupInstrument(t *testing.T) {
	t.Parallel()

	m, ok := LookupInstrument("winj25")
	require.True(t, ok)
	assert.Equal(t, "WIN", m.Name)
	assert.Equal(t, "0.2", m.PointValue.String())

	_, ok = LookupInstrument("EURUSD")
	assert.False(t, ok)
}

func TestTradeIntentWithEntryCopies(t *testing.T) {
	t.Parallel()

	orig := TradeIntent{Side: Long, EntryPrice: 100, Quantity: 2}
	moved := orig.WithEntry(105)
	assert.Equal(t, Price(100), orig.EntryPrice)
	assert.Equal(t, Price(105), moved.EntryPrice)
}
