package market

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrEmptyHistory = errors.New("empty history")

// CandleIndex holds a time ordered candle sequence grouped by calendar day.
// It is read-only after construction and safe for concurrent readers.
type CandleIndex struct {
	loc     *time.Location
	candles []Candle
	days    []day
	byDate  map[date]int

	duplicates int
}

type date struct {
	y int
	m time.Month
	d int
}

// day is a half open range [start, end) into candles.
type day struct {
	date  date
	start int
	end   int
}

func dateOf(t time.Time, loc *time.Location) date {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return date{y, m, d}
}

// NewCandleIndex validates, sorts and groups candles by calendar day in loc.
// A nil loc uses each candle's own location. Exact duplicate timestamps keep
// the first occurrence.
func NewCandleIndex(candles []Candle, loc *time.Location) (*CandleIndex, error) {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("candle %d at %s: %w", i, c.Time.Format(time.RFC3339), err)
		}
	}

	sorted := make([]Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	ci := &CandleIndex{
		loc:     loc,
		candles: sorted[:0],
		byDate:  make(map[date]int),
	}

	for _, c := range sorted {
		if len(ci.candles) > 0 && c.Time.Equal(ci.candles[len(ci.candles)-1].Time) {
			ci.duplicates++
			continue
		}
		ci.candles = append(ci.candles, c)
	}

	for i, c := range ci.candles {
		d := dateOf(c.Time, loc)
		n := len(ci.days)
		if n > 0 && ci.days[n-1].date == d {
			ci.days[n-1].end = i + 1
			continue
		}
		ci.byDate[d] = n
		ci.days = append(ci.days, day{date: d, start: i, end: i + 1})
	}

	return ci, nil
}

// CandlesFrom returns the candles at or after t. With sameDayOnly the result
// stops at the end of t's calendar day, otherwise it runs to the end of the
// history. The returned slice aliases the index and must not be modified.
func (ci *CandleIndex) CandlesFrom(t time.Time, sameDayOnly bool) ([]Candle, error) {
	if !sameDayOnly {
		i := sort.Search(len(ci.candles), func(i int) bool {
			return !ci.candles[i].Time.Before(t)
		})
		if i == len(ci.candles) {
			return nil, fmt.Errorf("%w: no candles at or after %s", ErrEmptyHistory, t.Format(time.RFC3339))
		}
		return ci.candles[i:], nil
	}

	n, ok := ci.byDate[dateOf(t, ci.loc)]
	if !ok {
		return nil, fmt.Errorf("%w: no candles on %s", ErrEmptyHistory, t.Format("2006-01-02"))
	}
	d := ci.days[n]
	bucket := ci.candles[d.start:d.end]
	i := sort.Search(len(bucket), func(i int) bool {
		return !bucket[i].Time.Before(t)
	})
	if i == len(bucket) {
		return nil, fmt.Errorf("%w: no candles after %s on its day", ErrEmptyHistory, t.Format(time.RFC3339))
	}
	return bucket[i:], nil
}

// LastOfDay returns the final candle of t's calendar day, if that day has
// any candles.
func (ci *CandleIndex) LastOfDay(t time.Time) (Candle, bool) {
	n, ok := ci.byDate[dateOf(t, ci.loc)]
	if !ok {
		return Candle{}, false
	}
	return ci.candles[ci.days[n].end-1], true
}

// Len returns the number of distinct candles.
func (ci *CandleIndex) Len() int { return len(ci.candles) }

// Days returns the number of calendar days with at least one candle.
func (ci *CandleIndex) Days() int { return len(ci.days) }

// Duplicates returns how many candles were dropped for a repeated timestamp.
func (ci *CandleIndex) Duplicates() int { return ci.duplicates }

// Span returns the first and last candle times.
func (ci *CandleIndex) Span() (first, last time.Time) {
	if len(ci.candles) == 0 {
		return time.Time{}, time.Time{}
	}
	return ci.candles[0].Time, ci.candles[len(ci.candles)-1].Time
}

// DayStats summarizes one trading day in the index.
type DayStats struct {
	Date    time.Time
	Candles int
	First   time.Time
	Last    time.Time
}

// DayStats lists every day in order, mostly for data quality reports.
func (ci *CandleIndex) DayStats() []DayStats {
	loc := ci.loc
	if loc == nil {
		loc = time.UTC
	}
	out := make([]DayStats, 0, len(ci.days))
	for _, d := range ci.days {
		out = append(out, DayStats{
			Date:    time.Date(d.date.y, d.date.m, d.date.d, 0, 0, 0, 0, loc),
			Candles: d.end - d.start,
			First:   ci.candles[d.start].Time,
			Last:    ci.candles[d.end-1].Time,
		})
	}
	return out
}
