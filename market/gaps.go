package market

import "time"

// Gap is a hole inside one trading day: After is the last candle before it
// and Missing the number of absent bars.
type Gap struct {
	After   time.Time
	Before  time.Time
	Missing int
}

// GapStats summarizes the holes found by Gaps.
type GapStats struct {
	GapCount       int
	MissingBars    int
	LongestGap     int
	LongestGapDate time.Time
}

// Gaps lists intra-day holes for bars of width step. Overnight breaks are
// not gaps.
func (ci *CandleIndex) Gaps(step time.Duration) []Gap {
	if step <= 0 {
		return nil
	}
	var out []Gap
	for _, d := range ci.days {
		for i := d.start + 1; i < d.end; i++ {
			prev, cur := ci.candles[i-1].Time, ci.candles[i].Time
			missing := int(cur.Sub(prev)/step) - 1
			if missing > 0 {
				out = append(out, Gap{After: prev, Before: cur, Missing: missing})
			}
		}
	}
	return out
}

func SummarizeGaps(gaps []Gap) GapStats {
	var s GapStats
	for _, g := range gaps {
		s.GapCount++
		s.MissingBars += g.Missing
		if g.Missing > s.LongestGap {
			s.LongestGap = g.Missing
			s.LongestGapDate = g.After
		}
	}
	return s
}
