package results

import (
	"fmt"
	"sort"
	"strings"
)

type RankBy string

const (
	ByHitRate  RankBy = "hit-rate"
	ByTotalPnL RankBy = "total-pnl"
)

func ParseRankBy(s string) (RankBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hit-rate", "hitrate", "hit":
		return ByHitRate, nil
	case "total-pnl", "pnl", "total":
		return ByTotalPnL, nil
	default:
		return "", fmt.Errorf("unknown ranking %q (supported: hit-rate, total-pnl)", s)
	}
}

// Rank sorts stats best first. Ties fall back to the other metric and then
// to the policy key so the order is fully deterministic.
func Rank(stats []PolicyStatistics, by RankBy) {
	sort.SliceStable(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		hr := compareFloat(a.HitRate(), b.HitRate())
		pnl := a.TotalPnL.Cmp(b.TotalPnL)

		first, second := hr, pnl
		if by == ByTotalPnL {
			first, second = pnl, hr
		}
		if first != 0 {
			return first > 0
		}
		if second != 0 {
			return second > 0
		}
		return a.Policy.Key() < b.Policy.Key()
	})
}

// Top returns at most n stats after ranking a copy.
func Top(stats []PolicyStatistics, by RankBy, n int) []PolicyStatistics {
	cp := make([]PolicyStatistics, len(stats))
	copy(cp, stats)
	Rank(cp, by)
	if n > 0 && n < len(cp) {
		cp = cp[:n]
	}
	return cp
}

func compareFloat(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}
