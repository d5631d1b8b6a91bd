package cmd

import (
	"fmt"

	"github.com/rustyeddy/exitsweep/journal"
	"github.com/rustyeddy/exitsweep/results"
)

func printRanking(stats []results.PolicyStatistics) {
	fmt.Printf("%-4s %-26s %7s %8s %8s %8s %7s %10s %14s\n",
		"#", "Policy", "Trades", "Hit %", "Stop %", "Full %", "PF", "Avg pts", "Total P&L")
	for i, r := range results.Rows(stats) {
		fmt.Printf("%-4d %-26s %7d %8.2f %8.2f %8.2f %7.2f %10.2f %14s\n",
			i+1, r.Key, r.Trades, r.HitRate, r.StopRate, r.FullRate, r.ProfitFactor, r.AvgPoints, r.TotalPnL.StringFixed(2))
	}
}

func printStatistics(s results.PolicyStatistics) {
	fmt.Printf("Policy: %s\n", s.Policy.Key())
	fmt.Printf("  Trades:         %d (skipped %d)\n", s.TotalTrades, s.Skipped.Total())
	fmt.Printf("  Wins / Losses:  %d / %d\n", s.Wins, s.Losses)
	fmt.Printf("  Hit rate:       %.2f%%\n", s.HitRate())
	fmt.Printf("  Stopped:        %d (%.2f%%)\n", s.Stops, s.StopRate())
	fmt.Printf("  First target:   %d (%.2f%%)\n", s.PartialTargets, s.PartialRate())
	fmt.Printf("  Later targets:  %d (%.2f%%)\n", s.FullTargets, s.FullRate())
	fmt.Printf("  Reached T1/T2/T3: %d (%.2f%%) / %d (%.2f%%) / %d (%.2f%%)\n",
		s.Target1Hits, s.TargetRate(1), s.Target2Hits, s.TargetRate(2), s.Target3Hits, s.TargetRate(3))
	fmt.Printf("  Session closes: %d\n", s.SessionCloses)
	fmt.Printf("  Corrected:      %d\n", s.Corrected)
	fmt.Printf("  Avg points:     %.2f\n", s.AvgPoints)
	fmt.Printf("  Avg P&L:        %s\n", s.AvgPnL.StringFixed(2))
	fmt.Printf("  Total P&L:      %s\n", s.TotalPnL.StringFixed(2))
	fmt.Printf("  Profit factor:  %.2f\n", s.ProfitFactor())
}

func printSkips(s results.Skips) {
	if s.Total() == 0 {
		return
	}
	fmt.Printf("Skipped trades: %d (empty history %d, entry out of range %d, zero quantity %d, other %d)\n",
		s.Total(), s.EmptyHistory, s.EntryOutOfRange, s.ZeroQuantity, s.Other)
}

func printRun(r journal.Run) {
	fmt.Printf("Run %s (%s)\n", r.RunID, r.Kind)
	fmt.Printf("  Created:    %s\n", r.Created.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Instrument: %s (point value %s)\n", r.Instrument, r.PointValue.String())
	fmt.Printf("  Candles:    %s (%d candles, %d days, %s to %s)\n",
		r.CandlesFile, r.Candles, r.Days, r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	fmt.Printf("  Trades:     %s (%d loaded, %d simulated)\n", r.TradesFile, r.Trades, r.Prepared)
	fmt.Printf("  Policies:   %d (%d rejected)\n", r.Policies, r.Rejected)
	fmt.Printf("  Simulation: tie-break %s, window %s, ranked by %s\n", r.TieBreak, r.Window, r.RankBy)
	fmt.Printf("  Elapsed:    %s\n", r.Elapsed)
	printSkips(r.Skipped)
}
