package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/exitsweep/config"
	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/results"
	"github.com/spf13/cobra"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect the candle history and the trade report",
	Long: `Load the configured inputs and report what the simulator will see:
candles per trading day, duplicate timestamps and which trades cannot be
replayed.

Example:
  exitsweep data -c sweep.yaml --days`,
	RunE: runData,
}

var (
	dataConfigPath string
	dataDays       bool
)

func init() {
	rootCmd.AddCommand(dataCmd)

	dataCmd.Flags().StringVarP(&dataConfigPath, "config", "c", "", "path to config file (YAML or JSON) (required)")
	dataCmd.Flags().BoolVar(&dataDays, "days", false, "list every trading day")
	dataCmd.MarkFlagRequired("config")
}

func runData(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(dataConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	in, err := loadInputs(cfg, log)
	if err != nil {
		return err
	}

	first, last := in.index.Span()
	fmt.Printf("Candles: %s\n", cfg.Data.CandlesFile)
	fmt.Printf("  %d candles over %d days (%d duplicates dropped)\n", in.index.Len(), in.index.Days(), in.index.Duplicates())
	fmt.Printf("  %s to %s\n", first.Format("2006-01-02 15:04"), last.Format("2006-01-02 15:04"))

	gaps := market.SummarizeGaps(in.index.Gaps(time.Minute))
	if gaps.GapCount > 0 {
		fmt.Printf("  %d intra-day gaps, %d missing bars (longest %d bars after %s)\n",
			gaps.GapCount, gaps.MissingBars, gaps.LongestGap, gaps.LongestGapDate.Format("2006-01-02 15:04"))
	}

	if dataDays {
		fmt.Printf("\n%-12s %8s %6s %6s\n", "Day", "Candles", "First", "Last")
		for _, d := range in.index.DayStats() {
			fmt.Printf("%-12s %8d %6s %6s\n", d.Date.Format("2006-01-02"), d.Candles, d.First.Format("15:04"), d.Last.Format("15:04"))
		}
	}

	var skips results.Skips
	corrected := 0
	for _, t := range in.trades {
		p, err := in.sim.Prepare(t)
		if err != nil {
			skips.Count(err)
			continue
		}
		if p.Corrected {
			corrected++
		}
	}

	fmt.Printf("\nTrades: %s\n", cfg.Data.TradesFile)
	fmt.Printf("  %d loaded, %d replayable, %d entries corrected\n", len(in.trades), len(in.trades)-skips.Total(), corrected)
	printSkips(skips)
	return nil
}
