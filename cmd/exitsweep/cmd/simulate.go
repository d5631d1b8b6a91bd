package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/exitsweep/config"
	"github.com/rustyeddy/exitsweep/journal"
	"github.com/rustyeddy/exitsweep/pkg/id"
	"github.com/rustyeddy/exitsweep/policy"
	"github.com/rustyeddy/exitsweep/results"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay every trade under a single exit policy",
	Long: `Replay every trade of the report under one policy and write the
per-trade operations and the policy statistics as CSV.

Examples:
  exitsweep simulate -c sweep.yaml --stop 300 --t1 200 --t2 500
  exitsweep simulate -c sweep.yaml --stop 300 --t1 200 --t2 500 --t3 800 --trail 25`,
	RunE: runSimulate,
}

var (
	simConfigPath string
	simStop       int32
	simT1         int32
	simT2         int32
	simT3         int32
	simTrail      float64
	simStatsPath  string
	simOpsPath    string
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simConfigPath, "config", "c", "", "path to config file (YAML or JSON) (required)")
	simulateCmd.Flags().Int32Var(&simStop, "stop", 0, "stop loss distance in points (required)")
	simulateCmd.Flags().Int32Var(&simT1, "t1", 0, "first target distance in points (required)")
	simulateCmd.Flags().Int32Var(&simT2, "t2", 0, "second target distance in points (required)")
	simulateCmd.Flags().Int32Var(&simT3, "t3", 0, "optional third target distance in points")
	simulateCmd.Flags().Float64Var(&simTrail, "trail", 0, "trailing stop activation, percent of the last target")
	simulateCmd.Flags().StringVar(&simStatsPath, "stats", "simulate_stats.csv", "statistics CSV output")
	simulateCmd.Flags().StringVarP(&simOpsPath, "output", "o", "simulate_operations.csv", "per-trade operations CSV output")
	simulateCmd.MarkFlagRequired("config")
	simulateCmd.MarkFlagRequired("stop")
	simulateCmd.MarkFlagRequired("t1")
	simulateCmd.MarkFlagRequired("t2")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	pol := policy.ExitPolicy{
		StopLoss:        simStop,
		Target1:         simT1,
		Target2:         simT2,
		Target3:         simT3,
		TrailingPercent: simTrail,
	}
	if err := pol.Validate(); err != nil {
		return err
	}

	cfg, err := config.LoadFromFile(simConfigPath)
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

	report, err := journal.NewCSV(simStatsPath, simOpsPath)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	j, err := openJournal(cfg, report)
	if err != nil {
		_ = report.Close()
		return err
	}
	closeJournal := closeOnce(j)
	defer closeJournal()

	runID := id.New()
	started := time.Now()
	fmt.Printf("Simulating %s over %d trades (run %s)\n\n", pol.Key(), len(in.trades), runID)

	acc := results.NewAccumulator(pol)
	prepared := 0
	for _, t := range in.trades {
		out, err := in.sim.Simulate(t, pol)
		if err != nil {
			acc.Skip(err)
			continue
		}
		prepared++
		acc.Add(out)
		if err := j.RecordOutcome(runID, out); err != nil {
			return fmt.Errorf("journal outcome: %w", err)
		}
	}
	stats := acc.Statistics()
	if err := j.RecordStatistics(runID, stats); err != nil {
		return fmt.Errorf("journal statistics: %w", err)
	}

	opts := in.sim.Options()
	first, last := in.index.Span()
	if err := j.RecordRun(journal.Run{
		RunID:       runID,
		Created:     started,
		Kind:        "simulate",
		Instrument:  cfg.Instrument.Symbol,
		PointValue:  opts.PointValue,
		CandlesFile: cfg.Data.CandlesFile,
		TradesFile:  cfg.Data.TradesFile,
		From:        first,
		To:          last,
		Days:        in.index.Days(),
		Candles:     in.index.Len(),
		Trades:      len(in.trades),
		Prepared:    prepared,
		Skipped:     stats.Skipped,
		Policies:    1,
		TieBreak:    opts.TieBreak.String(),
		Window:      opts.Window.String(),
		RankBy:      cfg.Sweep.RankBy,
		Elapsed:     time.Since(started),
	}); err != nil {
		return fmt.Errorf("journal run: %w", err)
	}

	log.Info("simulation finished",
		zap.String("policy", pol.Key()),
		zap.Int("simulated", prepared),
		zap.Int("skipped", stats.Skipped.Total()),
	)

	if err := closeJournal(); err != nil {
		return err
	}

	printStatistics(stats)
	fmt.Println()
	printSkips(stats.Skipped)
	fmt.Printf("\nResults saved to:\n  - %s\n  - %s\n", simStatsPath, simOpsPath)
	return nil
}
