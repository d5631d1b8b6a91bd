package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rustyeddy/exitsweep/chart"
	"github.com/rustyeddy/exitsweep/config"
	"github.com/rustyeddy/exitsweep/journal"
	"github.com/rustyeddy/exitsweep/pkg/id"
	"github.com/rustyeddy/exitsweep/results"
	"github.com/rustyeddy/exitsweep/sweep"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaluate a grid of exit policies",
	Long: `Replay every trade under every policy of the configured grid, rank the
policies and journal the run.

Use --shard to split one grid across several processes, or --sample to
evaluate a reproducible random subset of a large grid.

Examples:
  exitsweep sweep -c sweep.yaml
  exitsweep sweep -c sweep.yaml --rank-by total-pnl --top 30 --chart ranking.html
  exitsweep sweep -c sweep.yaml --shard 2/4`,
	RunE: runSweep,
}

var (
	sweepConfigPath string
	sweepWorkers    int
	sweepTop        int
	sweepRankBy     string
	sweepSample     int
	sweepSeed       uint64
	sweepShard      string
	sweepChart      string
	sweepOutcomes   int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&sweepConfigPath, "config", "c", "", "path to config file (YAML or JSON) (required)")
	sweepCmd.Flags().IntVarP(&sweepWorkers, "workers", "w", 0, "worker goroutines (overrides config, 0 = one per CPU)")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 0, "policies to print (overrides config)")
	sweepCmd.Flags().StringVar(&sweepRankBy, "rank-by", "", "ranking: hit-rate or total-pnl (overrides config)")
	sweepCmd.Flags().IntVar(&sweepSample, "sample", 0, "evaluate a random subset of this many policies (overrides config)")
	sweepCmd.Flags().Uint64Var(&sweepSeed, "seed", 0, "seed for --sample (overrides config)")
	sweepCmd.Flags().StringVar(&sweepShard, "shard", "", "evaluate only shard i of n, as i/n")
	sweepCmd.Flags().StringVar(&sweepChart, "chart", "", "write an HTML ranking chart to this path (overrides config)")
	sweepCmd.Flags().IntVar(&sweepOutcomes, "outcomes", 0, "journal per-trade outcomes of the best N policies")
	sweepCmd.MarkFlagRequired("config")
}

func applySweepFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Sweep.Workers = sweepWorkers
	}
	if f.Changed("top") {
		cfg.Sweep.Top = sweepTop
	}
	if f.Changed("rank-by") {
		cfg.Sweep.RankBy = sweepRankBy
	}
	if f.Changed("sample") {
		cfg.Sweep.Sample = sweepSample
	}
	if f.Changed("seed") {
		cfg.Sweep.Seed = sweepSeed
	}
	if f.Changed("chart") {
		cfg.Sweep.Chart = sweepChart
	}
}

func sweepSource(cfg *config.Config) (sweep.Source, string, error) {
	switch {
	case sweepShard != "":
		var i, n int
		if _, err := fmt.Sscanf(sweepShard, "%d/%d", &i, &n); err != nil {
			return nil, "", fmt.Errorf("--shard %q: want i/n", sweepShard)
		}
		src, err := cfg.Grid.Shard(i, n)
		return src, fmt.Sprintf("shard %d of %d", i, n), err
	case cfg.Sweep.Sample > 0:
		ps := cfg.Grid.Sample(cfg.Sweep.Seed, cfg.Sweep.Sample)
		return sweep.NewSliceSource(ps), fmt.Sprintf("sample of %d (seed %d)", len(ps), cfg.Sweep.Seed), nil
	default:
		return cfg.Grid.Iterator(), "full grid", nil
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(sweepConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applySweepFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	rankBy, _ := results.ParseRankBy(cfg.Sweep.RankBy)

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	in, err := loadInputs(cfg, log)
	if err != nil {
		return err
	}

	src, scope, err := sweepSource(cfg)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	closeJournal := closeOnce(j)
	defer closeJournal()

	runID := id.New()
	started := time.Now()
	fmt.Printf("Sweep %s over %s (%d policies in grid)\n", runID, scope, cfg.Grid.Count())
	fmt.Printf("  Instrument: %s, trades: %d, days: %d\n\n", cfg.Instrument.Symbol, len(in.trades), in.index.Days())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &sweep.Runner{
		Simulator: in.sim,
		Workers:   cfg.Sweep.Workers,
		Logger:    log.Named("sweep"),
		OnResult: func(_ int, s results.PolicyStatistics) error {
			return j.RecordStatistics(runID, s)
		},
	}
	report, err := runner.Run(ctx, src, in.trades)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	snapshot, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("snapshot config: %w", err)
	}
	opts := in.sim.Options()
	first, last := in.index.Span()
	run := journal.Run{
		RunID:       runID,
		Created:     started,
		Kind:        "sweep",
		Instrument:  cfg.Instrument.Symbol,
		PointValue:  opts.PointValue,
		CandlesFile: cfg.Data.CandlesFile,
		TradesFile:  cfg.Data.TradesFile,
		From:        first,
		To:          last,
		Days:        in.index.Days(),
		Candles:     in.index.Len(),
		Trades:      report.Trades,
		Prepared:    report.Prepared,
		Skipped:     report.Skipped,
		Policies:    len(report.Stats),
		Rejected:    report.Rejected,
		TieBreak:    opts.TieBreak.String(),
		Window:      opts.Window.String(),
		RankBy:      string(rankBy),
		Elapsed:     report.Elapsed,
		Config:      snapshot,
	}
	if err := j.RecordRun(run); err != nil {
		return fmt.Errorf("journal run: %w", err)
	}

	top := results.Top(report.Stats, rankBy, cfg.Sweep.Top)
	printRanking(top)
	fmt.Println()
	printSkips(report.Skipped)
	fmt.Printf("Evaluated %d policies (%d rejected) in %s\n", len(report.Stats), report.Rejected, report.Elapsed.Round(time.Millisecond))

	if sweepOutcomes > 0 {
		if err := journalOutcomes(j, runID, in, top, sweepOutcomes, log); err != nil {
			return err
		}
	}
	if err := closeJournal(); err != nil {
		return err
	}

	if cfg.Sweep.Chart != "" {
		if err := writeChart(cfg.Sweep.Chart, fmt.Sprintf("%s %s ranking", cfg.Instrument.Symbol, rankBy), top); err != nil {
			return err
		}
		fmt.Printf("Chart written to %s\n", cfg.Sweep.Chart)
	}

	switch cfg.Journal.Type {
	case "sqlite":
		fmt.Printf("\nRun saved to: %s\n", cfg.Journal.DBPath)
	case "csv":
		fmt.Printf("\nStatistics saved to: %s\n", cfg.Journal.StatsFile)
	}
	return nil
}

// journalOutcomes replays the trades of the best n policies and records
// every outcome.
func journalOutcomes(j journal.Journal, runID string, in *inputs, top []results.PolicyStatistics, n int, log *zap.Logger) error {
	if n > len(top) {
		n = len(top)
	}
	for _, s := range top[:n] {
		recorded := 0
		for _, t := range in.trades {
			out, err := in.sim.Simulate(t, s.Policy)
			if err != nil {
				continue
			}
			if err := j.RecordOutcome(runID, out); err != nil {
				return fmt.Errorf("journal outcome: %w", err)
			}
			recorded++
		}
		log.Debug("outcomes journaled", zap.String("policy", s.Policy.Key()), zap.Int("outcomes", recorded))
	}
	return nil
}

func writeChart(path, title string, stats []results.PolicyStatistics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := chart.RenderRanking(f, title, stats, 0); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
