package cmd

import (
	"fmt"

	"github.com/rustyeddy/exitsweep/journal"
	"github.com/rustyeddy/exitsweep/results"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query journaled sweep runs",
	Long: `Query and display sweep runs stored in the SQLite journal.

Subcommands:
  list      - List every run, newest first
  show      - Show a run and its best policies
  org       - Export a run as an Org-mode entry
  outcomes  - List the journaled trades of one policy

Examples:
  exitsweep runs list
  exitsweep runs show <run-id> --top 20 --rank-by total-pnl
  exitsweep runs org <run-id> >> sweeps.org
  exitsweep runs outcomes <run-id> SL300-T200-T500`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every run, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its best policies",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsOrgCmd = &cobra.Command{
	Use:   "org <run-id>",
	Short: "Export a run as an Org-mode entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsOrg,
}

var runsOutcomesCmd = &cobra.Command{
	Use:   "outcomes <run-id> <policy>",
	Short: "List the journaled trades of one policy",
	Args:  cobra.ExactArgs(2),
	RunE:  runRunsOutcomes,
}

var (
	runsDBPath string
	runsTop    int
	runsRankBy string
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsOrgCmd)
	runsCmd.AddCommand(runsOutcomesCmd)

	runsCmd.PersistentFlags().StringVarP(&runsDBPath, "db", "d", "./exitsweep.sqlite", "path to SQLite journal DB")
	runsCmd.PersistentFlags().IntVar(&runsTop, "top", 10, "policies to show")
	runsCmd.PersistentFlags().StringVar(&runsRankBy, "rank-by", "", "ranking: hit-rate or total-pnl (default: the run's own)")
}

// runRanking prefers an explicit ranking over the one the run was made with.
func runRanking(r journal.Run, override string) (results.RankBy, error) {
	if override != "" {
		return results.ParseRankBy(override)
	}
	return results.ParseRankBy(r.RankBy)
}

// loadRun opens the journal and fetches a run with its best policies. The
// caller closes the returned journal.
func loadRun(dbPath, runID, rankBy string, limit int) (*journal.SQLite, journal.Run, []results.PolicyStatistics, error) {
	j, err := journal.NewSQLite(dbPath)
	if err != nil {
		return nil, journal.Run{}, nil, fmt.Errorf("open db: %w", err)
	}

	run, err := j.GetRun(runID)
	if err != nil {
		_ = j.Close()
		return nil, journal.Run{}, nil, fmt.Errorf("get run: %w", err)
	}
	by, err := runRanking(run, rankBy)
	if err != nil {
		_ = j.Close()
		return nil, journal.Run{}, nil, err
	}
	top, err := j.TopStatistics(runID, by, limit)
	if err != nil {
		_ = j.Close()
		return nil, journal.Run{}, nil, fmt.Errorf("query statistics: %w", err)
	}
	return j, run, top, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs journaled yet")
		return nil
	}

	fmt.Printf("%-26s %-9s %-17s %-8s %9s %7s %8s\n", "Run", "Kind", "Created", "Symbol", "Policies", "Trades", "Skipped")
	for _, r := range runs {
		fmt.Printf("%-26s %-9s %-17s %-8s %9d %7d %8d\n",
			r.RunID, r.Kind, r.Created.Local().Format("2006-01-02 15:04"), r.Instrument,
			r.Policies, r.Prepared, r.Skipped.Total())
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	j, run, top, err := loadRun(runsDBPath, args[0], runsRankBy, runsTop)
	if err != nil {
		return err
	}
	defer j.Close()

	printRun(run)
	fmt.Println()
	printRanking(top)
	return nil
}

func runRunsOrg(cmd *cobra.Command, args []string) error {
	j, run, top, err := loadRun(runsDBPath, args[0], runsRankBy, runsTop)
	if err != nil {
		return err
	}
	defer j.Close()

	org, err := journal.FormatRunOrg(run, top)
	if err != nil {
		return err
	}
	fmt.Print(org)
	return nil
}

func runRunsOutcomes(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListOutcomes(args[0], args[1])
	if err != nil {
		return fmt.Errorf("query outcomes: %w", err)
	}
	if len(recs) == 0 {
		fmt.Printf("No outcomes journaled for %s in run %s (sweep with --outcomes to record them)\n", args[1], args[0])
		return nil
	}

	fmt.Printf("%-8s %-6s %-19s %4s %8s %-14s %3s %9s %10s\n",
		"Symbol", "Side", "Opened", "Qty", "Entry", "Reason", "Tgt", "Points", "P&L")
	for _, r := range recs {
		entry := fmt.Sprintf("%d", r.Entry)
		if r.Corrected {
			entry += "*"
		}
		fmt.Printf("%-8s %-6s %-19s %4d %8s %-14s %3d %9.2f %10s\n",
			r.Symbol, r.Side, r.Opened.Local().Format("2006-01-02 15:04:05"), r.Quantity, entry,
			r.Reason, r.TargetsHit, r.Points, r.PnL.StringFixed(2))
	}
	return nil
}
