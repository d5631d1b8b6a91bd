package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chartCmd = &cobra.Command{
	Use:   "chart <run-id>",
	Short: "Render a journaled run as an HTML ranking chart",
	Long: `Render the best policies of a journaled run as an HTML page with the
total P&L, the hit rate and the exit mix of each policy.

Example:
  exitsweep chart <run-id> --top 25 -o ranking.html`,
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

var (
	chartDBPath string
	chartTop    int
	chartRankBy string
	chartOutput string
)

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().StringVarP(&chartDBPath, "db", "d", "./exitsweep.sqlite", "path to SQLite journal DB")
	chartCmd.Flags().IntVar(&chartTop, "top", 20, "policies to draw")
	chartCmd.Flags().StringVar(&chartRankBy, "rank-by", "", "ranking: hit-rate or total-pnl (default: the run's own)")
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "ranking.html", "output HTML file")
}

func runChart(cmd *cobra.Command, args []string) error {
	j, run, top, err := loadRun(chartDBPath, args[0], chartRankBy, chartTop)
	if err != nil {
		return err
	}
	defer j.Close()

	by, _ := runRanking(run, chartRankBy)
	title := fmt.Sprintf("%s %s ranking (%s)", run.Instrument, by, shortRunID(run.RunID))
	if err := writeChart(chartOutput, title, top); err != nil {
		return err
	}

	fmt.Printf("Chart written to %s\n", chartOutput)
	return nil
}

func shortRunID(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}
