package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/exitsweep/config"
	"github.com/rustyeddy/exitsweep/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "exitsweep",
	Short: "Replay historical trades under alternative exit rules",
	Long: `Exitsweep replays the entries of a broker trade report against one-minute
candles and measures how different exit policies would have performed.

It provides tools for:
  - Simulating a single stop / multi-target / trailing policy
  - Sweeping a grid of policies in parallel and ranking them
  - Journaling sweep runs to SQLite or CSV
  - Exporting runs as Org-mode notes and HTML charts`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is the common case.
		_ = godotenv.Load()
	},
}

var (
	logLevel  string
	logFormat string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config and EXITSWEEP_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json (overrides config)")
}

// newLogger picks the level from --log-level, then EXITSWEEP_LOG_LEVEL,
// then the config file.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, format := "info", "console"
	if cfg != nil {
		if cfg.Log.Level != "" {
			level = cfg.Log.Level
		}
		if cfg.Log.Format != "" {
			format = cfg.Log.Format
		}
	}
	if v := os.Getenv("EXITSWEEP_LOG_LEVEL"); v != "" {
		level = v
	}
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return logging.New(level, format)
}
