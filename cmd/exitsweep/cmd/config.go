package cmd

import (
	"fmt"

	"github.com/rustyeddy/exitsweep/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage sweep configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  exitsweep config init -o sweep.yaml
  exitsweep config validate -f sweep.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  exitsweep config init -o sweep.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  exitsweep config validate -f sweep.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "sweep.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the data paths and run with:")
	fmt.Printf("  exitsweep sweep -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	pv, _ := cfg.PointValue()

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Instrument: %s (point value %s)\n", cfg.Instrument.Symbol, pv.String())
	fmt.Printf("  Candles: %s (%s)\n", cfg.Data.CandlesFile, cfg.Data.CandlesFormat)
	fmt.Printf("  Trades: %s\n", cfg.Data.TradesFile)
	fmt.Printf("  Simulation: tie-break %s, window %s, entry tolerance %d\n",
		cfg.Simulation.TieBreak, cfg.Simulation.Window, cfg.Simulation.EntryTolerance)
	fmt.Printf("  Grid: %d policies\n", cfg.Grid.Count())
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
	return nil
}
