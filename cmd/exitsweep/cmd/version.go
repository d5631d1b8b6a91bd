package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the exitsweep CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("exitsweep version %s\n", version)
		fmt.Println("Exit policy simulation and parameter sweeps over minute candles")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
