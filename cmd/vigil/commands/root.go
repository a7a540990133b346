package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Vigil - candidate monitoring and risk-managed order execution",
	Long: `Vigil trading assistant

Pulls candidates from the discovery service, normalizes and classifies
them into actionability tiers, sizes positions under a capital limit,
and submits bracket orders with idempotent execution.

Usage:
  go run ./cmd/vigil [command]

Examples:
  go run ./cmd/vigil watch
  go run ./cmd/vigil scan
  go run ./cmd/vigil trade VIGL
  go run ./cmd/vigil status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
