package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "frontier",
	Short: "Mean-variance portfolio optimizer with historical VaR/CVaR",
	Long: `Frontier CLI

Finds the maximum-Sharpe long-only portfolio over a set of assets,
reports its historical VaR/CVaR and samples the efficient frontier.

Usage:
  go run ./cmd/frontier [command]

Examples:
  go run ./cmd/frontier optimize --symbols THYAO,GARAN,ASELS
  go run ./cmd/frontier optimize --profile config/profiles/bist_core.yaml --out output
  go run ./cmd/frontier risk --weights THYAO=0.5,GARAN=0.5
  go run ./cmd/frontier signals macd
  go run ./cmd/frontier api
  go run ./cmd/frontier scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "YAML portfolio profile (default PORTFOLIO_PROFILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
