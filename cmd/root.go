package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "parlay-resolver",
	Short: "Parlay market resolution orchestrator",
	Long: `Resolution orchestrator for parlay betting markets. Fetches market
outcomes from the source data API, requests attestation of the derived
outcomes, polls the attestation rounds to finality, and submits the
proven outcomes to the on-chain oracle.

Run continuously with "run", or resolve a batch once with "resolve".`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
