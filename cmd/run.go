package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/polyflare/parlay-resolver/internal/app"
	"github.com/polyflare/parlay-resolver/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the resolution service",
	Long: `Starts the resolution service, which will:
1. Fetch outcomes for the watched condition IDs from the source API
2. Request attestation of the derived outcome records
3. Poll each attestation round to finality
4. Submit the proven outcomes to the on-chain oracle

The watchlist comes from CONDITION_IDS, or from repeated --condition flags.`,
	RunE: runService,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceP("condition", "c", nil,
		"Condition ID to watch (repeatable, overrides CONDITION_IDS)")
}

func runService(cmd *cobra.Command, args []string) error {
	err := godotenv.Load()
	if err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	conditions, _ := cmd.Flags().GetStringSlice("condition")

	opts := &app.Options{
		Watchlist: conditions,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
