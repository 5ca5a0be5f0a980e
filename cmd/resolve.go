package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/polyflare/parlay-resolver/internal/app"
	"github.com/polyflare/parlay-resolver/internal/source"
	"github.com/polyflare/parlay-resolver/internal/storage"
	"github.com/polyflare/parlay-resolver/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var resolveCmd = &cobra.Command{
	Use:   "resolve [conditionIds...]",
	Short: "Resolve a batch of condition IDs once",
	Long: `Runs one resolution pass over the given condition IDs and prints the
per-condition report.

With --dry-run, only fetches the markets and prints the derived outcomes;
nothing is attested or submitted.

Example:
  # Preview derived outcomes
  parlay-resolver resolve --dry-run 0x1234...

  # Resolve two markets end to end
  parlay-resolver resolve 0x1234... 0xabcd...`,
	RunE: runResolve,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringSliceP("condition", "c", nil,
		"Condition ID to resolve (repeatable, falls back to CONDITION_IDS)")
	resolveCmd.Flags().Bool("dry-run", false,
		"Fetch and derive outcomes without attesting or submitting")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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
	conditions = append(conditions, args...)
	if len(conditions) == 0 {
		conditions = cfg.ConditionIDs
	}

	conditionIDs, err := parseConditionIDs(conditions)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		return previewOutcomes(cmd, cfg, logger, conditionIDs)
	}

	runner, oracleClient, err := app.BuildRunner(ctx, cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}
	defer oracleClient.Close()

	report := runner.ResolveBatch(ctx, conditionIDs)

	err = storage.NewConsoleStorage(logger).SaveReport(ctx, report)
	if err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d condition(s) failed", report.Failed)
	}

	return nil
}

func previewOutcomes(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, conditionIDs []common.Hash) error {
	fetcher, err := source.New(&source.Config{
		Client:               source.NewClient(cfg.SourceAPIURL, cfg.FetchTimeout, logger),
		Concurrency:          cfg.FetchConcurrency,
		PriceWinnerThreshold: cfg.PriceWinnerThreshold,
		Logger:               logger,
	})
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}

	results := fetcher.FetchBatch(cmd.Context(), conditionIDs)

	fmt.Printf("=== Derived Outcomes (dry run) ===\n\n")
	for _, result := range results {
		if result.Err != nil {
			fmt.Printf("❌ %s: %v\n", result.ConditionID.Hex(), result.Err)
			continue
		}

		record := result.Record
		outcome, resolved := record.EffectiveOutcome()
		status := "OPEN"
		if resolved {
			status = outcome.String()
		}
		fmt.Printf("✓  %s: %s  %q\n", record.ConditionID.Hex(), status, record.Question)
	}

	return nil
}

func parseConditionIDs(raw []string) ([]common.Hash, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no condition IDs; pass --condition or set CONDITION_IDS")
	}

	conditionIDs := make([]common.Hash, 0, len(raw))
	for _, id := range raw {
		if len(common.FromHex(id)) != common.HashLength {
			return nil, fmt.Errorf("invalid condition id %q", id)
		}
		conditionIDs = append(conditionIDs, common.HexToHash(id))
	}
	return conditionIDs, nil
}
