package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/polyflare/parlay-resolver/internal/oracle"
	"github.com/polyflare/parlay-resolver/pkg/config"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var statusCmd = &cobra.Command{
	Use:   "status [conditionIds...]",
	Short: "Show resolution status",
	Long: `Without arguments, fetches the latest run report from a running
resolution service and prints a per-condition summary.

With condition IDs, reads the on-chain oracle directly and prints the
stored outcome for each one.

Example:
  parlay-resolver status --addr http://localhost:8080
  parlay-resolver status 0x1234... 0xabcd...`,
	RunE: runStatus,
}

//nolint:gochecknoglobals // Cobra boilerplate
var statusAddr string

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusAddr, "addr",
		"http://localhost:8080", "Address of the running service")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return statusOnChain(cmd, args)
	}
	return statusFromService(cmd)
}

// statusOnChain reads getOutcome for each condition ID from the oracle
// contract. No signing key is needed.
func statusOnChain(cmd *cobra.Command, args []string) error {
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

	conditionIDs, err := parseConditionIDs(args)
	if err != nil {
		return err
	}

	network, err := cfg.OracleNetwork()
	if err != nil {
		return err
	}

	client, err := oracle.NewClient(ctx, &oracle.ClientConfig{
		RPCURL:        cfg.RPCURL,
		OracleAddress: network.OracleAddress,
		ChainID:       network.ChainID,
		GasLimit:      cfg.SubmitGasLimit,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("create oracle client: %w", err)
	}
	defer client.Close()

	fmt.Printf("=== On-Chain Outcomes (%s) ===\n\n", cfg.Network)
	for _, conditionID := range conditionIDs {
		outcome, resolved, err := client.GetOutcome(ctx, conditionID)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", conditionID.Hex(), err)
			continue
		}
		if !resolved {
			fmt.Printf("⚠️  %s: unresolved\n", conditionID.Hex())
			continue
		}
		fmt.Printf("✓  %s: %s\n", conditionID.Hex(), outcome)
	}

	return nil
}

func statusFromService(cmd *cobra.Command) error {
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, statusAddr+"/api/report", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		fmt.Printf("No resolution run has completed yet.\n")
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch report: status %d", resp.StatusCode)
	}

	var report types.Report
	err = json.NewDecoder(resp.Body).Decode(&report)
	if err != nil {
		return fmt.Errorf("decode report: %w", err)
	}

	fmt.Printf("=== Resolution Run %s ===\n\n", report.RunID[:8])
	fmt.Printf("Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Finished: %s\n\n", report.FinishedAt.Format("2006-01-02 15:04:05"))

	for i := range report.Entries {
		entry := &report.Entries[i]
		marker := "✓"
		if entry.State == types.StateFailed {
			marker = "❌"
		} else if entry.State == types.StatePendingRetry {
			marker = "⚠️"
		}
		fmt.Printf("%s  %s  %-16s %-8s", marker, entry.ConditionID.Hex(), entry.State, entry.Stage)
		if entry.TxHash != "" {
			fmt.Printf("  tx=%s", entry.TxHash)
		}
		fmt.Println()
	}

	fmt.Printf("\nResolved: %d   Pending retry: %d   Failed: %d\n",
		report.Resolved, report.PendingRetry, report.Failed)

	return nil
}
