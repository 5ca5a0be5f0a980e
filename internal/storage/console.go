package storage

import (
	"context"
	"fmt"

	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// SaveReport pretty-prints a run report to console.
func (c *ConsoleStorage) SaveReport(ctx context.Context, report *types.Report) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("RESOLUTION RUN %s\n", report.RunID[:8])
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Finished: %s (%.1fs)\n",
		report.FinishedAt.Format("2006-01-02 15:04:05"),
		report.FinishedAt.Sub(report.StartedAt).Seconds())
	fmt.Printf("Resolved: %d   Pending retry: %d   Failed: %d\n",
		report.Resolved, report.PendingRetry, report.Failed)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	for i := range report.Entries {
		entry := &report.Entries[i]
		fmt.Printf("%s  %-16s %-8s", entry.ConditionID.Hex(), entry.State, entry.Stage)
		if entry.TxHash != "" {
			fmt.Printf("  tx=%s", entry.TxHash)
		}
		if entry.Reason != "" {
			fmt.Printf("  %s", entry.Reason)
		}
		fmt.Println()
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
