package storage

import (
	"context"

	"github.com/polyflare/parlay-resolver/pkg/types"
)

// Storage is the interface for persisting resolution run reports.
type Storage interface {
	// SaveReport stores a completed run report.
	SaveReport(ctx context.Context, report *types.Report) error

	// Close closes the storage connection.
	Close() error
}
