package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// SaveReport stores a run report. Entries go into a JSONB column so the
// per-condition detail survives schema-free.
func (p *PostgresStorage) SaveReport(ctx context.Context, report *types.Report) error {
	entries, err := json.Marshal(report.Entries)
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}

	query := `
		INSERT INTO resolution_reports (
			run_id, started_at, finished_at,
			resolved, pending_retry, failed, entries
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err = p.db.ExecContext(ctx, query,
		report.RunID,
		report.StartedAt,
		report.FinishedAt,
		report.Resolved,
		report.PendingRetry,
		report.Failed,
		entries,
	)

	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	p.logger.Debug("report-stored",
		zap.String("run-id", report.RunID),
		zap.Int("entries", len(report.Entries)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
