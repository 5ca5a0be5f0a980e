package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

// ReportSink persists run reports.
type ReportSink interface {
	SaveReport(ctx context.Context, report *types.Report) error
}

// Service runs the resolution pipeline on a fixed cadence over a
// configured watchlist of condition IDs.
type Service struct {
	runner       *Runner
	sink         ReportSink
	interval     time.Duration
	conditionIDs []common.Hash
	logger       *zap.Logger

	mu         sync.RWMutex
	lastReport *types.Report

	ctx context.Context
	wg  sync.WaitGroup
}

// ServiceConfig holds service configuration.
type ServiceConfig struct {
	Runner       *Runner
	Sink         ReportSink
	Interval     time.Duration
	ConditionIDs []common.Hash
	Logger       *zap.Logger
}

// NewService creates a new resolution service.
func NewService(cfg *ServiceConfig) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if cfg.Sink == nil {
		return nil, errors.New("sink cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if len(cfg.ConditionIDs) == 0 {
		return nil, errors.New("watchlist cannot be empty")
	}

	return &Service{
		runner:       cfg.Runner,
		sink:         cfg.Sink,
		interval:     cfg.Interval,
		conditionIDs: cfg.ConditionIDs,
		logger:       cfg.Logger,
	}, nil
}

// Start runs an immediate pass and then resolves on the configured
// cadence until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.ctx = ctx
	s.logger.Info("resolver-service-starting",
		zap.Duration("interval", s.interval),
		zap.Int("watchlist", len(s.conditionIDs)))

	s.wg.Add(1)
	go s.resolveLoop()

	return nil
}

// Close waits for the resolution loop to drain.
func (s *Service) Close() error {
	s.wg.Wait()
	return nil
}

// LatestReport returns the most recent run report, or nil before the
// first run completes.
func (s *Service) LatestReport() *types.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

func (s *Service) resolveLoop() {
	defer s.wg.Done()

	s.runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("resolver-service-stopping")
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Service) runOnce() {
	report := s.runner.ResolveBatch(s.ctx, s.conditionIDs)

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	err := s.sink.SaveReport(s.ctx, report)
	if err != nil {
		s.logger.Error("report-save-failed",
			zap.String("run-id", report.RunID),
			zap.Error(err))
	}
}
