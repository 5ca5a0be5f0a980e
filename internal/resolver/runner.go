package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/polyflare/parlay-resolver/internal/attestor"
	"github.com/polyflare/parlay-resolver/internal/source"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

// BatchFetcher builds outcome records from the source API.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, conditionIDs []common.Hash) []source.FetchResult
}

// RequestSubmitter submits record batches to the attestation service.
type RequestSubmitter interface {
	Submit(ctx context.Context, records []*types.OutcomeRecord) (*types.AttestationRequest, []attestor.Rejection, error)
}

// FinalizationWaiter drives a pending request to a terminal state.
type FinalizationWaiter interface {
	AwaitFinalization(ctx context.Context, request *types.AttestationRequest, timeout time.Duration) (*types.AttestationRequest, error)
}

// OutcomeSubmitter retrieves proofs and writes outcomes on-chain for a
// finalized attestation request.
type OutcomeSubmitter interface {
	SubmitBatch(ctx context.Context, request *types.AttestationRequest, records []*types.OutcomeRecord) ([]types.SubmissionResult, error)
}

// Runner executes one end-to-end resolution pass: fetch, attest, poll,
// submit. Every condition ID in the batch ends the run with exactly one
// report entry; conditions fail independently and a run never
// short-circuits on one bad market.
type Runner struct {
	fetcher     BatchFetcher
	manager     RequestSubmitter
	poller      FinalizationWaiter
	coordinator OutcomeSubmitter
	pollTimeout time.Duration
	logger      *zap.Logger
}

// RunnerConfig holds runner configuration.
type RunnerConfig struct {
	Fetcher     BatchFetcher
	Manager     RequestSubmitter
	Poller      FinalizationWaiter
	Coordinator OutcomeSubmitter
	PollTimeout time.Duration
	Logger      *zap.Logger
}

// NewRunner creates a new resolution runner.
func NewRunner(cfg *RunnerConfig) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("fetcher cannot be nil")
	}
	if cfg.Manager == nil {
		return nil, errors.New("manager cannot be nil")
	}
	if cfg.Poller == nil {
		return nil, errors.New("poller cannot be nil")
	}
	if cfg.Coordinator == nil {
		return nil, errors.New("coordinator cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.PollTimeout <= 0 {
		return nil, errors.New("poll timeout must be positive")
	}

	return &Runner{
		fetcher:     cfg.Fetcher,
		manager:     cfg.Manager,
		poller:      cfg.Poller,
		coordinator: cfg.Coordinator,
		pollTimeout: cfg.PollTimeout,
		logger:      cfg.Logger,
	}, nil
}

// ResolveBatch runs the full pipeline for a batch of condition IDs and
// returns the per-condition accounting.
func (r *Runner) ResolveBatch(ctx context.Context, conditionIDs []common.Hash) *types.Report {
	report := types.NewReport(uuid.NewString())
	start := time.Now()

	r.logger.Info("resolution-run-starting",
		zap.String("run-id", report.RunID),
		zap.Int("conditions", len(conditionIDs)))

	records := r.fetchStage(ctx, conditionIDs, report)
	if len(records) > 0 {
		r.resolveRecords(ctx, records, report)
	}

	report.Finish()
	observeRun(report, time.Since(start))

	r.logger.Info("resolution-run-finished",
		zap.String("run-id", report.RunID),
		zap.Int("resolved", report.Resolved),
		zap.Int("pending-retry", report.PendingRetry),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", time.Since(start)))

	return report
}

// fetchStage maps fetch results to report entries and returns the
// records that can proceed to attestation.
func (r *Runner) fetchStage(ctx context.Context, conditionIDs []common.Hash, report *types.Report) []*types.OutcomeRecord {
	results := r.fetcher.FetchBatch(ctx, conditionIDs)

	records := make([]*types.OutcomeRecord, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			report.Add(types.ReportEntry{
				ConditionID: result.ConditionID,
				Stage:       types.StageFetch,
				State:       fetchFailureState(result.Err),
				Reason:      result.Err.Error(),
			})
			continue
		}
		records = append(records, result.Record)
	}

	return records
}

// fetchFailureState distinguishes a market the source will never serve
// from a source that is temporarily unhealthy.
func fetchFailureState(err error) types.ConditionState {
	if errors.Is(err, types.ErrNotFound) {
		return types.StateFailed
	}
	return types.StatePendingRetry
}

func (r *Runner) resolveRecords(ctx context.Context, records []*types.OutcomeRecord, report *types.Report) {
	request, rejections, err := r.manager.Submit(ctx, records)

	rejected := make(map[common.Hash]bool, len(rejections))
	for _, rejection := range rejections {
		rejected[rejection.ConditionID] = true
		report.Add(types.ReportEntry{
			ConditionID: rejection.ConditionID,
			Stage:       types.StageAttest,
			State:       types.StateFailed,
			Reason:      rejection.Err.Error(),
		})
	}

	eligible := make([]*types.OutcomeRecord, 0, len(records))
	for _, record := range records {
		if !rejected[record.ConditionID] {
			eligible = append(eligible, record)
		}
	}

	if err != nil {
		// Service failure is recoverable for everything it covered.
		for _, record := range eligible {
			report.Add(types.ReportEntry{
				ConditionID: record.ConditionID,
				Stage:       types.StageAttest,
				State:       types.StatePendingRetry,
				Reason:      err.Error(),
			})
		}
		return
	}

	request, err = r.poller.AwaitFinalization(ctx, request, r.pollTimeout)
	if err != nil {
		// Timeout or cancellation: the request identity survives so a
		// later run can pick the attestation back up.
		for _, record := range eligible {
			report.Add(types.ReportEntry{
				ConditionID: record.ConditionID,
				Stage:       types.StagePoll,
				State:       types.StatePendingRetry,
				Reason:      err.Error(),
				RequestID:   request.RequestID,
			})
		}
		return
	}

	if request.Status == types.StatusFailed {
		for _, record := range eligible {
			report.Add(types.ReportEntry{
				ConditionID: record.ConditionID,
				Stage:       types.StagePoll,
				State:       types.StateFailed,
				Reason:      "attestation round failed",
				RequestID:   request.RequestID,
			})
		}
		return
	}

	results, err := r.coordinator.SubmitBatch(ctx, request, eligible)
	if err != nil {
		for _, record := range eligible {
			report.Add(types.ReportEntry{
				ConditionID: record.ConditionID,
				Stage:       types.StageSubmit,
				State:       types.StatePendingRetry,
				Reason:      err.Error(),
				RequestID:   request.RequestID,
			})
		}
		return
	}
	for _, result := range results {
		report.Add(submissionEntry(&result, request.RequestID))
	}
}

func submissionEntry(result *types.SubmissionResult, requestID string) types.ReportEntry {
	entry := types.ReportEntry{
		ConditionID: result.ConditionID,
		Stage:       types.StageSubmit,
		Reason:      result.Reason,
		TxHash:      result.TxHash,
		RequestID:   requestID,
	}

	switch {
	case result.Success && result.ErrorKind == types.ErrorKindAlreadyResolved:
		entry.State = types.StateAlreadyResolved
	case result.Success:
		entry.State = types.StateResolved
	case result.ErrorKind == types.ErrorKindInvalidProof:
		entry.State = types.StateFailed
	default:
		// Proof unavailability and network failures are retryable.
		entry.State = types.StatePendingRetry
	}

	return entry
}

func observeRun(report *types.Report, elapsed time.Duration) {
	RunsTotal.Inc()
	RunDurationSeconds.Observe(elapsed.Seconds())
	ConditionsResolvedTotal.Add(float64(report.Resolved))
	ConditionsPendingRetryTotal.Add(float64(report.PendingRetry))
	ConditionsFailedTotal.Add(float64(report.Failed))
}
