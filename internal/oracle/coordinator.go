package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyflare/parlay-resolver/internal/attestor"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

// ProofSource serves proof bundles for finalized attestations.
type ProofSource interface {
	FetchProof(ctx context.Context, conditionID common.Hash) (*types.ProofBundle, error)
}

// Submitter writes outcomes to the oracle contract and reads them back.
type Submitter interface {
	SubmitOutcome(ctx context.Context, bundle *types.ProofBundle) (string, error)
	GetOutcome(ctx context.Context, conditionID common.Hash) (types.Outcome, bool, error)
}

// Coordinator drives proof retrieval and on-chain submission for a
// batch of finalized outcome records. Each record is handled
// independently: one bad proof never blocks the rest of the batch.
type Coordinator struct {
	proofs    ProofSource
	submitter Submitter
	strict    bool
	logger    *zap.Logger
}

// CoordinatorConfig holds coordinator configuration.
type CoordinatorConfig struct {
	Proofs    ProofSource
	Submitter Submitter
	// Strict refuses to submit without a real merkle proof. Disabling it
	// substitutes an empty proof for records whose proof cannot be
	// served; only a dev-mode oracle accepts those.
	Strict bool
	Logger *zap.Logger
}

// NewCoordinator creates a new proof submission coordinator.
func NewCoordinator(cfg *CoordinatorConfig) (*Coordinator, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Proofs == nil {
		return nil, errors.New("proof source cannot be nil")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("submitter cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if !cfg.Strict {
		cfg.Logger.Warn("permissive-proof-mode-enabled",
			zap.String("detail", "records without a proof will be submitted with an empty merkle proof; never run this against a production oracle"))
	}

	return &Coordinator{
		proofs:    cfg.Proofs,
		submitter: cfg.Submitter,
		strict:    cfg.Strict,
		logger:    cfg.Logger,
	}, nil
}

// SubmitBatch retrieves a proof and submits the outcome for every
// record, returning one result per record in input order. The request
// must be finalized: proofs only exist after the attestation round
// completes, so a non-finalized request is rejected outright.
func (c *Coordinator) SubmitBatch(ctx context.Context, request *types.AttestationRequest, records []*types.OutcomeRecord) ([]types.SubmissionResult, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	if request.Status != types.StatusFinalized {
		return nil, fmt.Errorf("%w: request %q is %s",
			types.ErrRequestNotFinalized, request.RequestID, request.Status)
	}

	results := make([]types.SubmissionResult, 0, len(records))
	seen := make(map[common.Hash]bool, len(records))

	for _, record := range records {
		if seen[record.ConditionID] {
			// Duplicate condition IDs in one batch submit once.
			continue
		}
		seen[record.ConditionID] = true

		result := c.submitOne(ctx, record)
		results = append(results, result)

		SubmissionsTotal.WithLabelValues(submissionLabel(&result)).Inc()
	}

	return results, nil
}

func (c *Coordinator) submitOne(ctx context.Context, record *types.OutcomeRecord) types.SubmissionResult {
	conditionID := record.ConditionID

	// Idempotency check: the oracle may already hold this outcome from a
	// previous run or another operator.
	_, resolved, err := c.submitter.GetOutcome(ctx, conditionID)
	if err != nil {
		return types.SubmissionResult{
			ConditionID: conditionID,
			ErrorKind:   types.ErrorKindNetworkError,
			Reason:      "read oracle state: " + err.Error(),
		}
	}
	if resolved {
		AlreadyResolvedTotal.Inc()
		c.logger.Info("outcome-already-on-chain",
			zap.String("condition-id", conditionID.Hex()))
		return types.SubmissionResult{
			ConditionID: conditionID,
			Success:     true,
			ErrorKind:   types.ErrorKindAlreadyResolved,
			Reason:      "oracle already holds this outcome",
		}
	}

	bundle, err := c.proofs.FetchProof(ctx, conditionID)
	if err != nil {
		bundle = c.proofFallback(record, err)
		if bundle == nil {
			return types.SubmissionResult{
				ConditionID: conditionID,
				ErrorKind:   types.ErrorKindProofUnavailable,
				Reason:      err.Error(),
			}
		}
	}

	err = verifyBundle(record, bundle)
	if err != nil {
		c.logger.Error("proof-bundle-rejected",
			zap.String("condition-id", conditionID.Hex()),
			zap.Error(err))
		return types.SubmissionResult{
			ConditionID: conditionID,
			ErrorKind:   types.ErrorKindInvalidProof,
			Reason:      err.Error(),
		}
	}

	start := time.Now()
	txHash, err := c.submitter.SubmitOutcome(ctx, bundle)
	SubmissionDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		kind := classifySubmissionError(err)
		c.logger.Warn("submission-failed",
			zap.String("condition-id", conditionID.Hex()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		if kind == types.ErrorKindAlreadyResolved {
			AlreadyResolvedTotal.Inc()
			return types.SubmissionResult{
				ConditionID: conditionID,
				Success:     true,
				ErrorKind:   kind,
				Reason:      err.Error(),
			}
		}
		return types.SubmissionResult{
			ConditionID: conditionID,
			ErrorKind:   kind,
			Reason:      err.Error(),
		}
	}

	c.logger.Info("outcome-submitted",
		zap.String("condition-id", conditionID.Hex()),
		zap.String("outcome", bundle.Outcome.String()),
		zap.String("tx-hash", txHash))

	return types.SubmissionResult{
		ConditionID: conditionID,
		Success:     true,
		TxHash:      txHash,
	}
}

// proofFallback re-encodes the record with an empty merkle proof when
// the coordinator runs permissive. Strict mode returns nil: no proof, no
// submission.
func (c *Coordinator) proofFallback(record *types.OutcomeRecord, cause error) *types.ProofBundle {
	if c.strict {
		return nil
	}

	data, err := attestor.EncodeRecord(record)
	if err != nil {
		c.logger.Error("proof-fallback-encode-failed",
			zap.String("condition-id", record.ConditionID.Hex()),
			zap.Error(err))
		return nil
	}

	ProofFallbacksTotal.Inc()
	c.logger.Warn("submitting-without-proof",
		zap.String("condition-id", record.ConditionID.Hex()),
		zap.NamedError("cause", cause))

	return &types.ProofBundle{
		ConditionID:     record.ConditionID,
		AttestationData: data,
		MerkleProof:     []common.Hash{},
		Outcome:         record.Outcome,
	}
}

// verifyBundle checks that the bundle's attestation data decodes to the
// record we meant to submit.
func verifyBundle(record *types.OutcomeRecord, bundle *types.ProofBundle) error {
	decoded, err := attestor.DecodeRecord(bundle.AttestationData)
	if err != nil {
		return err
	}
	if decoded.ConditionID != bundle.ConditionID {
		return types.ErrConditionMismatch
	}
	if decoded.ConditionID != record.ConditionID {
		return types.ErrConditionMismatch
	}
	return nil
}

// classifySubmissionError maps a submission error to a result kind by
// revert reason text. Anything unrecognized is assumed transient.
func classifySubmissionError(err error) types.ErrorKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already resolved"):
		return types.ErrorKindAlreadyResolved
	case strings.Contains(msg, "invalid proof"),
		strings.Contains(msg, "reverted"):
		return types.ErrorKindInvalidProof
	default:
		return types.ErrorKindNetworkError
	}
}

func submissionLabel(result *types.SubmissionResult) string {
	switch {
	case result.Success && result.ErrorKind == types.ErrorKindAlreadyResolved:
		return "already_resolved"
	case result.Success:
		return "submitted"
	default:
		return strings.ToLower(string(result.ErrorKind))
	}
}
