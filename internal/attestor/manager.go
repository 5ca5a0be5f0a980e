package attestor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

// Rejection is one record refused before submission, reported
// individually so the rest of the batch proceeds.
type Rejection struct {
	ConditionID common.Hash
	Err         error
}

// Manager submits batches of outcome records to the attestation service.
// Batching is an optimization: a batch of one is a valid submission.
type Manager struct {
	client *Client
	clock  Clock
	logger *zap.Logger
}

// ManagerConfig holds manager configuration.
type ManagerConfig struct {
	Client *Client
	Clock  Clock // optional, defaults to the real clock
	Logger *zap.Logger
}

// NewManager creates a new request manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = NewRealClock()
	}

	return &Manager{
		client: cfg.Client,
		clock:  clock,
		logger: cfg.Logger,
	}, nil
}

// Submit filters the records to closed markets, encodes the eligible
// ones, and sends a single batched request. Unclosed records come back
// as individual rejections; they are never submitted. A service failure
// returns a types.ErrServiceUnavailable wrap, which callers must treat
// as recoverable.
func (m *Manager) Submit(ctx context.Context, records []*types.OutcomeRecord) (*types.AttestationRequest, []Rejection, error) {
	var (
		requests     []EncodedRequest
		conditionIDs []common.Hash
		rejections   []Rejection
	)

	for _, record := range records {
		if !record.Closed {
			m.logger.Warn("record-rejected-not-closed",
				zap.String("condition-id", record.ConditionID.Hex()),
				zap.String("question", record.Question))
			rejections = append(rejections, Rejection{
				ConditionID: record.ConditionID,
				Err:         fmt.Errorf("record %s: %w", record.ConditionID.Hex(), types.ErrMarketNotClosed),
			})
			continue
		}

		payload, err := EncodeRecord(record)
		if err != nil {
			rejections = append(rejections, Rejection{
				ConditionID: record.ConditionID,
				Err:         fmt.Errorf("encode record: %w", err),
			})
			continue
		}

		requests = append(requests, EncodedRequest{
			ConditionID: record.ConditionID.Hex(),
			Payload:     hexutil.Encode(payload),
		})
		conditionIDs = append(conditionIDs, record.ConditionID)
	}

	if len(requests) == 0 {
		return nil, rejections, errors.New("no eligible records to submit")
	}

	start := time.Now()
	ack, err := m.client.RequestAttestation(ctx, requests)
	RequestDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		RequestErrorsTotal.Inc()
		return nil, rejections, fmt.Errorf("submit batch: %w", err)
	}

	RequestsSubmittedTotal.Inc()
	RecordsSubmittedTotal.Add(float64(len(requests)))

	request := &types.AttestationRequest{
		RequestID:    ack.RequestID,
		ConditionIDs: conditionIDs,
		Status:       types.StatusPending,
		SubmittedAt:  m.clock.Now(),
		VotingRound:  ack.VotingRound,
	}

	return request, rejections, nil
}
