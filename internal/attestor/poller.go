package attestor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

// Poller drives a PENDING attestation request to a terminal state.
//
// State machine:
//
//	PENDING --poll(not indexed)-->   PENDING
//	PENDING --poll(finalized)-->     FINALIZED (terminal)
//	PENDING --poll(failed)-->        FAILED    (terminal)
//	PENDING --timeout elapsed-->     ErrPollTimeout (caller retries later)
//
// The interval is fixed: the service finalizes in ~90s voting rounds, so
// a tight loop buys nothing and hammers the service. Connection errors
// during a poll are retried on the same cadence and do not reset the
// timeout clock.
type Poller struct {
	client   *Client
	interval time.Duration
	clock    Clock
	logger   *zap.Logger
}

// PollerConfig holds poller configuration.
type PollerConfig struct {
	Client   *Client
	Interval time.Duration
	Clock    Clock // optional, defaults to the real clock
	Logger   *zap.Logger
}

// NewPoller creates a new finalization poller.
func NewPoller(cfg *PollerConfig) (*Poller, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = NewRealClock()
	}

	return &Poller{
		client:   cfg.Client,
		interval: cfg.Interval,
		clock:    clock,
		logger:   cfg.Logger,
	}, nil
}

// AwaitFinalization polls until the request is terminal, the timeout
// elapses, or ctx is cancelled. The request is returned in its
// last-known state in every case so its identity survives for a retry.
// A request that is already terminal is returned unchanged: terminal
// states are sticky and further polls never alter them.
//
// Each call runs on its own timer; concurrent waits on independent
// requests do not affect each other.
func (p *Poller) AwaitFinalization(ctx context.Context, request *types.AttestationRequest, timeout time.Duration) (*types.AttestationRequest, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	if request.RequestID == "" {
		return nil, errors.New("request has no request id")
	}
	if request.Terminal() {
		return request, nil
	}
	if ctx.Err() != nil {
		return request, fmt.Errorf("request %s: %w", request.RequestID, types.ErrPollCancelled)
	}

	deadline := p.clock.Now().Add(timeout)
	start := p.clock.Now()

	for {
		p.poll(ctx, request)
		if request.Terminal() {
			PollDurationSeconds.Observe(p.clock.Now().Sub(start).Seconds())
			RequestsTerminalTotal.WithLabelValues(string(request.Status)).Inc()
			return request, nil
		}

		if !p.clock.Now().Before(deadline) {
			PollTimeoutsTotal.Inc()
			p.logger.Warn("finalization-timeout",
				zap.String("request-id", request.RequestID),
				zap.Duration("timeout", timeout),
				zap.Time("last-polled", request.LastPolledAt))
			return request, fmt.Errorf("request %s: %w", request.RequestID, types.ErrPollTimeout)
		}

		timer := p.clock.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return request, fmt.Errorf("request %s: %w", request.RequestID, types.ErrPollCancelled)
		case <-timer.C():
		}
	}
}

// poll performs one status fetch and applies the resulting transition.
func (p *Poller) poll(ctx context.Context, request *types.AttestationRequest) {
	PollAttemptsTotal.Inc()

	status, err := p.client.FetchStatus(ctx, request.RequestID)
	request.LastPolledAt = p.clock.Now()

	switch {
	case errors.Is(err, ErrNotIndexed):
		// Eventual consistency upstream: still pending, keep waiting.
		p.logger.Debug("request-not-yet-indexed",
			zap.String("request-id", request.RequestID))
	case err != nil:
		// Connection errors are retried within the timeout window.
		PollErrorsTotal.Inc()
		p.logger.Warn("poll-error",
			zap.String("request-id", request.RequestID),
			zap.Error(err))
	case status.Failed:
		request.MarkFailed()
		p.logger.Warn("attestation-failed",
			zap.String("request-id", request.RequestID))
	case status.Finalized:
		request.MarkFinalized()
		if status.VotingRound > 0 {
			request.VotingRound = status.VotingRound
		}
		p.logger.Info("attestation-finalized",
			zap.String("request-id", request.RequestID),
			zap.Uint64("voting-round", request.VotingRound))
	default:
		p.logger.Debug("still-pending",
			zap.String("request-id", request.RequestID))
	}
}
