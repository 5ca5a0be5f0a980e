package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyflare/parlay-resolver/pkg/cache"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

const payloadCacheTTL = 2 * time.Minute

// Fetcher builds OutcomeRecords from source API responses. Batch fetches
// run with bounded parallelism and never short-circuit on individual
// failures.
type Fetcher struct {
	client         *Client
	cache          cache.Cache
	concurrency    int
	priceThreshold float64
	logger         *zap.Logger
}

// Config holds fetcher configuration.
type Config struct {
	Client               *Client
	Cache                cache.Cache // optional payload cache
	Concurrency          int
	PriceWinnerThreshold float64
	Logger               *zap.Logger
}

// FetchResult is one element of a batch fetch; each element is
// independent and partial failure is expected.
type FetchResult struct {
	ConditionID common.Hash
	Record      *types.OutcomeRecord
	Err         error
}

// New creates a new fetcher.
func New(cfg *Config) (*Fetcher, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Concurrency <= 0 {
		return nil, errors.New("concurrency must be positive")
	}
	if cfg.PriceWinnerThreshold <= 0 {
		return nil, errors.New("price winner threshold must be positive")
	}

	return &Fetcher{
		client:         cfg.Client,
		cache:          cfg.Cache,
		concurrency:    cfg.Concurrency,
		priceThreshold: cfg.PriceWinnerThreshold,
		logger:         cfg.Logger,
	}, nil
}

// Fetch retrieves one market and maps it to a canonical OutcomeRecord.
// Purely functional beyond the network call: the same payload always
// produces the same record.
func (f *Fetcher) Fetch(ctx context.Context, conditionID common.Hash) (*types.OutcomeRecord, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(cacheKey(conditionID)); ok {
			if record, ok := cached.(*types.OutcomeRecord); ok {
				return record, nil
			}
		}
	}

	start := time.Now()
	payload, err := f.client.FetchMarket(ctx, conditionID)
	FetchDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		FetchErrorsTotal.WithLabelValues(classifyFetchError(err)).Inc()
		return nil, err
	}

	record, err := f.buildRecord(conditionID, payload)
	if err != nil {
		FetchErrorsTotal.WithLabelValues("malformed").Inc()
		return nil, err
	}

	RecordsFetchedTotal.Inc()

	if f.cache != nil {
		f.cache.Set(cacheKey(conditionID), record, payloadCacheTTL)
	}

	return record, nil
}

// FetchBatch fetches all condition IDs concurrently under the configured
// worker limit and collects per-ID results without short-circuiting.
func (f *Fetcher) FetchBatch(ctx context.Context, conditionIDs []common.Hash) []FetchResult {
	results := make([]FetchResult, len(conditionIDs))
	sem := make(chan struct{}, f.concurrency)

	var wg sync.WaitGroup
	for i, id := range conditionIDs {
		wg.Add(1)
		go func(i int, id common.Hash) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results[i] = FetchResult{ConditionID: id, Err: ctx.Err()}
				return
			}

			record, err := f.Fetch(ctx, id)
			results[i] = FetchResult{ConditionID: id, Record: record, Err: err}
		}(i, id)
	}
	wg.Wait()

	return results
}

func (f *Fetcher) buildRecord(conditionID common.Hash, payload *MarketPayload) (*types.OutcomeRecord, error) {
	sourceHash, err := CanonicalHash(payload.Raw)
	if err != nil {
		return nil, fmt.Errorf("hash payload: %w", err)
	}

	outcome, rule := DeriveOutcome(payload, f.priceThreshold)
	OutcomeRuleAppliedTotal.WithLabelValues(rule).Inc()

	f.logger.Debug("outcome-derived",
		zap.String("condition-id", conditionID.Hex()),
		zap.String("rule", rule),
		zap.String("outcome", outcome.String()),
		zap.Bool("closed", payload.Closed))

	return &types.OutcomeRecord{
		ConditionID:    conditionID,
		Closed:         payload.Closed,
		Outcome:        outcome,
		ResolvedAt:     resolvedAt(payload),
		Question:       payload.Question,
		SourceDataHash: sourceHash,
	}, nil
}

// resolvedAt prefers the market's end date; a missing or malformed date
// falls back to the fetch time.
func resolvedAt(payload *MarketPayload) int64 {
	if payload.EndDateISO != "" {
		if t, err := time.Parse(time.RFC3339, payload.EndDateISO); err == nil {
			return t.Unix()
		}
	}
	return time.Now().Unix()
}

func classifyFetchError(err error) string {
	var srcErr *types.SourceError
	switch {
	case errors.Is(err, types.ErrNotFound):
		return "not-found"
	case errors.As(err, &srcErr):
		return "source-error"
	default:
		return "network"
	}
}

func cacheKey(conditionID common.Hash) string {
	return "market:" + conditionID.Hex()
}
