package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestFetcher(t *testing.T, serverURL string, concurrency int) *Fetcher {
	t.Helper()

	fetcher, err := New(&Config{
		Client:               NewClient(serverURL, 5*time.Second, zaptest.NewLogger(t)),
		Concurrency:          concurrency,
		PriceWinnerThreshold: 0.95,
		Logger:               zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	return fetcher
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)
	client := NewClient("http://localhost", time.Second, logger)

	tests := []struct {
		name   string
		config *Config
		errMsg string
	}{
		{name: "nil-config", config: nil, errMsg: "config cannot be nil"},
		{
			name:   "nil-client",
			config: &Config{Concurrency: 1, PriceWinnerThreshold: 0.95, Logger: logger},
			errMsg: "client cannot be nil",
		},
		{
			name:   "nil-logger",
			config: &Config{Client: client, Concurrency: 1, PriceWinnerThreshold: 0.95},
			errMsg: "logger cannot be nil",
		},
		{
			name:   "zero-concurrency",
			config: &Config{Client: client, PriceWinnerThreshold: 0.95, Logger: logger},
			errMsg: "concurrency must be positive",
		},
		{
			name:   "zero-threshold",
			config: &Config{Client: client, Concurrency: 1, Logger: logger},
			errMsg: "price winner threshold must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFetchBuildsRecord(t *testing.T) {
	t.Parallel()

	body := `{"question":"Will it rain?","closed":true,"endDateIso":"2026-01-02T15:04:05Z",` +
		`"tokens":[{"outcome":"Yes","price":0.97,"winner":true},{"outcome":"No","price":0.03,"winner":false}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL, 4)

	conditionID := common.HexToHash("0xaaa1")
	record, err := fetcher.Fetch(context.Background(), conditionID)
	require.NoError(t, err)

	assert.Equal(t, conditionID, record.ConditionID)
	assert.True(t, record.Closed)
	assert.Equal(t, types.OutcomeYes, record.Outcome)
	assert.Equal(t, "Will it rain?", record.Question)

	endDate, _ := time.Parse(time.RFC3339, "2026-01-02T15:04:05Z")
	assert.Equal(t, endDate.Unix(), record.ResolvedAt)

	wantHash, err := CanonicalHash([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, wantHash, record.SourceDataHash)

	require.NoError(t, record.Validate())

	outcome, ok := record.EffectiveOutcome()
	assert.True(t, ok)
	assert.Equal(t, types.OutcomeYes, outcome)
}

func TestFetchHashStableAcrossRefetch(t *testing.T) {
	t.Parallel()

	body := `{"question":"q","closed":true,"endDateIso":"2026-01-02T15:04:05Z","tokens":[{"outcome":"No","price":0.99}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL, 1)

	first, err := fetcher.Fetch(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)

	second, err := fetcher.Fetch(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)

	assert.Equal(t, first.SourceDataHash, second.SourceDataHash)
	assert.Equal(t, first.Outcome, second.Outcome)
}

// One failing fetch must not affect its batch siblings.
func TestFetchBatchIndependence(t *testing.T) {
	t.Parallel()

	good := common.HexToHash("0xaaa")
	missing := common.HexToHash("0xbbb")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, good.Hex()) {
			_, _ = w.Write([]byte(`{"question":"q","closed":true,"endDateIso":"2026-01-02T15:04:05Z",` +
				`"tokens":[{"outcome":"Yes","price":0.97,"winner":true},{"outcome":"No","price":0.03,"winner":false}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL, 4)

	results := fetcher.FetchBatch(context.Background(), []common.Hash{good, missing})
	require.Len(t, results, 2)

	assert.Equal(t, good, results[0].ConditionID)
	require.NoError(t, results[0].Err)
	assert.Equal(t, types.OutcomeYes, results[0].Record.Outcome)

	assert.Equal(t, missing, results[1].ConditionID)
	require.Error(t, results[1].Err)
	assert.True(t, errors.Is(results[1].Err, types.ErrNotFound))
	assert.Nil(t, results[1].Record)
}

func TestFetchBatchBoundedConcurrency(t *testing.T) {
	t.Parallel()

	var inFlight, maxInFlight atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			observed := maxInFlight.Load()
			if current <= observed || maxInFlight.CompareAndSwap(observed, current) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`{"question":"q","closed":true,"endDateIso":"2026-01-02T15:04:05Z","tokens":[]}`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL, 2)

	ids := make([]common.Hash, 8)
	for i := range ids {
		ids[i] = common.BigToHash(common.Big1)
		ids[i][0] = byte(i + 1)
	}

	results := fetcher.FetchBatch(context.Background(), ids)
	require.Len(t, results, len(ids))
	for _, r := range results {
		assert.NoError(t, r.Err)
	}

	assert.LessOrEqual(t, maxInFlight.Load(), int64(2))
}

func TestFetchBatchCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"closed":true,"tokens":[]}`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := fetcher.FetchBatch(ctx, []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Error(t, r.Err)
	}
}
