package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFetchMarketSuccess(t *testing.T) {
	t.Parallel()

	body := `{"conditionId":"0xaa","question":"Will it rain?","closed":true,` +
		`"tokens":[{"outcome":"Yes","price":0.97,"winner":true},{"outcome":"No","price":0.03,"winner":false}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/markets/")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zaptest.NewLogger(t))

	payload, err := client.FetchMarket(context.Background(), common.HexToHash("0xaa"))
	require.NoError(t, err)

	assert.True(t, payload.Closed)
	assert.Equal(t, "Will it rain?", payload.Question)
	require.Len(t, payload.Tokens, 2)
	assert.Equal(t, "Yes", payload.Tokens[0].Outcome)
	require.NotNil(t, payload.Tokens[0].Winner)
	assert.True(t, *payload.Tokens[0].Winner)
	assert.Equal(t, []byte(body), payload.Raw)
}

func TestFetchMarketNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zaptest.NewLogger(t))

	_, err := client.FetchMarket(context.Background(), common.HexToHash("0xbb"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestFetchMarketSourceError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zaptest.NewLogger(t))

	_, err := client.FetchMarket(context.Background(), common.HexToHash("0xcc"))
	require.Error(t, err)

	var srcErr *types.SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, http.StatusInternalServerError, srcErr.Status)
	assert.Contains(t, srcErr.Body, "upstream exploded")
}

func TestFetchMarketMalformedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"closed":`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zaptest.NewLogger(t))

	_, err := client.FetchMarket(context.Background(), common.HexToHash("0xdd"))
	assert.Error(t, err)
}

func TestFetchMarketConnectionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second, zaptest.NewLogger(t))

	_, err := client.FetchMarket(context.Background(), common.HexToHash("0xee"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, types.ErrNotFound))
}
