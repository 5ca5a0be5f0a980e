package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyflare/parlay-resolver/internal/storage"
	"github.com/polyflare/parlay-resolver/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Well-known throwaway key; never funded on any network.
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:             "debug",
		HTTPPort:             "8080",
		SourceAPIURL:         "http://localhost:9090",
		FetchTimeout:         5 * time.Second,
		FetchConcurrency:     2,
		PriceWinnerThreshold: 0.95,
		AttestorURL:          "http://localhost:9091",
		PollInterval:         time.Second,
		PollTimeout:          time.Minute,
		Network:              "coston2",
		Networks: map[string]config.NetworkConfig{
			"coston2": {ChainID: 114, OracleAddress: "0x0000000000000000000000000000000000000001"},
		},
		RPCURL:          "http://localhost:8545",
		SubmitGasLimit:  500000,
		StrictProofs:    true,
		ResolveInterval: time.Minute,
		ConditionIDs:    []string{"0x00000000000000000000000000000000000000000000000000000000000000aa"},
		StorageMode:     "console",
	}
}

func TestBuildRunnerWiresPipeline(t *testing.T) {
	t.Setenv("RESOLVER_PRIVATE_KEY", testPrivateKey)

	runner, oracleClient, err := BuildRunner(context.Background(), testConfig(), zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	defer oracleClient.Close()

	assert.NotNil(t, runner)
	assert.Equal(t,
		common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		oracleClient.Sender())
}

func TestBuildRunnerRequiresSigningKey(t *testing.T) {
	t.Setenv("RESOLVER_PRIVATE_KEY", "")

	_, _, err := BuildRunner(context.Background(), testConfig(), zaptest.NewLogger(t), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESOLVER_PRIVATE_KEY")
}

func TestBuildRunnerRejectsUnknownNetwork(t *testing.T) {
	t.Setenv("RESOLVER_PRIVATE_KEY", testPrivateKey)

	cfg := testConfig()
	cfg.Network = "mainnet"

	_, _, err := BuildRunner(context.Background(), cfg, zaptest.NewLogger(t), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown network")
}

func TestNewRejectsInvalidWatchlist(t *testing.T) {
	t.Setenv("RESOLVER_PRIVATE_KEY", testPrivateKey)

	cfg := testConfig()
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name      string
		watchlist []string
	}{
		{name: "empty", watchlist: nil},
		{name: "too short", watchlist: []string{"0x1234"}},
		{name: "not hex", watchlist: []string{"0x" + strings.Repeat("zz", 32)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.ConditionIDs = tt.watchlist

			_, err := New(cfg, logger, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "watchlist")
		})
	}
}

func TestParseWatchlist(t *testing.T) {
	t.Parallel()

	ids, err := parseWatchlist([]string{
		"0x0000000000000000000000000000000000000000000000000000000000000001",
		"0000000000000000000000000000000000000000000000000000000000000002",
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, common.HexToHash("0x01"), ids[0])
	assert.Equal(t, common.HexToHash("0x02"), ids[1])

	_, err = parseWatchlist(nil)
	assert.Error(t, err)

	_, err = parseWatchlist([]string{"0xdeadbeef"})
	assert.Error(t, err)
}

func TestSetupStorageDefaultsToConsole(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.StorageMode = "console"

	s, err := setupStorage(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &storage.ConsoleStorage{}, s)
}
