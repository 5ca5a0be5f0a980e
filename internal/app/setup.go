package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyflare/parlay-resolver/internal/attestor"
	"github.com/polyflare/parlay-resolver/internal/oracle"
	"github.com/polyflare/parlay-resolver/internal/resolver"
	"github.com/polyflare/parlay-resolver/internal/source"
	"github.com/polyflare/parlay-resolver/internal/storage"
	"github.com/polyflare/parlay-resolver/pkg/cache"
	"github.com/polyflare/parlay-resolver/pkg/config"
	"github.com/polyflare/parlay-resolver/pkg/healthprobe"
	"github.com/polyflare/parlay-resolver/pkg/httpserver"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	watchlist := cfg.ConditionIDs
	if len(opts.Watchlist) > 0 {
		watchlist = opts.Watchlist
	}
	conditionIDs, err := parseWatchlist(watchlist)
	if err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker()

	payloadCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	runner, oracleClient, err := BuildRunner(ctx, cfg, logger, payloadCache)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build runner: %w", err)
	}

	reportStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		oracleClient.Close()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	resolverService, err := resolver.NewService(&resolver.ServiceConfig{
		Runner:       runner,
		Sink:         reportStorage,
		Interval:     cfg.ResolveInterval,
		ConditionIDs: conditionIDs,
		Logger:       logger,
	})
	if err != nil {
		cancel()
		oracleClient.Close()
		return nil, fmt.Errorf("setup resolver service: %w", err)
	}

	httpServer := setupHTTPServer(cfg, logger, healthChecker, resolverService)

	return &App{
		cfg:             cfg,
		logger:          logger,
		healthChecker:   healthChecker,
		httpServer:      httpServer,
		resolverService: resolverService,
		oracleClient:    oracleClient,
		storage:         reportStorage,
		ctx:             ctx,
		cancel:          cancel,
	}, nil
}

// BuildRunner wires the full resolution pipeline. One-shot commands use
// it directly without the service loop. The caller owns the returned
// oracle client's connection.
func BuildRunner(ctx context.Context, cfg *config.Config, logger *zap.Logger, payloadCache cache.Cache) (*resolver.Runner, *oracle.Client, error) {
	fetcher, err := setupFetcher(cfg, logger, payloadCache)
	if err != nil {
		return nil, nil, fmt.Errorf("setup fetcher: %w", err)
	}

	attestorClient := attestor.NewClient(cfg.AttestorURL, cfg.AttestorAPIKey, logger)

	manager, err := attestor.NewManager(&attestor.ManagerConfig{
		Client: attestorClient,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("setup manager: %w", err)
	}

	poller, err := attestor.NewPoller(&attestor.PollerConfig{
		Client:   attestorClient,
		Interval: cfg.PollInterval,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("setup poller: %w", err)
	}

	oracleClient, err := setupOracleClient(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup oracle client: %w", err)
	}

	coordinator, err := oracle.NewCoordinator(&oracle.CoordinatorConfig{
		Proofs:    attestorClient,
		Submitter: oracleClient,
		Strict:    cfg.StrictProofs,
		Logger:    logger,
	})
	if err != nil {
		oracleClient.Close()
		return nil, nil, fmt.Errorf("setup coordinator: %w", err)
	}

	runner, err := resolver.NewRunner(&resolver.RunnerConfig{
		Fetcher:     fetcher,
		Manager:     manager,
		Poller:      poller,
		Coordinator: coordinator,
		PollTimeout: cfg.PollTimeout,
		Logger:      logger,
	})
	if err != nil {
		oracleClient.Close()
		return nil, nil, fmt.Errorf("setup runner: %w", err)
	}

	return runner, oracleClient, nil
}

func setupHealthChecker() *healthprobe.HealthChecker {
	healthChecker := healthprobe.New()
	healthChecker.Register("http-server")
	healthChecker.Register("resolver")
	return healthChecker
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	resolverService *resolver.Service,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:           cfg.HTTPPort,
		Logger:         logger,
		HealthChecker:  healthChecker,
		ReportProvider: resolverService,
	})
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items (1000 markets)
		MaxCost:     1000,  // Maximum 1000 items in cache
		BufferItems: 64,    // Buffer size for Get operations
		Logger:      logger,
	})
}

func setupFetcher(cfg *config.Config, logger *zap.Logger, payloadCache cache.Cache) (*source.Fetcher, error) {
	client := source.NewClient(cfg.SourceAPIURL, cfg.FetchTimeout, logger)

	return source.New(&source.Config{
		Client:               client,
		Cache:                payloadCache,
		Concurrency:          cfg.FetchConcurrency,
		PriceWinnerThreshold: cfg.PriceWinnerThreshold,
		Logger:               logger,
	})
}

func setupOracleClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*oracle.Client, error) {
	privateKey := os.Getenv("RESOLVER_PRIVATE_KEY")
	if privateKey == "" {
		return nil, errors.New("RESOLVER_PRIVATE_KEY not set")
	}

	network, err := cfg.OracleNetwork()
	if err != nil {
		return nil, err
	}

	return oracle.NewClient(ctx, &oracle.ClientConfig{
		RPCURL:        cfg.RPCURL,
		PrivateKeyHex: privateKey,
		OracleAddress: network.OracleAddress,
		ChainID:       network.ChainID,
		GasLimit:      cfg.SubmitGasLimit,
		Logger:        logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		return storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}
	return storage.NewConsoleStorage(logger), nil
}

func parseWatchlist(raw []string) ([]common.Hash, error) {
	if len(raw) == 0 {
		return nil, errors.New("watchlist is empty; set CONDITION_IDS")
	}

	conditionIDs := make([]common.Hash, 0, len(raw))
	for _, id := range raw {
		if len(common.FromHex(id)) != common.HashLength {
			return nil, fmt.Errorf("invalid condition id %q", id)
		}
		conditionIDs = append(conditionIDs, common.HexToHash(id))
	}
	return conditionIDs, nil
}
