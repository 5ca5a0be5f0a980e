package app

import (
	"context"
	"sync"

	"github.com/polyflare/parlay-resolver/internal/oracle"
	"github.com/polyflare/parlay-resolver/internal/resolver"
	"github.com/polyflare/parlay-resolver/internal/storage"
	"github.com/polyflare/parlay-resolver/pkg/config"
	"github.com/polyflare/parlay-resolver/pkg/healthprobe"
	"github.com/polyflare/parlay-resolver/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg             *config.Config
	logger          *zap.Logger
	healthChecker   *healthprobe.HealthChecker
	httpServer      *httpserver.Server
	resolverService *resolver.Service
	oracleClient    *oracle.Client
	storage         storage.Storage
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

// Options holds application options.
type Options struct {
	Watchlist []string // Overrides the configured condition ID watchlist
}
