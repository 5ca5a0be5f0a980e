package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// NetworkConfig holds the per-network chain parameters. Networks are an
// explicit table on the Config, not an ambient global lookup.
type NetworkConfig struct {
	ChainID       int64
	OracleAddress string
}

// Config holds all application configuration. It is immutable after
// LoadFromEnv and passed explicitly into each component constructor.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Source data API (Polymarket-style)
	SourceAPIURL     string
	FetchTimeout     time.Duration
	FetchConcurrency int

	// Outcome derivation.
	// Price above which a token is inferred as the winner when no explicit
	// winner flag is set. Heuristic: it can misclassify markets with
	// irregular closing prices, so the explicit flag always wins.
	PriceWinnerThreshold float64

	// Attestation service
	AttestorURL    string
	AttestorAPIKey string
	PollInterval   time.Duration
	PollTimeout    time.Duration

	// On-chain oracle
	Network        string
	Networks       map[string]NetworkConfig
	RPCURL         string
	SubmitGasLimit uint64
	// StrictProofs disables the empty-proof fallback. The permissive mode
	// exists for development only; a production oracle must reject empty
	// proofs.
	StrictProofs bool

	// Resolution service mode
	ResolveInterval time.Duration
	ConditionIDs    []string

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Source API defaults
		SourceAPIURL:     getEnvOrDefault("SOURCE_API_URL", "https://gamma-api.polymarket.com"),
		FetchTimeout:     getDurationOrDefault("FETCH_TIMEOUT", 30*time.Second),
		FetchConcurrency: getIntOrDefault("FETCH_CONCURRENCY", 8),

		PriceWinnerThreshold: getFloat64OrDefault("PRICE_WINNER_THRESHOLD", 0.95),

		// Attestation service defaults. The 5s poll interval reflects the
		// service's ~90s voting round; polling faster buys nothing.
		AttestorURL:    getEnvOrDefault("ATTESTOR_URL", "http://localhost:3100"),
		AttestorAPIKey: os.Getenv("ATTESTOR_API_KEY"),
		PollInterval:   getDurationOrDefault("POLL_INTERVAL", 5*time.Second),
		PollTimeout:    getDurationOrDefault("POLL_TIMEOUT", 3*time.Minute),

		// Oracle defaults
		Network:        getEnvOrDefault("NETWORK", "coston2"),
		Networks:       defaultNetworks(),
		RPCURL:         getEnvOrDefault("FLARE_RPC_URL", "https://coston2-api.flare.network/ext/C/rpc"),
		SubmitGasLimit: uint64(getIntOrDefault("SUBMIT_GAS_LIMIT", 500000)),
		StrictProofs:   getBoolOrDefault("STRICT_PROOFS", true),

		// Service mode defaults
		ResolveInterval: getDurationOrDefault("RESOLVE_INTERVAL", 10*time.Minute),
		ConditionIDs:    splitList(os.Getenv("CONDITION_IDS")),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "resolver"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "resolver123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "parlay_resolver"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	// Per-network overrides
	if addr := os.Getenv("ORACLE_ADDRESS"); addr != "" {
		nw := cfg.Networks[cfg.Network]
		nw.OracleAddress = addr
		cfg.Networks[cfg.Network] = nw
	}
	if chainID := os.Getenv("CHAIN_ID"); chainID != "" {
		id, err := strconv.ParseInt(chainID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse CHAIN_ID: %w", err)
		}
		nw := cfg.Networks[cfg.Network]
		nw.ChainID = id
		cfg.Networks[cfg.Network] = nw
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func defaultNetworks() map[string]NetworkConfig {
	return map[string]NetworkConfig{
		"flare":   {ChainID: 14},
		"coston2": {ChainID: 114},
	}
}

// OracleNetwork returns the configured network's chain parameters.
func (c *Config) OracleNetwork() (NetworkConfig, error) {
	nw, ok := c.Networks[c.Network]
	if !ok {
		return NetworkConfig{}, fmt.Errorf("unknown network %q", c.Network)
	}
	return nw, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.SourceAPIURL == "" {
		return fmt.Errorf("SOURCE_API_URL cannot be empty")
	}

	if c.AttestorURL == "" {
		return fmt.Errorf("ATTESTOR_URL cannot be empty")
	}

	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.FetchConcurrency)
	}

	if c.PriceWinnerThreshold <= 0.5 || c.PriceWinnerThreshold >= 1.0 {
		return fmt.Errorf("PRICE_WINNER_THRESHOLD must be between 0.5 and 1.0, got %f", c.PriceWinnerThreshold)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}

	if c.PollTimeout < c.PollInterval {
		return fmt.Errorf("POLL_TIMEOUT must be at least one POLL_INTERVAL, got %s", c.PollTimeout)
	}

	if _, ok := c.Networks[c.Network]; !ok {
		return fmt.Errorf("NETWORK must be one of the configured networks, got %q", c.Network)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	return nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
