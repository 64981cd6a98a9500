package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend names accepted by SOLTALLY_BACKEND.
const (
	BackendHelius    = "helius"
	BackendSolanaRPC = "solana-rpc"
)

// Default endpoints for the Helius backend. The API key is never
// defaulted; a missing key is a startup configuration error.
const (
	DefaultHeliusRPCURL  = "https://api-mainnet.helius-rpc.com"
	DefaultHeliusRESTURL = "https://api.helius.xyz"
)

// Config holds all application configuration loaded from environment
// variables. All required fields are validated at startup to ensure
// fail-fast behavior.
type Config struct {
	LogLevel string

	// Backend selection
	Backend string

	// Helius backend
	HeliusRPCURL  string
	HeliusRESTURL string
	HeliusAPIKey  string

	// Solana RPC backend
	SolanaRPCURL string

	// Fetch tuning
	PageLimit       int
	RequestDelay    time.Duration
	MaxTransactions int
	MaxAttempts     int

	// Conversion tuning
	DustThresholdLamports int64

	// Optional integrations
	DatabaseURL string
	NATSURL     string
	MetricsAddr string
}

// Load reads configuration from environment variables and validates
// all required fields. Returns an error if any required configuration
// is missing or invalid.
func Load() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads configuration from environment variables without
// validating it. Callers that layer overrides on top (such as CLI
// flags) should call Validate once the final values are in place.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.Backend = getEnvOrDefault("SOLTALLY_BACKEND", BackendHelius)

	cfg.HeliusRPCURL = getEnvOrDefault("HELIUS_RPC_URL", DefaultHeliusRPCURL)
	cfg.HeliusRESTURL = getEnvOrDefault("HELIUS_REST_URL", DefaultHeliusRESTURL)
	cfg.HeliusAPIKey = os.Getenv("HELIUS_API_KEY")

	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")

	limit, err := parseInt("PAGE_LIMIT", 50)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.PageLimit = limit
	}

	delay, err := parseDuration("REQUEST_DELAY", "500ms")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RequestDelay = delay
	}

	maxTxns, err := parseInt("MAX_TRANSACTIONS", 0)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MaxTransactions = maxTxns
	}

	attempts, err := parseInt("MAX_ATTEMPTS", 3)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MaxAttempts = attempts
	}

	dust, err := parseInt("DUST_THRESHOLD_LAMPORTS", 5000)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.DustThresholdLamports = int64(dust)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration parsing failed: %v", errs)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid. This is useful for
// testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendHelius:
		if c.HeliusAPIKey == "" {
			errs = append(errs, fmt.Errorf("HELIUS_API_KEY is required for the helius backend"))
		}
		if c.HeliusRPCURL == "" {
			errs = append(errs, fmt.Errorf("HELIUS_RPC_URL is required for the helius backend"))
		}
		if c.HeliusRESTURL == "" {
			errs = append(errs, fmt.Errorf("HELIUS_REST_URL is required for the helius backend"))
		}
	case BackendSolanaRPC:
		if c.SolanaRPCURL == "" {
			errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required for the solana-rpc backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendHelius, BackendSolanaRPC))
	}

	if c.PageLimit <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_LIMIT must be positive"))
	}
	if c.RequestDelay < 0 {
		errs = append(errs, fmt.Errorf("REQUEST_DELAY cannot be negative"))
	}
	if c.MaxTransactions < 0 {
		errs = append(errs, fmt.Errorf("MAX_TRANSACTIONS cannot be negative"))
	}
	if c.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("MAX_ATTEMPTS must be positive"))
	}
	if c.DustThresholdLamports < 0 {
		errs = append(errs, fmt.Errorf("DUST_THRESHOLD_LAMPORTS cannot be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %v", errs)
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default
// if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses
// a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a
// default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
