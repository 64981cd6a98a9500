package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/soltally/service/addresses"
	"github.com/brojonat/soltally/service/config"
	"github.com/brojonat/soltally/service/events"
	"github.com/brojonat/soltally/service/export"
	"github.com/brojonat/soltally/service/ledger"
	"github.com/brojonat/soltally/service/metrics"
	"github.com/brojonat/soltally/service/source"
	"github.com/brojonat/soltally/service/source/helius"
	"github.com/brojonat/soltally/service/source/solrpc"
	"github.com/brojonat/soltally/service/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch transaction history for wallet addresses",
		ArgsUsage: "[WALLET_ADDRESS...]",
		Flags: append(fetchFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "corpus.json",
				Usage:   "Output path for the transaction corpus JSON",
			},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			corpus, err := runFetch(ctx, c, cfg, logger)
			if err != nil {
				return err
			}

			outputPath := c.String("output")
			if err := export.WriteCorpus(outputPath, corpus); err != nil {
				return fmt.Errorf("failed to write corpus: %w", err)
			}
			logger.Info("wrote transaction corpus",
				"path", outputPath,
				"addresses", len(corpus),
			)
			return nil
		},
	}
}

// fetchFlags returns the flags shared by fetch and export.
func fetchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "addresses",
			Aliases: []string{"a"},
			Usage:   "Path to a CSV file of wallet addresses",
		},
		&cli.StringFlag{
			Name:    "backend",
			Usage:   "Transaction source backend (helius or solana-rpc)",
			EnvVars: []string{"SOLTALLY_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "helius-api-key",
			Usage:   "Helius API key",
			EnvVars: []string{"HELIUS_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "solana-rpc-url",
			Usage:   "Solana JSON-RPC node URL (solana-rpc backend)",
			EnvVars: []string{"SOLANA_RPC_URL"},
		},
		&cli.IntFlag{
			Name:    "limit",
			Usage:   "Signatures to request per page",
			EnvVars: []string{"PAGE_LIMIT"},
		},
		&cli.DurationFlag{
			Name:    "delay",
			Usage:   "Delay between paginated requests (e.g. 500ms, 1s)",
			EnvVars: []string{"REQUEST_DELAY"},
		},
		&cli.IntFlag{
			Name:    "max-transactions",
			Usage:   "Stop after this many transactions per address (0 = unlimited)",
			EnvVars: []string{"MAX_TRANSACTIONS"},
		},
		&cli.IntFlag{
			Name:    "max-attempts",
			Usage:   "Total batched lookup attempts per signature page",
			EnvVars: []string{"MAX_ATTEMPTS"},
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "Address for the Prometheus metrics HTTP server (empty disables)",
			EnvVars: []string{"METRICS_ADDR"},
		},
		&cli.BoolFlag{
			Name:  "save-db",
			Usage: "Save fetched transactions to Postgres (requires DATABASE_URL)",
		},
		&cli.BoolFlag{
			Name:  "publish",
			Usage: "Publish fetched transactions to NATS JetStream (requires NATS_URL)",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{"LOG_LEVEL"},
		},
	}
}

// loadConfig builds configuration from the environment and applies any
// flag overrides before validating.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("helius-api-key") {
		cfg.HeliusAPIKey = c.String("helius-api-key")
	}
	if c.IsSet("solana-rpc-url") {
		cfg.SolanaRPCURL = c.String("solana-rpc-url")
	}
	if c.IsSet("limit") {
		cfg.PageLimit = c.Int("limit")
	}
	if c.IsSet("delay") {
		cfg.RequestDelay = c.Duration("delay")
	}
	if c.IsSet("max-transactions") {
		cfg.MaxTransactions = c.Int("max-transactions")
	}
	if c.IsSet("max-attempts") {
		cfg.MaxAttempts = c.Int("max-attempts")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildSource constructs the configured transaction source backend.
func buildSource(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (source.TransactionSource, error) {
	switch cfg.Backend {
	case config.BackendHelius:
		return helius.NewClient(
			helius.NewHTTPClient(),
			cfg.HeliusRPCURL,
			cfg.HeliusRESTURL,
			cfg.HeliusAPIKey,
			m,
			logger,
		), nil
	case config.BackendSolanaRPC:
		return solrpc.NewClient(solrpc.NewRPCClient(cfg.SolanaRPCURL), m, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// resolveAddresses collects wallet addresses from the --addresses CSV
// file and any positional arguments, deduplicated in order.
func resolveAddresses(c *cli.Context) ([]string, error) {
	var addrs []string
	if path := c.String("addresses"); path != "" {
		fromFile, err := addresses.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read addresses file: %w", err)
		}
		addrs = append(addrs, fromFile...)
	}
	addrs = append(addrs, c.Args().Slice()...)
	addrs = addresses.Dedupe(addrs)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no wallet addresses given (use --addresses or positional arguments)")
	}
	return addrs, nil
}

// runFetch performs the full fetch pipeline and returns the corpus.
// It is shared by the fetch and export commands.
func runFetch(ctx context.Context, c *cli.Context, cfg *config.Config, logger *slog.Logger) (ledger.Corpus, error) {
	addrs, err := resolveAddresses(c)
	if err != nil {
		return nil, err
	}

	// Metrics are only collected when a scrape endpoint is configured.
	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.NewMetrics(nil)
		stop := startMetricsServer(cfg.MetricsAddr, logger)
		defer stop()
	}

	src, err := buildSource(cfg, m, logger)
	if err != nil {
		return nil, err
	}

	orch := source.NewOrchestrator(src, source.Options{
		PageLimit:       cfg.PageLimit,
		RequestDelay:    cfg.RequestDelay,
		MaxTransactions: cfg.MaxTransactions,
		MaxAttempts:     cfg.MaxAttempts,
	}, m, logger)

	logger.Info("starting fetch",
		"backend", src.Name(),
		"addresses", len(addrs),
		"page_limit", cfg.PageLimit,
	)
	corpus := orch.FetchAll(ctx, addrs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.Bool("save-db") {
		if err := saveCorpus(ctx, cfg, corpus, m, logger); err != nil {
			return nil, err
		}
	}
	if c.Bool("publish") {
		if err := publishCorpus(ctx, cfg, corpus, m, logger); err != nil {
			return nil, err
		}
	}
	return corpus, nil
}

// saveCorpus writes fetched transactions to Postgres.
func saveCorpus(ctx context.Context, cfg *config.Config, corpus ledger.Corpus, m *metrics.Metrics, logger *slog.Logger) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("--save-db requires DATABASE_URL to be set")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	st := store.NewStore(pool, m)
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	for address, txns := range corpus {
		if err := st.SaveTransactions(ctx, address, txns); err != nil {
			return fmt.Errorf("failed to save transactions for %s: %w", address, err)
		}
		logger.Info("saved transactions", "address", address, "count", len(txns))
	}
	return nil
}

// publishCorpus publishes fetched transactions to NATS JetStream.
func publishCorpus(ctx context.Context, cfg *config.Config, corpus ledger.Corpus, m *metrics.Metrics, logger *slog.Logger) error {
	if cfg.NATSURL == "" {
		return fmt.Errorf("--publish requires NATS_URL to be set")
	}

	publisher, err := events.NewPublisher(cfg.NATSURL, m, logger)
	if err != nil {
		return fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	defer publisher.Close()

	for address, txns := range corpus {
		for i := range txns {
			event := events.FromTransaction(address, &txns[i])
			if err := publisher.PublishTransaction(ctx, event); err != nil {
				return fmt.Errorf("failed to publish transaction %s: %w", txns[i].Signature, err)
			}
		}
		logger.Info("published transactions", "address", address, "count", len(txns))
	}
	return nil
}

// startMetricsServer serves the Prometheus scrape endpoint in the
// background and returns a shutdown function.
func startMetricsServer(addr string, logger *slog.Logger) func() {
	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.Handler(),
	}

	go func() {
		logger.Info("starting metrics HTTP server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", "error", err)
		}
	}
}
