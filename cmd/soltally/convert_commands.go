package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/brojonat/soltally/service/export"
	"github.com/brojonat/soltally/service/ledger"
	"github.com/brojonat/soltally/service/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
)

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert a transaction corpus to accounting CSV rows",
		Flags: append(convertFlags(),
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Value:   "corpus.json",
				Usage:   "Path to a transaction corpus JSON file",
			},
			&cli.BoolFlag{
				Name:  "from-db",
				Usage: "Load the corpus from Postgres instead of a file (requires DATABASE_URL)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		),
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var corpus ledger.Corpus
			var err error
			if c.Bool("from-db") {
				corpus, err = loadCorpusFromDB(ctx)
			} else {
				corpus, err = export.ReadCorpus(c.String("input"))
			}
			if err != nil {
				return fmt.Errorf("failed to load corpus: %w", err)
			}

			rows := corpusRows(corpus, c.String("address"), c.Int64("dust-threshold"))
			if err := writeRowsOutput(c.String("output"), rows); err != nil {
				return err
			}
			logger.Info("wrote CSV rows",
				"rows", len(rows),
				"addresses", len(corpus),
			)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Fetch transaction history and convert it to CSV in one run",
		ArgsUsage: "[WALLET_ADDRESS...]",
		Flags: append(append(fetchFlags(), convertFlags()...),
			&cli.StringFlag{
				Name:  "corpus",
				Usage: "Also write the fetched corpus JSON to this path",
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

			if corpusPath := c.String("corpus"); corpusPath != "" {
				if err := export.WriteCorpus(corpusPath, corpus); err != nil {
					return fmt.Errorf("failed to write corpus: %w", err)
				}
				logger.Info("wrote transaction corpus", "path", corpusPath)
			}

			dust := cfg.DustThresholdLamports
			if c.IsSet("dust-threshold") {
				dust = c.Int64("dust-threshold")
			}
			rows := corpusRows(corpus, c.String("address"), dust)
			if err := writeRowsOutput(c.String("output"), rows); err != nil {
				return err
			}
			logger.Info("wrote CSV rows",
				"rows", len(rows),
				"addresses", len(corpus),
			)
			return nil
		},
	}
}

// convertFlags returns the flags shared by convert and export that
// control CSV output.
func convertFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output path for the CSV file (empty writes to stdout)",
		},
		&cli.StringFlag{
			Name:  "address",
			Usage: "Only convert transactions for this wallet address",
		},
		&cli.Int64Flag{
			Name:    "dust-threshold",
			Value:   ledger.DefaultDustThresholdLamports,
			Usage:   "Ignore SOL transfers below this many lamports",
			EnvVars: []string{"DUST_THRESHOLD_LAMPORTS"},
		},
	}
}

// corpusRows converts every transaction in the corpus to CSV rows,
// walking addresses in sorted order so output is deterministic.
func corpusRows(corpus ledger.Corpus, addressFilter string, dustThreshold int64) []ledger.Row {
	converter := ledger.NewConverter(dustThreshold)

	addrs := make([]string, 0, len(corpus))
	for address := range corpus {
		if addressFilter != "" && address != addressFilter {
			continue
		}
		addrs = append(addrs, address)
	}
	sort.Strings(addrs)

	var rows []ledger.Row
	for _, address := range addrs {
		txns := corpus[address]
		for i := range txns {
			rows = append(rows, converter.Rows(address, &txns[i])...)
		}
	}
	return rows
}

// writeRowsOutput writes rows to the given path, or stdout when the
// path is empty.
func writeRowsOutput(path string, rows []ledger.Row) error {
	if path == "" {
		return export.WriteRows(os.Stdout, rows)
	}
	if err := export.WriteRowsFile(path, rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// loadCorpusFromDB loads all saved transactions from Postgres.
func loadCorpusFromDB(ctx context.Context) (ledger.Corpus, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("--from-db requires DATABASE_URL to be set")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	return store.NewStore(pool, nil).LoadCorpus(ctx)
}
