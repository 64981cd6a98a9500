package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/brojonat/soltally/service/ledger"
	"github.com/brojonat/soltally/service/metrics"
)

// Default tuning for the fetch loop. These match the indexer's
// comfortable request rates; the page limit stays below the provider
// maximum of 100.
const (
	DefaultPageLimit    = 50
	DefaultRequestDelay = 500 * time.Millisecond
)

// Options tunes the fetch loop.
type Options struct {
	// PageLimit is the signature page size requested from the backend.
	PageLimit int

	// RequestDelay is slept between consecutive API calls to respect
	// rate limits, and between retry attempts for missing records.
	RequestDelay time.Duration

	// MaxTransactions caps the number of records fetched per address.
	// Zero means fetch the full history.
	MaxTransactions int

	// MaxAttempts is the total number of batched record lookups per
	// signature page. Zero means DefaultMaxAttempts.
	MaxAttempts int
}

func (o Options) withDefaults() Options {
	if o.PageLimit <= 0 {
		o.PageLimit = DefaultPageLimit
	}
	if o.RequestDelay < 0 {
		o.RequestDelay = DefaultRequestDelay
	}
	return o
}

// Orchestrator drives signature pagination and record fetching for a
// set of wallet addresses, one address fully processed before the
// next. No parallel requests are issued.
type Orchestrator struct {
	source  TransactionSource
	fetcher *Fetcher
	logger  *slog.Logger
	metrics *metrics.Metrics
	opts    Options
}

// NewOrchestrator creates an Orchestrator. If m is nil, no metrics are
// recorded.
func NewOrchestrator(src TransactionSource, opts Options, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		source:  src,
		fetcher: NewFetcher(src, opts.MaxAttempts, opts.RequestDelay, m, logger),
		logger:  logger,
		metrics: m,
		opts:    opts,
	}
}

// FetchAddress retrieves the complete transaction corpus for one
// address: page signatures, fetch records for each page, stop on a
// short page or a missing cursor, truncate at the MaxTransactions cap.
// Records are deduplicated by signature across pages.
func (o *Orchestrator) FetchAddress(ctx context.Context, address string) ([]ledger.Transaction, error) {
	// Non-nil so an address with no history serializes as an empty
	// list in the corpus artifact.
	all := []ledger.Transaction{}
	seen := make(map[string]struct{})
	cursor := ""

	for {
		signatures, next, err := o.source.NextSignatures(ctx, address, o.opts.PageLimit, cursor)
		if err != nil {
			return nil, err
		}
		if o.metrics != nil {
			o.metrics.RecordSignaturesPerCall(o.source.Name(), float64(len(signatures)))
		}

		// A full-size raw page can still yield zero valid signatures;
		// treat that as corpus exhausted rather than looping forever.
		if len(signatures) == 0 {
			break
		}

		records, err := o.fetcher.FetchAll(ctx, address, signatures)
		if err != nil {
			return nil, err
		}

		for _, txn := range records {
			if txn.Signature != "" {
				if _, dup := seen[txn.Signature]; dup {
					if o.metrics != nil {
						o.metrics.RecordTransactionsSkipped(address, "duplicate", 1)
					}
					continue
				}
				seen[txn.Signature] = struct{}{}
			}
			all = append(all, txn)
		}

		o.logger.DebugContext(ctx, "fetched signature page",
			"wallet", address,
			"signatures", len(signatures),
			"records", len(records),
			"total", len(all),
		)

		if o.opts.MaxTransactions > 0 && len(all) >= o.opts.MaxTransactions {
			return all[:o.opts.MaxTransactions], nil
		}

		// A short page means the corpus is exhausted regardless of
		// cursor presence.
		if len(signatures) < o.opts.PageLimit || next == "" {
			break
		}

		cursor = next
		time.Sleep(o.opts.RequestDelay)
	}

	return all, nil
}

// FetchAll fetches the corpus for every address in order. A failure
// for one address is logged and that address is omitted from the
// result; it never aborts processing of the remaining addresses.
func (o *Orchestrator) FetchAll(ctx context.Context, addresses []string) ledger.Corpus {
	corpus := make(ledger.Corpus)

	for i, address := range addresses {
		o.logger.InfoContext(ctx, "fetching transactions",
			"wallet", address,
			"progress", i+1,
			"total", len(addresses),
		)

		txns, err := o.FetchAddress(ctx, address)
		if err != nil {
			o.logger.ErrorContext(ctx, "failed to fetch address, skipping",
				"wallet", address,
				"error", err,
			)
			if o.metrics != nil {
				o.metrics.RecordAddressFailed("fetch_error")
			}
			continue
		}

		corpus[address] = txns
		if o.metrics != nil {
			o.metrics.RecordTransactionsFetched(address, len(txns))
		}
		o.logger.InfoContext(ctx, "fetched address corpus",
			"wallet", address,
			"count", len(txns),
		)
	}

	return corpus
}
