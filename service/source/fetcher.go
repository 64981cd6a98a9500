package source

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/brojonat/soltally/service/ledger"
	"github.com/brojonat/soltally/service/metrics"
)

// DefaultMaxAttempts is the total number of batched lookup attempts
// made for a page of signatures before missing ones are given up on.
const DefaultMaxAttempts = 3

// Fetcher retrieves full transaction records for batches of
// signatures, retrying for any signatures the backend's response did
// not include. An indexer may permanently lack a record for a given
// signature, so leftovers after the final attempt are a warning, not
// an error.
type Fetcher struct {
	source      TransactionSource
	logger      *slog.Logger
	metrics     *metrics.Metrics
	maxAttempts int
	delay       time.Duration
}

// NewFetcher creates a Fetcher. maxAttempts of zero or less falls back
// to DefaultMaxAttempts. If m is nil, no metrics are recorded.
func NewFetcher(src TransactionSource, maxAttempts int, delay time.Duration, m *metrics.Metrics, logger *slog.Logger) *Fetcher {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Fetcher{
		source:      src,
		logger:      logger,
		metrics:     m,
		maxAttempts: maxAttempts,
		delay:       delay,
	}
}

// FetchAll retrieves records for all signatures, in up to maxAttempts
// batched lookups. Signatures still missing after the final attempt
// are logged and reported via metrics; the collected partial result is
// returned. A transport or payload error from the backend is fatal.
func (f *Fetcher) FetchAll(ctx context.Context, address string, signatures []string) ([]ledger.Transaction, error) {
	remaining := make([]string, len(signatures))
	copy(remaining, signatures)

	var collected []ledger.Transaction

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if len(remaining) == 0 {
			break
		}

		page, err := f.source.Transactions(ctx, remaining)
		if err != nil {
			return nil, err
		}
		collected = append(collected, page...)

		returned := make(map[string]struct{}, len(page))
		for _, txn := range page {
			if txn.Signature != "" {
				returned[txn.Signature] = struct{}{}
			}
		}

		still := remaining[:0]
		for _, sig := range remaining {
			if _, ok := returned[sig]; !ok {
				still = append(still, sig)
			}
		}
		remaining = still

		if len(remaining) > 0 && attempt < f.maxAttempts {
			f.logger.DebugContext(ctx, "records missing from batch, retrying",
				"wallet", address,
				"missing", len(remaining),
				"attempt", attempt,
			)
			if f.metrics != nil {
				f.metrics.RecordAPIRetry("Transactions", "missing_records")
			}
			time.Sleep(f.delay)
		}
	}

	if len(remaining) > 0 {
		f.logger.WarnContext(ctx, "transactions missing after retries",
			"wallet", address,
			"missing", len(remaining),
			"signatures", strings.Join(remaining, ", "),
		)
		if f.metrics != nil {
			f.metrics.RecordSignaturesMissing(address, len(remaining))
		}
	}

	return collected, nil
}
