package source

import (
	"context"
	"errors"

	"github.com/brojonat/soltally/service/ledger"
)

// Sentinel errors for the indexer API boundary. Both are fatal for the
// current address's fetch; the orchestrator's address loop catches
// them, logs, and moves on to the next address.
var (
	// ErrBadPayload indicates a malformed or unexpectedly shaped API
	// response (missing result, non-list body).
	ErrBadPayload = errors.New("unexpected API payload")

	// ErrAPIFailure indicates an explicit failure reported by the API.
	ErrAPIFailure = errors.New("API reported failure")
)

// TransactionSource retrieves transaction history for a wallet from
// one indexer backend. Implementations exist for the Helius enhanced
// API and for a plain Solana RPC node; the orchestration loop is
// identical across backends.
type TransactionSource interface {
	// NextSignatures returns one page of transaction signatures for
	// the address, strictly before the cursor (or the most recent page
	// when cursor is empty). next is the cursor for the following page,
	// or empty when the corpus is exhausted: it is set to the last
	// signature of the page only if the raw page was full-size.
	NextSignatures(ctx context.Context, address string, limit int, cursor string) (signatures []string, next string, err error)

	// Transactions retrieves full transaction records for a batch of
	// signatures. Records missing from the response are not an error;
	// callers detect them by comparing returned signatures.
	Transactions(ctx context.Context, signatures []string) ([]ledger.Transaction, error)

	// Name identifies the backend for logs and metrics.
	Name() string
}
