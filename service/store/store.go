// Package store persists the fetched transaction corpus in Postgres
// as an alternative to the JSON artifact, so the convert stage can run
// against a shared database.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brojonat/soltally/service/ledger"
	"github.com/brojonat/soltally/service/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	wallet_address TEXT        NOT NULL,
	signature      TEXT        NOT NULL,
	position       INTEGER     NOT NULL,
	payload        JSONB       NOT NULL,
	fetched_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (wallet_address, signature)
);
CREATE INDEX IF NOT EXISTS transactions_wallet_position_idx
	ON transactions (wallet_address, position);
`

// Store provides database operations for the corpus.
type Store struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

// NewStore creates a new Store with the given database connection
// pool. If m is nil, no metrics are recorded.
func NewStore(pool *pgxpool.Pool, m *metrics.Metrics) *Store {
	return &Store{pool: pool, metrics: m}
}

// EnsureSchema creates the corpus table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, schema)
	s.record("ensure_schema", start, err)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveTransactions upserts one address's corpus, preserving fetch
// order via the position column. Records already present for the
// address are replaced.
func (s *Store) SaveTransactions(ctx context.Context, address string, txns []ledger.Transaction) error {
	start := time.Now()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE wallet_address = $1`, address); err != nil {
			return err
		}
		for i, txn := range txns {
			payload, err := json.Marshal(txn)
			if err != nil {
				return fmt.Errorf("failed to encode transaction %s: %w", txn.Signature, err)
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO transactions (wallet_address, signature, position, payload)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (wallet_address, signature) DO UPDATE
				 SET position = EXCLUDED.position, payload = EXCLUDED.payload, fetched_at = now()`,
				address, txn.Signature, i, payload,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	s.record("save_transactions", start, err)
	if err != nil {
		return fmt.Errorf("failed to save transactions for %s: %w", address, err)
	}
	return nil
}

// ListAddresses returns every address with stored transactions, in
// lexical order.
func (s *Store) ListAddresses(ctx context.Context) ([]string, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT wallet_address FROM transactions ORDER BY wallet_address`)
	s.record("list_addresses", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, rows.Err()
}

// ListTransactions returns one address's corpus in fetch order.
func (s *Store) ListTransactions(ctx context.Context, address string) ([]ledger.Transaction, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM transactions WHERE wallet_address = $1 ORDER BY position`,
		address,
	)
	s.record("list_transactions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", address, err)
	}
	defer rows.Close()

	var txns []ledger.Transaction
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var txn ledger.Transaction
		if err := json.Unmarshal(payload, &txn); err != nil {
			return nil, fmt.Errorf("failed to decode stored transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// LoadCorpus reads the full stored corpus, address by address.
func (s *Store) LoadCorpus(ctx context.Context) (ledger.Corpus, error) {
	addrs, err := s.ListAddresses(ctx)
	if err != nil {
		return nil, err
	}

	corpus := make(ledger.Corpus, len(addrs))
	for _, addr := range addrs {
		txns, err := s.ListTransactions(ctx, addr)
		if err != nil {
			return nil, err
		}
		corpus[addr] = txns
	}
	return corpus, nil
}

func (s *Store) record(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordDBQuery(operation, "transactions", time.Since(start).Seconds(), err)
}
