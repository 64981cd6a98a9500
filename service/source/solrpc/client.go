// Package solrpc implements the source.TransactionSource contract
// against a plain Solana RPC node. It reconstructs the enhanced
// transfer shape (native and token legs) by decoding transaction
// instructions, so the conversion pipeline is identical across
// backends.
package solrpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/soltally/service/ledger"
	"github.com/brojonat/soltally/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// backendName identifies this backend in logs and metrics.
const backendName = "solana-rpc"

// Client retrieves wallet history from a Solana RPC node. It
// implements source.TransactionSource.
type Client struct {
	rpc     RPCClient
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewClient creates a Solana RPC backend. If m is nil, no metrics are
// recorded.
func NewClient(rpcClient RPCClient, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:     rpcClient,
		logger:  logger,
		metrics: m,
	}
}

// Name implements source.TransactionSource.
func (c *Client) Name() string { return backendName }

// NextSignatures fetches one page of signatures strictly before the
// cursor via getSignaturesForAddress. The next cursor is the last
// signature of the page only if the raw page was full-size.
func (c *Client) NextSignatures(ctx context.Context, address string, limit int, cursor string) ([]string, string, error) {
	wallet, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, "", fmt.Errorf("invalid wallet address %q: %w", address, err)
	}

	opts := &rpc.GetSignaturesForAddressOpts{Limit: &limit}
	if cursor != "" {
		before, err := solana.SignatureFromBase58(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid pagination cursor %q: %w", cursor, err)
		}
		opts.Before = before
	}

	c.logger.DebugContext(ctx, "calling GetSignaturesForAddress",
		"wallet", address,
		"limit", limit,
		"before", cursor,
	)

	start := time.Now()
	entries, err := c.rpc.GetSignaturesForAddress(ctx, wallet, opts)
	c.recordCall("GetSignaturesForAddress", err, time.Since(start))
	if err != nil {
		return nil, "", err
	}

	signatures := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.Signature.IsZero() {
			continue
		}
		signatures = append(signatures, entry.Signature.String())
	}

	next := ""
	if len(entries) == limit && len(signatures) > 0 {
		next = signatures[len(signatures)-1]
	}
	return signatures, next, nil
}

// Transactions fetches and decodes full transaction records, one RPC
// call per signature. A signature whose record cannot be fetched or
// decoded is skipped here and left to the caller's retry/partial-miss
// handling.
func (c *Client) Transactions(ctx context.Context, signatures []string) ([]ledger.Transaction, error) {
	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	records := make([]ledger.Transaction, 0, len(signatures))
	for _, sigStr := range signatures {
		sig, err := solana.SignatureFromBase58(sigStr)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping malformed signature",
				"signature", sigStr,
				"error", err,
			)
			continue
		}

		start := time.Now()
		result, err := c.rpc.GetTransaction(ctx, sig, opts)
		c.recordCall("GetTransaction", err, time.Since(start))
		if err != nil || result == nil {
			c.logger.WarnContext(ctx, "failed to get transaction details",
				"signature", sigStr,
				"error", err,
			)
			continue
		}

		txn, err := parseTransaction(sigStr, result)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to decode transaction",
				"signature", sigStr,
				"error", err,
			)
			continue
		}
		records = append(records, *txn)
	}

	return records, nil
}

func (c *Client) recordCall(method string, err error, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordAPICall(method, status, backendName, elapsed.Seconds())
}
