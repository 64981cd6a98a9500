// Package helius implements the source.TransactionSource contract
// against the Helius indexer: signature pages via its JSON-RPC proxy
// and full enhanced transaction records via its REST API.
package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brojonat/soltally/service/ledger"
	"github.com/brojonat/soltally/service/metrics"
	"github.com/brojonat/soltally/service/source"
)

// backendName identifies this backend in logs and metrics.
const backendName = "helius"

// requestTimeout bounds every API call; expiry is a transport failure
// for that call, never treated as data.
const requestTimeout = 30 * time.Second

// Doer issues HTTP requests. This allows us to mock the HTTP layer in
// tests without hitting the real API.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Helius API. It implements
// source.TransactionSource.
type Client struct {
	http    Doer
	rpcURL  string
	restURL string
	apiKey  string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHTTPClient returns an http.Client with the fixed request timeout
// applied.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// NewClient creates a Helius client. rpcURL serves
// getSignaturesForAddress, restURL serves the enhanced transactions
// endpoint; the API key is sent as a query parameter on both. If m is
// nil, no metrics are recorded.
func NewClient(httpClient Doer, rpcURL, restURL, apiKey string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		http:    httpClient,
		rpcURL:  strings.TrimRight(rpcURL, "/"),
		restURL: strings.TrimRight(restURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
		metrics: m,
	}
}

// Name implements source.TransactionSource.
func (c *Client) Name() string { return backendName }

type signatureEntry struct {
	Signature string `json:"signature"`
}

// NextSignatures fetches one page of transaction signatures strictly
// before the cursor. The next cursor is the last signature of the page
// only if the raw result was full-size; any shorter result means the
// corpus for this address is exhausted.
func (c *Client) NextSignatures(ctx context.Context, address string, limit int, cursor string) ([]string, string, error) {
	params := map[string]any{"limit": limit}
	if cursor != "" {
		params["before"] = cursor
	}
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      "signatures",
		"method":  "getSignaturesForAddress",
		"params":  []any{address, params},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode signatures request: %w", err)
	}

	query := url.Values{"api-key": {c.apiKey}}
	endpoint := c.rpcURL + "?" + query.Encode()

	c.logger.DebugContext(ctx, "calling getSignaturesForAddress",
		"wallet", address,
		"limit", limit,
		"before", cursor,
	)

	start := time.Now()
	raw, err := c.post(ctx, endpoint, body)
	c.recordCall("getSignaturesForAddress", err, time.Since(start))
	if err != nil {
		return nil, "", err
	}

	var payload struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Result) == 0 || bytes.Equal(bytes.TrimSpace(payload.Result), []byte("null")) {
		return nil, "", fmt.Errorf("%w: signatures response for %s has no result list", source.ErrBadPayload, address)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(payload.Result, &entries); err != nil {
		return nil, "", fmt.Errorf("%w: signatures result for %s is not a list", source.ErrBadPayload, address)
	}

	// Entries that are not objects or carry an empty signature are
	// dropped, but still count toward the raw page size.
	signatures := make([]string, 0, len(entries))
	for _, e := range entries {
		var entry signatureEntry
		if err := json.Unmarshal(e, &entry); err != nil {
			continue
		}
		if entry.Signature != "" {
			signatures = append(signatures, entry.Signature)
		}
	}

	next := ""
	if len(entries) == limit && len(signatures) > 0 {
		next = signatures[len(signatures)-1]
	}
	return signatures, next, nil
}

// Transactions fetches full enhanced transaction records for a batch
// of signatures. An explicit failure object or a non-list body is a
// fatal error; missing individual records are not (the caller detects
// and retries those).
func (c *Client) Transactions(ctx context.Context, signatures []string) ([]ledger.Transaction, error) {
	body, err := json.Marshal(map[string]any{"transactions": signatures})
	if err != nil {
		return nil, fmt.Errorf("failed to encode transactions request: %w", err)
	}

	// Helius rejects a trailing slash before the query string with a
	// 404, so keep the path tight.
	endpoint := c.restURL + "/v0/transactions?api-key=" + url.QueryEscape(c.apiKey)

	start := time.Now()
	raw, err := c.post(ctx, endpoint, body)
	c.recordCall("transactions", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var failure struct {
			Success *bool  `json:"success"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &failure); err == nil && failure.Success != nil && !*failure.Success {
			return nil, fmt.Errorf("%w: %s", source.ErrAPIFailure, failure.Error)
		}
		return nil, fmt.Errorf("%w: transactions response is not a list", source.ErrBadPayload)
	}

	// Only a JSON list is a valid batch response. A literal null body
	// would otherwise unmarshal into a nil slice and read as "every
	// record missing" instead of failing the call.
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: transactions response is not a list", source.ErrBadPayload)
	}

	var txns []ledger.Transaction
	if err := json.Unmarshal(trimmed, &txns); err != nil {
		return nil, fmt.Errorf("%w: transactions response is not a list", source.ErrBadPayload)
	}
	return txns, nil
}

// post issues a JSON POST and returns the response body. Any non-2xx
// status is an error.
func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return raw, nil
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
