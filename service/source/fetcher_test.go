package source

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/brojonat/soltally/service/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSource implements TransactionSource for testing. It is
// behavior-focused: we script what it returns, not verify call
// sequences.
type mockSource struct {
	// NextSignatures script: one entry per call.
	pages   [][]string
	nexts   []string
	pageErr error

	// Transactions script: one entry per call; the last entry repeats.
	responses [][]ledger.Transaction
	txnErr    error

	sigCalls   int
	txnCalls   int
	gotCursors []string
	gotBatches [][]string
}

func (m *mockSource) NextSignatures(ctx context.Context, address string, limit int, cursor string) ([]string, string, error) {
	if m.pageErr != nil {
		return nil, "", m.pageErr
	}
	m.gotCursors = append(m.gotCursors, cursor)
	call := m.sigCalls
	m.sigCalls++
	if call >= len(m.pages) {
		return nil, "", nil
	}
	next := ""
	if call < len(m.nexts) {
		next = m.nexts[call]
	}
	return m.pages[call], next, nil
}

func (m *mockSource) Transactions(ctx context.Context, signatures []string) ([]ledger.Transaction, error) {
	if m.txnErr != nil {
		return nil, m.txnErr
	}
	batch := make([]string, len(signatures))
	copy(batch, signatures)
	m.gotBatches = append(m.gotBatches, batch)
	call := m.txnCalls
	m.txnCalls++
	if len(m.responses) == 0 {
		return nil, nil
	}
	if call >= len(m.responses) {
		call = len(m.responses) - 1
	}
	return m.responses[call], nil
}

func (m *mockSource) Name() string { return "mock" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func txns(sigs ...string) []ledger.Transaction {
	out := make([]ledger.Transaction, len(sigs))
	for i, s := range sigs {
		out[i] = ledger.Transaction{Signature: s}
	}
	return out
}

func TestFetchAll_AllReturnedFirstAttempt(t *testing.T) {
	ctx := context.Background()
	mock := &mockSource{responses: [][]ledger.Transaction{txns("a", "b", "c")}}

	fetcher := NewFetcher(mock, 3, 0, nil, testLogger())
	records, err := fetcher.FetchAll(ctx, "wallet", []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 1, mock.txnCalls)
}

func TestFetchAll_RetriesOnlyMissingSignatures(t *testing.T) {
	ctx := context.Background()
	mock := &mockSource{responses: [][]ledger.Transaction{
		txns("a"),
		txns("b", "c"),
	}}

	fetcher := NewFetcher(mock, 3, 0, nil, testLogger())
	records, err := fetcher.FetchAll(ctx, "wallet", []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Len(t, records, 3)
	require.Equal(t, 2, mock.txnCalls)
	// Second attempt only asks for what is still missing.
	assert.Equal(t, []string{"b", "c"}, mock.gotBatches[1])
}

func TestFetchAll_TerminatesAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	// "ghost" never appears in any response.
	mock := &mockSource{responses: [][]ledger.Transaction{txns("a")}}

	fetcher := NewFetcher(mock, 3, 0, nil, testLogger())
	records, err := fetcher.FetchAll(ctx, "wallet", []string{"a", "ghost"})

	// Partial miss is a warning, not an error.
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, mock.txnCalls)
}

func TestFetchAll_TransportErrorIsFatal(t *testing.T) {
	ctx := context.Background()
	mock := &mockSource{txnErr: ErrAPIFailure}

	fetcher := NewFetcher(mock, 3, 0, nil, testLogger())
	records, err := fetcher.FetchAll(ctx, "wallet", []string{"a"})

	require.ErrorIs(t, err, ErrAPIFailure)
	assert.Nil(t, records)
}

func TestFetchAll_EmptySignatureList(t *testing.T) {
	ctx := context.Background()
	mock := &mockSource{}

	fetcher := NewFetcher(mock, 3, 0, nil, testLogger())
	records, err := fetcher.FetchAll(ctx, "wallet", nil)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 0, mock.txnCalls)
}

func TestFetchAll_RecordsWithoutSignatureDoNotSatisfyRetry(t *testing.T) {
	ctx := context.Background()
	// A record with an empty signature can never match a requested
	// signature, so "a" keeps being retried.
	mock := &mockSource{responses: [][]ledger.Transaction{txns("")}}

	fetcher := NewFetcher(mock, 2, 0, nil, testLogger())
	records, err := fetcher.FetchAll(ctx, "wallet", []string{"a"})

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, mock.txnCalls)
}
