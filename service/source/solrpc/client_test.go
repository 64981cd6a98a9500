package solrpc

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRPCClient implements RPCClient for testing.
type mockRPCClient struct {
	signatures   []*rpc.TransactionSignature
	transactions map[string]*rpc.GetTransactionResult
	err          error

	gotOpts *rpc.GetSignaturesForAddressOpts
}

func (m *mockRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.signatures, nil
}

func (m *mockRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.transactions == nil {
		return nil, nil
	}
	return m.transactions[signature.String()], nil
}

func newTestClient(mock *mockRPCClient) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(mock, nil, logger)
}

const testWallet = "7fUAJdStEuGbc3sM84cKRL6yYaaSstyLSU4ve5oovLS7"

var (
	testSig1 = solana.MustSignatureFromBase58("5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7")
	testSig2 = solana.MustSignatureFromBase58("2TgM4N8qCMqLvfR8dxqTQgKygPNzT5KQkN5b5sT7eZPEkdxyLTXGnNQB3j7KG4DPFg5Qez5yNJBQRQ5r7DDnFfjG")
)

func TestNextSignatures_FullPageYieldsCursor(t *testing.T) {
	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{
			{Signature: testSig1},
			{Signature: testSig2},
		},
	}
	client := newTestClient(mock)

	sigs, next, err := client.NextSignatures(context.Background(), testWallet, 2, "")

	require.NoError(t, err)
	assert.Equal(t, []string{testSig1.String(), testSig2.String()}, sigs)
	assert.Equal(t, testSig2.String(), next)
}

func TestNextSignatures_ShortPageHasNoCursor(t *testing.T) {
	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{{Signature: testSig1}},
	}
	client := newTestClient(mock)

	sigs, next, err := client.NextSignatures(context.Background(), testWallet, 10, "")

	require.NoError(t, err)
	assert.Len(t, sigs, 1)
	assert.Empty(t, next)
}

func TestNextSignatures_CursorSentAsBefore(t *testing.T) {
	mock := &mockRPCClient{}
	client := newTestClient(mock)

	_, _, err := client.NextSignatures(context.Background(), testWallet, 10, testSig1.String())

	require.NoError(t, err)
	require.NotNil(t, mock.gotOpts)
	assert.Equal(t, testSig1, mock.gotOpts.Before)
}

func TestNextSignatures_InvalidAddress(t *testing.T) {
	client := newTestClient(&mockRPCClient{})

	_, _, err := client.NextSignatures(context.Background(), "not-a-pubkey", 10, "")
	require.Error(t, err)
}

func TestNextSignatures_RPCErrorPropagates(t *testing.T) {
	client := newTestClient(&mockRPCClient{err: assert.AnError})

	_, _, err := client.NextSignatures(context.Background(), testWallet, 10, "")
	require.ErrorIs(t, err, assert.AnError)
}

func TestTransactions_MissingRecordsSkipped(t *testing.T) {
	// The node has no record for either signature; the batch comes
	// back empty and the caller's retry logic takes over.
	client := newTestClient(&mockRPCClient{})

	records, err := client.Transactions(context.Background(), []string{testSig1.String(), testSig2.String()})

	require.NoError(t, err)
	assert.Empty(t, records)
}
