package solrpc

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real
// Solana nodes.
type RPCClient interface {
	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// nodeRPCClient adapts the solana-go RPC client to our RPCClient
// interface.
type nodeRPCClient struct {
	client *rpc.Client
}

// NewRPCClient creates an RPCClient that wraps the solana-go RPC
// client. For premium endpoints that require API keys, include the key
// in the URL (e.g. https://mainnet.helius-rpc.com/?api-key=YOUR-KEY).
func NewRPCClient(rpcURL string) RPCClient {
	return &nodeRPCClient{client: rpc.New(rpcURL)}
}

func (r *nodeRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	return r.client.GetSignaturesForAddressWithOpts(ctx, address, opts)
}

func (r *nodeRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	return r.client.GetTransaction(ctx, signature, opts)
}
