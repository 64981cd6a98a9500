// Package events publishes fetched-transaction events to NATS
// JetStream so downstream consumers can react to new wallet activity
// without re-reading the corpus artifact.
package events

import (
	"time"

	"github.com/brojonat/soltally/service/ledger"
)

// TransactionEvent is published to the subject "txns.{wallet_address}"
// for every transaction record fetched.
type TransactionEvent struct {
	WalletAddress string `json:"wallet_address"`
	Signature     string `json:"signature"`

	// Timestamp is the transaction's block time; zero when the indexer
	// reported none.
	Timestamp time.Time `json:"timestamp,omitzero"`

	FeeLamports     int64 `json:"fee_lamports"`
	NativeTransfers int   `json:"native_transfers"`
	TokenTransfers  int   `json:"token_transfers"`

	PublishedAt time.Time `json:"published_at"`
}

// FromTransaction converts a fetched transaction record to an event
// for publishing.
func FromTransaction(address string, txn *ledger.Transaction) *TransactionEvent {
	event := &TransactionEvent{
		WalletAddress:   address,
		Signature:       txn.Signature,
		FeeLamports:     txn.Fee,
		NativeTransfers: len(txn.NativeTransfers),
		TokenTransfers:  len(txn.TokenTransfers),
		PublishedAt:     time.Now().UTC(),
	}
	if txn.Timestamp != 0 {
		event.Timestamp = time.Unix(txn.Timestamp, 0).UTC()
	}
	return event
}
