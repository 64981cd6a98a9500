package ledger

import (
	"github.com/shopspring/decimal"
)

// AssetBalance accumulates the inflow and outflow of one asset within
// a single transaction. SOL totals are accumulated in lamports and
// converted to whole SOL only when rows are rendered.
type AssetBalance struct {
	In  decimal.Decimal
	Out decimal.Decimal
}

// Balances holds per-asset totals for one transaction, preserving
// first-seen asset order so output rows are deterministic.
type Balances struct {
	order   []string
	byAsset map[string]*AssetBalance
}

// Assets returns the asset keys in first-seen order.
func (b *Balances) Assets() []string {
	return b.order
}

// Get returns the balance for an asset, or nil if the asset never
// moved in this transaction.
func (b *Balances) Get(asset string) *AssetBalance {
	return b.byAsset[asset]
}

// Len returns the number of distinct assets that moved.
func (b *Balances) Len() int {
	return len(b.order)
}

func (b *Balances) balance(asset string) *AssetBalance {
	if bal, ok := b.byAsset[asset]; ok {
		return bal
	}
	bal := &AssetBalance{In: decimal.Zero, Out: decimal.Zero}
	b.byAsset[asset] = bal
	b.order = append(b.order, asset)
	return bal
}

// Aggregate folds all qualifying transfer legs of txn into per-asset
// inflow/outflow totals relative to the subject address.
func (c *Converter) Aggregate(address string, txn *Transaction) *Balances {
	balances := &Balances{byAsset: make(map[string]*AssetBalance)}
	for _, leg := range c.Legs(address, txn) {
		bal := balances.balance(leg.Asset)
		switch leg.Direction {
		case DirectionIn:
			bal.In = bal.In.Add(leg.Amount)
		case DirectionOut:
			bal.Out = bal.Out.Add(leg.Amount)
		}
	}
	return balances
}
