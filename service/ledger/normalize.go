package ledger

import (
	"github.com/shopspring/decimal"
)

const (
	// AssetSOL is the asset key for native currency movements.
	AssetSOL = "SOL"

	// AssetUnknown is the asset key for token transfers that carry no
	// mint identifier.
	AssetUnknown = "UNKNOWN"

	// DefaultDustThresholdLamports filters rent and other technical
	// dust that is not meaningful for accounting (0.000005 SOL).
	DefaultDustThresholdLamports = 5_000

	// LamportsPerSOL is the number of lamports in one SOL.
	LamportsPerSOL = 1_000_000_000
)

// Direction of a transfer leg relative to the subject wallet.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
)

// Leg is one qualifying movement of a single asset relative to the
// subject wallet. SOL amounts are kept in lamports until output time;
// token amounts are in whole token units.
type Leg struct {
	Asset     string
	Direction Direction
	Amount    decimal.Decimal
}

// Converter turns raw transactions into accounting legs, balances and
// output rows for one subject wallet at a time.
type Converter struct {
	dustThreshold int64
}

// NewConverter creates a Converter. A dustThreshold of zero or less
// falls back to DefaultDustThresholdLamports.
func NewConverter(dustThreshold int64) *Converter {
	if dustThreshold <= 0 {
		dustThreshold = DefaultDustThresholdLamports
	}
	return &Converter{dustThreshold: dustThreshold}
}

// Legs extracts the qualifying transfer legs of txn relative to the
// subject address.
//
// Native transfers below the dust threshold are dropped entirely.
// Token amounts that fail to parse normalize to zero and are dropped;
// an amount must be strictly positive to count. A transfer from the
// subject to itself has no net effect and is dropped.
func (c *Converter) Legs(address string, txn *Transaction) []Leg {
	var legs []Leg

	for _, t := range txn.NativeTransfers {
		if t.Amount < c.dustThreshold {
			continue
		}
		if t.FromUserAccount == address && t.ToUserAccount == address {
			continue
		}
		amount := decimal.NewFromInt(t.Amount)
		if t.FromUserAccount == address {
			legs = append(legs, Leg{Asset: AssetSOL, Direction: DirectionOut, Amount: amount})
		}
		if t.ToUserAccount == address {
			legs = append(legs, Leg{Asset: AssetSOL, Direction: DirectionIn, Amount: amount})
		}
	}

	for _, t := range txn.TokenTransfers {
		amount := parseTokenAmount(t.TokenAmount)
		if !amount.IsPositive() {
			continue
		}
		if t.FromUserAccount == address && t.ToUserAccount == address {
			continue
		}
		asset := t.Mint
		if asset == "" {
			asset = AssetUnknown
		}
		if t.FromUserAccount == address {
			legs = append(legs, Leg{Asset: asset, Direction: DirectionOut, Amount: amount})
		}
		if t.ToUserAccount == address {
			legs = append(legs, Leg{Asset: asset, Direction: DirectionIn, Amount: amount})
		}
	}

	return legs
}

// parseTokenAmount parses a provider-formatted token amount. Malformed
// values normalize to zero so a single bad field never fails the whole
// transaction.
func parseTokenAmount(raw TokenAmount) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}
