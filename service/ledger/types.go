package ledger

import (
	"bytes"
	"encoding/json"
)

// Transaction is one enhanced transaction record as reported by the
// indexing API. Records are immutable once fetched; the conversion
// pipeline only reads them.
type Transaction struct {
	Signature string `json:"signature"`

	// Timestamp is the block time in Unix seconds. Zero is the
	// sentinel for "provider reported no block time"; consumers render
	// an empty date for it. No real block carries an epoch-zero time.
	Timestamp       int64            `json:"timestamp,omitempty"`
	Fee             int64            `json:"fee,omitempty"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers,omitempty"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers,omitempty"`
}

// NativeTransfer is one directional SOL movement, amount in lamports.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// TokenTransfer is one directional SPL token movement. TokenAmount is
// the provider's decimal rendering of the amount in whole token units.
type TokenTransfer struct {
	FromUserAccount string      `json:"fromUserAccount"`
	ToUserAccount   string      `json:"toUserAccount"`
	Mint            string      `json:"mint"`
	TokenAmount     TokenAmount `json:"tokenAmount"`
}

// TokenAmount carries a token amount as reported on the wire.
// Providers disagree on whether it is a JSON number or a JSON string,
// so it unmarshals from either and preserves the textual form.
type TokenAmount string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (a *TokenAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = TokenAmount(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = TokenAmount(n.String())
	return nil
}

// MarshalJSON renders the amount as a JSON string to avoid re-encoding
// it through a float.
func (a TokenAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

// Corpus maps a wallet address to its fetched transactions, newest
// first. It is the intermediate artifact between the fetch and
// conversion stages.
type Corpus map[string][]Transaction
