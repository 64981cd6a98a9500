package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// amountPrecision is the number of fractional digits rendered before
// trailing zeros are stripped. It matches lamport resolution.
const amountPrecision = 9

// CSVHeader is the fixed column order of the accounting output.
var CSVHeader = []string{"Date", "Transaction Hash", "Asset", "Amount_IN", "Amount_OUT", "Fee (SOL)"}

// Row is one line of accounting output. All amounts are formatted
// strings; the fee is transaction-scoped and repeated on every row of
// the same transaction.
type Row struct {
	Date      string
	Signature string
	Asset     string
	AmountIn  string
	AmountOut string
	Fee       string
}

// Record returns the row fields in CSVHeader order.
func (r Row) Record() []string {
	return []string{r.Date, r.Signature, r.Asset, r.AmountIn, r.AmountOut, r.Fee}
}

// Rows maps one transaction's aggregated balances into zero or more
// output rows, one per asset with net movement. A row is emitted only
// if at least one of in/out is strictly positive after dust filtering.
func (c *Converter) Rows(address string, txn *Transaction) []Row {
	date := ""
	if txn.Timestamp != 0 {
		date = time.Unix(txn.Timestamp, 0).UTC().Format(time.RFC3339)
	}
	fee := FormatAmount(LamportsToSOL(txn.Fee))

	balances := c.Aggregate(address, txn)
	if balances.Len() == 0 {
		return nil
	}

	rows := make([]Row, 0, balances.Len())
	for _, asset := range balances.Assets() {
		bal := balances.Get(asset)
		in, out := bal.In, bal.Out
		if in.IsZero() && out.IsZero() {
			continue
		}
		if asset == AssetSOL {
			in = lamportsDecimalToSOL(in)
			out = lamportsDecimalToSOL(out)
		}
		rows = append(rows, Row{
			Date:      date,
			Signature: txn.Signature,
			Asset:     asset,
			AmountIn:  FormatAmount(in),
			AmountOut: FormatAmount(out),
			Fee:       fee,
		})
	}
	return rows
}

// LamportsToSOL converts an integer lamport amount to whole SOL.
func LamportsToSOL(lamports int64) decimal.Decimal {
	return decimal.New(lamports, -amountPrecision)
}

func lamportsDecimalToSOL(lamports decimal.Decimal) decimal.Decimal {
	return lamports.Shift(-amountPrecision)
}

// FormatAmount renders an amount with nine fractional digits, then
// strips trailing zeros and a trailing decimal point. An all-zero
// amount formats as "0".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(amountPrecision)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "" || s == "-0" {
		return "0"
	}
	return s
}
