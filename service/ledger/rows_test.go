package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows_NativeOutflowWithFee(t *testing.T) {
	conv := NewConverter(0)

	txn := &Transaction{
		Signature: "sig1",
		Timestamp: 1700000000,
		Fee:       5_000,
		NativeTransfers: []NativeTransfer{
			{FromUserAccount: subjectAddr, ToUserAccount: otherAddr, Amount: 10_000_000},
		},
	}

	rows := conv.Rows(subjectAddr, txn)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "2023-11-14T22:13:20Z", row.Date)
	assert.Equal(t, "sig1", row.Signature)
	assert.Equal(t, AssetSOL, row.Asset)
	assert.Equal(t, "0", row.AmountIn)
	assert.Equal(t, "0.01", row.AmountOut)
	assert.Equal(t, "0.000005", row.Fee)
}

func TestRows_DustOnlyTransactionEmitsNothing(t *testing.T) {
	conv := NewConverter(0)

	txn := &Transaction{
		Signature: "sig2",
		Timestamp: 1700000000,
		NativeTransfers: []NativeTransfer{
			{FromUserAccount: otherAddr, ToUserAccount: subjectAddr, Amount: 4_000},
		},
	}

	assert.Empty(t, conv.Rows(subjectAddr, txn))
}

func TestRows_ZeroTokenAmountEmitsNothing(t *testing.T) {
	conv := NewConverter(0)

	txn := &Transaction{
		Signature: "sig3",
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: otherAddr, ToUserAccount: subjectAddr, Mint: usdcMint, TokenAmount: "0"},
		},
	}

	assert.Empty(t, conv.Rows(subjectAddr, txn))
}

func TestRows_MissingTimestampYieldsEmptyDate(t *testing.T) {
	conv := NewConverter(0)

	txn := &Transaction{
		Signature: "sig4",
		NativeTransfers: []NativeTransfer{
			{FromUserAccount: otherAddr, ToUserAccount: subjectAddr, Amount: 1_000_000},
		},
	}

	rows := conv.Rows(subjectAddr, txn)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Date)
}

func TestRows_FeeRepeatedOnEveryRow(t *testing.T) {
	conv := NewConverter(0)

	txn := &Transaction{
		Signature: "sig5",
		Fee:       10_000,
		NativeTransfers: []NativeTransfer{
			{FromUserAccount: subjectAddr, ToUserAccount: otherAddr, Amount: 50_000_000},
		},
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: subjectAddr, ToUserAccount: otherAddr, Mint: usdcMint, TokenAmount: "3"},
		},
	}

	rows := conv.Rows(subjectAddr, txn)
	require.Len(t, rows, 2)
	assert.Equal(t, "0.00001", rows[0].Fee)
	assert.Equal(t, rows[0].Fee, rows[1].Fee)
}

func TestRows_Record(t *testing.T) {
	row := Row{
		Date:      "2023-11-14T22:13:20Z",
		Signature: "sig",
		Asset:     AssetSOL,
		AmountIn:  "1",
		AmountOut: "0",
		Fee:       "0.000005",
	}
	assert.Equal(t, []string{"2023-11-14T22:13:20Z", "sig", "SOL", "1", "0", "0.000005"}, row.Record())
	assert.Len(t, CSVHeader, len(row.Record()))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name string
		in   decimal.Decimal
		want string
	}{
		{"zero", decimal.Zero, "0"},
		{"whole", decimal.NewFromInt(5), "5"},
		{"strips trailing zeros", decimal.RequireFromString("0.010000000"), "0.01"},
		{"keeps nine digits", decimal.RequireFromString("0.000000001"), "0.000000001"},
		{"rounds below resolution", decimal.RequireFromString("0.0000000001"), "0"},
		{"large", decimal.RequireFromString("12345.6789"), "12345.6789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.in))
		})
	}
}

func TestFormatAmount_RoundTripWithinTolerance(t *testing.T) {
	values := []string{"0.01", "1.234567891", "42", "0.000005", "999999.999999999"}
	tolerance := decimal.RequireFromString("0.000000001")

	for _, v := range values {
		orig := decimal.RequireFromString(v)
		parsed := decimal.RequireFromString(FormatAmount(orig))
		diff := orig.Sub(parsed).Abs()
		assert.True(t, diff.LessThanOrEqual(tolerance), "value %s drifted by %s", v, diff)
	}
}

func TestLamportsToSOL(t *testing.T) {
	assert.Equal(t, "0.000005", FormatAmount(LamportsToSOL(5_000)))
	assert.Equal(t, "1", FormatAmount(LamportsToSOL(1_000_000_000)))
	assert.Equal(t, "0", FormatAmount(LamportsToSOL(0)))
}
