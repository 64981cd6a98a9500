package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/brojonat/soltally/service/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRows_HeaderAlwaysPresent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, nil))
	assert.Equal(t, "Date,Transaction Hash,Asset,Amount_IN,Amount_OUT,Fee (SOL)\n", buf.String())
}

func TestWriteRows_RowsInOrder(t *testing.T) {
	rows := []ledger.Row{
		{Date: "2023-11-14T22:13:20Z", Signature: "sig1", Asset: "SOL", AmountIn: "0", AmountOut: "0.01", Fee: "0.000005"},
		{Date: "", Signature: "sig2", Asset: "SOL", AmountIn: "1", AmountOut: "0", Fee: "0"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, rows))

	want := "Date,Transaction Hash,Asset,Amount_IN,Amount_OUT,Fee (SOL)\n" +
		"2023-11-14T22:13:20Z,sig1,SOL,0,0.01,0.000005\n" +
		",sig2,SOL,1,0,0\n"
	assert.Equal(t, want, buf.String())
}

func TestCorpusRoundTrip(t *testing.T) {
	corpus := ledger.Corpus{
		"addr1": {
			{
				Signature: "sig1",
				Timestamp: 1700000000,
				Fee:       5000,
				NativeTransfers: []ledger.NativeTransfer{
					{FromUserAccount: "addr1", ToUserAccount: "addr2", Amount: 10000000},
				},
				TokenTransfers: []ledger.TokenTransfer{
					{FromUserAccount: "addr2", ToUserAccount: "addr1", Mint: "m1", TokenAmount: "12.5"},
				},
			},
		},
		"addr2": {},
	}

	path := filepath.Join(t.TempDir(), "out", "corpus.json")
	require.NoError(t, WriteCorpus(path, corpus))

	got, err := ReadCorpus(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, got["addr1"], 1)
	assert.Equal(t, "sig1", got["addr1"][0].Signature)
	assert.Equal(t, ledger.TokenAmount("12.5"), got["addr1"][0].TokenTransfers[0].TokenAmount)
}

func TestWriteCorpus_EmptyAddressIsList(t *testing.T) {
	corpus := ledger.Corpus{"addr1": []ledger.Transaction{}}

	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, WriteCorpus(path, corpus))

	// An address with no history must serialize as an empty list, not
	// null.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"addr1": []`)
	assert.NotContains(t, string(data), "null")
}

func TestReadCorpus_MissingFile(t *testing.T) {
	_, err := ReadCorpus(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestReadCorpus_TokenAmountAsNumber(t *testing.T) {
	// Corpora written by other tooling may carry tokenAmount as a JSON
	// number rather than a string.
	path := filepath.Join(t.TempDir(), "corpus.json")
	data := `{"addr1":[{"signature":"s1","tokenTransfers":[{"fromUserAccount":"a","toUserAccount":"b","mint":"m","tokenAmount":3.25}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	corpus, err := ReadCorpus(path)
	require.NoError(t, err)
	assert.Equal(t, ledger.TokenAmount("3.25"), corpus["addr1"][0].TokenTransfers[0].TokenAmount)
}
