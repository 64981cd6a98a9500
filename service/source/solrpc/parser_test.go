package solrpc

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testFrom = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testTo   = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testMint = solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
	testAuth = solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
)

func systemTransferData(lamports uint64) []byte {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], SystemProgramTransferInstruction)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return data
}

func transferCheckedData(amount uint64, decimals uint8) []byte {
	data := make([]byte, 10)
	data[0] = TokenProgramTransferCheckedInstruction
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals
	return data
}

func TestParseSystemTransfer(t *testing.T) {
	keys := []solana.PublicKey{testFrom, testTo, SystemProgramID}
	instruction := solana.CompiledInstruction{
		ProgramIDIndex: 2,
		Accounts:       []uint16{0, 1},
		Data:           systemTransferData(1_000_000_000),
	}

	transfer, err := parseSystemTransfer(instruction, keys)
	require.NoError(t, err)
	assert.Equal(t, testFrom.String(), transfer.FromUserAccount)
	assert.Equal(t, testTo.String(), transfer.ToUserAccount)
	assert.Equal(t, int64(1_000_000_000), transfer.Amount)
}

func TestParseSystemTransfer_WrongInstructionType(t *testing.T) {
	data := systemTransferData(1_000)
	binary.LittleEndian.PutUint32(data[0:4], 99)

	instruction := solana.CompiledInstruction{
		Accounts: []uint16{0, 1},
		Data:     data,
	}

	_, err := parseSystemTransfer(instruction, []solana.PublicKey{testFrom, testTo})
	require.Error(t, err)
}

func TestParseSystemTransfer_ShortData(t *testing.T) {
	instruction := solana.CompiledInstruction{
		Accounts: []uint16{0, 1},
		Data:     []byte{2, 0},
	}

	_, err := parseSystemTransfer(instruction, []solana.PublicKey{testFrom, testTo})
	require.Error(t, err)
}

func TestParseTokenTransferChecked(t *testing.T) {
	// Account layout: [source, mint, destination, authority]
	keys := []solana.PublicKey{testFrom, testMint, testTo, testAuth, TokenProgramID}
	instruction := solana.CompiledInstruction{
		ProgramIDIndex: 4,
		Accounts:       []uint16{0, 1, 2, 3},
		Data:           transferCheckedData(12_500_000, 6),
	}

	transfer, err := parseTokenTransferChecked(instruction, keys)
	require.NoError(t, err)
	assert.Equal(t, testMint.String(), transfer.Mint)
	assert.Equal(t, testAuth.String(), transfer.FromUserAccount)
	assert.Equal(t, testTo.String(), transfer.ToUserAccount)
	// Amount is rendered in whole token units per the mint's decimals.
	assert.Equal(t, "12.5", string(transfer.TokenAmount))
}

func TestParseTokenTransferChecked_PlainTransferSkipped(t *testing.T) {
	// The plain Transfer instruction (type 3) carries no mint or
	// decimals, so it cannot be scaled and is rejected.
	data := make([]byte, 9)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:9], 1_000)

	instruction := solana.CompiledInstruction{
		Accounts: []uint16{0, 1, 2, 3},
		Data:     data,
	}

	_, err := parseTokenTransferChecked(instruction, []solana.PublicKey{testFrom, testMint, testTo, testAuth})
	require.Error(t, err)
}

func TestParseTokenTransferChecked_AccountIndexOutOfBounds(t *testing.T) {
	instruction := solana.CompiledInstruction{
		Accounts: []uint16{0, 9, 2, 3},
		Data:     transferCheckedData(100, 2),
	}

	_, err := parseTokenTransferChecked(instruction, []solana.PublicKey{testFrom, testMint, testTo, testAuth})
	require.Error(t, err)
}
