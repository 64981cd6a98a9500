package solrpc

import (
	"encoding/binary"
	"fmt"

	"github.com/brojonat/soltally/service/ledger"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// Well-known Solana program IDs
var (
	// SystemProgramID is the native SOL transfer program
	SystemProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111112")

	// TokenProgramID is the SPL Token program
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Token2022ProgramID is the Token Extensions program (Token-2022)
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// System Program instruction types
const (
	SystemProgramTransferInstruction = uint32(2)
)

// Token Program instruction types
const (
	TokenProgramTransferCheckedInstruction = uint8(12)
)

// parseTransaction converts a GetTransactionResult into the common
// transaction record shape, reconstructing native and token transfer
// legs from the instruction list.
func parseTransaction(signature string, result *rpc.GetTransactionResult) (*ledger.Transaction, error) {
	txn := &ledger.Transaction{Signature: signature}

	if result.BlockTime != nil {
		txn.Timestamp = int64(*result.BlockTime)
	}
	if result.Meta != nil {
		txn.Fee = int64(result.Meta.Fee)
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	accountKeys := tx.Message.AccountKeys
	for _, instruction := range tx.Message.Instructions {
		if int(instruction.ProgramIDIndex) >= len(accountKeys) {
			continue
		}
		programID := accountKeys[instruction.ProgramIDIndex]

		if programID.Equals(SystemProgramID) {
			if transfer, err := parseSystemTransfer(instruction, accountKeys); err == nil {
				txn.NativeTransfers = append(txn.NativeTransfers, transfer)
			}
		}

		if programID.Equals(TokenProgramID) || programID.Equals(Token2022ProgramID) {
			if transfer, err := parseTokenTransferChecked(instruction, accountKeys); err == nil {
				txn.TokenTransfers = append(txn.TokenTransfers, transfer)
			}
		}
	}

	return txn, nil
}

// parseSystemTransfer extracts a native transfer leg from a System
// Program Transfer instruction.
func parseSystemTransfer(instruction solana.CompiledInstruction, accountKeys []solana.PublicKey) (ledger.NativeTransfer, error) {
	// System Transfer instruction format:
	// [0..4]  = instruction type (u32, 2 = Transfer)
	// [4..12] = lamports (u64)
	if len(instruction.Data) < 12 {
		return ledger.NativeTransfer{}, fmt.Errorf("instruction data too short: %d bytes", len(instruction.Data))
	}

	instructionType := binary.LittleEndian.Uint32(instruction.Data[0:4])
	if instructionType != SystemProgramTransferInstruction {
		return ledger.NativeTransfer{}, fmt.Errorf("not a transfer instruction: type %d", instructionType)
	}

	amount := binary.LittleEndian.Uint64(instruction.Data[4:12])

	// Account layout: [from, to]
	if len(instruction.Accounts) < 2 {
		return ledger.NativeTransfer{}, fmt.Errorf("transfer missing accounts")
	}
	from, ok := accountAt(instruction.Accounts[0], accountKeys)
	if !ok {
		return ledger.NativeTransfer{}, fmt.Errorf("from account index out of bounds")
	}
	to, ok := accountAt(instruction.Accounts[1], accountKeys)
	if !ok {
		return ledger.NativeTransfer{}, fmt.Errorf("to account index out of bounds")
	}

	return ledger.NativeTransfer{
		FromUserAccount: from.String(),
		ToUserAccount:   to.String(),
		Amount:          int64(amount),
	}, nil
}

// parseTokenTransferChecked extracts a token transfer leg from an SPL
// TransferChecked instruction. The plain Transfer instruction (type 3)
// does not carry the mint or decimals on the wire, so its amount scale
// cannot be recovered here; those legs are skipped.
func parseTokenTransferChecked(instruction solana.CompiledInstruction, accountKeys []solana.PublicKey) (ledger.TokenTransfer, error) {
	// TransferChecked instruction format:
	// [0]    = instruction type (u8, 12 = TransferChecked)
	// [1..9] = amount (u64)
	// [9]    = decimals (u8)
	if len(instruction.Data) < 10 {
		return ledger.TokenTransfer{}, fmt.Errorf("instruction data too short")
	}
	if instruction.Data[0] != TokenProgramTransferCheckedInstruction {
		return ledger.TokenTransfer{}, fmt.Errorf("not a transferChecked instruction: type %d", instruction.Data[0])
	}

	amount := binary.LittleEndian.Uint64(instruction.Data[1:9])
	decimals := instruction.Data[9]

	// Account layout: [source_token_account, mint, destination_token_account, authority]
	if len(instruction.Accounts) < 4 {
		return ledger.TokenTransfer{}, fmt.Errorf("transferChecked missing accounts")
	}
	mint, ok := accountAt(instruction.Accounts[1], accountKeys)
	if !ok {
		return ledger.TokenTransfer{}, fmt.Errorf("mint account index out of bounds")
	}
	dest, ok := accountAt(instruction.Accounts[2], accountKeys)
	if !ok {
		return ledger.TokenTransfer{}, fmt.Errorf("destination account index out of bounds")
	}
	// The authority is the wallet that signed, so it stands in for the
	// sending user account.
	authority, ok := accountAt(instruction.Accounts[3], accountKeys)
	if !ok {
		return ledger.TokenTransfer{}, fmt.Errorf("authority account index out of bounds")
	}

	uiAmount := decimal.New(int64(amount), -int32(decimals))

	return ledger.TokenTransfer{
		FromUserAccount: authority.String(),
		ToUserAccount:   dest.String(),
		Mint:            mint.String(),
		TokenAmount:     ledger.TokenAmount(uiAmount.String()),
	}, nil
}

func accountAt(index uint16, accountKeys []solana.PublicKey) (solana.PublicKey, bool) {
	if int(index) >= len(accountKeys) {
		return solana.PublicKey{}, false
	}
	return accountKeys[index], true
}
