// internal/infra/solana/transaction.go
package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

var ErrSignerNotRequired = errors.New("solana: wallet is not a required signer")

// MessageSigner is a wallet that signs serialized messages without exposing its key.
type MessageSigner interface {
	PublicKey() common.PublicKey
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// NewSignedTransaction builds a transaction paid by the wallet, signs it with the
// local signers first and asks the wallet for its signature last.
func NewSignedTransaction(
	ctx context.Context,
	wallet MessageSigner,
	recentBlockhash string,
	instructions []types.Instruction,
	localSigners ...types.Account,
) (types.Transaction, error) {
	msg := types.NewMessage(types.NewMessageParam{
		FeePayer:        wallet.PublicKey(),
		RecentBlockhash: recentBlockhash,
		Instructions:    instructions,
	})

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: msg,
		Signers: localSigners,
	})
	if err != nil {
		return types.Transaction{}, fmt.Errorf("NewTransaction: %w", err)
	}

	data, err := tx.Message.Serialize()
	if err != nil {
		return types.Transaction{}, fmt.Errorf("serialize message: %w", err)
	}

	idx := -1
	for i := 0; i < int(tx.Message.Header.NumRequireSignatures) && i < len(tx.Message.Accounts); i++ {
		if tx.Message.Accounts[i] == wallet.PublicKey() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return types.Transaction{}, ErrSignerNotRequired
	}

	sig, err := wallet.SignMessage(ctx, data)
	if err != nil {
		return types.Transaction{}, err
	}
	tx.Signatures[idx] = sig
	return tx, nil
}
