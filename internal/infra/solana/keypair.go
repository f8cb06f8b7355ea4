// internal/infra/solana/keypair.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidKeypair = errors.New("solana: invalid keypair")
	ErrWalletRejected = errors.New("solana: wallet rejected the request")
)

// SecretAccessor は Secret Manager などから値を取り出す最小ポートです。
type SecretAccessor interface {
	Access(ctx context.Context, name string) ([]byte, error)
}

// DecodeKeypairJSON は solana-keygen の keypair JSON から 64 バイトの鍵配列を復元します。
// - 正: [u8;64] を []byte で受け取る
// - 互換: [int,...] を []int で受けてから []byte に変換
func DecodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("%w: unmarshal keypair json: %v", ErrInvalidKeypair, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeypair, len(ints), ed25519.PrivateKeySize)
	}

	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte out of range at %d: %d", ErrInvalidKeypair, i, v)
		}
		b[i] = byte(v)
	}
	return b, nil
}

// EncodeKeypairJSON writes the solana-keygen format ([n,n,...]).
func EncodeKeypairJSON(acc types.Account) ([]byte, error) {
	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

// AccountFromKeypairJSON decodes a keypair JSON and checks the embedded public key.
func AccountFromKeypairJSON(data []byte) (types.Account, error) {
	b, err := DecodeKeypairJSON(data)
	if err != nil {
		return types.Account{}, err
	}
	priv := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
	if string(priv[ed25519.SeedSize:]) != string(b[ed25519.SeedSize:]) {
		return types.Account{}, fmt.Errorf("%w: public key does not match seed", ErrInvalidKeypair)
	}
	acc, err := types.AccountFromBytes(b)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrInvalidKeypair, err)
	}
	return acc, nil
}

// LoadKeypairFile reads a keypair JSON file (~ expands to $HOME).
func LoadKeypairFile(path string) (types.Account, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return types.Account{}, fmt.Errorf("%w: path is empty", ErrInvalidKeypair)
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = home + p[1:]
		}
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return types.Account{}, fmt.Errorf("read keypair %s: %w", p, err)
	}
	return AccountFromKeypairJSON(data)
}

// LoadKeypairSecret restores a keypair stored as keypair JSON in a secret version,
// e.g. "projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest".
func LoadKeypairSecret(ctx context.Context, sm SecretAccessor, name string) (types.Account, error) {
	if sm == nil {
		return types.Account{}, fmt.Errorf("%w: secret accessor is nil", ErrInvalidKeypair)
	}
	data, err := sm.Access(ctx, name)
	if err != nil {
		return types.Account{}, fmt.Errorf("access keypair secret: %w", err)
	}
	acc, err := AccountFromKeypairJSON(data)
	if err != nil {
		return types.Account{}, err
	}

	log.WithFields(log.Fields{
		"secret": name,
		"pubkey": acc.PublicKey.ToBase58(),
	}).Info("[solana] loaded wallet keypair from Secret Manager")

	return acc, nil
}

// ============================================================
// KeypairWallet
// ============================================================

// Approver は署名前の確認です（CLI のプロンプトなど）。false で拒否。
type Approver func(ctx context.Context, message []byte) (bool, error)

// KeypairWallet signs with a local keypair, optionally asking an Approver first.
type KeypairWallet struct {
	account types.Account
	approve Approver
}

func NewKeypairWallet(acc types.Account, approve Approver) *KeypairWallet {
	return &KeypairWallet{account: acc, approve: approve}
}

func (w *KeypairWallet) PublicKey() common.PublicKey { return w.account.PublicKey }

func (w *KeypairWallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	if w.approve != nil {
		ok, err := w.approve(ctx, message)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrWalletRejected
		}
	}
	return w.account.Sign(message), nil
}
