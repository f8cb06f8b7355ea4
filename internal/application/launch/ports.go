// internal/application/launch/ports.go
package launch

import (
	"context"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	launchdom "launchpad/internal/domain/launch"
)

// ============================================================
// Storage port
// ============================================================

// Uploader は content-addressed storage への書き込みポートです。
// storage.Client（delegation / email）と gcs.ContentUploader が実装します。
type Uploader interface {
	UploadFile(ctx context.Context, f launchdom.File) (launchdom.StoredObject, error)
}

// ReadinessReporter is implemented by uploaders that need an init step.
type ReadinessReporter interface {
	Ready() bool
}

// ============================================================
// Chain port
// ============================================================

// ChainClient is implemented by solana.ChainClient.
type ChainClient interface {
	MinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
	LatestBlockhash(ctx context.Context) (string, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
	ConfirmTransaction(ctx context.Context, sig string) error
	VerifyLaunch(ctx context.Context, mint, sig string) error
}

// Wallet は接続済みウォレットです。秘密鍵は持たせず、署名だけを依頼します。
type Wallet interface {
	PublicKey() common.PublicKey
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// ============================================================
// Best-effort hooks (失敗してもトークン作成自体は成功扱い)
// ============================================================

type Recorder interface {
	Record(ctx context.Context, r launchdom.Record) error
}

type Notifier interface {
	NotifyLaunch(ctx context.Context, r launchdom.Record) error
}
