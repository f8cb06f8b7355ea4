// internal/domain/launch/repository_port.go
package launch

import "context"

// ------------------------------------------------------
// Repository Port for Record (launches)
// ------------------------------------------------------
//
// Firestore / Postgres / memory の具体実装は adapters/out 側に置き、
// usecase からはこのインターフェースのみを参照します。

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Repository は launches への永続化を担当するポートです。
type Repository interface {
	// Create:
	// - 同じ Mint が既に存在する場合は ErrAlreadyExists を返します。
	Create(ctx context.Context, r Record) (Record, error)

	// GetByMint:
	// - 存在しない場合は ErrNotFound を返します。
	GetByMint(ctx context.Context, mint string) (Record, error)

	// ListByCreator:
	// - creator が空の場合は全件を新しい順で返します。
	ListByCreator(ctx context.Context, creator string, limit int) ([]Record, error)
}

// NormalizeLimit clamps a list limit into (0, MaxListLimit].
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
