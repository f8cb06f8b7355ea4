// internal/domain/launch/record.go
package launch

import (
	"errors"
	"strings"
	"time"

	"github.com/mr-tron/base58"
)

var (
	ErrNotFound         = errors.New("launch: record not found")
	ErrAlreadyExists    = errors.New("launch: record already exists")
	ErrInvalidMint      = errors.New("launch: invalid mint address")
	ErrInvalidSignature = errors.New("launch: invalid transaction signature")
	ErrInvalidCreator   = errors.New("launch: invalid creator address")
	ErrInvalidCreatedAt = errors.New("launch: invalid createdAt")
)

// Record は作成済みトークンの記録です（launches コレクション / テーブル）。
type Record struct {
	ID          string    `json:"id"`
	Mint        string    `json:"mint"`
	Signature   string    `json:"signature"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	MetadataURI string    `json:"metadataUri"`
	ImageURI    string    `json:"imageUri"`
	Creator     string    `json:"creator"`
	Cluster     string    `json:"cluster"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewRecord builds a record from a successful submission.
func NewRecord(res Result, f Form, creator, cluster string, now time.Time) Record {
	return Record{
		ID:          strings.TrimSpace(res.MintAddress),
		Mint:        strings.TrimSpace(res.MintAddress),
		Signature:   strings.TrimSpace(res.Signature),
		Name:        strings.TrimSpace(f.Name),
		Symbol:      strings.TrimSpace(f.Symbol),
		MetadataURI: res.MetadataURI,
		ImageURI:    res.ImageURI,
		Creator:     strings.TrimSpace(creator),
		Cluster:     strings.TrimSpace(cluster),
		CreatedAt:   now.UTC(),
	}
}

// Validate はエンティティの一貫性チェックです。
func (r Record) Validate() error {
	if !isBase58Len(r.Mint, 32) {
		return ErrInvalidMint
	}
	if !isBase58Len(r.Signature, 64) {
		return ErrInvalidSignature
	}
	if !isBase58Len(r.Creator, 32) {
		return ErrInvalidCreator
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return ErrNameRequired
	}
	if len([]rune(name)) > MaxNameLength {
		return ErrNameTooLong
	}
	symbol := strings.TrimSpace(r.Symbol)
	if symbol == "" {
		return ErrSymbolRequired
	}
	if len([]rune(symbol)) > MaxSymbolLength {
		return ErrSymbolTooLong
	}
	if r.CreatedAt.IsZero() {
		return ErrInvalidCreatedAt
	}
	return nil
}

func isBase58Len(s string, n int) bool {
	v := strings.TrimSpace(s)
	if v == "" {
		return false
	}
	b, err := base58.Decode(v)
	return err == nil && len(b) == n
}
