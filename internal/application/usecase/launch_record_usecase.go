// internal/application/usecase/launch_record_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	launchdom "launchpad/internal/domain/launch"
	"launchpad/internal/infra/logging"
)

// ============================================================
// Ports
// ============================================================

// LaunchVerifier は記録前に署名とミントをチェーン上で確認するポートです。
// 実装例: solana.ChainClient.VerifyLaunch
type LaunchVerifier interface {
	VerifyLaunch(ctx context.Context, mint, sig string) error
}

var (
	ErrLaunchRecordsNotConfigured = errors.New("usecase: launch records not configured")
	ErrLaunchNotConfirmed         = errors.New("usecase: launch not confirmed on chain")
)

// ============================================================
// Input DTO
// ============================================================

type CreateLaunchInput struct {
	Mint        string     `json:"mint"`
	Signature   string     `json:"signature"`
	Name        string     `json:"name"`
	Symbol      string     `json:"symbol"`
	MetadataURI string     `json:"metadataUri"`
	ImageURI    string     `json:"imageUri"`
	Creator     string     `json:"creator"`
	Cluster     string     `json:"cluster"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// ============================================================
// LaunchRecordUsecase
// ============================================================

type LaunchRecordUsecase struct {
	repo     launchdom.Repository
	verifier LaunchVerifier
	cluster  string
	now      func() time.Time
}

// NewLaunchRecordUsecase: verifier は nil 可（チェーン確認をスキップ）。
func NewLaunchRecordUsecase(repo launchdom.Repository, verifier LaunchVerifier, cluster string) *LaunchRecordUsecase {
	return &LaunchRecordUsecase{
		repo:     repo,
		verifier: verifier,
		cluster:  strings.TrimSpace(cluster),
		now:      time.Now,
	}
}

// SetClock is used by tests.
func (u *LaunchRecordUsecase) SetClock(now func() time.Time) {
	if now != nil {
		u.now = now
	}
}

// Create validates the record, confirms it on chain when a verifier is set,
// and stores it keyed by mint.
func (u *LaunchRecordUsecase) Create(ctx context.Context, in CreateLaunchInput) (launchdom.Record, error) {
	if u == nil || u.repo == nil {
		return launchdom.Record{}, ErrLaunchRecordsNotConfigured
	}

	createdAt := u.now().UTC()
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		createdAt = in.CreatedAt.UTC()
	}
	cluster := strings.TrimSpace(in.Cluster)
	if cluster == "" {
		cluster = u.cluster
	}

	mint := strings.TrimSpace(in.Mint)
	rec := launchdom.Record{
		ID:          mint,
		Mint:        mint,
		Signature:   strings.TrimSpace(in.Signature),
		Name:        strings.TrimSpace(in.Name),
		Symbol:      strings.TrimSpace(in.Symbol),
		MetadataURI: strings.TrimSpace(in.MetadataURI),
		ImageURI:    strings.TrimSpace(in.ImageURI),
		Creator:     strings.TrimSpace(in.Creator),
		Cluster:     cluster,
		CreatedAt:   createdAt,
	}
	if err := rec.Validate(); err != nil {
		return launchdom.Record{}, err
	}

	if u.verifier != nil {
		if err := u.verifier.VerifyLaunch(ctx, rec.Mint, rec.Signature); err != nil {
			return launchdom.Record{}, fmt.Errorf("%w: %v", ErrLaunchNotConfirmed, err)
		}
	}

	saved, err := u.repo.Create(ctx, rec)
	if err != nil {
		return launchdom.Record{}, err
	}

	log.WithFields(log.Fields{
		"mint":    logging.MaskShort(saved.Mint),
		"creator": logging.MaskShort(saved.Creator),
		"uid":     UIDFromContext(ctx),
	}).Info("[launches] recorded")
	return saved, nil
}

func (u *LaunchRecordUsecase) Get(ctx context.Context, mint string) (launchdom.Record, error) {
	if u == nil || u.repo == nil {
		return launchdom.Record{}, ErrLaunchRecordsNotConfigured
	}
	m := strings.TrimSpace(mint)
	if m == "" {
		return launchdom.Record{}, launchdom.ErrInvalidMint
	}
	return u.repo.GetByMint(ctx, m)
}

// List returns records newest first; creator "" lists every creator.
func (u *LaunchRecordUsecase) List(ctx context.Context, creator string, limit int) ([]launchdom.Record, error) {
	if u == nil || u.repo == nil {
		return nil, ErrLaunchRecordsNotConfigured
	}
	return u.repo.ListByCreator(ctx, strings.TrimSpace(creator), launchdom.NormalizeLimit(limit))
}
