package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	launchdom "launchpad/internal/domain/launch"
)

// LaunchSchema creates the launches table when it does not exist.
const LaunchSchema = `
CREATE TABLE IF NOT EXISTS launches (
  mint         TEXT PRIMARY KEY,
  signature    TEXT NOT NULL,
  name         TEXT NOT NULL,
  symbol       TEXT NOT NULL,
  metadata_uri TEXT NOT NULL DEFAULT '',
  image_uri    TEXT NOT NULL DEFAULT '',
  creator      TEXT NOT NULL,
  cluster      TEXT NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS launches_creator_created_at_idx ON launches (creator, created_at DESC);
`

type LaunchRepositoryPG struct {
	DB *sql.DB
}

func NewLaunchRepositoryPG(db *sql.DB) *LaunchRepositoryPG {
	return &LaunchRepositoryPG{DB: db}
}

// Migrate applies LaunchSchema.
func (r *LaunchRepositoryPG) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, LaunchSchema)
	return err
}

// ========================================
// launch.Repository implementation
// ========================================

func (r *LaunchRepositoryPG) Create(ctx context.Context, rec launchdom.Record) (launchdom.Record, error) {
	mint := strings.TrimSpace(rec.Mint)
	if mint == "" {
		return launchdom.Record{}, launchdom.ErrInvalidMint
	}
	createdAt := rec.CreatedAt.UTC()
	if rec.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	const q = `
INSERT INTO launches (
  mint, signature, name, symbol, metadata_uri, image_uri, creator, cluster, created_at
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, $9
)
RETURNING
  mint, signature, name, symbol, metadata_uri, image_uri, creator, cluster, created_at
`
	row := r.DB.QueryRowContext(ctx, q,
		mint,
		strings.TrimSpace(rec.Signature),
		rec.Name,
		rec.Symbol,
		rec.MetadataURI,
		rec.ImageURI,
		strings.TrimSpace(rec.Creator),
		rec.Cluster,
		createdAt,
	)
	out, err := scanLaunch(row)
	if err != nil {
		if isUniqueViolation(err) {
			return launchdom.Record{}, launchdom.ErrAlreadyExists
		}
		return launchdom.Record{}, err
	}
	return out, nil
}

func (r *LaunchRepositoryPG) GetByMint(ctx context.Context, mint string) (launchdom.Record, error) {
	const q = `
SELECT
  mint, signature, name, symbol, metadata_uri, image_uri, creator, cluster, created_at
FROM launches
WHERE mint = $1
LIMIT 1`
	out, err := scanLaunch(r.DB.QueryRowContext(ctx, q, strings.TrimSpace(mint)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return launchdom.Record{}, launchdom.ErrNotFound
		}
		return launchdom.Record{}, err
	}
	return out, nil
}

func (r *LaunchRepositoryPG) ListByCreator(ctx context.Context, creator string, limit int) ([]launchdom.Record, error) {
	const q = `
SELECT
  mint, signature, name, symbol, metadata_uri, image_uri, creator, cluster, created_at
FROM launches
WHERE ($1 = '' OR creator = $1)
ORDER BY created_at DESC, mint ASC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, q, strings.TrimSpace(creator), launchdom.NormalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]launchdom.Record, 0)
	for rows.Next() {
		rec, err := scanLaunch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ========================================
// helpers
// ========================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLaunch(s rowScanner) (launchdom.Record, error) {
	var rec launchdom.Record
	if err := s.Scan(
		&rec.Mint,
		&rec.Signature,
		&rec.Name,
		&rec.Symbol,
		&rec.MetadataURI,
		&rec.ImageURI,
		&rec.Creator,
		&rec.Cluster,
		&rec.CreatedAt,
	); err != nil {
		return launchdom.Record{}, err
	}
	rec.ID = rec.Mint
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
