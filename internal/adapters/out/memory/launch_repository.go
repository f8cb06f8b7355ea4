// internal/adapters/out/memory/launch_repository.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	launchdom "launchpad/internal/domain/launch"
)

// LaunchRepository keeps records in process memory. It backs the API when
// neither Firestore nor Postgres is configured.
type LaunchRepository struct {
	mu   sync.RWMutex
	byID map[string]launchdom.Record
}

func NewLaunchRepository() *LaunchRepository {
	return &LaunchRepository{byID: make(map[string]launchdom.Record)}
}

func (r *LaunchRepository) Create(_ context.Context, rec launchdom.Record) (launchdom.Record, error) {
	mint := strings.TrimSpace(rec.Mint)
	if mint == "" {
		return launchdom.Record{}, launchdom.ErrInvalidMint
	}
	rec.ID = mint
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[mint]; ok {
		return launchdom.Record{}, launchdom.ErrAlreadyExists
	}
	r.byID[mint] = rec
	return rec, nil
}

func (r *LaunchRepository) GetByMint(_ context.Context, mint string) (launchdom.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[strings.TrimSpace(mint)]
	if !ok {
		return launchdom.Record{}, launchdom.ErrNotFound
	}
	return rec, nil
}

func (r *LaunchRepository) ListByCreator(_ context.Context, creator string, limit int) ([]launchdom.Record, error) {
	c := strings.TrimSpace(creator)

	r.mu.RLock()
	out := make([]launchdom.Record, 0, len(r.byID))
	for _, rec := range r.byID {
		if c == "" || rec.Creator == c {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Mint < out[j].Mint
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n := launchdom.NormalizeLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}
