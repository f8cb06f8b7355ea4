// internal/adapters/out/firestore/launch_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	launchdom "launchpad/internal/domain/launch"
)

// =====================================================
// Firestore Launch Repository
// launches/{mint}
// =====================================================

type LaunchRepositoryFS struct {
	Client     *firestore.Client
	Collection string
}

func NewLaunchRepositoryFS(client *firestore.Client, collection string) *LaunchRepositoryFS {
	c := strings.TrimSpace(collection)
	if c == "" {
		c = "launches"
	}
	return &LaunchRepositoryFS{Client: client, Collection: c}
}

func (r *LaunchRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

func (r *LaunchRepositoryFS) Create(ctx context.Context, rec launchdom.Record) (launchdom.Record, error) {
	if r.Client == nil {
		return launchdom.Record{}, errors.New("firestore client is nil")
	}

	mint := strings.TrimSpace(rec.Mint)
	if mint == "" {
		return launchdom.Record{}, launchdom.ErrInvalidMint
	}
	rec.ID = mint
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if _, err := r.col().Doc(mint).Create(ctx, recordToDoc(rec)); err != nil {
		if grpcstatus.Code(err) == codes.AlreadyExists {
			return launchdom.Record{}, launchdom.ErrAlreadyExists
		}
		return launchdom.Record{}, err
	}
	return rec, nil
}

func (r *LaunchRepositoryFS) GetByMint(ctx context.Context, mint string) (launchdom.Record, error) {
	if r.Client == nil {
		return launchdom.Record{}, errors.New("firestore client is nil")
	}

	id := strings.TrimSpace(mint)
	if id == "" {
		return launchdom.Record{}, launchdom.ErrNotFound
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if grpcstatus.Code(err) == codes.NotFound {
		return launchdom.Record{}, launchdom.ErrNotFound
	}
	if err != nil {
		return launchdom.Record{}, err
	}
	return docToRecord(snap)
}

// ListByCreator は createdAt の新しい順に返します。
// creator 指定時は (creator, createdAt desc) の複合インデックスが必要です。
func (r *LaunchRepositoryFS) ListByCreator(ctx context.Context, creator string, limit int) ([]launchdom.Record, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	q := r.col().Query
	if c := strings.TrimSpace(creator); c != "" {
		q = q.Where("creator", "==", c)
	}
	it := q.OrderBy("createdAt", firestore.Desc).
		Limit(launchdom.NormalizeLimit(limit)).
		Documents(ctx)
	defer it.Stop()

	out := make([]launchdom.Record, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := docToRecord(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// =====================================================
// mapping
// =====================================================

type launchDoc struct {
	Mint        string    `firestore:"mint"`
	Signature   string    `firestore:"signature"`
	Name        string    `firestore:"name"`
	Symbol      string    `firestore:"symbol"`
	MetadataURI string    `firestore:"metadataUri"`
	ImageURI    string    `firestore:"imageUri"`
	Creator     string    `firestore:"creator"`
	Cluster     string    `firestore:"cluster"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

func recordToDoc(rec launchdom.Record) launchDoc {
	return launchDoc{
		Mint:        rec.Mint,
		Signature:   rec.Signature,
		Name:        rec.Name,
		Symbol:      rec.Symbol,
		MetadataURI: rec.MetadataURI,
		ImageURI:    rec.ImageURI,
		Creator:     rec.Creator,
		Cluster:     rec.Cluster,
		CreatedAt:   rec.CreatedAt.UTC(),
	}
}

func docToRecord(snap *firestore.DocumentSnapshot) (launchdom.Record, error) {
	var d launchDoc
	if err := snap.DataTo(&d); err != nil {
		return launchdom.Record{}, err
	}
	return d.toRecord(snap.Ref.ID), nil
}

// toRecord falls back to the document id for older docs without a mint field.
func (d launchDoc) toRecord(id string) launchdom.Record {
	mint := strings.TrimSpace(d.Mint)
	if mint == "" {
		mint = id
	}
	return launchdom.Record{
		ID:          id,
		Mint:        mint,
		Signature:   d.Signature,
		Name:        d.Name,
		Symbol:      d.Symbol,
		MetadataURI: d.MetadataURI,
		ImageURI:    d.ImageURI,
		Creator:     d.Creator,
		Cluster:     d.Cluster,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}
