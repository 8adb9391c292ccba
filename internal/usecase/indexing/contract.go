package indexing

import (
	"context"
	"time"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/vector"
)

// CatalogWriter persists products in the catalog store.
type CatalogWriter interface {
	EnsureIndex(ctx context.Context) error
	Save(ctx context.Context, item *domain.CatalogItem) error
	SaveAll(ctx context.Context, items []domain.CatalogItem) error
	DeleteAll(ctx context.Context) (int, error)
	Count(ctx context.Context, index string) (int64, error)
}

// VectorIndex is the in-memory similarity index.
type VectorIndex interface {
	IndexProduct(item *domain.CatalogItem) error
	BulkIndex(items []domain.CatalogItem) int
	Clear()
	Stats() vector.Stats
	SaveSnapshot() error
	LoadSnapshot() error
}

// JobStore persists bulk-index job records as small expiring blobs.
type JobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
