package retrieval

import (
	"context"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/vector"
)

// ScoredDoc is one lexical hit with its engine-reported score.
type ScoredDoc struct {
	Item  domain.CatalogItem
	Score float64
}

// LexicalQuery describes one boosted multi-field search. The storage layer
// translates it into its native query syntax.
type LexicalQuery struct {
	Terms       []string
	FieldBoosts map[string]float64
	Filters     domain.Filters
	Limit       int
}

// Lexical is the full-text search collaborator.
type Lexical interface {
	Count(ctx context.Context, index string) (int64, error)
	Search(ctx context.Context, index string, q LexicalQuery) ([]ScoredDoc, error)
}

// Catalog is the document-store collaborator.
type Catalog interface {
	TextSearch(ctx context.Context, query string, filters domain.Filters, limit int) ([]domain.CatalogItem, error)
	FindByFilter(ctx context.Context, filters domain.Filters, limit int) ([]domain.CatalogItem, error)
	TopRated(ctx context.Context, limit int) ([]domain.CatalogItem, error)
}

// VectorSearcher is the in-memory similarity lane.
type VectorSearcher interface {
	Search(queryText string, limit int, threshold float64) []vector.Result
}

// Observer records per-lane outcomes, implemented by the metrics package.
type Observer interface {
	LaneResult(lane string, ok bool, hits int)
}

type nopObserver struct{}

func (nopObserver) LaneResult(string, bool, int) {}

// itemFromVectorMetadata rebuilds a catalog item from the denormalized
// subset stored alongside each vector. Fields the index does not carry
// (description, tags, features) stay empty; fusion keeps the richer copy
// when another lane returns the same product.
func itemFromVectorMetadata(r vector.Result) domain.CatalogItem {
	return domain.CatalogItem{
		ID:            r.ID,
		Name:          r.Metadata.Name,
		Title:         r.Metadata.Title,
		Category:      r.Metadata.Category,
		Subcategory:   r.Metadata.Subcategory,
		Brand:         r.Metadata.Brand,
		Color:         r.Metadata.Color,
		Gender:        r.Metadata.Gender,
		Price:         r.Metadata.Price,
		AverageRating: r.Metadata.AverageRating,
		TotalReviews:  r.Metadata.TotalReviews,
	}
}
