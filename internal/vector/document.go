// Package vector implements the in-memory sparse term-vector index used by
// the vector retrieval lane: vocabulary-positioned term weights, cosine
// similarity with a heuristic semantic bonus, and JSON snapshot persistence.
package vector

import "github.com/shoplane/shoplane/internal/domain"

// Metadata is the denormalized catalog subset stored with each vector so
// search results carry enough context for fusion and ranking without a
// catalog round trip.
type Metadata struct {
	Name          string  `json:"name"`
	Title         string  `json:"title,omitempty"`
	Category      string  `json:"category,omitempty"`
	Subcategory   string  `json:"subcategory,omitempty"`
	Brand         string  `json:"brand,omitempty"`
	Color         string  `json:"color,omitempty"`
	Gender        string  `json:"gender,omitempty"`
	Price         float64 `json:"price"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}

// Document is one indexed product. Vector is L2-normalized except for the
// all-zero edge case; its width matches the index dimensionality current at
// VocabVersion.
type Document struct {
	ID           string    `json:"id"`
	Vector       []float64 `json:"vector"`
	VocabVersion int       `json:"vocabulary_version"`
	Metadata     Metadata  `json:"metadata"`
	SearchText   string    `json:"searchText"`
}

// Result is a single similarity hit.
type Result struct {
	ID         string   `json:"id"`
	Similarity float64  `json:"similarity"`
	Metadata   Metadata `json:"metadata"`
}

// Stats summarizes index contents.
type Stats struct {
	TotalDocuments int      `json:"totalDocuments"`
	VocabularySize int      `json:"vocabularySize"`
	Categories     []string `json:"categories"`
	Brands         []string `json:"brands"`
}

func metadataFromItem(item *domain.CatalogItem) Metadata {
	return Metadata{
		Name:          item.Name,
		Title:         item.Title,
		Category:      item.Category,
		Subcategory:   item.Subcategory,
		Brand:         item.Brand,
		Color:         item.Color,
		Gender:        item.Gender,
		Price:         item.Price,
		AverageRating: item.AverageRating,
		TotalReviews:  item.TotalReviews,
	}
}
