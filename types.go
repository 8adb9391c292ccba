package shoplane

import (
	"github.com/shoplane/shoplane/internal/domain"
	indexinguc "github.com/shoplane/shoplane/internal/usecase/indexing"
	searchuc "github.com/shoplane/shoplane/internal/usecase/search"
)

// Product is one catalog item.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Subcategory   string   `json:"subcategory,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Color         string   `json:"color,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Season        string   `json:"season,omitempty"`
	Price         float64  `json:"price"`
	AverageRating float64  `json:"average_rating"`
	TotalReviews  int      `json:"total_reviews"`
	Stocks        int      `json:"stocks"`
	Tags          []string `json:"tags,omitempty"`
	Features      []string `json:"features,omitempty"`
}

// SearchHit is one ranked search result.
type SearchHit struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}

// SearchMethods reports which retrieval pathways produced a response.
type SearchMethods struct {
	Vector     bool `json:"vector"`
	Lexical    bool `json:"lexical"`
	Structured bool `json:"structured"`
	Fallback   bool `json:"fallback"`
}

// SearchResponse is the outcome of one search.
type SearchResponse struct {
	Query         string        `json:"query"`
	Hits          []SearchHit   `json:"hits"`
	TotalResults  int           `json:"total_results"`
	SearchMethods SearchMethods `json:"search_methods"`
	IsFallback    bool          `json:"is_fallback"`
}

// Stats describes the current size of both search indexes.
type Stats struct {
	IndexedProducts int      `json:"indexed_products"`
	VocabularySize  int      `json:"vocabulary_size"`
	Categories      []string `json:"categories"`
	Brands          []string `json:"brands"`
	CatalogCount    int64    `json:"catalog_count"`
}

func toInternalItem(p *Product) domain.CatalogItem {
	return domain.CatalogItem{
		ID:            p.ID,
		Name:          p.Name,
		Title:         p.Title,
		Description:   p.Description,
		Category:      p.Category,
		Subcategory:   p.Subcategory,
		Brand:         p.Brand,
		Color:         p.Color,
		Gender:        p.Gender,
		Season:        p.Season,
		Price:         p.Price,
		AverageRating: p.AverageRating,
		TotalReviews:  p.TotalReviews,
		Stocks:        p.Stocks,
		Tags:          p.Tags,
		Features:      p.Features,
	}
}

func fromInternalItem(item *domain.CatalogItem) Product {
	return Product{
		ID:            item.ID,
		Name:          item.Name,
		Title:         item.Title,
		Description:   item.Description,
		Category:      item.Category,
		Subcategory:   item.Subcategory,
		Brand:         item.Brand,
		Color:         item.Color,
		Gender:        item.Gender,
		Season:        item.Season,
		Price:         item.Price,
		AverageRating: item.AverageRating,
		TotalReviews:  item.TotalReviews,
		Stocks:        item.Stocks,
		Tags:          item.Tags,
		Features:      item.Features,
	}
}

func fromInternalStats(s indexinguc.Stats) Stats {
	return Stats{
		IndexedProducts: s.Vector.TotalDocuments,
		VocabularySize:  s.Vector.VocabularySize,
		Categories:      s.Vector.Categories,
		Brands:          s.Vector.Brands,
		CatalogCount:    s.CatalogCount,
	}
}

func fromSearchResponse(resp *searchuc.Response) *SearchResponse {
	hits := make([]SearchHit, 0, len(resp.Products))
	for i := range resp.Products {
		c := &resp.Products[i]
		hits = append(hits, SearchHit{
			Product: fromInternalItem(&c.Item),
			Score:   c.FinalScore,
		})
	}
	return &SearchResponse{
		Query:        resp.Query,
		Hits:         hits,
		TotalResults: resp.TotalResults,
		SearchMethods: SearchMethods{
			Vector:     resp.SearchMethods.Vector,
			Lexical:    resp.SearchMethods.Lexical,
			Structured: resp.SearchMethods.Structured,
			Fallback:   resp.SearchMethods.Fallback,
		},
		IsFallback: resp.IsFallback,
	}
}
