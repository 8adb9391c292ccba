package domain

// CatalogItem is a read-only snapshot of a product from the catalog store.
// The search core never writes catalog items; it only indexes and ranks them.
type CatalogItem struct {
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

// DisplayName returns the best available human-readable name.
func (c *CatalogItem) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Title
}
