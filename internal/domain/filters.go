package domain

// Intent classifies what a query is primarily asking for.
// Priority order when several signals are present:
// price > feature > brand > category > general.
type Intent string

// Intent values.
const (
	IntentPrice    Intent = "price-focused"
	IntentFeature  Intent = "feature-focused"
	IntentBrand    Intent = "brand-focused"
	IntentCategory Intent = "category-focused"
	IntentGeneral  Intent = "general"
)

// Filters is the structured interpretation of a raw query, produced once by
// the query analyzer and treated as immutable afterwards.
type Filters struct {
	Category    string
	Subcategory string
	Brand       string
	Color       string
	Gender      string

	// PriceMin/PriceMax/RatingMin are nil when the query does not constrain them.
	PriceMin  *float64
	PriceMax  *float64
	RatingMin *float64

	Features    []string
	SearchTerms []string

	Intent        Intent
	DetectedColor string
	IsColorSearch bool

	// CategoryPriorities maps category names to weights derived from
	// detected shopping intents, consumed by the semantic ranking stage.
	CategoryPriorities map[string]float64
}

// EmptyFilters returns the zero-valued filter set used for blank queries.
func EmptyFilters() Filters {
	return Filters{Intent: IntentGeneral}
}

// HasPriceBound reports whether either price bound is set.
func (f *Filters) HasPriceBound() bool {
	return f.PriceMin != nil || f.PriceMax != nil
}

// PriceInRange reports whether price satisfies both bounds.
func (f *Filters) PriceInRange(price float64) bool {
	if f.PriceMin != nil && price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && price > *f.PriceMax {
		return false
	}
	return true
}
