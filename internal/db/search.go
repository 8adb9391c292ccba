package db

// TagFilter restricts matches to hashes whose tag field holds any of the
// given values.
type TagFilter struct {
	Field  string
	Values []string
}

// NumericFilter restricts matches to a numeric range; nil bounds are open.
type NumericFilter struct {
	Field string
	Min   *float64
	Max   *float64
}

// Filter is the pre-filter applied alongside a text or list query.
type Filter struct {
	Tags     []TagFilter
	Numerics []NumericFilter
}

// IsEmpty reports whether the filter constrains anything.
func (f *Filter) IsEmpty() bool {
	return len(f.Tags) == 0 && len(f.Numerics) == 0
}

// TextQuery is the input for a boosted multi-field text search.
type TextQuery struct {
	Index string
	Terms []string
	// FieldBoosts maps text field names to query-time weights.
	FieldBoosts map[string]float64
	Filter      Filter
	Limit       int
}

// ListQuery is the input for filter-only listing, optionally sorted.
type ListQuery struct {
	Index    string
	Filter   Filter
	SortBy   string
	SortDesc bool
	Offset   int
	Limit    int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
