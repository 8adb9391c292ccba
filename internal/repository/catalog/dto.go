package catalog

import (
	"strconv"
	"strings"

	"github.com/shoplane/shoplane/internal/db"
	"github.com/shoplane/shoplane/internal/domain"
)

const listSeparator = ","

// categoryTagValues maps a canonical category filter to the tag values
// catalogs actually label products with. Kept in sync with the ranking
// stage's category buckets.
var categoryTagValues = map[string][]string{
	"footwear":      {"footwear", "shoes"},
	"mobile-phones": {"mobile-phones", "electronics"},
	"clothing":      {"clothing", "apparel"},
	"electronics":   {"electronics", "gadgets"},
}

// buildHashFields flattens a catalog item into HSET fields. Zero-valued
// optional fields are written anyway so parse-back stays symmetric.
func buildHashFields(item *domain.CatalogItem) map[string]string {
	return map[string]string{
		"id":             item.ID,
		"name":           item.Name,
		"title":          item.Title,
		"description":    item.Description,
		"category":       item.Category,
		"subcategory":    item.Subcategory,
		"brand":          item.Brand,
		"color":          item.Color,
		"gender":         item.Gender,
		"season":         item.Season,
		"price":          strconv.FormatFloat(item.Price, 'f', -1, 64),
		"average_rating": strconv.FormatFloat(item.AverageRating, 'f', -1, 64),
		"total_reviews":  strconv.Itoa(item.TotalReviews),
		"stocks":         strconv.Itoa(item.Stocks),
		"tags":           strings.Join(item.Tags, listSeparator),
		"features":       strings.Join(item.Features, listSeparator),
	}
}

// parseHashFields rebuilds a catalog item from HGETALL output. The id from
// the key wins over the stored field so renamed keys stay consistent.
func parseHashFields(id string, m map[string]string) domain.CatalogItem {
	item := domain.CatalogItem{
		ID:          id,
		Name:        m["name"],
		Title:       m["title"],
		Description: m["description"],
		Category:    m["category"],
		Subcategory: m["subcategory"],
		Brand:       m["brand"],
		Color:       m["color"],
		Gender:      m["gender"],
		Season:      m["season"],
	}
	if item.ID == "" {
		item.ID = m["id"]
	}
	if v, err := strconv.ParseFloat(m["price"], 64); err == nil {
		item.Price = v
	}
	if v, err := strconv.ParseFloat(m["average_rating"], 64); err == nil {
		item.AverageRating = v
	}
	if v, err := strconv.Atoi(m["total_reviews"]); err == nil {
		item.TotalReviews = v
	}
	if v, err := strconv.Atoi(m["stocks"]); err == nil {
		item.Stocks = v
	}
	item.Tags = splitList(m["tags"])
	item.Features = splitList(m["features"])
	return item
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, listSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildFilter translates extracted query filters into an FT pre-filter.
func buildFilter(f *domain.Filters) db.Filter {
	var out db.Filter
	if f.Category != "" {
		out.Tags = append(out.Tags, db.TagFilter{Field: "category", Values: categoryValues(f.Category)})
	}
	if f.Subcategory != "" {
		out.Tags = append(out.Tags, db.TagFilter{Field: "subcategory", Values: []string{f.Subcategory}})
	}
	if f.Brand != "" {
		out.Tags = append(out.Tags, db.TagFilter{Field: "brand", Values: []string{f.Brand}})
	}
	if f.Color != "" {
		out.Tags = append(out.Tags, db.TagFilter{Field: "color", Values: []string{f.Color}})
	}
	if f.Gender != "" {
		// Unisex products satisfy any gender filter.
		out.Tags = append(out.Tags, db.TagFilter{Field: "gender", Values: []string{f.Gender, "unisex"}})
	}
	if f.HasPriceBound() {
		out.Numerics = append(out.Numerics, db.NumericFilter{Field: "price", Min: f.PriceMin, Max: f.PriceMax})
	}
	if f.RatingMin != nil {
		out.Numerics = append(out.Numerics, db.NumericFilter{Field: "average_rating", Min: f.RatingMin})
	}
	return out
}

func categoryValues(category string) []string {
	if vals, ok := categoryTagValues[category]; ok {
		return vals
	}
	return []string{category}
}
