// Package catalog persists products as Redis hashes under a shared key
// prefix and serves the lexical and structured retrieval lanes over an
// FT.SEARCH index.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shoplane/shoplane/internal/db"
	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/query"
	"github.com/shoplane/shoplane/internal/retrieval"
)

const (
	// KeyPrefix is the hash key prefix shared by every product.
	KeyPrefix = "product:"
	// IndexName is the FT index covering product hashes.
	IndexName = "products"

	// scanFallbackBatch caps how many hashes a substring scan loads at once.
	scanFallbackBatch = 200
)

// store is the consumer interface for the product catalog (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements retrieval.Lexical and retrieval.Catalog over a db.Store.
type Repo struct {
	store store
}

// New creates a product catalog repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// ProductIndex is the FT schema for product hashes. Text weights mirror the
// relative importance the ranking stages assign to the same fields.
func ProductIndex() *db.IndexDefinition {
	return db.NewIndex(IndexName).
		Prefix(KeyPrefix).
		TextWeighted("name", 4).
		TextWeighted("title", 3.5).
		TextWeighted("description", 1.5).
		Tag("category").
		Tag("subcategory").
		Tag("brand").
		Tag("color").
		Tag("gender").
		Tag("tags").
		Numeric("price").
		NumericSortable("average_rating").
		Numeric("total_reviews").
		MustBuild()
}

// EnsureIndex creates the product index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", IndexName, err)
	}
	if exists {
		return nil
	}
	if err := r.store.CreateIndex(ctx, ProductIndex()); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", IndexName, err)
	}
	return nil
}

// Save writes one product hash.
func (r *Repo) Save(ctx context.Context, item *domain.CatalogItem) error {
	if item.ID == "" {
		return domain.ErrInvalidItem
	}
	key := productKey(item.ID)
	if err := r.store.HSet(ctx, key, buildHashFields(item)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// SaveAll writes a batch of product hashes in one round trip.
func (r *Repo) SaveAll(ctx context.Context, items []domain.CatalogItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := make([]db.HashSetItem, 0, len(items))
	for i := range items {
		if items[i].ID == "" {
			return fmt.Errorf("item %d: %w", i, domain.ErrInvalidItem)
		}
		batch = append(batch, db.HashSetItem{
			Key:    productKey(items[i].ID),
			Fields: buildHashFields(&items[i]),
		})
	}
	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return fmt.Errorf("hset multi: %w", err)
	}
	return nil
}

// Get returns one product by id.
func (r *Repo) Get(ctx context.Context, id string) (domain.CatalogItem, error) {
	key := productKey(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domain.CatalogItem{}, domain.ErrProductNotFound
	}
	return parseHashFields(id, fields), nil
}

// DeleteAll removes every product hash. Returns the number of keys deleted.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, KeyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan %s*: %w", KeyPrefix, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return 0, fmt.Errorf("del %d keys: %w", len(keys), err)
	}
	return len(keys), nil
}

// Count reports the number of indexed products (retrieval.Lexical).
func (r *Repo) Count(ctx context.Context, index string) (int64, error) {
	n, err := r.store.SearchCount(ctx, index, "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", index, err)
	}
	return int64(n), nil
}

// Search runs one boosted multi-field text query (retrieval.Lexical).
func (r *Repo) Search(ctx context.Context, index string, q retrieval.LexicalQuery) ([]retrieval.ScoredDoc, error) {
	if len(q.Terms) == 0 {
		return nil, nil
	}
	res, err := r.store.SearchText(ctx, &db.TextQuery{
		Index:       index,
		Terms:       q.Terms,
		FieldBoosts: q.FieldBoosts,
		Filter:      buildFilter(&q.Filters),
		Limit:       q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	docs := make([]retrieval.ScoredDoc, 0, len(res.Entries))
	for _, e := range res.Entries {
		docs = append(docs, retrieval.ScoredDoc{
			Item:  parseHashFields(idFromKey(e.Key), e.Fields),
			Score: e.Score,
		})
	}
	return docs, nil
}

// TextSearch serves the structured lane's first attempt: schema-weighted
// full text over the query tokens plus whatever filters were extracted.
// When the index is missing it degrades to a substring scan over product
// hashes so a cold deployment still answers.
func (r *Repo) TextSearch(ctx context.Context, rawQuery string, filters domain.Filters, limit int) ([]domain.CatalogItem, error) {
	terms := query.Tokenize(rawQuery)
	if len(terms) == 0 {
		return nil, nil
	}
	res, err := r.store.SearchText(ctx, &db.TextQuery{
		Index:  IndexName,
		Terms:  terms,
		Filter: buildFilter(&filters),
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return r.scanSubstring(ctx, terms, &filters, limit)
		}
		return nil, fmt.Errorf("text search %s: %w", IndexName, err)
	}
	return itemsFromEntries(res.Entries), nil
}

// FindByFilter lists products matching the extracted filters, no text match.
func (r *Repo) FindByFilter(ctx context.Context, filters domain.Filters, limit int) ([]domain.CatalogItem, error) {
	f := buildFilter(&filters)
	if f.IsEmpty() {
		return nil, nil
	}
	res, err := r.store.SearchList(ctx, &db.ListQuery{
		Index:  IndexName,
		Filter: f,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("filter list %s: %w", IndexName, err)
	}
	return itemsFromEntries(res.Entries), nil
}

// TopRated lists the best-rated products, the last-resort result set when
// every lane comes back empty.
func (r *Repo) TopRated(ctx context.Context, limit int) ([]domain.CatalogItem, error) {
	res, err := r.store.SearchList(ctx, &db.ListQuery{
		Index:    IndexName,
		SortBy:   "average_rating",
		SortDesc: true,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("top rated %s: %w", IndexName, err)
	}
	return itemsFromEntries(res.Entries), nil
}

// scanSubstring is the indexless fallback: walk product keys, bulk-load the
// hashes and keep items whose searchable text contains any query term.
func (r *Repo) scanSubstring(ctx context.Context, terms []string, filters *domain.Filters, limit int) ([]domain.CatalogItem, error) {
	keys, err := r.store.Scan(ctx, KeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s*: %w", KeyPrefix, err)
	}
	sort.Strings(keys)

	var items []domain.CatalogItem
	for start := 0; start < len(keys) && len(items) < limit; start += scanFallbackBatch {
		end := start + scanFallbackBatch
		if end > len(keys) {
			end = len(keys)
		}
		hashes, err := r.store.HGetAllMulti(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("hgetall multi: %w", err)
		}
		for i, fields := range hashes {
			if len(fields) == 0 {
				continue
			}
			item := parseHashFields(idFromKey(keys[start+i]), fields)
			if !matchesSubstring(&item, terms) || !filters.PriceInRange(item.Price) {
				continue
			}
			items = append(items, item)
			if len(items) == limit {
				break
			}
		}
	}
	return items, nil
}

func matchesSubstring(item *domain.CatalogItem, terms []string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		item.Name, item.Title, item.Description, item.Category,
		item.Subcategory, item.Brand, strings.Join(item.Tags, " "),
	}, " "))
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

func itemsFromEntries(entries []db.SearchEntry) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, parseHashFields(idFromKey(e.Key), e.Fields))
	}
	return items
}

func productKey(id string) string {
	return KeyPrefix + id
}

func idFromKey(key string) string {
	return strings.TrimPrefix(key, KeyPrefix)
}
