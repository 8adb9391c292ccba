package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shoplane/shoplane/internal/db"
	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/retrieval"
)

// --- Save ---

func TestSave_WritesHashUnderPrefix(t *testing.T) {
	repo, ms := newTestRepo(t)
	item := testItem("p1")

	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		if key != "product:p1" {
			t.Errorf("unexpected key: %s", key)
		}
		if fields["name"] != "Trail Runner" {
			t.Errorf("unexpected name field: %s", fields["name"])
		}
		if fields["price"] != "1999" {
			t.Errorf("unexpected price field: %s", fields["price"])
		}
		if fields["tags"] != "running,trail" {
			t.Errorf("unexpected tags field: %s", fields["tags"])
		}
		return nil
	}

	if err := repo.Save(context.Background(), &item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSave_MissingID(t *testing.T) {
	repo, _ := newTestRepo(t)
	item := testItem("")

	err := repo.Save(context.Background(), &item)
	if !errors.Is(err, domain.ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}
}

func TestSaveAll_BatchesAllItems(t *testing.T) {
	repo, ms := newTestRepo(t)
	items := []domain.CatalogItem{testItem("p1"), testItem("p2")}

	ms.hsetMultiFn = func(_ context.Context, batch []db.HashSetItem) error {
		if len(batch) != 2 {
			t.Fatalf("expected 2 batch items, got %d", len(batch))
		}
		if batch[0].Key != "product:p1" || batch[1].Key != "product:p2" {
			t.Errorf("unexpected keys: %s, %s", batch[0].Key, batch[1].Key)
		}
		return nil
	}

	if err := repo.SaveAll(context.Background(), items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Get ---

func TestGet_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	want := testItem("p1")

	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "product:p1" {
			t.Errorf("unexpected key: %s", key)
		}
		return buildHashFields(&want), nil
	}

	got, err := repo.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != want.Name || got.Price != want.Price || got.TotalReviews != want.TotalReviews {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "running" {
		t.Errorf("tags not restored: %v", got.Tags)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{}, nil
	}

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

// --- DeleteAll ---

func TestDeleteAll_ScansThenDeletes(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "product:*" {
			t.Errorf("unexpected pattern: %s", pattern)
		}
		return []string{"product:p1", "product:p2", "product:p3"}, nil
	}
	var deleted []string
	ms.delMultiFn = func(_ context.Context, keys []string) error {
		deleted = keys
		return nil
	}

	n, err := repo.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 || len(deleted) != 3 {
		t.Errorf("expected 3 deletions, got n=%d deleted=%d", n, len(deleted))
	}
}

func TestDeleteAll_EmptyCatalog(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.delMultiFn = func(_ context.Context, _ []string) error {
		t.Fatal("DelMulti must not be called for an empty scan")
		return nil
	}

	n, err := repo.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 deletions, got %d", n)
	}
}

// --- Lexical lane ---

func TestSearch_PassesBoostsAndFilters(t *testing.T) {
	repo, ms := newTestRepo(t)
	maxPrice := 2000.0

	ms.searchTextFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if q.Index != "products" {
			t.Errorf("unexpected index: %s", q.Index)
		}
		if q.FieldBoosts["name"] != 4.0 {
			t.Errorf("boosts not forwarded: %v", q.FieldBoosts)
		}
		if len(q.Filter.Numerics) != 1 || q.Filter.Numerics[0].Field != "price" {
			t.Errorf("price filter not forwarded: %+v", q.Filter)
		}
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{
				{Key: "product:p1", Score: 12.5, Fields: map[string]string{"name": "Trail Runner", "price": "1999"}},
			},
		}, nil
	}

	docs, err := repo.Search(context.Background(), "products", retrieval.LexicalQuery{
		Terms:       []string{"running", "shoes"},
		FieldBoosts: map[string]float64{"name": 4.0},
		Filters:     domain.Filters{PriceMax: &maxPrice, Intent: domain.IntentGeneral},
		Limit:       30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if docs[0].Item.ID != "p1" {
		t.Errorf("key prefix not stripped: %s", docs[0].Item.ID)
	}
	if docs[0].Score != 12.5 {
		t.Errorf("score not carried: %f", docs[0].Score)
	}
}

func TestSearch_NoTerms(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchTextFn = func(_ context.Context, _ *db.TextQuery) (*db.SearchResult, error) {
		t.Fatal("SearchText must not be called without terms")
		return nil, nil
	}

	docs, err := repo.Search(context.Background(), "products", retrieval.LexicalQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs != nil {
		t.Errorf("expected nil docs, got %v", docs)
	}
}

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchCountFn = func(_ context.Context, index, q string) (int, error) {
		if index != "products" || q != "*" {
			t.Errorf("unexpected count args: %s %s", index, q)
		}
		return 42, nil
	}

	n, err := repo.Count(context.Background(), "products")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}

// --- Structured lane ---

func TestTextSearch_TokenizesQuery(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchTextFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if len(q.Terms) == 0 {
			t.Fatal("expected tokenized terms")
		}
		return &db.SearchResult{
			Entries: []db.SearchEntry{{Key: "product:p1", Fields: map[string]string{"name": "Trail Runner"}}},
		}, nil
	}

	items, err := repo.TextSearch(context.Background(), "Running Shoes!", domain.EmptyFilters(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "p1" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestTextSearch_IndexMissingFallsBackToScan(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchTextFn = func(_ context.Context, _ *db.TextQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: "FT.SEARCH", Err: db.ErrIndexNotFound}
	}
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"product:p1", "product:p2"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if len(keys) != 2 {
			t.Fatalf("expected 2 keys, got %d", len(keys))
		}
		shoe := testItem("p1")
		laptop := testItem("p2")
		laptop.Name = "Ultrabook"
		laptop.Title = "Ultrabook 14"
		laptop.Description = "thin laptop"
		laptop.Category = "electronics"
		laptop.Tags = nil
		return []map[string]string{buildHashFields(&shoe), buildHashFields(&laptop)}, nil
	}

	items, err := repo.TextSearch(context.Background(), "running shoes", domain.EmptyFilters(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "p1" {
		t.Errorf("substring fallback should keep only the shoe, got %+v", items)
	}
}

func TestFindByFilter_EmptyFilterSkipsQuery(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchListFn = func(_ context.Context, _ *db.ListQuery) (*db.SearchResult, error) {
		t.Fatal("SearchList must not be called with an empty filter")
		return nil, nil
	}

	items, err := repo.FindByFilter(context.Background(), domain.EmptyFilters(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items != nil {
		t.Errorf("expected nil items, got %v", items)
	}
}

func TestFindByFilter_ExpandsCategoryVariants(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		if len(q.Filter.Tags) != 1 {
			t.Fatalf("expected 1 tag filter, got %d", len(q.Filter.Tags))
		}
		tag := q.Filter.Tags[0]
		if tag.Field != "category" || len(tag.Values) != 2 || tag.Values[1] != "shoes" {
			t.Errorf("category variants not expanded: %+v", tag)
		}
		return &db.SearchResult{}, nil
	}

	_, err := repo.FindByFilter(context.Background(), domain.Filters{Category: "footwear"}, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTopRated_SortsByRatingDesc(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		if q.SortBy != "average_rating" || !q.SortDesc {
			t.Errorf("unexpected sort: %s desc=%v", q.SortBy, q.SortDesc)
		}
		if q.Limit != 20 {
			t.Errorf("unexpected limit: %d", q.Limit)
		}
		return &db.SearchResult{
			Entries: []db.SearchEntry{{Key: "product:p9", Fields: map[string]string{"average_rating": "4.9"}}},
		}, nil
	}

	items, err := repo.TopRated(context.Background(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].AverageRating != 4.9 {
		t.Errorf("unexpected items: %+v", items)
	}
}

// --- EnsureIndex ---

func TestEnsureIndex_SkipsWhenPresent(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) {
		if name != "products" {
			t.Errorf("unexpected index name: %s", name)
		}
		return true, nil
	}
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		t.Fatal("CreateIndex must not be called when the index exists")
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndex_CreatesSchema(t *testing.T) {
	repo, ms := newTestRepo(t)

	var created *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		created = def
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected CreateIndex call")
	}
	if created.Name != "products" || len(created.Prefixes) != 1 || created.Prefixes[0] != "product:" {
		t.Errorf("unexpected definition: %+v", created)
	}
}

func TestEnsureIndex_ToleratesConcurrentCreate(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return db.ErrIndexExists
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("expected concurrent create to be tolerated, got %v", err)
	}
}
