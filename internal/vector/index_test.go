package vector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/shoplane/internal/domain"
)

func testItem(id, name, category, brand string, price float64) domain.CatalogItem {
	return domain.CatalogItem{
		ID:       id,
		Name:     name,
		Category: category,
		Brand:    brand,
		Price:    price,
		Tags:     []string{category},
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SnapshotPath = filepath.Join(t.TempDir(), "vectors.json")
	return New(cfg, nil)
}

func TestIndexProduct_ThenSearchByName(t *testing.T) {
	idx := newTestIndex(t)

	items := []domain.CatalogItem{
		testItem("p1", "Nike Air Running Shoes", "footwear", "nike", 2999),
		testItem("p2", "Dell Inspiron Laptop", "electronics", "dell", 45000),
		testItem("p3", "Cotton Casual Shirt", "clothing", "zara", 999),
	}
	require.Equal(t, 3, idx.BulkIndex(items))

	results := idx.Search("Nike Air Running Shoes", 10, 0.1)
	require.NotEmpty(t, results)
	assert.Equal(t, "p1", results[0].ID)
	assert.Greater(t, results[0].Similarity, 0.0)
}

func TestIndexProduct_MissingID(t *testing.T) {
	idx := newTestIndex(t)

	err := idx.IndexProduct(&domain.CatalogItem{Name: "no id"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidItem)
}

func TestReindexSameID_CountUnchanged(t *testing.T) {
	idx := newTestIndex(t)

	item := testItem("p1", "Wireless Headphones", "electronics", "sony", 1999)
	require.NoError(t, idx.IndexProduct(&item))
	require.NoError(t, idx.IndexProduct(&item))

	assert.Equal(t, 1, idx.Stats().TotalDocuments)
}

func TestSearch_EmptyIndexAndEmptyQuery(t *testing.T) {
	idx := newTestIndex(t)

	assert.Empty(t, idx.Search("anything", 10, 0.1))

	item := testItem("p1", "Laptop", "electronics", "hp", 40000)
	require.NoError(t, idx.IndexProduct(&item))
	assert.Empty(t, idx.Search("   ", 10, 0.1))
}

func TestSearch_LimitAndOrdering(t *testing.T) {
	idx := newTestIndex(t)

	items := []domain.CatalogItem{
		testItem("p1", "Running Shoes", "footwear", "nike", 2000),
		testItem("p2", "Running Shorts", "clothing", "nike", 800),
		testItem("p3", "Running Socks", "clothing", "puma", 300),
		testItem("p4", "Trail Running Shoes", "footwear", "adidas", 3500),
	}
	idx.BulkIndex(items)

	results := idx.Search("running shoes", 2, 0.0)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
}

func TestSearch_SemanticBonusCapsAtOne(t *testing.T) {
	idx := newTestIndex(t)

	item := testItem("p1", "Nike Running Shoes", "footwear", "nike", 2000)
	require.NoError(t, idx.IndexProduct(&item))

	results := idx.Search("nike running shoes footwear", 10, 0.0)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, results[0].Similarity, 1.0)
}

func TestSearch_LazyRevectorizeAfterVocabularyGrowth(t *testing.T) {
	idx := newTestIndex(t)

	first := testItem("p1", "Running Shoes", "footwear", "nike", 2000)
	require.NoError(t, idx.IndexProduct(&first))

	// Grow the vocabulary well past the first document's snapshot.
	more := make([]domain.CatalogItem, 0, 20)
	names := []string{
		"Wireless Headphones", "Gaming Laptop", "Smart Television",
		"Leather Wallet", "Yoga Mat", "Cotton Kurti", "Denim Jacket",
		"Espresso Machine", "Mountain Bicycle", "Ceramic Mug",
	}
	for i, n := range names {
		more = append(more, testItem(string(rune('a'+i)), n, "misc", "", 100))
	}
	idx.BulkIndex(more)

	// The stale document must still be findable; its vector refreshes on
	// touch against the grown vocabulary.
	results := idx.Search("running shoes", 10, 0.1)
	require.NotEmpty(t, results)
	assert.Equal(t, "p1", results[0].ID)

	// Second search hits the refreshed vector and agrees.
	again := idx.Search("running shoes", 10, 0.1)
	require.NotEmpty(t, again)
	assert.Equal(t, "p1", again[0].ID)
}

func TestClear(t *testing.T) {
	idx := newTestIndex(t)

	item := testItem("p1", "Laptop", "electronics", "hp", 40000)
	require.NoError(t, idx.IndexProduct(&item))
	idx.Clear()

	stats := idx.Stats()
	assert.Equal(t, 0, stats.TotalDocuments)
	assert.Equal(t, 0, stats.VocabularySize)
	assert.Empty(t, idx.Search("laptop", 10, 0.0))
}

func TestStats_CategoriesAndBrands(t *testing.T) {
	idx := newTestIndex(t)

	idx.BulkIndex([]domain.CatalogItem{
		testItem("p1", "Shoes", "footwear", "nike", 2000),
		testItem("p2", "Laptop", "electronics", "dell", 45000),
		testItem("p3", "Sneakers", "footwear", "puma", 1500),
	})

	stats := idx.Stats()
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, []string{"electronics", "footwear"}, stats.Categories)
	assert.Equal(t, []string{"dell", "nike", "puma"}, stats.Brands)
	assert.Greater(t, stats.VocabularySize, 0)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SnapshotPath = filepath.Join(t.TempDir(), "snap", "vectors.json")
	idx := New(cfg, nil)

	idx.BulkIndex([]domain.CatalogItem{
		testItem("p1", "Running Shoes", "footwear", "nike", 2000),
		testItem("p2", "Gaming Laptop", "electronics", "asus", 90000),
	})
	require.NoError(t, idx.SaveSnapshot())

	restored := New(cfg, nil)
	require.NoError(t, restored.LoadSnapshot())

	stats := restored.Stats()
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, idx.Stats().VocabularySize, stats.VocabularySize)

	results := restored.Search("running shoes", 10, 0.1)
	require.NotEmpty(t, results)
	assert.Equal(t, "p1", results[0].ID)
}

func TestLoadSnapshot_MissingFileStartsEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SnapshotPath = filepath.Join(t.TempDir(), "absent.json")
	idx := New(cfg, nil)

	require.NoError(t, idx.LoadSnapshot())
	assert.Equal(t, 0, idx.Stats().TotalDocuments)
}

func TestLoadSnapshot_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg := DefaultConfig()
	cfg.SnapshotPath = path
	idx := New(cfg, nil)

	err := idx.LoadSnapshot()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSnapshotCorrupt)
	assert.Equal(t, 0, idx.Stats().TotalDocuments)
}

func TestVectorize_Normalized(t *testing.T) {
	vocab := map[string]int{"run": 0, "shoe": 1, "nike": 2}
	tf := map[string]int{"run": 2, "shoe": 1}

	vec := vectorize(tf, 3, vocab, 100)

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestVectorize_ZeroVectorStaysZero(t *testing.T) {
	vocab := map[string]int{"laptop": 0}
	vec := vectorize(map[string]int{"unknown": 1}, 1, vocab, 100)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestClampDim(t *testing.T) {
	assert.Equal(t, 100, clampDim(10, 100, 500))
	assert.Equal(t, 250, clampDim(250, 100, 500))
	assert.Equal(t, 500, clampDim(9000, 100, 500))
}
