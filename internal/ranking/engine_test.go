package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/query"
)

func floatPtr(v float64) *float64 { return &v }

func candidateFor(item domain.CatalogItem, combined float64) domain.Candidate {
	return domain.Candidate{
		Item:          item,
		Lanes:         []domain.Lane{domain.LaneVector},
		VectorScore:   combined,
		CombinedScore: combined,
	}
}

func TestRank_RunningShoesUnderBudget(t *testing.T) {
	analyzer := query.NewAnalyzer(zap.NewNop())
	rawQuery := "running shoes under 2000"
	filters := analyzer.Analyze(rawQuery)
	require.NotNil(t, filters.PriceMax)
	require.Equal(t, 2000.0, *filters.PriceMax)

	sneaker := domain.CatalogItem{
		ID:            "p-sneaker",
		Name:          "Road Running Sneakers",
		Category:      "footwear",
		Subcategory:   "sports-shoes",
		Price:         1999,
		AverageRating: 4.2,
		TotalReviews:  80,
		Tags:          []string{"running", "gym"},
	}
	laptop := domain.CatalogItem{
		ID:            "p-laptop",
		Name:          "Gaming Laptop",
		Category:      "electronics",
		Price:         50000,
		AverageRating: 4.8,
		TotalReviews:  500,
	}

	engine := NewEngine(DefaultConfig(), zap.NewNop())
	res := engine.Rank([]domain.Candidate{
		candidateFor(laptop, 0.9),
		candidateFor(sneaker, 0.6),
	}, filters, rawQuery)

	require.NotEmpty(t, res.Products)
	assert.Equal(t, "p-sneaker", res.Products[0].Item.ID)
	for _, p := range res.Products {
		assert.NotEqual(t, "p-laptop", p.Item.ID, "laptop violates the price bound")
	}
	assert.False(t, res.IsFallback)
}

func TestRank_PriceBoundHoldsForAllResults(t *testing.T) {
	filters := domain.EmptyFilters()
	filters.PriceMax = floatPtr(100)

	in := []domain.Candidate{
		candidateFor(domain.CatalogItem{ID: "a", Name: "cheap", Price: 20}, 0.5),
		candidateFor(domain.CatalogItem{ID: "b", Name: "edge", Price: 100}, 0.5),
		candidateFor(domain.CatalogItem{ID: "c", Name: "over", Price: 101}, 0.9),
		candidateFor(domain.CatalogItem{ID: "d", Name: "way over", Price: 900}, 0.9),
	}

	engine := NewEngine(DefaultConfig(), zap.NewNop())
	res := engine.Rank(in, filters, "something under 100")
	require.Len(t, res.Products, 2)
	for _, p := range res.Products {
		assert.LessOrEqual(t, p.Item.Price, 100.0)
	}
}

func TestRank_PriceFocusedOrdersCheapestFirst(t *testing.T) {
	filters := domain.EmptyFilters()
	filters.PriceMax = floatPtr(5000)

	in := []domain.Candidate{
		candidateFor(domain.CatalogItem{ID: "mid", Name: "widget", Price: 3000}, 0.5),
		candidateFor(domain.CatalogItem{ID: "cheap", Name: "widget", Price: 1000}, 0.5),
		candidateFor(domain.CatalogItem{ID: "dear", Name: "widget", Price: 4500}, 0.5),
	}

	engine := NewEngine(DefaultConfig(), zap.NewNop())
	res := engine.Rank(in, filters, "widget under 5000")
	require.Len(t, res.Products, 3)
	assert.Equal(t, "cheap", res.Products[0].Item.ID)
	assert.Equal(t, "mid", res.Products[1].Item.ID)
	assert.Equal(t, "dear", res.Products[2].Item.ID)
}

func TestRank_PriceMinOrdersPriciestFirst(t *testing.T) {
	filters := domain.EmptyFilters()
	filters.PriceMin = floatPtr(500)

	in := []domain.Candidate{
		candidateFor(domain.CatalogItem{ID: "low", Name: "widget", Price: 600}, 0.5),
		candidateFor(domain.CatalogItem{ID: "high", Name: "widget", Price: 2000}, 0.5),
	}

	engine := NewEngine(DefaultConfig(), zap.NewNop())
	res := engine.Rank(in, filters, "widget over 500")
	require.Len(t, res.Products, 2)
	assert.Equal(t, "high", res.Products[0].Item.ID)
}

func TestRank_EmptyInput(t *testing.T) {
	engine := NewEngine(DefaultConfig(), zap.NewNop())
	res := engine.Rank(nil, domain.EmptyFilters(), "")
	assert.Empty(t, res.Products)
	assert.False(t, res.IsFallback)
}

func TestRank_ScoreBreakdownRecorded(t *testing.T) {
	filters := domain.EmptyFilters()
	filters.SearchTerms = []string{"sneakers"}

	engine := NewEngine(DefaultConfig(), zap.NewNop())
	res := engine.Rank([]domain.Candidate{
		candidateFor(domain.CatalogItem{ID: "p1", Name: "White Sneakers", AverageRating: 4.6, TotalReviews: 120}, 0.4),
	}, filters, "sneakers")

	require.Len(t, res.Products, 1)
	stages := map[string]bool{}
	for _, d := range res.Products[0].ScoreBreakdown {
		stages[d.Stage] = true
	}
	assert.True(t, stages["keyword_overlap"])
	assert.True(t, stages["rating_prior"])
	assert.True(t, stages["review_volume"])
}

func TestRank_FallbackWhenFloorEmpties(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FloorKeep = 0
	cfg.FloorMin = 1e9
	cfg.FloorRatio = 1

	engine := NewEngine(cfg, zap.NewNop())
	res := engine.Rank([]domain.Candidate{
		candidateFor(domain.CatalogItem{ID: "p1", Name: "thing"}, 0.3),
		candidateFor(domain.CatalogItem{ID: "p2", Name: "thing"}, 0.2),
	}, domain.EmptyFilters(), "thing")

	assert.True(t, res.IsFallback)
	require.NotEmpty(t, res.Products)
	for _, p := range res.Products {
		assert.True(t, p.IsFallbackResult)
	}
}

func TestApplyTiering_DemotesUnsupportedHighScore(t *testing.T) {
	engine := NewEngine(DefaultConfig(), zap.NewNop())

	c := candidateFor(domain.CatalogItem{ID: "p1", Name: "thing"}, 0)
	c.FinalScore = 1300
	rc := &ranked{cand: &c}

	pool := engine.applyTiering([]*ranked{rc})
	require.Len(t, pool, 1)
	assert.Less(t, pool[0].cand.FinalScore, 1300.0)
	assert.InDelta(t, 1300*0.7*0.8, pool[0].cand.FinalScore, 1e-9,
		"tier demotion then leader consistency demotion")
}

func TestApplyTiering_KeepsSupportedHighScore(t *testing.T) {
	engine := NewEngine(DefaultConfig(), zap.NewNop())

	c := candidateFor(domain.CatalogItem{ID: "p1", Name: "thing"}, 0)
	c.FinalScore = 1300
	rc := &ranked{cand: &c, categorySignal: true}

	pool := engine.applyTiering([]*ranked{rc})
	require.Len(t, pool, 1)
	assert.Equal(t, 1300.0, pool[0].cand.FinalScore)
}

func TestApplyTiering_CapsTail(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TailCap = 3
	engine := NewEngine(cfg, zap.NewNop())

	pool := make([]*ranked, 0, 10)
	for i := 0; i < 10; i++ {
		c := candidateFor(domain.CatalogItem{ID: string(rune('a' + i)), Name: "thing"}, 0)
		c.FinalScore = float64(i)
		rc := &ranked{cand: &c}
		pool = append(pool, rc)
	}

	out := engine.applyTiering(pool)
	assert.Len(t, out, 3)
}

func TestOrderingBuckets(t *testing.T) {
	mk := func(color, intent bool, score float64, id string) *ranked {
		c := candidateFor(domain.CatalogItem{ID: id, Name: "thing"}, 0)
		c.FinalScore = score
		return &ranked{cand: &c, colorMatch: color, intentMatch: intent}
	}

	both := mk(true, true, 1, "both")
	intent := mk(false, true, 100, "intent")
	color := mk(true, false, 100, "color")
	neither := mk(false, false, 1000, "neither")

	pool := []*ranked{neither, color, intent, both}
	engine := NewEngine(DefaultConfig(), zap.NewNop())
	engine.order(pool, domain.EmptyFilters(), queryContext{})

	assert.Equal(t, "both", pool[0].cand.Item.ID)
	assert.Equal(t, "intent", pool[1].cand.Item.ID)
	assert.Equal(t, "color", pool[2].cand.Item.ID)
	assert.Equal(t, "neither", pool[3].cand.Item.ID)
}

func TestIsPriceFocused(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"cheap budget phone", true},
		{"shoes under 2000", true},
		{"galaxy s24", true},
		{"red running shoes", false},
	}
	for _, tc := range cases {
		qc := queryContext{raw: tc.raw, tokens: query.Tokenize(tc.raw)}
		f := domain.EmptyFilters()
		assert.Equal(t, tc.want, isPriceFocused(qc, f), tc.raw)
	}
}
