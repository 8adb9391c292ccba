package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/vector"
)

type fakeVector struct {
	results []vector.Result
}

func (f *fakeVector) Search(string, int, float64) []vector.Result {
	return f.results
}

type fakeLexical struct {
	count     int64
	countErr  error
	docs      []ScoredDoc
	searchErr error
	lastQuery LexicalQuery
}

func (f *fakeLexical) Count(context.Context, string) (int64, error) {
	return f.count, f.countErr
}

func (f *fakeLexical) Search(_ context.Context, _ string, q LexicalQuery) ([]ScoredDoc, error) {
	f.lastQuery = q
	return f.docs, f.searchErr
}

type fakeCatalog struct {
	textItems    []domain.CatalogItem
	textErr      error
	filterItems  []domain.CatalogItem
	filterErr    error
	topItems     []domain.CatalogItem
	topErr       error
	filterCalls  []domain.Filters
	topRatedHits int
}

func (f *fakeCatalog) TextSearch(_ context.Context, _ string, _ domain.Filters, _ int) ([]domain.CatalogItem, error) {
	return f.textItems, f.textErr
}

func (f *fakeCatalog) FindByFilter(_ context.Context, filters domain.Filters, _ int) ([]domain.CatalogItem, error) {
	f.filterCalls = append(f.filterCalls, filters)
	return f.filterItems, f.filterErr
}

func (f *fakeCatalog) TopRated(context.Context, int) ([]domain.CatalogItem, error) {
	f.topRatedHits++
	return f.topItems, f.topErr
}

func item(id string) domain.CatalogItem {
	return domain.CatalogItem{ID: id, Name: "item " + id}
}

func vecResult(id string, sim float64) vector.Result {
	return vector.Result{ID: id, Similarity: sim, Metadata: vector.Metadata{Name: "item " + id}}
}

func searchFilters(terms ...string) domain.Filters {
	f := domain.EmptyFilters()
	f.SearchTerms = terms
	return f
}

func newTestOrchestrator(v VectorSearcher, l Lexical, c Catalog) *Orchestrator {
	return NewOrchestrator(DefaultConfig(), v, l, c, nil, zap.NewNop())
}

func TestRetrieve_AllLanesContribute(t *testing.T) {
	vectors := &fakeVector{results: []vector.Result{vecResult("v1", 0.9)}}
	lexical := &fakeLexical{count: 10, docs: []ScoredDoc{{Item: item("l1"), Score: 5}}}
	catalog := &fakeCatalog{textItems: []domain.CatalogItem{item("s1")}}

	o := newTestOrchestrator(vectors, lexical, catalog)
	cands, flags, err := o.Retrieve(context.Background(), "red shoes", searchFilters("red", "shoes"))
	require.NoError(t, err)

	assert.True(t, flags.Vector)
	assert.True(t, flags.Lexical)
	assert.True(t, flags.Structured)
	assert.False(t, flags.Fallback)
	require.Len(t, cands, 3)

	byLane := map[domain.Lane]int{}
	for _, c := range cands {
		for _, l := range c.Lanes {
			byLane[l]++
		}
	}
	assert.Equal(t, 1, byLane[domain.LaneVector])
	assert.Equal(t, 1, byLane[domain.LaneLexical])
	assert.Equal(t, 1, byLane[domain.LaneStructured])
}

func TestRetrieve_VectorKeepRuleDropsWeakHits(t *testing.T) {
	vectors := &fakeVector{results: []vector.Result{
		vecResult("strong", 0.8),
		vecResult("weak", 0.2),
	}}
	catalog := &fakeCatalog{textItems: []domain.CatalogItem{item("s1")}}

	o := newTestOrchestrator(vectors, nil, catalog)
	cands, _, err := o.Retrieve(context.Background(), "shoes", searchFilters("shoes"))
	require.NoError(t, err)

	for _, c := range cands {
		assert.NotEqual(t, "weak", c.Item.ID)
	}
}

func TestRetrieve_LexicalFailureDegradesLaneOnly(t *testing.T) {
	vectors := &fakeVector{results: []vector.Result{vecResult("v1", 0.9)}}
	lexical := &fakeLexical{count: 10, searchErr: errors.New("connection refused")}
	catalog := &fakeCatalog{textItems: []domain.CatalogItem{item("s1")}}

	o := newTestOrchestrator(vectors, lexical, catalog)
	cands, flags, err := o.Retrieve(context.Background(), "shoes", searchFilters("shoes"))
	require.NoError(t, err)

	assert.False(t, flags.Lexical)
	assert.True(t, flags.Vector)
	assert.True(t, flags.Structured)
	assert.Len(t, cands, 2)
}

func TestRetrieve_LexicalScoresNormalized(t *testing.T) {
	lexical := &fakeLexical{count: 10, docs: []ScoredDoc{
		{Item: item("a"), Score: 20},
		{Item: item("b"), Score: 5},
	}}

	o := newTestOrchestrator(nil, lexical, nil)
	cands, _, err := o.Retrieve(context.Background(), "shoes", searchFilters("shoes"))
	require.NoError(t, err)
	require.Len(t, cands, 2)

	scores := map[string]float64{}
	for _, c := range cands {
		scores[c.Item.ID] = c.LexicalScore
	}
	assert.InDelta(t, 1.0, scores["a"], 1e-9)
	assert.InDelta(t, 0.25, scores["b"], 1e-9)
}

func TestRetrieve_StructuredFallbackChain(t *testing.T) {
	catalog := &fakeCatalog{filterItems: []domain.CatalogItem{item("f1")}}

	o := newTestOrchestrator(nil, nil, catalog)
	cands, flags, err := o.Retrieve(context.Background(), "shoes", searchFilters("shoes"))
	require.NoError(t, err)

	assert.True(t, flags.Structured)
	require.Len(t, cands, 1)
	assert.Equal(t, "f1", cands[0].Item.ID)
	require.NotEmpty(t, catalog.filterCalls)
}

func TestRetrieve_StructuredCategoryGuess(t *testing.T) {
	catalog := &fakeCatalog{topItems: []domain.CatalogItem{item("top1")}}
	o := newTestOrchestrator(nil, nil, catalog)

	// TextSearch and the unfiltered scan return nothing; the keyword
	// table maps "laptop" to electronics for the third attempt.
	_, _, err := o.Retrieve(context.Background(), "laptop", searchFilters("laptop"))
	require.NoError(t, err)

	require.Len(t, catalog.filterCalls, 2)
	assert.Empty(t, catalog.filterCalls[0].Category)
	assert.Equal(t, "electronics", catalog.filterCalls[1].Category)
}

func TestRetrieve_AllLanesEmptyUsesTopRated(t *testing.T) {
	catalog := &fakeCatalog{topItems: []domain.CatalogItem{item("top1"), item("top2")}}

	o := newTestOrchestrator(nil, nil, catalog)
	cands, flags, err := o.Retrieve(context.Background(), "zzz nothing", searchFilters("zzz"))
	require.NoError(t, err)

	assert.True(t, flags.Fallback)
	require.Len(t, cands, 2)
	for _, c := range cands {
		assert.True(t, c.IsFallbackResult)
	}
	assert.Equal(t, 1, catalog.topRatedHits)
}

func TestRetrieve_FallbackUnavailableIsFatal(t *testing.T) {
	catalog := &fakeCatalog{topErr: errors.New("store down")}

	o := newTestOrchestrator(nil, nil, catalog)
	_, _, err := o.Retrieve(context.Background(), "zzz", searchFilters("zzz"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestRetrieve_CancelledBeforeAnyLane(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	catalog := &fakeCatalog{topItems: []domain.CatalogItem{item("top1")}}
	lexical := &fakeLexical{countErr: context.Canceled}
	o := newTestOrchestrator(nil, lexical, catalog)

	// The structured lane still completes against the fake, so partial
	// behavior applies and the call does not fail outright.
	cands, _, err := o.Retrieve(ctx, "shoes", searchFilters("shoes"))
	require.NoError(t, err)
	assert.NotEmpty(t, cands)
}

func TestRetrieve_CancelledAfterLaneCompletedSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The lexical lane completes empty (engine index holds no documents);
	// the structured lane degrades because the store rejects the dead
	// context. The empty partial result stands and the top-rated fallback
	// must not run.
	lexical := &fakeLexical{count: 0}
	catalog := &fakeCatalog{
		textErr:   context.Canceled,
		filterErr: context.Canceled,
		topErr:    errors.New("fallback must not be reached"),
	}
	o := newTestOrchestrator(nil, lexical, catalog)

	cands, flags, err := o.Retrieve(ctx, "zzz", searchFilters("zzz"))
	require.NoError(t, err)
	assert.Empty(t, cands)
	assert.False(t, flags.Fallback)
	assert.Zero(t, catalog.topRatedHits)
}

func TestRetrieve_LexicalQueryCarriesBoosts(t *testing.T) {
	lexical := &fakeLexical{count: 5, docs: []ScoredDoc{{Item: item("a"), Score: 1}}}
	o := newTestOrchestrator(nil, lexical, nil)

	_, _, err := o.Retrieve(context.Background(), "shoes", searchFilters("shoes", "footwear"))
	require.NoError(t, err)

	assert.Equal(t, []string{"shoes", "footwear"}, lexical.lastQuery.Terms)
	assert.Equal(t, 4.0, lexical.lastQuery.FieldBoosts["name"])
	assert.NotZero(t, lexical.lastQuery.Limit)
}
