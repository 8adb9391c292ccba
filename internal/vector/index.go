package vector

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/query"
)

// Semantic bonus weights layered on top of raw cosine similarity.
const (
	bonusSubstring    = 0.5
	bonusPartialToken = 0.3
	bonusEditDistance = 0.2
	bonusCategory     = 0.3
	bonusBrand        = 0.3

	editDistanceMax = 3

	// minBaseSimilarity keeps weak-but-nonzero cosine hits in play even
	// when the bonus-adjusted score misses the caller's threshold.
	minBaseSimilarity = 0.0001
)

// Config holds index tuning. Dimension bounds clamp the vector width
// derived from vocabulary size.
type Config struct {
	MinDimensions int
	MaxDimensions int
	SnapshotPath  string
}

// DefaultConfig returns the standard dimension bounds.
func DefaultConfig() Config {
	return Config{MinDimensions: 100, MaxDimensions: 500}
}

// indexState is an immutable vocabulary + document snapshot. Readers load it
// atomically; writers build a replacement and publish it under mu.
type indexState struct {
	docs       map[string]*Document
	vocab      []string
	vocabIndex map[string]int
	version    int
}

func emptyState() *indexState {
	return &indexState{
		docs:       make(map[string]*Document),
		vocabIndex: make(map[string]int),
	}
}

func (s *indexState) dim(cfg Config) int {
	return clampDim(len(s.vocab), cfg.MinDimensions, cfg.MaxDimensions)
}

// Index is the in-memory term-vector store. Reads are lock-free via
// snapshot-and-swap; mutations are serialized by mu.
type Index struct {
	cfg    Config
	logger *zap.Logger

	mu    sync.Mutex
	state atomic.Pointer[indexState]
}

// New creates an empty index.
func New(cfg Config, logger *zap.Logger) *Index {
	if cfg.MinDimensions <= 0 {
		cfg.MinDimensions = 100
	}
	if cfg.MaxDimensions < cfg.MinDimensions {
		cfg.MaxDimensions = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := &Index{cfg: cfg, logger: logger}
	idx.state.Store(emptyState())
	return idx
}

// IndexProduct adds or overwrites one product. Re-indexing the same id
// replaces the previous document.
func (idx *Index) IndexProduct(item *domain.CatalogItem) error {
	if item == nil || item.ID == "" {
		return fmt.Errorf("%w: missing id", domain.ErrInvalidItem)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	next := idx.cloneState()
	idx.addToState(next, item)
	idx.state.Store(next)
	return nil
}

// BulkIndex indexes a batch under a single vocabulary rebuild and returns
// how many items were accepted.
func (idx *Index) BulkIndex(items []domain.CatalogItem) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	next := idx.cloneState()
	ok := 0
	for i := range items {
		if items[i].ID == "" {
			idx.logger.Warn("skipping item without id during bulk index")
			continue
		}
		idx.addToState(next, &items[i])
		ok++
	}
	idx.state.Store(next)
	return ok
}

// Clear removes all documents and the vocabulary.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.state.Store(emptyState())
}

// Search scores the query against every stored document and returns up to
// limit results. Documents are kept when the bonus-adjusted score reaches
// threshold or the raw cosine similarity is nonzero. A single bad document
// is logged and skipped, never failing the scan.
func (idx *Index) Search(queryText string, limit int, threshold float64) []Result {
	state := idx.state.Load()
	if len(state.docs) == 0 || strings.TrimSpace(queryText) == "" {
		return nil
	}

	dim := state.dim(idx.cfg)
	qTerms := extractTerms(queryText)
	qVec := vectorize(termFrequencies(qTerms), len(qTerms), state.vocabIndex, dim)

	keywords := queryKeywords(queryText)

	var refreshed []*Document
	results := make([]Result, 0, len(state.docs))

	for _, doc := range state.docs {
		vec := doc.Vector
		// Lazy re-embed: documents indexed before the vocabulary grew are
		// rebuilt against the current ordering on first touch.
		if doc.VocabVersion != state.version {
			fresh := idx.revectorize(doc, state, dim)
			refreshed = append(refreshed, fresh)
			vec = fresh.Vector
		}
		if len(vec) == 0 {
			idx.logger.Warn("skipping document with empty vector", zap.String("id", doc.ID))
			continue
		}

		sim := cosine(qVec, vec)
		score := sim + semanticBonus(keywords, doc)
		if score > 1.0 {
			score = 1.0
		}
		if score >= threshold || sim >= minBaseSimilarity {
			results = append(results, Result{ID: doc.ID, Similarity: score, Metadata: doc.Metadata})
		}
	}

	if len(refreshed) > 0 {
		idx.publishRefreshed(refreshed)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Stats reports document count, vocabulary size, and the distinct
// categories and brands currently indexed.
func (idx *Index) Stats() Stats {
	state := idx.state.Load()

	catSet := make(map[string]struct{})
	brandSet := make(map[string]struct{})
	for _, doc := range state.docs {
		if doc.Metadata.Category != "" {
			catSet[doc.Metadata.Category] = struct{}{}
		}
		if doc.Metadata.Brand != "" {
			brandSet[doc.Metadata.Brand] = struct{}{}
		}
	}

	return Stats{
		TotalDocuments: len(state.docs),
		VocabularySize: len(state.vocab),
		Categories:     sortedKeys(catSet),
		Brands:         sortedKeys(brandSet),
	}
}

// --- internals ---

// cloneState copies the current state for mutation. Documents are shared by
// pointer; mutations always allocate fresh Document values.
func (idx *Index) cloneState() *indexState {
	cur := idx.state.Load()
	next := &indexState{
		docs:       make(map[string]*Document, len(cur.docs)+1),
		vocab:      append([]string(nil), cur.vocab...),
		vocabIndex: make(map[string]int, len(cur.vocabIndex)),
		version:    cur.version,
	}
	for id, doc := range cur.docs {
		next.docs[id] = doc
	}
	for term, pos := range cur.vocabIndex {
		next.vocabIndex[term] = pos
	}
	return next
}

// addToState indexes one item into a mutable state, growing the vocabulary
// as needed. Existing documents are NOT re-vectorized here; they refresh
// lazily when a later search touches them (vocabulary drift handling).
func (idx *Index) addToState(state *indexState, item *domain.CatalogItem) {
	text := searchText(item)
	terms := extractTerms(text)

	grew := false
	for _, t := range terms {
		if _, known := state.vocabIndex[t]; !known {
			state.vocabIndex[t] = len(state.vocab)
			state.vocab = append(state.vocab, t)
			grew = true
		}
	}
	if grew {
		state.version++
	}

	dim := state.dim(idx.cfg)
	state.docs[item.ID] = &Document{
		ID:           item.ID,
		Vector:       vectorize(termFrequencies(terms), len(terms), state.vocabIndex, dim),
		VocabVersion: state.version,
		Metadata:     metadataFromItem(item),
		SearchText:   text,
	}
}

// revectorize rebuilds a stale document against the current vocabulary.
func (idx *Index) revectorize(doc *Document, state *indexState, dim int) *Document {
	terms := extractTerms(doc.SearchText)
	fresh := *doc
	fresh.Vector = vectorize(termFrequencies(terms), len(terms), state.vocabIndex, dim)
	fresh.VocabVersion = state.version
	return &fresh
}

// publishRefreshed merges lazily re-embedded documents into the latest
// state. Concurrent writers may have advanced the vocabulary again; stale
// entries will simply refresh on the next touch.
func (idx *Index) publishRefreshed(refreshed []*Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.state.Load()
	next := idx.cloneState()
	for _, doc := range refreshed {
		if existing, ok := cur.docs[doc.ID]; ok && existing.VocabVersion >= doc.VocabVersion {
			continue
		}
		if doc.VocabVersion == next.version {
			next.docs[doc.ID] = doc
		}
	}
	idx.state.Store(next)
}

// queryKeywords returns the non-stopword surface tokens used by the
// semantic bonus heuristics (unstemmed, unlike vector terms).
func queryKeywords(text string) []string {
	tokens := query.Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !query.IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}

// semanticBonus layers lexical heuristics over cosine similarity: literal
// substring hits, partial token overlap, near-miss spellings, and
// category/brand mentions.
func semanticBonus(keywords []string, doc *Document) float64 {
	var bonus float64

	substring := false
	partial := false
	nearMiss := false
	docTokens := query.Tokenize(doc.SearchText)

	for _, kw := range keywords {
		if !substring && strings.Contains(doc.SearchText, kw) {
			substring = true
			continue
		}
		for _, dt := range docTokens {
			if !partial && len(kw) >= 3 && len(dt) >= 3 &&
				(strings.Contains(dt, kw) || strings.Contains(kw, dt)) {
				partial = true
			}
			if !nearMiss && len(kw) >= 4 && len(dt) >= 4 &&
				query.WithinEditDistance(kw, dt, editDistanceMax) {
				nearMiss = true
			}
		}
	}

	if substring {
		bonus += bonusSubstring
	}
	if partial {
		bonus += bonusPartialToken
	}
	if nearMiss {
		bonus += bonusEditDistance
	}

	cat := strings.ToLower(doc.Metadata.Category)
	brand := strings.ToLower(doc.Metadata.Brand)
	for _, kw := range keywords {
		if cat != "" && (strings.Contains(cat, kw) || strings.Contains(kw, cat)) {
			bonus += bonusCategory
			break
		}
	}
	for _, kw := range keywords {
		if brand != "" && (strings.Contains(brand, kw) || strings.Contains(kw, brand)) {
			bonus += bonusBrand
			break
		}
	}
	return bonus
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
