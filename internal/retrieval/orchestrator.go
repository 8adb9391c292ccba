// Package retrieval runs the three candidate lanes (vector, lexical,
// structured) concurrently against their collaborators and hands the tagged
// results to fusion. A failing lane degrades only itself; the whole request
// fails only when every lane and the top-rated fallback come back empty.
package retrieval

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/query"
)

// Per-field boosts for the lexical lane, highest signal first.
var lexicalFieldBoosts = map[string]float64{
	"name":        4.0,
	"title":       3.5,
	"category":    3.0,
	"subcategory": 3.0,
	"brand":       2.5,
	"tags":        2.0,
	"description": 1.5,
}

// Config carries the orchestration tunables.
type Config struct {
	Index string

	VectorEnabled   bool
	VectorLimit     int
	VectorThreshold float64
	// VectorKeep drops weak similarity hits that only cleared the index
	// threshold on bonuses.
	VectorKeep float64

	LexicalLimit    int
	StructuredLimit int
	FallbackLimit   int

	LaneTimeout time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		Index:           "products",
		VectorEnabled:   true,
		VectorLimit:     30,
		VectorThreshold: 0.1,
		VectorKeep:      0.3,
		LexicalLimit:    30,
		StructuredLimit: 30,
		FallbackLimit:   20,
		LaneTimeout:     2 * time.Second,
	}
}

// Orchestrator fans a query out across the retrieval lanes.
type Orchestrator struct {
	cfg      Config
	vectors  VectorSearcher
	lexical  Lexical
	catalog  Catalog
	observer Observer
	logger   *zap.Logger
}

func NewOrchestrator(cfg Config, vectors VectorSearcher, lexical Lexical, catalog Catalog, observer Observer, logger *zap.Logger) *Orchestrator {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:      cfg,
		vectors:  vectors,
		lexical:  lexical,
		catalog:  catalog,
		observer: observer,
		logger:   logger,
	}
}

// laneOutcome is one lane's result slot, written by exactly one goroutine.
type laneOutcome struct {
	candidates []domain.Candidate
	completed  bool
}

// Retrieve runs all enabled lanes concurrently and returns the tagged
// candidates plus the lane flags for the response. Lane errors are logged
// and degrade that lane only. When every lane comes back empty the top-rated
// fallback fills in; if that collaborator is down too, the request fails
// with ErrRetrievalUnavailable.
func (o *Orchestrator) Retrieve(ctx context.Context, rawQuery string, filters domain.Filters) ([]domain.Candidate, domain.LaneFlags, error) {
	var vectorOut, lexicalOut, structuredOut laneOutcome

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o.runVectorLane(gctx, rawQuery, &vectorOut)
		return nil
	})
	g.Go(func() error {
		o.runLexicalLane(gctx, filters, &lexicalOut)
		return nil
	})
	g.Go(func() error {
		o.runStructuredLane(gctx, rawQuery, filters, &structuredOut)
		return nil
	})
	_ = g.Wait() // lanes never return errors, they degrade in place

	flags := domain.LaneFlags{
		Vector:     len(vectorOut.candidates) > 0,
		Lexical:    len(lexicalOut.candidates) > 0,
		Structured: len(structuredOut.candidates) > 0,
	}

	all := make([]domain.Candidate, 0,
		len(vectorOut.candidates)+len(lexicalOut.candidates)+len(structuredOut.candidates))
	all = append(all, vectorOut.candidates...)
	all = append(all, lexicalOut.candidates...)
	all = append(all, structuredOut.candidates...)

	if len(all) > 0 {
		return all, flags, nil
	}

	// Cancellation with nothing completed is the caller's problem. Once
	// any lane has finished, the partial result stands even when it is
	// empty; the top-rated fallback cannot run on a dead context.
	if ctx.Err() != nil {
		if !vectorOut.completed && !lexicalOut.completed && !structuredOut.completed {
			return nil, flags, ctx.Err()
		}
		return all, flags, nil
	}

	fallback, err := o.catalog.TopRated(ctx, o.cfg.FallbackLimit)
	if err != nil {
		o.logger.Error("top-rated fallback unavailable", zap.Error(err))
		return nil, flags, domain.ErrRetrievalUnavailable
	}
	flags.Fallback = true
	for i := range fallback {
		c := domain.Candidate{
			Item:             fallback[i],
			Lanes:            []domain.Lane{domain.LaneStructured},
			StructuredScore:  rankDecay(i),
			IsFallbackResult: true,
		}
		all = append(all, c)
	}
	return all, flags, nil
}

func (o *Orchestrator) runVectorLane(ctx context.Context, rawQuery string, out *laneOutcome) {
	if !o.cfg.VectorEnabled || o.vectors == nil || strings.TrimSpace(rawQuery) == "" {
		out.completed = true
		return
	}
	resCh := make(chan []domain.Candidate, 1)
	go func() {
		results := o.vectors.Search(rawQuery, o.cfg.VectorLimit, o.cfg.VectorThreshold)
		cands := make([]domain.Candidate, 0, len(results))
		for _, r := range results {
			if r.Similarity <= o.cfg.VectorKeep {
				continue
			}
			cands = append(cands, domain.Candidate{
				Item:        itemFromVectorMetadata(r),
				Lanes:       []domain.Lane{domain.LaneVector},
				VectorScore: r.Similarity,
			})
		}
		resCh <- cands
	}()

	// The scan is synchronous CPU work; bound it by the lane timeout so a
	// huge corpus cannot stall the request.
	select {
	case cands := <-resCh:
		out.candidates = cands
		out.completed = true
		o.observer.LaneResult("vector", true, len(out.candidates))
	case <-ctx.Done():
		o.observer.LaneResult("vector", false, 0)
		o.logger.Warn("vector lane cancelled", zap.Error(ctx.Err()))
	case <-time.After(o.cfg.LaneTimeout):
		o.observer.LaneResult("vector", false, 0)
		o.logger.Warn("vector lane timed out")
	}
}

func (o *Orchestrator) runLexicalLane(ctx context.Context, filters domain.Filters, out *laneOutcome) {
	if o.lexical == nil || len(filters.SearchTerms) == 0 {
		out.completed = true
		return
	}
	lctx, cancel := context.WithTimeout(ctx, o.cfg.LaneTimeout)
	defer cancel()

	if n, err := o.lexical.Count(lctx, o.cfg.Index); err != nil || n == 0 {
		if err != nil {
			o.observer.LaneResult("lexical", false, 0)
			o.logger.Warn("lexical lane unavailable", zap.Error(err))
			return
		}
		out.completed = true
		o.observer.LaneResult("lexical", true, 0)
		return
	}

	docs, err := o.lexical.Search(lctx, o.cfg.Index, LexicalQuery{
		Terms:       filters.SearchTerms,
		FieldBoosts: lexicalFieldBoosts,
		Filters:     filters,
		Limit:       o.cfg.LexicalLimit,
	})
	if err != nil {
		o.observer.LaneResult("lexical", false, 0)
		o.logger.Warn("lexical lane failed", zap.Error(err))
		return
	}

	// Engine scores are unbounded; normalize against the lane maximum so
	// fusion sums stay comparable across lanes.
	maxScore := 0.0
	for _, d := range docs {
		if d.Score > maxScore {
			maxScore = d.Score
		}
	}
	for _, d := range docs {
		score := 1.0
		if maxScore > 0 {
			score = d.Score / maxScore
		}
		out.candidates = append(out.candidates, domain.Candidate{
			Item:         d.Item,
			Lanes:        []domain.Lane{domain.LaneLexical},
			LexicalScore: score,
		})
	}
	out.completed = true
	o.observer.LaneResult("lexical", true, len(out.candidates))
}

// runStructuredLane walks the fallback chain: full-text search in the
// document store, then an attribute filter scan, then a keyword-to-category
// guess when the analyzer found no category.
func (o *Orchestrator) runStructuredLane(ctx context.Context, rawQuery string, filters domain.Filters, out *laneOutcome) {
	if o.catalog == nil {
		out.completed = true
		return
	}
	lctx, cancel := context.WithTimeout(ctx, o.cfg.LaneTimeout)
	defer cancel()

	items, err := o.catalog.TextSearch(lctx, rawQuery, filters, o.cfg.StructuredLimit)
	if err != nil {
		o.logger.Warn("structured text search failed", zap.Error(err))
	}
	if len(items) == 0 {
		items, err = o.catalog.FindByFilter(lctx, filters, o.cfg.StructuredLimit)
		if err != nil {
			o.logger.Warn("structured filter scan failed", zap.Error(err))
		}
	}
	if len(items) == 0 && filters.Category == "" {
		if guessed, ok := guessCategory(rawQuery); ok {
			f := filters
			f.Category = guessed
			items, err = o.catalog.FindByFilter(lctx, f, o.cfg.StructuredLimit)
			if err != nil {
				o.logger.Warn("structured category guess failed",
					zap.String("category", guessed), zap.Error(err))
			}
		}
	}
	if err != nil && len(items) == 0 {
		o.observer.LaneResult("structured", false, 0)
		return
	}

	for i := range items {
		out.candidates = append(out.candidates, domain.Candidate{
			Item:            items[i],
			Lanes:           []domain.Lane{domain.LaneStructured},
			StructuredScore: rankDecay(i),
		})
	}
	out.completed = true
	o.observer.LaneResult("structured", true, len(out.candidates))
}

func guessCategory(rawQuery string) (string, bool) {
	for _, tok := range query.Tokenize(rawQuery) {
		if cat, ok := query.KeywordCategory(tok); ok {
			return cat, true
		}
	}
	return "", false
}

// rankDecay converts a position in an ordered, unscored result list into a
// score in (0, 1], preserving the collaborator's ordering through fusion.
func rankDecay(position int) float64 {
	return 1.0 / float64(position+1)
}
