// Package ranking turns fused retrieval candidates into the final ordered
// product list. Scoring is an ordered pipeline of stage functions; every
// stage records its contribution in the candidate's score breakdown so a
// result can always explain how it got its position.
package ranking

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/query"
)

// Config carries the tunable thresholds of the pipeline. The defaults mirror
// values arrived at empirically; none of them is load-bearing beyond "works
// well on the catalog", so they are configuration rather than constants.
type Config struct {
	// Tier boundaries for the outlier check, highest first.
	TierTop  float64
	TierHigh float64
	TierMid  float64

	// TierDemotion is applied to candidates that fail their tier's
	// minimum-signal rule.
	TierDemotion float64

	// TailCap bounds the lowest tier.
	TailCap int

	// FloorKeep results are kept unconditionally; the rest must clear
	// max(FloorMin, topScore) * FloorRatio.
	FloorKeep  int
	FloorMin   float64
	FloorRatio float64

	// FallbackSize bounds the last-resort slice.
	FallbackSize int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		TierTop:      1200,
		TierHigh:     800,
		TierMid:      400,
		TierDemotion: 0.7,
		TailCap:      20,
		FloorKeep:    5,
		FloorMin:     10,
		FloorRatio:   0.25,
		FallbackSize: 15,
	}
}

// Result is the ranked output for one query.
type Result struct {
	Products   []domain.Candidate
	IsFallback bool
}

// Engine ranks fused candidates against the analyzed query.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// ranked decorates a candidate with per-query signals that later stages and
// the final ordering need but that do not belong on the wire type.
type ranked struct {
	cand *domain.Candidate

	matchFraction  float64
	nlpScore       float64
	categorySignal bool
	featureSignal  bool
	colorMatch     bool
	intentMatch    bool
}

// Rank applies the scoring stages in order and returns the final product
// list. Candidates violating an explicit price bound are dropped before any
// scoring; every other stage only adjusts scores.
func (e *Engine) Rank(candidates []domain.Candidate, filters domain.Filters, rawQuery string) Result {
	qc := buildQueryContext(rawQuery, filters)

	survivors := e.applyPriceFilter(candidates, filters)
	if len(survivors) == 0 {
		return Result{Products: []domain.Candidate{}}
	}

	pool := make([]*ranked, 0, len(survivors))
	for i := range survivors {
		rc := &ranked{cand: &survivors[i]}
		rc.cand.FinalScore = rc.cand.CombinedScore
		pool = append(pool, rc)
	}

	for _, rc := range pool {
		stageKeywordOverlap(rc, filters)
		stageDetectedType(rc, qc)
		stageQualityPriors(rc)
		stageFilterAlignment(rc, filters)
		stageSemantic(rc, filters, qc)
	}

	pool = e.applyTiering(pool)
	e.order(pool, filters, qc)

	kept := e.applyRelevanceFloor(pool)
	if len(kept) == 0 {
		e.logger.Debug("relevance floor removed all candidates, using blended fallback",
			zap.String("query", rawQuery),
			zap.Int("pool", len(pool)))
		return e.lastResort(pool)
	}

	out := make([]domain.Candidate, 0, len(kept))
	for _, rc := range kept {
		out = append(out, *rc.cand)
	}
	return Result{Products: out}
}

func (e *Engine) applyPriceFilter(candidates []domain.Candidate, filters domain.Filters) []domain.Candidate {
	if !filters.HasPriceBound() {
		out := make([]domain.Candidate, len(candidates))
		copy(out, candidates)
		return out
	}
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if filters.PriceInRange(c.Item.Price) {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) applyRelevanceFloor(pool []*ranked) []*ranked {
	if len(pool) == 0 {
		return nil
	}
	top := 0.0
	for _, rc := range pool {
		if rc.cand.FinalScore > top {
			top = rc.cand.FinalScore
		}
	}
	floor := top
	if e.cfg.FloorMin > floor {
		floor = e.cfg.FloorMin
	}
	floor *= e.cfg.FloorRatio

	kept := make([]*ranked, 0, len(pool))
	for i, rc := range pool {
		if i < e.cfg.FloorKeep || rc.cand.FinalScore >= floor {
			kept = append(kept, rc)
		}
	}
	return kept
}

// lastResort re-scores the surviving pool with a simpler blend and returns
// the best of it flagged as a fallback answer. It only runs when the normal
// pipeline kept nothing.
func (e *Engine) lastResort(pool []*ranked) Result {
	if len(pool) == 0 {
		return Result{Products: []domain.Candidate{}, IsFallback: true}
	}

	type blended struct {
		rc    *ranked
		score float64
	}
	bl := make([]blended, 0, len(pool))
	for _, rc := range pool {
		bl = append(bl, blended{
			rc:    rc,
			score: rc.nlpScore + 2*rc.cand.VectorScore + 10*rc.matchFraction,
		})
	}
	sort.SliceStable(bl, func(i, j int) bool {
		if bl[i].score != bl[j].score {
			return bl[i].score > bl[j].score
		}
		return bl[i].rc.cand.Item.ID < bl[j].rc.cand.Item.ID
	})

	limit := e.cfg.FallbackSize
	if limit <= 0 || limit > len(bl) {
		limit = len(bl)
	}
	out := make([]domain.Candidate, 0, limit)
	for _, b := range bl[:limit] {
		c := *b.rc.cand
		c.IsFallbackResult = true
		out = append(out, c)
	}
	return Result{Products: out, IsFallback: true}
}

// queryContext holds query-level facts computed once per request.
type queryContext struct {
	raw          string
	tokens       []string
	detectedType string
	priceFocused bool

	// topIntent is the highest-weighted category from the detected
	// shopping intents, used by the cross-penalty and brand-consistency
	// checks.
	topIntent string
}

func buildQueryContext(rawQuery string, filters domain.Filters) queryContext {
	qc := queryContext{
		raw:    strings.ToLower(strings.TrimSpace(rawQuery)),
		tokens: query.Tokenize(rawQuery),
	}
	for _, t := range qc.tokens {
		if cat, ok := query.KeywordCategory(t); ok {
			qc.detectedType = cat
			break
		}
	}
	qc.priceFocused = isPriceFocused(qc, filters)
	qc.topIntent = topPriorityCategory(filters.CategoryPriorities)
	return qc
}

func topPriorityCategory(priorities map[string]float64) string {
	best, bestW := "", 0.0
	for cat, w := range priorities {
		if w > bestW || (w == bestW && (best == "" || cat < best)) {
			best, bestW = cat, w
		}
	}
	return best
}
