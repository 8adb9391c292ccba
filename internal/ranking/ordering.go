package ranking

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shoplane/shoplane/internal/domain"
)

var priceCueWords = []string{"under", "over", "above", "below", "budget", "price"}

// isPriceFocused reports whether the query is primarily about price: an
// explicit bound, a price cue word, or any digit in the raw text.
func isPriceFocused(qc queryContext, filters domain.Filters) bool {
	if filters.HasPriceBound() {
		return true
	}
	for _, cue := range priceCueWords {
		for _, tok := range qc.tokens {
			if tok == cue {
				return true
			}
		}
	}
	return strings.ContainsFunc(qc.raw, unicode.IsDigit)
}

// order performs the single, final sort of the pool. Price-focused queries
// order by bound compliance then price; everything else orders by the
// color/intent buckets. Both fall through to final score, combined score and
// id so the ordering is total and deterministic.
func (e *Engine) order(pool []*ranked, filters domain.Filters, qc queryContext) {
	if qc.priceFocused {
		sort.SliceStable(pool, func(i, j int) bool {
			return lessPriceFocused(pool[i], pool[j], filters)
		})
		return
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return lessBucketed(pool[i], pool[j])
	})
}

func lessPriceFocused(a, b *ranked, filters domain.Filters) bool {
	ac, bc := filters.PriceInRange(a.cand.Item.Price), filters.PriceInRange(b.cand.Item.Price)
	if ac != bc {
		return ac
	}
	if a.cand.Item.Price != b.cand.Item.Price {
		// A stated maximum means the shopper is hunting value: cheapest
		// first. A stated minimum means quality-seeking: priciest first.
		if filters.PriceMax != nil {
			return a.cand.Item.Price < b.cand.Item.Price
		}
		if filters.PriceMin != nil {
			return a.cand.Item.Price > b.cand.Item.Price
		}
	}
	return lessByScore(a, b)
}

// orderingBucket ranks color+intent agreement above intent alone, intent
// above color alone, and everything above neither.
func orderingBucket(rc *ranked) int {
	switch {
	case rc.colorMatch && rc.intentMatch:
		return 3
	case rc.intentMatch:
		return 2
	case rc.colorMatch:
		return 1
	default:
		return 0
	}
}

func lessBucketed(a, b *ranked) bool {
	ab, bb := orderingBucket(a), orderingBucket(b)
	if ab != bb {
		return ab > bb
	}
	return lessByScore(a, b)
}

func lessByScore(a, b *ranked) bool {
	if a.cand.FinalScore != b.cand.FinalScore {
		return a.cand.FinalScore > b.cand.FinalScore
	}
	if a.cand.CombinedScore != b.cand.CombinedScore {
		return a.cand.CombinedScore > b.cand.CombinedScore
	}
	return a.cand.Item.ID < b.cand.Item.ID
}
