// Package query turns raw product-search text into structured filters,
// intent, and a prioritized search-term list.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/domain"
)

// Match weights for hierarchical category detection. The highest-scoring
// match wins; ties resolve to the first match in dictionary declaration
// order, which keeps category selection deterministic.
const (
	weightExactSynonym     = 1000
	weightSubcategoryExact = 800
	weightCategoryExact    = 600
	weightLemma            = 400
	weightStem             = 300
	weightPhonetic         = 200
	weightContextual       = 150
	weightFuzzy            = 100

	fuzzyThreshold = 0.8
	maxSearchTerms = 20
	maxNGrams      = 5
)

// Analyzer extracts structured intent from free-text queries. Construct one
// at startup and share it; all state is read-only dictionary data.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a query analyzer.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// Analyze parses a raw query into Filters. Blank input yields the
// zero-valued filter set with general intent, never an error.
func (a *Analyzer) Analyze(raw string) domain.Filters {
	text := strings.TrimSpace(strings.ToLower(raw))
	if text == "" {
		return domain.EmptyFilters()
	}

	text = normalizeTypos(text)
	// Join digit groups before tokenization so "under 5,000" survives the
	// comma split as a single amount.
	text = digitCommaRe.ReplaceAllString(text, "$1$2")

	f := domain.EmptyFilters()

	tokens := Tokenize(text)
	extractPriceAndRating(tokens, &f)

	cleaned := removeStopwords(tokens)

	f.Category, f.Subcategory = matchCategory(cleaned)

	f.Gender = extractGender(text, tokens)

	features, excludedBrands := extractFeatures(text)
	f.Features = features

	f.Brand = extractBrand(tokens, excludedBrands)
	f.Color = extractColor(tokens)
	if f.Color != "" {
		f.DetectedColor = f.Color
		f.IsColorSearch = true
	}

	f.CategoryPriorities = categoryPriorities(cleaned)
	f.Intent = determineIntent(&f)
	f.SearchTerms = buildSearchTerms(&f, cleaned)

	a.logger.Debug("query analyzed",
		zap.String("query", raw),
		zap.String("intent", string(f.Intent)),
		zap.String("category", f.Category),
		zap.String("brand", f.Brand),
		zap.Int("terms", len(f.SearchTerms)),
	)
	return f
}

// digitCommaRe finds a comma used as a thousands separator.
var digitCommaRe = regexp.MustCompile(`(\d),(\d)`)

// normalizeTypos rewrites known misspellings and spaced variants. Longer
// keys are applied first so "smart phone case" becomes "smartphone case"
// before single-word rules run. Keys match whole words only, so "mobiles"
// becomes "mobile" while "automobiles" stays untouched.
func normalizeTypos(text string) string {
	for _, n := range normalizations {
		text = n.pattern.ReplaceAllString(text, n.replacement)
	}
	return text
}

type normalization struct {
	pattern     *regexp.Regexp
	replacement string
}

// normalizations holds typoNormalizations compiled into word-bounded
// patterns, sorted longest key first, computed once at package init.
var normalizations = func() []normalization {
	keys := make([]string, 0, len(typoNormalizations))
	for k := range typoNormalizations {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && len(keys[j]) > len(keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	out := make([]normalization, len(keys))
	for i, k := range keys {
		out[i] = normalization{
			pattern:     regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`),
			replacement: typoNormalizations[k],
		}
	}
	return out
}()

var tokenSplitRe = regexp.MustCompile(`[^a-z0-9&]+`)

// Tokenize lowercases text and splits it on non-alphanumeric runs.
// Shared with the vector index so both sides see the same terms.
func Tokenize(text string) []string {
	parts := tokenSplitRe.Split(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// IsStopword reports whether a token belongs to the domain stopword set.
func IsStopword(t string) bool {
	_, ok := stopwords[t]
	return ok
}

func removeStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := stopwords[t]; stop {
			continue
		}
		if isNumeric(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// --- Price and rating ---

var priceRangeRe = regexp.MustCompile(
	`(?:between|from)\s+(?:rs\.?\s*|₹\s*)?(\d[\d,]*)\s+(?:and|to)\s+(?:rs\.?\s*|₹\s*)?(\d[\d,]*)`)

var maxCues = map[string]struct{}{
	"under": {}, "below": {}, "within": {}, "max": {}, "maximum": {},
	"budget": {}, "upto": {}, "less": {}, "cheaper": {},
}

var minCues = map[string]struct{}{
	"over": {}, "above": {}, "min": {}, "minimum": {}, "atleast": {},
	"more": {},
}

var ratingCues = map[string]struct{}{
	"star": {}, "stars": {}, "rating": {}, "rated": {},
}

// extractPriceAndRating fills price bounds and the rating floor. Explicit
// range phrasing wins; otherwise numbers >= 100 are classified by a nearby
// cue word, and small numbers next to star/rating cues become the rating
// floor instead of a price.
func extractPriceAndRating(tokens []string, f *domain.Filters) {
	joined := strings.Join(tokens, " ")
	if m := priceRangeRe.FindStringSubmatch(joined); m != nil {
		lo := parseAmount(m[1])
		hi := parseAmount(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		f.PriceMin = &lo
		f.PriceMax = &hi
		return
	}

	for i, t := range tokens {
		if !isNumeric(t) {
			continue
		}
		val := parseAmount(t)

		// Rating floor: small numbers adjacent to star/rating cues are
		// not prices.
		if val >= 1 && val <= 5 && nearCue(tokens, i, 2, ratingCues) {
			v := val
			f.RatingMin = &v
			continue
		}

		if val < 100 {
			continue
		}
		switch {
		case nearCue(tokens, i, 3, maxCues):
			v := val
			f.PriceMax = &v
		case nearCue(tokens, i, 3, minCues):
			v := val
			f.PriceMin = &v
		}
	}
}

func parseAmount(s string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v
}

// nearCue reports whether any token within dist positions of index i
// (either side) belongs to the cue set.
func nearCue(tokens []string, i, dist int, cues map[string]struct{}) bool {
	lo := i - dist
	if lo < 0 {
		lo = 0
	}
	hi := i + dist
	if hi >= len(tokens) {
		hi = len(tokens) - 1
	}
	for j := lo; j <= hi; j++ {
		if j == i {
			continue
		}
		if _, ok := cues[tokens[j]]; ok {
			return true
		}
	}
	return false
}

// --- Category ---

// matchCategory evaluates every cleaned token against the category
// dictionary and returns the best-scoring category/subcategory pair.
// A subcategory match implies its parent category.
func matchCategory(tokens []string) (category, subcategory string) {
	bestScore := 0

	for _, t := range tokens {
		for _, cat := range categoryDict {
			if s := scoreTerms(t, cat.Synonyms, cat.Name, weightCategoryExact); s > bestScore {
				bestScore, category, subcategory = s, cat.Name, ""
			}
			if containsTerm(cat.Context, t) && weightContextual > bestScore {
				bestScore, category, subcategory = weightContextual, cat.Name, ""
			}
			for _, sub := range cat.Subcategories {
				if s := scoreTerms(t, sub.Synonyms, sub.Name, weightSubcategoryExact); s > bestScore {
					bestScore, category, subcategory = s, cat.Name, sub.Name
				}
				if containsTerm(sub.Context, t) && weightContextual > bestScore {
					bestScore, category, subcategory = weightContextual, cat.Name, sub.Name
				}
			}
		}
	}

	// A category-level win ("shoes") can still be refined by subcategory
	// signals in the remaining tokens ("running" -> sports-shoes).
	if category != "" && subcategory == "" {
		subcategory = refineSubcategory(category, tokens)
	}
	return category, subcategory
}

// refineSubcategory scores tokens against the winning category's
// subcategories only, returning the best match if any signal exists.
func refineSubcategory(category string, tokens []string) string {
	var cat *categoryEntry
	for i := range categoryDict {
		if categoryDict[i].Name == category {
			cat = &categoryDict[i]
			break
		}
	}
	if cat == nil {
		return ""
	}

	bestScore := 0
	best := ""
	for _, t := range tokens {
		for _, sub := range cat.Subcategories {
			if s := scoreTerms(t, sub.Synonyms, sub.Name, weightSubcategoryExact); s > bestScore {
				bestScore, best = s, sub.Name
			}
			if containsTerm(sub.Context, t) && weightContextual > bestScore {
				bestScore, best = weightContextual, sub.Name
			}
		}
	}
	return best
}

// scoreTerms scores token t against a synonym list and the entry's own name.
// exactNameWeight is 800 for subcategories and 600 for categories.
func scoreTerms(t string, synonyms []string, name string, exactNameWeight int) int {
	best := 0
	if t == name && exactNameWeight > best {
		best = exactNameWeight
	}
	lemma := Lemma(t)
	stem := Stem(t)
	for _, syn := range synonyms {
		switch {
		case t == syn:
			return weightExactSynonym
		case lemma == syn || Lemma(syn) == lemma:
			if weightLemma > best {
				best = weightLemma
			}
		case stem == Stem(syn):
			if weightStem > best {
				best = weightStem
			}
		case PhoneticEqual(t, syn):
			if weightPhonetic > best {
				best = weightPhonetic
			}
		case len(t) > 3 && Similarity(t, syn) >= fuzzyThreshold:
			if weightFuzzy > best {
				best = weightFuzzy
			}
		}
	}
	return best
}

func containsTerm(terms []string, t string) bool {
	for _, term := range terms {
		if term == t {
			return true
		}
	}
	return false
}

// --- Gender ---

func extractGender(text string, tokens []string) string {
	bestScore := 0
	gender := ""

	for _, t := range tokens {
		if g, ok := genderDirectTerms[t]; ok {
			if s := len(t) * 10; s > bestScore {
				bestScore, gender = s, g
			}
		}
		if g, ok := genderContextTerms[t]; ok {
			if s := len(t) * 15; s > bestScore {
				bestScore, gender = s, g
			}
		}
	}
	for _, gp := range genderPatterns {
		if gp.Pattern.MatchString(text) && 100 > bestScore {
			bestScore, gender = 100, gp.Gender
		}
	}
	return gender
}

// --- Brand, color, features ---

// extractBrand returns the first dictionary hit over the query tokens,
// skipping terms ruled out by feature detection.
func extractBrand(tokens []string, excluded map[string]struct{}) string {
	for _, t := range tokens {
		if _, skip := excluded[t]; skip {
			continue
		}
		for _, b := range brandDict {
			for _, term := range b.Terms {
				if _, skip := excluded[term]; skip {
					continue
				}
				if t == term {
					return b.Name
				}
			}
		}
	}
	return ""
}

// BrandCategory returns the home category of a known brand.
func BrandCategory(brand string) (string, bool) {
	for _, b := range brandDict {
		if b.Name == brand {
			return b.Category, true
		}
	}
	return "", false
}

func extractColor(tokens []string) string {
	for _, t := range tokens {
		for _, c := range colorTerms {
			if t == c {
				return c
			}
		}
	}
	return ""
}

// extractFeatures matches feature-family keywords as substrings of the
// normalized query text (many keywords are multiword). It also returns the
// brand terms that matched families exclude from brand scoring.
func extractFeatures(text string) ([]string, map[string]struct{}) {
	var features []string
	seen := make(map[string]struct{})
	excluded := make(map[string]struct{})

	for _, fam := range featureFamilies {
		matched := false
		for _, kw := range fam.Keywords {
			if strings.Contains(text, kw) {
				if _, dup := seen[kw]; !dup {
					features = append(features, kw)
					seen[kw] = struct{}{}
				}
				matched = true
			}
		}
		if matched {
			for _, term := range fam.ExcludeBrandTerms {
				excluded[term] = struct{}{}
			}
		}
	}
	return features, excluded
}

func categoryPriorities(tokens []string) map[string]float64 {
	var prio map[string]float64
	for _, t := range tokens {
		weights, ok := intentPriorityTable[t]
		if !ok {
			continue
		}
		if prio == nil {
			prio = make(map[string]float64)
		}
		for cat, w := range weights {
			if w > prio[cat] {
				prio[cat] = w
			}
		}
	}
	return prio
}

// --- Intent and search terms ---

// determineIntent applies the fixed priority order:
// price > feature > brand > category > general.
func determineIntent(f *domain.Filters) domain.Intent {
	switch {
	case f.HasPriceBound():
		return domain.IntentPrice
	case len(f.Features) > 0:
		return domain.IntentFeature
	case f.Brand != "":
		return domain.IntentBrand
	case f.Category != "":
		return domain.IntentCategory
	default:
		return domain.IntentGeneral
	}
}

// buildSearchTerms assembles the prioritized term list: detected
// category/subcategory/brand/gender first, then color and features, then
// cleaned tokens with their stems, lemmas, and a few adjacent-token n-grams.
func buildSearchTerms(f *domain.Filters, cleaned []string) []string {
	terms := make([]string, 0, maxSearchTerms)
	seen := make(map[string]struct{})

	add := func(t string) {
		if t == "" || len(terms) >= maxSearchTerms {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		terms = append(terms, t)
		seen[t] = struct{}{}
	}

	add(f.Category)
	add(f.Subcategory)
	add(f.Brand)
	add(f.Gender)
	add(f.Color)
	for _, feat := range f.Features {
		add(feat)
	}

	for _, t := range cleaned {
		add(t)
	}
	for _, t := range cleaned {
		add(Stem(t))
	}
	for _, t := range cleaned {
		add(Lemma(t))
	}
	for i, n := 0, 0; i+1 < len(cleaned) && n < maxNGrams; i++ {
		before := len(terms)
		add(cleaned[i] + " " + cleaned[i+1])
		if len(terms) > before {
			n++
		}
	}
	return terms
}
