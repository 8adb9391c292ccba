package ranking

import (
	"strings"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/query"
)

// Field weights for the keyword-overlap stage. Name and title carry the most
// signal; gender and season the least.
const (
	weightNameTitle   = 3.5
	weightSubcategory = 3.0
	weightFeatures    = 2.8
	weightTags        = 2.5
	weightBrand       = 2.3
	weightCategory    = 2.0
	weightDescription = 1.8
	weightGenderLike  = 1.0
)

const (
	matchBonusStrong    = 1.6 // >= 80% of keywords matched
	matchBonusModerate  = 1.3 // >= 50%
	detectedTypeBoost   = 1.4
	brandAlignBonus     = 5.0
	brandMissFactor     = 0.8
	categoryAlignBonus  = 5.0
	categoryMissFactor  = 0.75
	genderAlignBonus    = 0.5
	genderMissFactor    = 0.9
	priceComplyBonus    = 0.5
	priceExceedFactor   = 0.5
	ratingComplyBonus   = 1.0
	ratingMissFactor    = 0.7
	featureTitleBonus   = 3.0
	featureOtherBonus   = 2.0
	priorityWeight      = 3.0
	colorMatchBonus     = 50.0
	colorMissPenalty    = -20.0
	crossPenaltyBase    = -10.0
	crossPenaltyColor   = 3.0
	crossPenaltyPlain   = 1.5
	brandConsistent     = 20.0
	brandIntentAlign    = 10.0
	strongMatchFraction = 0.5
)

// stageKeywordOverlap awards field-weighted points for every search term
// found in the item, then boosts the whole score when most terms matched.
func stageKeywordOverlap(rc *ranked, filters domain.Filters) {
	if len(filters.SearchTerms) == 0 {
		return
	}
	item := &rc.cand.Item

	name := strings.ToLower(item.Name + " " + item.Title)
	subcategory := strings.ToLower(item.Subcategory)
	features := strings.ToLower(strings.Join(item.Features, " "))
	tags := strings.ToLower(strings.Join(item.Tags, " "))
	brand := strings.ToLower(item.Brand)
	category := strings.ToLower(item.Category)
	description := strings.ToLower(item.Description)
	genderSeason := strings.ToLower(item.Gender + " " + item.Season)

	points, matched := 0.0, 0
	for _, term := range filters.SearchTerms {
		hit := false
		for _, fw := range []struct {
			text   string
			weight float64
		}{
			{name, weightNameTitle},
			{subcategory, weightSubcategory},
			{features, weightFeatures},
			{tags, weightTags},
			{brand, weightBrand},
			{category, weightCategory},
			{description, weightDescription},
			{genderSeason, weightGenderLike},
		} {
			if fw.text != "" && strings.Contains(fw.text, term) {
				points += fw.weight
				hit = true
			}
		}
		if hit {
			matched++
		}
	}

	rc.matchFraction = float64(matched) / float64(len(filters.SearchTerms))
	rc.nlpScore += points
	rc.cand.Adjust("keyword_overlap", points)

	switch {
	case rc.matchFraction >= 0.8:
		rc.cand.Scale("keyword_coverage", matchBonusStrong)
	case rc.matchFraction >= 0.5:
		rc.cand.Scale("keyword_coverage", matchBonusModerate)
	}
}

// stageDetectedType boosts items whose category matches the product type
// inferred from the query terms.
func stageDetectedType(rc *ranked, qc queryContext) {
	if qc.detectedType == "" {
		return
	}
	if categoryMatches(qc.detectedType, rc.cand.Item.Category) {
		rc.cand.Scale("detected_type", detectedTypeBoost)
	}
}

// stageQualityPriors applies rating- and review-volume-tiered multipliers.
// Both tiers are cumulative: a well-reviewed, highly-rated product gets both.
func stageQualityPriors(rc *ranked) {
	item := &rc.cand.Item
	switch {
	case item.AverageRating >= 4.5:
		rc.cand.Scale("rating_prior", 1.3)
	case item.AverageRating >= 4.0:
		rc.cand.Scale("rating_prior", 1.2)
	case item.AverageRating >= 3.5:
		rc.cand.Scale("rating_prior", 1.1)
	}
	switch {
	case item.TotalReviews >= 100:
		rc.cand.Scale("review_volume", 1.2)
	case item.TotalReviews >= 50:
		rc.cand.Scale("review_volume", 1.1)
	case item.TotalReviews >= 20:
		rc.cand.Scale("review_volume", 1.05)
	}
}

// stageFilterAlignment rewards items that satisfy the analyzed filters and
// demotes ones that contradict them. Price violations were already dropped
// by the hard filter; the compliance bonus here only rewards survivors.
func stageFilterAlignment(rc *ranked, filters domain.Filters) {
	item := &rc.cand.Item

	if filters.Brand != "" {
		if strings.EqualFold(item.Brand, filters.Brand) {
			rc.cand.Adjust("brand_filter", brandAlignBonus)
		} else {
			rc.cand.Scale("brand_filter", brandMissFactor)
		}
	}

	if filters.Category != "" {
		if categoryMatches(filters.Category, item.Category) {
			rc.cand.Adjust("category_filter", categoryAlignBonus)
			rc.categorySignal = true
		} else {
			rc.cand.Scale("category_filter", categoryMissFactor)
		}
	}

	if filters.Gender != "" {
		if genderMatches(filters.Gender, item.Gender) {
			rc.cand.Adjust("gender_filter", genderAlignBonus)
		} else {
			rc.cand.Scale("gender_filter", genderMissFactor)
		}
	}

	if filters.HasPriceBound() {
		if filters.PriceInRange(item.Price) {
			rc.cand.Adjust("price_filter", priceComplyBonus)
		} else {
			rc.cand.Scale("price_filter", priceExceedFactor)
		}
	}

	if filters.RatingMin != nil {
		if item.AverageRating >= *filters.RatingMin {
			rc.cand.Adjust("rating_filter", ratingComplyBonus)
		} else {
			rc.cand.Scale("rating_filter", ratingMissFactor)
		}
	}

	if len(filters.Features) > 0 {
		title := strings.ToLower(item.Name + " " + item.Title)
		rest := strings.ToLower(item.Description + " " + item.Subcategory + " " + strings.Join(item.Tags, " "))
		bonus := 0.0
		for _, feat := range filters.Features {
			switch {
			case strings.Contains(title, feat):
				bonus += featureTitleBonus
			case strings.Contains(rest, feat):
				bonus += featureOtherBonus
			}
		}
		if bonus > 0 {
			rc.featureSignal = true
			rc.nlpScore += bonus
			rc.cand.Adjust("feature_filter", bonus)
		}
	}
}

// stageSemantic applies the intent-level adjustments: category priorities
// from the detected shopping intents, the color bonus/penalty, cross-intent
// penalties, and brand-category consistency.
func stageSemantic(rc *ranked, filters domain.Filters, qc queryContext) {
	item := &rc.cand.Item
	itemCategory := strings.ToLower(item.Category)

	matchedPriority := false
	for cat, weight := range filters.CategoryPriorities {
		if categoryMatches(cat, itemCategory) {
			delta := weight * priorityWeight
			rc.nlpScore += delta
			rc.cand.Adjust("intent_priority", delta)
			matchedPriority = true
			rc.categorySignal = true
		}
	}
	rc.intentMatch = matchedPriority || (qc.topIntent != "" && categoryMatches(qc.topIntent, itemCategory))

	if filters.IsColorSearch {
		if colorMatches(filters.DetectedColor, item) {
			rc.colorMatch = true
			rc.nlpScore += colorMatchBonus
			rc.cand.Adjust("color_match", colorMatchBonus)
		} else {
			rc.cand.Adjust("color_mismatch", colorMissPenalty)
		}
	}

	// An item sitting in a dictionary category that the detected intents
	// never mention is likely a cross-category stray (clothing intent,
	// footwear item). The penalty sharpens when a color narrowed the query.
	if len(filters.CategoryPriorities) > 0 && !matchedPriority {
		if _, known := query.KeywordCategory(itemCategory); known || isDictionaryCategory(itemCategory) {
			scale := crossPenaltyPlain
			if filters.IsColorSearch {
				scale = crossPenaltyColor
			}
			rc.cand.Adjust("cross_category", crossPenaltyBase*scale)
		}
	}

	if item.Brand != "" {
		if brandCat, ok := query.BrandCategory(item.Brand); ok && categoryMatches(brandCat, itemCategory) {
			bonus := brandConsistent
			if qc.topIntent != "" && categoryMatches(brandCat, qc.topIntent) {
				bonus += brandIntentAlign
			}
			rc.nlpScore += bonus
			rc.cand.Adjust("brand_consistency", bonus)
		}
	}
}

// categoryMatches compares category labels tolerantly: direct equality, a
// handful of known bucket aliases, then a substring check either way.
func categoryMatches(want, have string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	have = strings.ToLower(strings.TrimSpace(have))
	if want == "" || have == "" {
		return false
	}
	if want == have {
		return true
	}
	if aliases, ok := categoryBuckets[want]; ok {
		for _, a := range aliases {
			if have == a || strings.Contains(have, a) {
				return true
			}
		}
	}
	return strings.Contains(have, want) || strings.Contains(want, have)
}

// categoryBuckets maps canonical categories to the label variants catalogs
// actually use for them.
var categoryBuckets = map[string][]string{
	"footwear":      {"shoes", "footwear", "sneakers", "sandals", "boots"},
	"mobile-phones": {"mobile", "phone", "smartphone", "electronics"},
	"clothing":      {"apparel", "clothing", "fashion", "garments"},
	"electronics":   {"electronics", "gadgets", "devices"},
}

func isDictionaryCategory(category string) bool {
	for canonical, aliases := range categoryBuckets {
		if category == canonical {
			return true
		}
		for _, a := range aliases {
			if strings.Contains(category, a) {
				return true
			}
		}
	}
	return false
}

func genderMatches(want, have string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	have = strings.ToLower(strings.TrimSpace(have))
	if have == "" || have == "unisex" {
		return true
	}
	return want == have
}

func colorMatches(color string, item *domain.CatalogItem) bool {
	if color == "" {
		return false
	}
	color = strings.ToLower(color)
	if strings.Contains(strings.ToLower(item.Color), color) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Name+" "+item.Title), color) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), color) {
			return true
		}
	}
	return false
}
