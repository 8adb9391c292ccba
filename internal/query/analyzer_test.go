package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/domain"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(zap.NewNop())
}

func TestAnalyze_EmptyQuery(t *testing.T) {
	a := newTestAnalyzer()

	for _, q := range []string{"", "   ", "\t\n"} {
		f := a.Analyze(q)
		assert.Equal(t, domain.IntentGeneral, f.Intent)
		assert.Empty(t, f.Category)
		assert.Empty(t, f.Brand)
		assert.Nil(t, f.PriceMax)
		assert.Nil(t, f.RatingMin)
		assert.Empty(t, f.SearchTerms)
	}
}

func TestAnalyze_PriceMaxCues(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		query string
		want  float64
	}{
		{"running shoes under 2000", 2000},
		{"laptop below 50000", 50000},
		{"headphones within 1500", 1500},
		{"budget phone 10000", 10000},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := a.Analyze(tt.query)
			require.NotNil(t, f.PriceMax, "price_max should be set")
			assert.Equal(t, tt.want, *f.PriceMax)
			assert.Equal(t, domain.IntentPrice, f.Intent)
		})
	}
}

func TestAnalyze_PriceWithThousandsSeparator(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		query string
		want  float64
	}{
		{"shoes under 5,000", 5000},
		{"laptop below 1,50,000", 150000},
		{"tv under rs 45,000", 45000},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := a.Analyze(tt.query)
			require.NotNil(t, f.PriceMax, "price_max should be set")
			assert.Equal(t, tt.want, *f.PriceMax)
		})
	}
}

func TestAnalyze_PriceMinCues(t *testing.T) {
	a := newTestAnalyzer()

	f := a.Analyze("laptop above 40000")
	require.NotNil(t, f.PriceMin)
	assert.Equal(t, 40000.0, *f.PriceMin)
	assert.Nil(t, f.PriceMax)
}

func TestAnalyze_PriceRange(t *testing.T) {
	a := newTestAnalyzer()

	for _, q := range []string{
		"phone between 10000 and 20000",
		"phone from 10000 to 20000",
	} {
		f := a.Analyze(q)
		require.NotNil(t, f.PriceMin, q)
		require.NotNil(t, f.PriceMax, q)
		assert.Equal(t, 10000.0, *f.PriceMin)
		assert.Equal(t, 20000.0, *f.PriceMax)
	}
}

func TestAnalyze_PriceRange_SwappedBounds(t *testing.T) {
	a := newTestAnalyzer()

	f := a.Analyze("phone between 20000 and 10000")
	require.NotNil(t, f.PriceMin)
	require.NotNil(t, f.PriceMax)
	assert.LessOrEqual(t, *f.PriceMin, *f.PriceMax)
}

func TestAnalyze_RatingFloor(t *testing.T) {
	a := newTestAnalyzer()

	for _, tt := range []struct {
		query string
		want  float64
	}{
		{"4 star phone", 4},
		{"5 stars laptop", 5},
		{"shoes rated 3", 3},
	} {
		f := a.Analyze(tt.query)
		require.NotNil(t, f.RatingMin, tt.query)
		assert.Equal(t, tt.want, *f.RatingMin, tt.query)
	}
}

func TestAnalyze_RatingNumberNotTreatedAsPrice(t *testing.T) {
	a := newTestAnalyzer()

	f := a.Analyze("5 star wireless headphones")
	require.NotNil(t, f.RatingMin)
	assert.Equal(t, 5.0, *f.RatingMin)
	assert.Nil(t, f.PriceMin)
	assert.Nil(t, f.PriceMax)
	// wireless is a connectivity feature; intent priority puts feature
	// above brand and category when no price bound is present.
	assert.Contains(t, f.Features, "wireless")
	assert.Equal(t, domain.IntentFeature, f.Intent)
}

func TestAnalyze_CategoryDetection(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		query   string
		cat     string
		subcat  string
		comment string
	}{
		{"running shoes", "footwear", "sports-shoes", "context word plus synonym"},
		{"sneakers for men", "footwear", "sports-shoes", "exact subcategory synonym"},
		{"smartphone with good camera", "electronics", "smartphones", "exact synonym"},
		{"denim for women", "clothing", "jeans", "subcategory synonym"},
		{"microwave for kitchen", "home", "appliances", "appliance synonym"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := a.Analyze(tt.query)
			assert.Equal(t, tt.cat, f.Category, tt.comment)
			assert.Equal(t, tt.subcat, f.Subcategory, tt.comment)
		})
	}
}

func TestAnalyze_SubcategoryImpliesCategory(t *testing.T) {
	a := newTestAnalyzer()

	f := a.Analyze("sneakers")
	assert.Equal(t, "sports-shoes", f.Subcategory)
	assert.Equal(t, "footwear", f.Category)
}

func TestAnalyze_TypoNormalization(t *testing.T) {
	a := newTestAnalyzer()

	// "snickers" normalizes to "sneakers", "smart phone" to "smartphone".
	f := a.Analyze("snickers")
	assert.Equal(t, "footwear", f.Category)

	f = a.Analyze("smart phone under 15000")
	assert.Equal(t, "electronics", f.Category)
	assert.Equal(t, "smartphones", f.Subcategory)
}

func TestNormalizeTypos_WholeWordsOnly(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mobiles under 10000", "mobile under 10000"},
		{"automobiles", "automobiles"},
		{"smart phone case", "smartphone case"},
		{"red t-shirt", "red tshirt"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTypos(tt.in))
		})
	}
}

func TestAnalyze_FuzzyCategoryMatch(t *testing.T) {
	a := newTestAnalyzer()

	// One edit away from "laptop"; similarity 5/6 > 0.8.
	f := a.Analyze("labtop")
	assert.Equal(t, "electronics", f.Category)
}

func TestAnalyze_CategoryDeterminism(t *testing.T) {
	a := newTestAnalyzer()

	// Same query must always resolve to the same category.
	first := a.Analyze("wireless device")
	for i := 0; i < 20; i++ {
		f := a.Analyze("wireless device")
		assert.Equal(t, first.Category, f.Category)
		assert.Equal(t, first.Subcategory, f.Subcategory)
	}
}

func TestAnalyze_GenderExtraction(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		query string
		want  string
	}{
		{"shoes for men", "men"},
		{"ladies handbag", "women"},
		{"kids tshirt", "kids"},
		{"maternity dress", "women"},
		{"shoes for him", "men"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := a.Analyze(tt.query)
			assert.Equal(t, tt.want, f.Gender)
		})
	}
}

func TestAnalyze_BrandExtraction(t *testing.T) {
	a := newTestAnalyzer()

	f := a.Analyze("nike running shoes")
	assert.Equal(t, "nike", f.Brand)

	f = a.Analyze("galaxy phone")
	assert.Equal(t, "samsung", f.Brand)
}

func TestAnalyze_BrandExclusionByFeature(t *testing.T) {
	a := newTestAnalyzer()

	// A snapdragon processor rules out Apple-family brand terms.
	f := a.Analyze("snapdragon phone ios")
	assert.NotEqual(t, "apple", f.Brand)
	assert.Contains(t, f.Features, "snapdragon")
}

func TestAnalyze_ColorExtraction(t *testing.T) {
	a := newTestAnalyzer()

	f := a.Analyze("red running shoes")
	assert.Equal(t, "red", f.Color)
	assert.Equal(t, "red", f.DetectedColor)
	assert.True(t, f.IsColorSearch)

	f = a.Analyze("running shoes")
	assert.False(t, f.IsColorSearch)
}

func TestAnalyze_IntentPriority(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		query string
		want  domain.Intent
	}{
		{"nike shoes under 3000", domain.IntentPrice},
		{"wireless nike shoes", domain.IntentFeature},
		{"nike shoes", domain.IntentBrand},
		{"shoes", domain.IntentCategory},
		{"something obscure", domain.IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := a.Analyze(tt.query)
			assert.Equal(t, tt.want, f.Intent)
		})
	}
}

func TestAnalyze_SearchTermPromotion(t *testing.T) {
	a := newTestAnalyzer()

	f := a.Analyze("nike running shoes for men")
	require.NotEmpty(t, f.SearchTerms)

	// Detected category/subcategory/brand/gender lead the list.
	assert.Equal(t, "footwear", f.SearchTerms[0])
	assert.Contains(t, f.SearchTerms[:4], "nike")
	assert.Contains(t, f.SearchTerms[:4], "men")
}

func TestAnalyze_SearchTermsCapped(t *testing.T) {
	a := newTestAnalyzer()

	f := a.Analyze("red blue green nike adidas running walking jogging " +
		"shoes sneakers boots sandals men women kids wireless bluetooth " +
		"camera display storage lightweight slim waterproof")
	assert.LessOrEqual(t, len(f.SearchTerms), 20)
}

func TestAnalyze_CategoryPriorities(t *testing.T) {
	a := newTestAnalyzer()

	f := a.Analyze("running gear")
	require.NotNil(t, f.CategoryPriorities)
	assert.Equal(t, 3.0, f.CategoryPriorities["footwear"])
}

func TestKeywordCategory(t *testing.T) {
	c, ok := KeywordCategory("sneakers")
	require.True(t, ok)
	assert.Equal(t, "footwear", c)

	_, ok = KeywordCategory("zzz")
	assert.False(t, ok)
}

func TestBrandCategory(t *testing.T) {
	c, ok := BrandCategory("nike")
	require.True(t, ok)
	assert.Equal(t, "footwear", c)

	_, ok = BrandCategory("unknown")
	assert.False(t, ok)
}
