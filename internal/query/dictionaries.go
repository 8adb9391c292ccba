package query

import "regexp"

// The analyzer is driven by static data tables so matching behavior can be
// tested and extended without touching the pipeline logic.

// typoNormalizations rewrites common misspellings and spaced variants before
// tokenization. Keys are matched as whole words against the lowercased query.
var typoNormalizations = map[string]string{
	"smart phone":  "smartphone",
	"smartphones":  "smartphone",
	"cell phone":   "phone",
	"mobile phone": "phone",
	"mobiles":      "mobile",
	"lap top":      "laptop",
	"laptops":      "laptop",
	"note book":    "notebook",
	"head phone":   "headphone",
	"head phones":  "headphones",
	"ear phone":    "earphone",
	"ear phones":   "earphones",
	"ear buds":     "earbuds",
	"t shirt":      "tshirt",
	"t-shirt":      "tshirt",
	"tee shirt":    "tshirt",
	"snickers":     "sneakers",
	"sneekers":     "sneakers",
	"wrist watch":  "watch",
	"hand bag":     "handbag",
	"i phone":      "iphone",
	"mac book":     "macbook",
	"play station": "playstation",
	"air pods":     "airpods",
}

// stopwords is the domain stopword set removed during tokenization.
// Price/rating cue words (under, over, star, ...) are intentionally absent:
// the price extractor consumes them before stopword removal.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "be": {},
	"i": {}, "me": {}, "my": {}, "we": {}, "you": {}, "it": {}, "this": {},
	"that": {}, "and": {}, "or": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "do": {}, "did": {}, "can": {}, "could": {}, "would": {},
	"want": {}, "need": {}, "looking": {}, "show": {}, "find": {}, "get": {},
	"buy": {}, "please": {}, "some": {}, "any": {}, "good": {}, "best": {},
	"nice": {}, "new": {}, "top": {},
}

// subcategoryEntry describes one subcategory inside a category.
type subcategoryEntry struct {
	Name     string
	Synonyms []string
	Context  []string
}

// categoryEntry describes one catalog category. Entries are evaluated in
// declaration order; equal match scores resolve to the earlier entry, which
// makes category selection deterministic.
type categoryEntry struct {
	Name          string
	Synonyms      []string
	Context       []string
	Subcategories []subcategoryEntry
}

var categoryDict = []categoryEntry{
	{
		Name:     "electronics",
		Synonyms: []string{"electronics", "electronic", "gadget", "gadgets", "device", "devices"},
		Context:  []string{"charger", "battery", "screen", "wireless", "bluetooth", "usb"},
		Subcategories: []subcategoryEntry{
			{
				Name:     "smartphones",
				Synonyms: []string{"smartphone", "phone", "mobile", "iphone", "android"},
				Context:  []string{"sim", "5g", "camera", "touchscreen", "dual"},
			},
			{
				Name:     "laptops",
				Synonyms: []string{"laptop", "notebook", "macbook", "ultrabook", "chromebook"},
				Context:  []string{"keyboard", "trackpad", "ssd", "ram", "processor"},
			},
			{
				Name:     "headphones",
				Synonyms: []string{"headphone", "headphones", "earphone", "earphones", "earbuds", "airpods", "headset"},
				Context:  []string{"noise", "cancelling", "bass", "audio", "sound"},
			},
			{
				Name:     "televisions",
				Synonyms: []string{"tv", "television", "televisions"},
				Context:  []string{"inch", "oled", "qled", "4k", "smart"},
			},
			{
				Name:     "cameras",
				Synonyms: []string{"camera", "cameras", "dslr", "mirrorless"},
				Context:  []string{"lens", "megapixel", "zoom", "tripod"},
			},
		},
	},
	{
		Name:     "clothing",
		Synonyms: []string{"clothing", "clothes", "apparel", "wear", "outfit", "garment"},
		Context:  []string{"cotton", "fabric", "size", "fit", "sleeve"},
		Subcategories: []subcategoryEntry{
			{
				Name:     "tshirts",
				Synonyms: []string{"tshirt", "tshirts", "tee", "tees"},
				Context:  []string{"round", "neck", "printed", "graphic"},
			},
			{
				Name:     "shirts",
				Synonyms: []string{"shirt", "shirts"},
				Context:  []string{"formal", "casual", "collar", "checked"},
			},
			{
				Name:     "jeans",
				Synonyms: []string{"jeans", "denim", "denims"},
				Context:  []string{"slim", "skinny", "ripped", "stretch"},
			},
			{
				Name:     "dresses",
				Synonyms: []string{"dress", "dresses", "gown", "kurti", "saree"},
				Context:  []string{"party", "maxi", "floral", "evening"},
			},
			{
				Name:     "jackets",
				Synonyms: []string{"jacket", "jackets", "hoodie", "hoodies", "sweatshirt", "coat"},
				Context:  []string{"winter", "zip", "fleece", "puffer"},
			},
		},
	},
	{
		Name:     "footwear",
		Synonyms: []string{"footwear", "shoe", "shoes"},
		Context:  []string{"sole", "lace", "heel", "comfort", "grip"},
		Subcategories: []subcategoryEntry{
			{
				Name:     "sports-shoes",
				Synonyms: []string{"sneakers", "sneaker", "trainers", "runners"},
				Context:  []string{"running", "gym", "jogging", "training", "sports", "walking"},
			},
			{
				Name:     "sandals",
				Synonyms: []string{"sandal", "sandals", "flipflops", "sliders", "slippers"},
				Context:  []string{"summer", "beach", "strap"},
			},
			{
				Name:     "boots",
				Synonyms: []string{"boot", "boots"},
				Context:  []string{"leather", "ankle", "hiking", "trekking"},
			},
			{
				Name:     "formal-shoes",
				Synonyms: []string{"loafers", "oxfords", "brogues"},
				Context:  []string{"office", "formal", "leather"},
			},
		},
	},
	{
		Name:     "sports",
		Synonyms: []string{"sports", "sport", "fitness", "gym"},
		Context:  []string{"workout", "training", "exercise", "outdoor", "yoga"},
		Subcategories: []subcategoryEntry{
			{
				Name:     "equipment",
				Synonyms: []string{"dumbbell", "dumbbells", "treadmill", "kettlebell", "barbell"},
				Context:  []string{"weight", "home", "cardio"},
			},
			{
				Name:     "accessories",
				Synonyms: []string{"mat", "mats", "resistance", "skipping"},
				Context:  []string{"yoga", "band", "rope"},
			},
		},
	},
	{
		Name:     "books",
		Synonyms: []string{"book", "books", "novel", "novels", "textbook", "paperback"},
		Context:  []string{"author", "read", "reading", "fiction", "edition"},
		Subcategories: []subcategoryEntry{
			{
				Name:     "fiction",
				Synonyms: []string{"fiction", "thriller", "mystery", "fantasy", "romance"},
				Context:  []string{"story", "series"},
			},
			{
				Name:     "non-fiction",
				Synonyms: []string{"biography", "selfhelp", "history", "memoir"},
				Context:  []string{"guide", "business"},
			},
		},
	},
	{
		Name:     "home",
		Synonyms: []string{"home", "furniture", "decor", "kitchen"},
		Context:  []string{"living", "bedroom", "dining", "wall"},
		Subcategories: []subcategoryEntry{
			{
				Name:     "appliances",
				Synonyms: []string{"appliance", "appliances", "mixer", "toaster", "microwave", "refrigerator", "fridge"},
				Context:  []string{"kitchen", "cooking", "electric"},
			},
			{
				Name:     "furniture",
				Synonyms: []string{"sofa", "chair", "table", "bed", "wardrobe", "desk"},
				Context:  []string{"wooden", "seating", "storage"},
			},
		},
	},
}

// brandEntry maps brand terms to a canonical brand name and its home category.
type brandEntry struct {
	Name     string
	Terms    []string
	Category string
}

var brandDict = []brandEntry{
	{Name: "apple", Terms: []string{"apple", "iphone", "ipad", "macbook", "airpods", "ios"}, Category: "electronics"},
	{Name: "samsung", Terms: []string{"samsung", "galaxy"}, Category: "electronics"},
	{Name: "oneplus", Terms: []string{"oneplus"}, Category: "electronics"},
	{Name: "xiaomi", Terms: []string{"xiaomi", "redmi", "poco"}, Category: "electronics"},
	{Name: "sony", Terms: []string{"sony", "playstation", "bravia"}, Category: "electronics"},
	{Name: "dell", Terms: []string{"dell", "inspiron", "xps"}, Category: "electronics"},
	{Name: "hp", Terms: []string{"hp", "pavilion"}, Category: "electronics"},
	{Name: "lenovo", Terms: []string{"lenovo", "thinkpad", "ideapad"}, Category: "electronics"},
	{Name: "boat", Terms: []string{"boat", "rockerz", "airdopes"}, Category: "electronics"},
	{Name: "jbl", Terms: []string{"jbl"}, Category: "electronics"},
	{Name: "nike", Terms: []string{"nike", "jordan", "airmax"}, Category: "footwear"},
	{Name: "adidas", Terms: []string{"adidas", "ultraboost"}, Category: "footwear"},
	{Name: "puma", Terms: []string{"puma"}, Category: "footwear"},
	{Name: "reebok", Terms: []string{"reebok"}, Category: "footwear"},
	{Name: "bata", Terms: []string{"bata"}, Category: "footwear"},
	{Name: "levis", Terms: []string{"levis", "levi"}, Category: "clothing"},
	{Name: "zara", Terms: []string{"zara"}, Category: "clothing"},
	{Name: "hm", Terms: []string{"h&m"}, Category: "clothing"},
	{Name: "allen-solly", Terms: []string{"allen", "solly"}, Category: "clothing"},
	{Name: "raymond", Terms: []string{"raymond"}, Category: "clothing"},
}

// colorTerms lists recognized colors; the first dictionary hit wins.
var colorTerms = []string{
	"black", "white", "red", "blue", "green", "yellow", "orange", "purple",
	"pink", "brown", "grey", "gray", "silver", "gold", "navy", "maroon",
	"beige", "olive", "teal", "cream",
}

// Gender extraction tables. Direct terms score len*10, contextual terms
// len*15, regex patterns a flat 100; the highest score wins.
var genderDirectTerms = map[string]string{
	"men": "men", "man": "men", "male": "men", "mens": "men",
	"women": "women", "woman": "women", "female": "women", "womens": "women",
	"ladies": "women", "lady": "women",
	"kids": "kids", "kid": "kids", "children": "kids", "child": "kids",
	"boys": "kids", "boy": "kids", "girls": "kids", "girl": "kids",
	"unisex": "unisex",
}

var genderContextTerms = map[string]string{
	"gents":     "men",
	"gentleman": "men",
	"masculine": "men",
	"feminine":  "women",
	"maternity": "women",
	"toddler":   "kids",
	"infant":    "kids",
}

type genderPattern struct {
	Pattern *regexp.Regexp
	Gender  string
}

var genderPatterns = []genderPattern{
	{regexp.MustCompile(`\bfor\s+(him|men|guys)\b`), "men"},
	{regexp.MustCompile(`\bfor\s+(her|women|girls|ladies)\b`), "women"},
	{regexp.MustCompile(`\bfor\s+(kids|children|boys)\b`), "kids"},
}

// featureFamily groups feature keywords; ExcludeBrandTerms removes brand
// terms from subsequent brand scoring when the family matches (detecting a
// "snapdragon" processor rules out Apple-family brand terms).
type featureFamily struct {
	Name              string
	Keywords          []string
	ExcludeBrandTerms []string
}

var featureFamilies = []featureFamily{
	{
		Name:     "charging",
		Keywords: []string{"fast charging", "wireless charging", "quick charge", "type-c", "usb-c"},
	},
	{
		Name:     "display",
		Keywords: []string{"amoled", "oled", "retina", "lcd", "120hz", "144hz", "hdr", "touchscreen"},
	},
	{
		Name:     "connectivity",
		Keywords: []string{"wireless", "bluetooth", "wifi", "5g", "4g", "nfc"},
	},
	{
		Name:     "storage",
		Keywords: []string{"64gb", "128gb", "256gb", "512gb", "1tb", "expandable", "ssd"},
	},
	{
		Name:     "camera",
		Keywords: []string{"megapixel", "48mp", "50mp", "64mp", "108mp", "ultrawide", "telephoto", "selfie"},
	},
	{
		Name:     "audio",
		Keywords: []string{"noise cancelling", "noise cancellation", "bass", "stereo", "surround", "dolby"},
	},
	{
		Name:     "design",
		Keywords: []string{"slim", "lightweight", "waterproof", "rugged", "foldable", "compact"},
	},
	{
		Name:              "processor",
		Keywords:          []string{"snapdragon", "mediatek", "dimensity", "exynos"},
		ExcludeBrandTerms: []string{"iphone", "ios", "apple"},
	},
	{
		Name:              "apple-silicon",
		Keywords:          []string{"bionic", "m1", "m2", "m3"},
		ExcludeBrandTerms: []string{"snapdragon", "mediatek", "exynos"},
	},
}

// keywordCategoryTable is the last-resort keyword to category lookup used by
// the structured lane when both text search and substring matching fail.
var keywordCategoryTable = map[string]string{
	"phone": "electronics", "smartphone": "electronics", "laptop": "electronics",
	"headphones": "electronics", "earbuds": "electronics", "tv": "electronics",
	"camera": "electronics", "charger": "electronics", "watch": "electronics",
	"shirt": "clothing", "tshirt": "clothing", "jeans": "clothing",
	"dress": "clothing", "jacket": "clothing", "hoodie": "clothing",
	"shoes": "footwear", "sneakers": "footwear", "sandals": "footwear",
	"boots": "footwear", "running": "footwear",
	"dumbbell": "sports", "treadmill": "sports", "yoga": "sports",
	"book": "books", "novel": "books",
	"sofa": "home", "mixer": "home", "microwave": "home",
}

// KeywordCategory returns the fallback category for a bare keyword.
func KeywordCategory(term string) (string, bool) {
	c, ok := keywordCategoryTable[term]
	return c, ok
}

// intentPriorityTable assigns category priorities from detected shopping
// intents, consumed as Filters.CategoryPriorities by the semantic ranking
// stage. Keys are trigger terms observed in cleaned query tokens.
var intentPriorityTable = map[string]map[string]float64{
	"running":  {"footwear": 3.0, "sports": 2.0, "clothing": 1.0},
	"gym":      {"sports": 3.0, "footwear": 2.0, "clothing": 1.5},
	"office":   {"clothing": 2.5, "footwear": 2.0, "electronics": 1.0},
	"gaming":   {"electronics": 3.0},
	"travel":   {"electronics": 1.5, "clothing": 1.5, "footwear": 1.5},
	"wedding":  {"clothing": 3.0, "footwear": 1.5},
	"winter":   {"clothing": 3.0, "footwear": 1.0},
	"kitchen":  {"home": 3.0},
	"workout":  {"sports": 3.0, "footwear": 2.0},
	"reading":  {"books": 3.0},
	"studying": {"books": 2.5, "electronics": 1.5},
}

// synonymClusters are hand-authored category clusters used by the vector
// index to boost co-occurring terms. Kept here with the other static tables
// so vocabulary and analyzer stay aligned.
var synonymClusters = [][]string{
	{"phone", "smartphone", "mobile", "iphone", "android", "cellular"},
	{"laptop", "notebook", "computer", "macbook", "pc"},
	{"clothing", "clothes", "apparel", "wear", "garment", "outfit"},
	{"shoe", "shoes", "sneaker", "sneakers", "footwear", "trainer"},
	{"electronics", "electronic", "gadget", "device", "tech"},
	{"book", "books", "novel", "read", "paperback"},
	{"sport", "sports", "fitness", "gym", "workout", "training"},
}

// SynonymClusters exposes the category-synonym clusters to the vector index.
func SynonymClusters() [][]string {
	return synonymClusters
}
