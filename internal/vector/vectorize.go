package vector

import (
	"math"
	"strings"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/query"
)

const (
	presenceWeight = 0.1
	clusterBoost   = 0.3
)

// searchText concatenates the indexable catalog fields into the text the
// vector is built from.
func searchText(item *domain.CatalogItem) string {
	parts := []string{
		item.Name, item.Title, item.Description,
		item.Category, item.Subcategory, item.Brand,
		item.Color, item.Gender, item.Season,
	}
	parts = append(parts, item.Tags...)
	parts = append(parts, item.Features...)

	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(p))
	}
	return b.String()
}

// extractTerms tokenizes text, drops stopwords and pure-numeric tokens, and
// stems what remains.
func extractTerms(text string) []string {
	tokens := query.Tokenize(text)
	terms := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if query.IsStopword(t) || isNumeric(t) {
			continue
		}
		terms = append(terms, query.Stem(t))
	}
	return terms
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

// termFrequencies counts stem occurrences.
func termFrequencies(terms []string) map[string]int {
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return tf
}

// clusterIndex maps a stemmed term to its synonym-cluster id, built once
// from the analyzer's hand-authored clusters.
var clusterIndex = func() map[string]int {
	idx := make(map[string]int)
	for i, cluster := range query.SynonymClusters() {
		for _, term := range cluster {
			idx[query.Stem(term)] = i
		}
	}
	return idx
}()

// vectorize builds an L2-normalized weighted term vector of width dim.
// Weight = tf/totalTerms + presence bonus; terms that co-occur with another
// member of the same synonym cluster get an extra boost. Vocabulary
// positions past the width fold back via modulo, so an overgrown vocabulary
// degrades gracefully instead of widening the vector without bound.
func vectorize(tf map[string]int, total int, vocabIndex map[string]int, dim int) []float64 {
	vec := make([]float64, dim)
	if total == 0 {
		return vec
	}

	// Which clusters have at least two distinct member terms present.
	clusterCount := make(map[int]int)
	for term := range tf {
		if c, ok := clusterIndex[term]; ok {
			clusterCount[c]++
		}
	}

	for term, count := range tf {
		pos, known := vocabIndex[term]
		if !known {
			continue
		}
		w := float64(count)/float64(total) + presenceWeight
		if c, ok := clusterIndex[term]; ok && clusterCount[c] >= 2 {
			w += clusterBoost
		}
		vec[pos%dim] += w
	}

	normalize(vec)
	return vec
}

// normalize scales the vector to unit length in place. The all-zero vector
// stays zero.
func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	mag := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= mag
	}
}

// cosine computes cosine similarity between two vectors. Both inputs are
// unit length so the dot product suffices; mismatched widths compare over
// the shared prefix.
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	return dot
}

// clampDim bounds the vector width derived from vocabulary size.
func clampDim(vocabSize, minDim, maxDim int) int {
	if vocabSize < minDim {
		return minDim
	}
	if vocabSize > maxDim {
		return maxDim
	}
	return vocabSize
}
