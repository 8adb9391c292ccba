package query

import "strings"

// Stem reduces a token with a Porter-style suffix stripper. It is not a full
// Porter implementation; it covers the suffix classes that matter for product
// vocabulary (plurals, -ing, -ed, -er, -est, -ation).
func Stem(token string) string {
	w := token
	if len(w) <= 3 {
		return w
	}

	switch {
	case strings.HasSuffix(w, "sses"):
		w = strings.TrimSuffix(w, "es")
	case strings.HasSuffix(w, "ies"):
		w = strings.TrimSuffix(w, "ies") + "i"
	case strings.HasSuffix(w, "ss"):
		// keep
	case strings.HasSuffix(w, "s"):
		w = strings.TrimSuffix(w, "s")
	}

	switch {
	case strings.HasSuffix(w, "ational"):
		w = strings.TrimSuffix(w, "ational") + "ate"
	case strings.HasSuffix(w, "ization"):
		w = strings.TrimSuffix(w, "ization") + "ize"
	case strings.HasSuffix(w, "ation") && len(w) > 6:
		w = strings.TrimSuffix(w, "ation") + "ate"
	case strings.HasSuffix(w, "ing") && len(w) > 5:
		w = strings.TrimSuffix(w, "ing")
		w = undouble(w)
	case strings.HasSuffix(w, "ed") && len(w) > 4:
		w = strings.TrimSuffix(w, "ed")
		w = undouble(w)
	case strings.HasSuffix(w, "est") && len(w) > 5:
		w = strings.TrimSuffix(w, "est")
	case strings.HasSuffix(w, "er") && len(w) > 4:
		w = strings.TrimSuffix(w, "er")
	}

	if strings.HasSuffix(w, "ness") {
		w = strings.TrimSuffix(w, "ness")
	}
	if strings.HasSuffix(w, "ful") && len(w) > 5 {
		w = strings.TrimSuffix(w, "ful")
	}

	return w
}

// undouble collapses a trailing doubled consonant left by suffix removal
// ("runn" -> "run"), keeping legitimate doubles like "ll" in "roll" intact
// only when the word would become too short.
func undouble(w string) string {
	n := len(w)
	if n < 3 {
		return w
	}
	last := w[n-1]
	if w[n-2] == last && !isVowel(last) && last != 'l' && last != 's' && last != 'z' {
		return w[:n-1]
	}
	return w
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// irregularLemmas maps irregular plurals and variants to their base form.
var irregularLemmas = map[string]string{
	"feet":     "foot",
	"men":      "man",
	"women":    "woman",
	"children": "child",
	"shoes":    "shoe",
	"jeans":    "jeans",
	"glasses":  "glasses",
	"watches":  "watch",
	"dresses":  "dress",
	"knives":   "knife",
	"shelves":  "shelf",
}

// Lemma returns the dictionary base form of a token. Unlike Stem it always
// yields a real word: irregular forms come from a lookup table, regular
// plurals strip the plural suffix.
func Lemma(token string) string {
	if base, ok := irregularLemmas[token]; ok {
		return base
	}
	w := token
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return strings.TrimSuffix(w, "ies") + "y"
	case strings.HasSuffix(w, "es") && len(w) > 3 &&
		(strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") ||
			strings.HasSuffix(w, "xes") || strings.HasSuffix(w, "sses")):
		return strings.TrimSuffix(w, "es")
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) > 3:
		return strings.TrimSuffix(w, "s")
	}
	return w
}
