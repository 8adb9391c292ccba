package query

import "strings"

// PhoneticCode produces a compact consonant-skeleton code so that words
// which sound alike ("sneakers"/"snickers") compare equal. The first letter
// is kept verbatim; the rest maps consonant groups to a shared symbol and
// drops vowels, h, w, and y.
func PhoneticCode(token string) string {
	if token == "" {
		return ""
	}
	s := strings.ToLower(token)

	var b strings.Builder
	b.WriteByte(s[0])

	var prev byte
	for i := 1; i < len(s); i++ {
		c := phoneticClass(s[i])
		if c == 0 || c == prev {
			if c != 0 {
				prev = c
			}
			continue
		}
		b.WriteByte(c)
		prev = c
		if b.Len() >= 6 {
			break
		}
	}
	return b.String()
}

// phoneticClass maps a letter to its consonant group symbol, or 0 for
// letters that are dropped (vowels, h, w, y) and non-letters.
func phoneticClass(c byte) byte {
	switch c {
	case 'b', 'p', 'f', 'v':
		return '1'
	case 'c', 'k', 'q', 'g', 'j', 's', 'x', 'z':
		return '2'
	case 'd', 't':
		return '3'
	case 'l':
		return '4'
	case 'm', 'n':
		return '5'
	case 'r':
		return '6'
	default:
		return 0
	}
}

// PhoneticEqual reports whether two tokens share a phonetic code.
func PhoneticEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return PhoneticCode(a) == PhoneticCode(b)
}
