package analysis

import (
	"strings"
	"unicode"
)

// nameTokens splits a normalized case name into comparison tokens,
// dropping punctuation so "Smith v. Jones," and "Smith v Jones" agree.
func nameTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[tok] = true
	}
	return tokens
}

func wordTokens(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tokens[tok] = true
	}
	return tokens
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// nameJaccard is the token-level Jaccard similarity of two case names.
func nameJaccard(a, b string) float64 {
	return jaccard(nameTokens(a), nameTokens(b))
}

// contextJaccard is the word-level Jaccard similarity of two context
// windows.
func contextJaccard(a, b string) float64 {
	return jaccard(wordTokens(a), wordTokens(b))
}
