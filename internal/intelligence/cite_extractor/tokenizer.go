package cite_extractor

import (
	"context"
	"sort"
	"strings"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

// reporterMarkers is the token dictionary the tokenizer matches against.
// Spacing variants are enumerated explicitly since the automaton matches
// literal strings, not patterns.
var reporterMarkers = []string{
	"Wn.2d", "Wn. 2d", "Wash.2d", "Wash. 2d",
	"Wn. App.", "Wn.App.", "Wash. App.", "Wash.App.",
	"P.2d", "P. 2d", "P.3d", "P. 3d",
	"F.2d", "F. 2d", "F.3d", "F. 3d", "F.4th", "F. 4th",
	"F. Supp.", "F.Supp.", "F. Supp. 2d", "F. Supp. 3d",
	"Fed. Appx.", "F. App'x",
	"U.S.", "U. S.", "S. Ct.", "S.Ct.", "L. Ed.", "L. Ed. 2d", "L.Ed.2d",
	"Cal.2d", "Cal.3d", "Cal.4th", "Cal.5th",
	"Cal. App.", "Cal.App.", "Cal. Rptr.", "Cal.Rptr.",
	"N.E.2d", "N.E.3d", "N.W.2d",
	"So. 2d", "So.2d", "So. 3d", "So.3d",
	"S.E.2d", "S.W.2d", "S.W.3d",
	"A.2d", "A.3d",
	"WL", "LEXIS",
}

// DictionaryTokenizer locates citation spans by matching reporter tokens
// with an Aho-Corasick automaton and expanding each hit to the enclosing
// volume-reporter-page run.  It is the in-process stand-in for an external
// citation tokenization service and satisfies the Tokenizer interface.
type DictionaryTokenizer struct {
	trie *ahocorasick.Trie
}

// NewDictionaryTokenizer builds the automaton over the reporter dictionary.
func NewDictionaryTokenizer() *DictionaryTokenizer {
	return &DictionaryTokenizer{
		trie: ahocorasick.NewTrieBuilder().AddStrings(reporterMarkers).Build(),
	}
}

// Tokenize returns the citation spans found in text, sorted by start
// offset and deduplicated.  A marker with no adjacent volume and page
// numbers is discarded rather than guessed at.
func (t *DictionaryTokenizer) Tokenize(ctx context.Context, text string) ([]Span, error) {
	if text == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches := t.trie.MatchString(text)

	spans := make([]Span, 0, len(matches))
	seen := make(map[int]bool)
	for _, m := range matches {
		start := int(m.Pos())
		span, ok := expandMarker(text, start, start+len(m.MatchString()))
		if !ok || seen[span.Start] {
			continue
		}
		seen[span.Start] = true
		spans = append(spans, span)
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans, nil
}

// expandMarker grows a reporter-token hit to the full "volume reporter
// page" span.  Both numbers are required.
func expandMarker(text string, markerStart, markerEnd int) (Span, bool) {
	// Backwards: optional space run, then 1-4 digits.
	i := markerStart
	for i > 0 && text[i-1] == ' ' {
		i--
	}
	volEnd := i
	for i > 0 && isDigit(text[i-1]) {
		i--
	}
	if volEnd-i < 1 || volEnd-i > 4 {
		return Span{}, false
	}
	// Volume must sit on a word boundary.
	if i > 0 && isWordChar(text[i-1]) {
		return Span{}, false
	}
	start := i

	// Forwards: the marker may be a prefix of a longer dictionary entry
	// ("P.2d" inside "P. 2d"?  no — but "U.S." precedes "U.S.C.");
	// reject when the next character continues the abbreviation.
	if markerEnd < len(text) && isWordChar(text[markerEnd]) {
		return Span{}, false
	}

	j := markerEnd
	for j < len(text) && text[j] == ' ' {
		j++
	}
	pageStart := j
	for j < len(text) && isDigit(text[j]) {
		j++
	}
	if j-pageStart < 1 || j-pageStart > 10 {
		return Span{}, false
	}
	if j < len(text) && isWordChar(text[j]) {
		return Span{}, false
	}

	span := strings.TrimSpace(text[start:j])
	return Span{Text: span, Start: start, End: j}, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isWordChar(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
