package cite_extractor

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var punctuationSpaceReplacer = strings.NewReplacer(
	" ,", ",",
	" ;", ";",
	" .", ".",
	" )", ")",
	"( ", "(",
)

var quoteDashReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	"−", "-",
)

// Clean normalizes raw document text for extraction: Unicode NFKC,
// curly quotes and long dashes to ASCII, whitespace runs collapsed to a
// single space, and stray spaces adjacent to punctuation removed.
//
// Clean is idempotent and never strips periods or digits, so citation
// detectability is preserved across repeated application.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFKC.String(text)
	text = quoteDashReplacer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
			}
			prevSpace = true
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	text = strings.TrimSpace(b.String())

	return punctuationSpaceReplacer.Replace(text)
}
