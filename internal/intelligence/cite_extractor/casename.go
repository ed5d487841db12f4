package cite_extractor

import (
	"regexp"
	"strings"
	"sync"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
)

// Case-name grammar.  A party is a capitalized token followed by up to
// seven more tokens, allowing lowercase connectors that legitimately
// appear inside party names ("Dep't of Ecology", "Bd. of Regents").
const (
	partyToken    = `[A-Z][A-Za-z0-9'&.\-]*`
	nameConnector = `(?:of|the|and|for|ex|rel\.|et|al\.|de|la|&)`
	partyExpr     = partyToken + `(?:\s+(?:` + partyToken + `|` + nameConnector + `)){0,7}`
)

var (
	nameOnce sync.Once

	// Ordered highest-specificity first; the matcher takes the LAST match
	// in the search window, the one closest to the citation.
	namePatterns []*regexp.Regexp

	introPhraseRe *regexp.Regexp
	sentenceRe    *regexp.Regexp
)

func compileNamePatterns() {
	namePatterns = []*regexp.Regexp{
		// "Smith v. Jones", "State v. Smith", "United States v. Doe",
		// including multi-party "Smith et al. v. Jones".
		regexp.MustCompile(`\b(` + partyExpr + `\s+v\.?\s+` + partyExpr + `)`),
		// Procedural one-party forms.
		regexp.MustCompile(`\b((?:In\s+re|In\s+the\s+Matter\s+of|Matter\s+of|Estate\s+of|Ex\s+parte)\s+` + partyExpr + `)`),
	}

	introPhraseRe = regexp.MustCompile(`(?i)^(?:quoting|citing|accord|compare|but\s+see|see\s+also|see,?\s+e\.g\.,?|see|cf\.|as\s+stated\s+in|as\s+held\s+in|the\s+court\s+in)\s+`)
	sentenceRe = regexp.MustCompile(`[.;\n]+`)
}

// nameExtractor associates case names with citation records.  All lookup
// windows and bounds come from the extractor configuration.
type nameExtractor struct {
	config ExtractorConfig
}

func newNameExtractor(config ExtractorConfig) *nameExtractor {
	nameOnce.Do(compileNamePatterns)
	return &nameExtractor{config: config}
}

// associate fills rec.ExtractedCaseName (and HintedCaseName as a fallback
// slot) from the text preceding the citation, then records the result in
// the recency cache for later short-form references.  It never fails: an
// unextractable name just leaves the field empty.
func (n *nameExtractor) associate(text string, rec *citation.Record, recent *citation.RecentNames) {
	if rec == nil || !rec.HasPosition() {
		return
	}

	// "Id." back-references resolve against the previous citation's name
	// instead of searching context.
	if IsShortFormReference(rec.Citation) {
		if name, date, ok := recent.Latest(); ok {
			rec.ExtractedCaseName = name
			if rec.ExtractedDate == "" {
				rec.ExtractedDate = date
			}
		}
		rec.ResolveDisplayName()
		rec.ResolveDisplayDate()
		return
	}

	window := n.searchWindow(text, *rec.StartIndex)
	if name := n.extractFromWindow(window); name != "" {
		rec.ExtractedCaseName = name
		recent.Push(name, rec.Date)
	}

	// The hint slot is filled during verification, when a canonical name
	// exists to match blocks against; see HintedName.
	rec.ResolveDisplayName()
}

// searchWindow returns up to NameSearchWindow characters before offset,
// truncated to start just after any prior citation's trailing
// year-in-parentheses so the window never bleeds into the previous
// citation's case name.
func (n *nameExtractor) searchWindow(text string, offset int) string {
	lo := offset - n.config.NameSearchWindow
	if lo < 0 {
		lo = 0
	}
	window := text[lo:offset]

	if locs := yearParenRe.FindAllStringIndex(window, -1); len(locs) > 0 {
		window = window[locs[len(locs)-1][1]:]
	}
	return window
}

func (n *nameExtractor) extractFromWindow(window string) string {
	for _, re := range namePatterns {
		matches := re.FindAllString(window, -1)
		if len(matches) == 0 {
			continue
		}
		candidate := stripIntroPhrases(matches[len(matches)-1])
		if n.validName(candidate) {
			return candidate
		}
	}
	return ""
}

func (n *nameExtractor) validName(name string) bool {
	if len(name) < n.config.MinNameLength || len(name) > n.config.MaxNameLength {
		return false
	}
	return !IsCitationShaped(name)
}

func stripIntroPhrases(name string) string {
	name = strings.TrimSpace(name)
	for {
		stripped := introPhraseRe.ReplaceAllString(name, "")
		if stripped == name {
			break
		}
		name = strings.TrimSpace(stripped)
	}
	return strings.Trim(name, " ,;")
}

// HintedName picks the text block from contextWindow most similar to the
// canonical name, using edit-distance ratio.  When no canonical name is
// known or no block clears the floor, it falls back to the last non-empty
// block, then to the citation text itself.  It never returns empty.
func HintedName(contextWindow, canonicalName, citationText string, floor float64) string {
	nameOnce.Do(compileNamePatterns)

	blocks := splitBlocks(contextWindow)

	if canonicalName != "" {
		best := ""
		bestScore := floor
		for _, block := range blocks {
			if score := editRatio(block, canonicalName); score >= bestScore {
				best = block
				bestScore = score
			}
		}
		if best != "" {
			return best
		}
	}

	if len(blocks) > 0 {
		return blocks[len(blocks)-1]
	}
	return citationText
}

func splitBlocks(s string) []string {
	var blocks []string
	for _, part := range sentenceRe.Split(s, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			blocks = append(blocks, part)
		}
	}
	return blocks
}

// editRatio is a normalized Levenshtein similarity in [0, 1]:
// 1 - distance/maxLen, case-insensitive.
func editRatio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1 - float64(prev[len(rb)])/float64(maxLen)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
