package cite_extractor

import (
	"regexp"
	"strings"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
)

// ComplexComponents is the structured decomposition of a complex citation
// run: case name, primary and parallel reporters, pinpoint pages, docket
// numbers, procedural history, and publication status.
type ComplexComponents struct {
	IsComplex         bool                     `json:"is_complex"`
	CaseName          string                   `json:"case_name,omitempty"`
	PrimaryCitation   string                   `json:"primary_citation,omitempty"`
	ParallelCitations []string                 `json:"parallel_citations,omitempty"`
	Pinpoints         []string                 `json:"pinpoints,omitempty"`
	Dockets           []string                 `json:"dockets,omitempty"`
	History           string                   `json:"history,omitempty"`
	PublicationStatus string                   `json:"publication_status,omitempty"`
	Year              string                   `json:"year,omitempty"`
	Features          citation.ComplexFeatures `json:"features"`
}

var trailingPinpointRe = regexp.MustCompile(`^\s*,\s*(\d{1,5}(?:\s*[-–]\s*\d{1,5})?)`)

// IsComplex reports whether a text block is a complex citation run: two or
// more reporter matches, a docket number, a case-history parenthetical, or
// a publication-status parenthetical.
func IsComplex(block string) bool {
	patternOnce.Do(compilePatterns)
	if countReporterMatches(block) >= 2 {
		return true
	}
	return docketRe.MatchString(block) ||
		historyRe.MatchString(block) ||
		pubStatusRe.MatchString(block)
}

// ParseComplex decomposes a complex citation block into its components.
// Each sub-step that finds nothing leaves its field empty; the parse never
// fails.  A block that is not complex yields the zero-value structure.
func ParseComplex(block string) *ComplexComponents {
	patternOnce.Do(compilePatterns)

	comps := &ComplexComponents{}
	if block == "" {
		return comps
	}

	reporters := reporterMatches(block)

	comps.Features = citation.ComplexFeatures{
		HasParallelCitations: len(reporters) >= 2,
		HasCaseHistory:       historyRe.MatchString(block),
		HasDocketNumbers:     docketRe.MatchString(block),
		HasPublicationStatus: pubStatusRe.MatchString(block),
	}
	comps.IsComplex = comps.Features.HasParallelCitations ||
		comps.Features.HasCaseHistory ||
		comps.Features.HasDocketNumbers ||
		comps.Features.HasPublicationStatus
	if !comps.IsComplex {
		return &ComplexComponents{}
	}

	nameOnce.Do(compileNamePatterns)
	if m := namePatterns[0].FindString(block); m != "" {
		comps.CaseName = stripIntroPhrases(m)
	}

	if len(reporters) > 0 {
		comps.PrimaryCitation = reporters[0].text
		for _, r := range reporters[1:] {
			comps.ParallelCitations = append(comps.ParallelCitations, r.text)
		}
		comps.Pinpoints = collectPinpoints(block, reporters)
		comps.Features.HasPinpointPages = len(comps.Pinpoints) > 0
	}

	comps.Dockets = docketRe.FindAllString(block, -1)
	if m := historyRe.FindString(block); m != "" {
		comps.History = strings.Trim(m, "() ")
	}
	if m := pubStatusRe.FindString(block); m != "" {
		comps.PublicationStatus = strings.ToLower(strings.Trim(m, "() "))
	}
	if m := yearParenRe.FindStringSubmatch(block); m != nil {
		comps.Year = m[1]
	}

	return comps
}

// annotateComplex runs structural analysis on a record's context block and
// copies the findings onto the record.  Parallel-citation membership stays
// with the grouper; only structural flags and components are set here.
func annotateComplex(text string, rec *citation.Record, window int) {
	if rec == nil || !rec.HasPosition() {
		return
	}

	comps := ParseComplex(contextWindow(text, *rec.StartIndex, *rec.EndIndex, window))
	if !comps.IsComplex {
		return
	}

	rec.IsComplex = true
	rec.Features = comps.Features
	rec.Pinpoints = comps.Pinpoints
	rec.Dockets = comps.Dockets
	rec.History = comps.History
	rec.PublicationStatus = comps.PublicationStatus
	if rec.ExtractedDate == "" {
		rec.ExtractedDate = comps.Year
		rec.ResolveDisplayDate()
	}
}

type reporterMatch struct {
	text  string
	start int
	end   int
}

func reporterMatches(block string) []reporterMatch {
	var all []reporterMatch
	seen := make(map[int]bool)
	for _, p := range Patterns() {
		for _, loc := range p.Pattern.FindAllStringIndex(block, -1) {
			if seen[loc[0]] {
				continue
			}
			seen[loc[0]] = true
			all = append(all, reporterMatch{text: block[loc[0]:loc[1]], start: loc[0], end: loc[1]})
		}
	}
	// Insertion order follows pattern specificity, not text order; fix that.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].start < all[j-1].start; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	return all
}

func countReporterMatches(block string) int {
	return len(reporterMatches(block))
}

// collectPinpoints gathers the ", 453-54" style page references that
// immediately trail each reporter match.
func collectPinpoints(block string, reporters []reporterMatch) []string {
	starts := make(map[int]bool, len(reporters))
	for _, r := range reporters {
		starts[r.start] = true
	}

	var pins []string
	for _, r := range reporters {
		rest := block[r.end:]
		m := trailingPinpointRe.FindStringSubmatchIndex(rest)
		if m == nil {
			continue
		}
		// A number that begins the next reporter citation ("..., 13 P.3d
		// 1065") is a volume, not a pinpoint.
		if starts[r.end+m[2]] {
			continue
		}
		pins = append(pins, strings.ReplaceAll(rest[m[2]:m[3]], " ", ""))
	}
	return pins
}
