// Package cite_extractor finds legal case citations in free-form text and
// associates each with a case name and decision date.  Two extraction
// strategies (reporter regexes and a dictionary tokenizer) run
// independently and are merged deterministically.
package cite_extractor

import (
	"regexp"
	"sync"
)

// ReporterPattern is one compiled entry of the reporter pattern library.
type ReporterPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// vol/page skeleton shared by every reporter family.  Reporter
// abbreviations in the middle tolerate optional periods and flexible
// spacing ("Wn. App.", "Wn.App.", "Wn App").
const (
	volPrefix  = `\b(\d{1,4})\s+`
	pageSuffix = `\s+(\d{1,5})\b`
)

var (
	patternOnce sync.Once
	patternList []ReporterPattern
	patternMap  map[string]*regexp.Regexp

	statuteRes []*regexp.Regexp

	yearParenRe     *regexp.Regexp
	courtYearRe     *regexp.Regexp
	docketRe        *regexp.Regexp
	historyRe       *regexp.Regexp
	pubStatusRe     *regexp.Regexp
	pinpointRe      *regexp.Regexp
	shortFormIdRe   *regexp.Regexp
	shortFormScanRe *regexp.Regexp
)

func reporter(name, abbrev string) ReporterPattern {
	return ReporterPattern{
		Name:    name,
		Pattern: regexp.MustCompile(volPrefix + abbrev + pageSuffix),
	}
}

func compilePatterns() {
	patternList = []ReporterPattern{
		// Washington state reporters.
		reporter("wash_2d", `(?:Wn|Wash)\.?\s*2d`),
		reporter("wash_app_2d", `(?:Wn|Wash)\.?\s*App\.?\s*2d`),
		reporter("wash_app", `(?:Wn|Wash)\.?\s*App\.?`),
		reporter("wash", `Wash\.`),

		// Pacific reporter.
		reporter("pacific_3d", `P\.?\s*3d`),
		reporter("pacific_2d", `P\.?\s*2d`),
		reporter("pacific", `P\.`),

		// Federal reporters.
		reporter("federal_4th", `F\.?\s*4th`),
		reporter("federal_3d", `F\.?\s*3d`),
		reporter("federal_2d", `F\.?\s*2d`),
		reporter("federal_supp_3d", `F\.?\s*Supp\.?\s*3d`),
		reporter("federal_supp_2d", `F\.?\s*Supp\.?\s*2d`),
		reporter("federal_supp", `F\.?\s*Supp\.?`),
		reporter("federal_appx", `F(?:ed)?\.?\s*App(?:'|\.)?x\.?`),
		reporter("federal", `F\.`),

		// United States Supreme Court.
		reporter("us_reports", `U\.?\s*S\.`),
		reporter("supreme_court", `S\.?\s*Ct\.`),
		reporter("lawyers_ed_2d", `L\.?\s*Ed\.?\s*2d`),
		reporter("lawyers_ed", `L\.?\s*Ed\.`),

		// California reporters.
		reporter("cal_rptr_3d", `Cal\.?\s*Rptr\.?\s*3d`),
		reporter("cal_rptr_2d", `Cal\.?\s*Rptr\.?\s*2d`),
		reporter("cal_rptr", `Cal\.?\s*Rptr\.`),
		reporter("cal_app_5th", `Cal\.?\s*App\.?\s*5th`),
		reporter("cal_app_4th", `Cal\.?\s*App\.?\s*4th`),
		reporter("cal_app_3d", `Cal\.?\s*App\.?\s*3d`),
		reporter("cal_app_2d", `Cal\.?\s*App\.?\s*2d`),
		reporter("cal_5th", `Cal\.?\s*5th`),
		reporter("cal_4th", `Cal\.?\s*4th`),
		reporter("cal_3d", `Cal\.?\s*3d`),
		reporter("cal_2d", `Cal\.?\s*2d`),

		// Regional reporters.
		reporter("north_east_3d", `N\.?\s*E\.?\s*3d`),
		reporter("north_east_2d", `N\.?\s*E\.?\s*2d`),
		reporter("north_west_2d", `N\.?\s*W\.?\s*2d`),
		reporter("southern_3d", `So\.?\s*3d`),
		reporter("southern_2d", `So\.?\s*2d`),
		reporter("south_east_2d", `S\.?\s*E\.?\s*2d`),
		reporter("south_west_3d", `S\.?\s*W\.?\s*3d`),
		reporter("south_west_2d", `S\.?\s*W\.?\s*2d`),
		reporter("atlantic_3d", `A\.?\s*3d`),
		reporter("atlantic_2d", `A\.?\s*2d`),

		// Electronic-only databases: year-number form instead of vol/page.
		{Name: "westlaw", Pattern: regexp.MustCompile(`\b(\d{4})\s+WL\s+(\d{1,10})\b`)},
		{Name: "lexis", Pattern: regexp.MustCompile(`\b(\d{4})\s+(?:U\.?\s*S\.?\s*(?:App\.?|Dist\.?)\s*)?LEXIS\s+(\d{1,10})\b`)},
	}

	patternMap = make(map[string]*regexp.Regexp, len(patternList))
	for _, p := range patternList {
		patternMap[p.Name] = p.Pattern
	}

	// Statute forms are never case citations and are filtered out before
	// case-name association runs.
	statuteRes = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,3}\s+U\.?\s*S\.?\s*C\.?(?:A\.?)?\s*(?:§{1,2}|[Ss]ec(?:tion)?\.?)?\s*\d+`),
		regexp.MustCompile(`\b\d{1,3}\s+C\.?\s*F\.?\s*R\.?\s*(?:§{1,2}|[Pp]t\.?)?\s*\d+`),
		regexp.MustCompile(`§{1,2}\s*\d+(?:\.\d+)*`),
		regexp.MustCompile(`\bRCW\s+\d+(?:\.\d+)*`),
	}

	yearParenRe = regexp.MustCompile(`\((?:[A-Za-z0-9.,'&\s]*\s)?(\d{4})\)`)
	courtYearRe = regexp.MustCompile(`\(\s*([A-Za-z][A-Za-z0-9.,'&\s]*?)\s+(\d{4})\s*\)`)
	docketRe = regexp.MustCompile(`\bNos?\.\s*[A-Za-z0-9]{1,6}[-–:]\s?[A-Za-z0-9-]{1,12}\b`)
	historyRe = regexp.MustCompile(`\(\s*[A-Z][A-Za-z'.\s]*\s+(?:I{1,3}|IV|V|VI{0,3}|IX|X)\s*\)`)
	pubStatusRe = regexp.MustCompile(`(?i)\((?:unpublished|not reported|per curiam|en banc|slip op\.?|mem\.?)\)`)
	pinpointRe = regexp.MustCompile(`\b(\d{1,5})((?:\s*[-–]\s*\d{1,5})|(?:\s*,\s*\d{1,5})+)?\b`)
	shortFormIdRe = regexp.MustCompile(`(?i)^id\.?(?:\s+at\s+\d+(?:[-–]\d+)?)?$`)
	// The scan form is unanchored and case-restricted: "Id." and "id. at
	// 12" are back-references, an all-caps "ID." is not.
	shortFormScanRe = regexp.MustCompile(`\b[Ii]d\.(?:\s+at\s+\d{1,5}(?:[-–]\d{1,5})?)?`)
}

// Patterns returns the reporter pattern library in specificity order
// (longer reporter forms first within each family), compiled once per
// process.  The returned slice must be treated as read-only.
func Patterns() []ReporterPattern {
	patternOnce.Do(compilePatterns)
	return patternList
}

// PatternByName returns one compiled reporter pattern.
func PatternByName(name string) (*regexp.Regexp, bool) {
	patternOnce.Do(compilePatterns)
	re, ok := patternMap[name]
	return re, ok
}

// IsStatute reports whether s matches a statutory citation form
// (U.S.C., C.F.R., section symbols, state codes).
func IsStatute(s string) bool {
	patternOnce.Do(compilePatterns)
	for _, re := range statuteRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// IsCitationShaped reports whether s itself looks like a reporter
// citation.  Case-name candidates that are citation-shaped are rejected.
func IsCitationShaped(s string) bool {
	patternOnce.Do(compilePatterns)
	for _, p := range patternList {
		if p.Pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// IsShortFormReference reports whether s is an "Id." style back-reference.
func IsShortFormReference(s string) bool {
	patternOnce.Do(compilePatterns)
	return shortFormIdRe.MatchString(s)
}
