package cite_extractor

import (
	"regexp"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
)

// forwardDateWindow bounds how far past a citation the date scanner looks.
// The year parenthetical of a citation sits within a few tokens of its
// page number ("142 Wn.2d 450, 13 P.3d 1065 (2000)").
const forwardDateWindow = 120

// Secondary date grammar, tried only when no year parenthetical follows
// the citation.  Month abbreviations follow Bluebook forms.
const monthExpr = `(?:Jan(?:\.|uary)?|Feb(?:\.|ruary)?|Mar(?:\.|ch)?|Apr(?:\.|il)?|May|June?|July?|Aug(?:\.|ust)?|Sept?(?:\.|ember)?|Oct(?:\.|ober)?|Nov(?:\.|ember)?|Dec(?:\.|ember)?)`

var (
	filedDateRe    = regexp.MustCompile(`(?i)\bfiled\s+((?:` + monthExpr + `\s+\d{1,2},?\s+\d{4})|\d{4}-\d{2}-\d{2})`)
	monthDayYearRe = regexp.MustCompile(`\b(` + monthExpr + `\s+\d{1,2},?\s+\d{4})\b`)
	isoDateRe      = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	bareYearRe     = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)
)

// associateDate fills rec.ExtractedDate (and Court, when a parenthetical
// names one) from the text following the citation.  Pattern precedence:
// court-year parenthetical, plain year parenthetical, a "filed ..." date,
// a month-day-year date, an ISO date, then a bare year as last resort.
func associateDate(text string, rec *citation.Record) {
	if rec == nil || !rec.HasPosition() {
		return
	}
	patternOnce.Do(compilePatterns)

	lo := *rec.EndIndex
	hi := lo + forwardDateWindow
	if hi > len(text) {
		hi = len(text)
	}
	ahead := text[lo:hi]

	if m := courtYearRe.FindStringSubmatch(ahead); m != nil {
		rec.Court = trimCourt(m[1])
		rec.ExtractedDate = m[2]
	} else if m := yearParenRe.FindStringSubmatch(ahead); m != nil {
		rec.ExtractedDate = m[1]
	} else if m := filedDateRe.FindStringSubmatch(ahead); m != nil {
		rec.ExtractedDate = m[1]
	} else if m := monthDayYearRe.FindStringSubmatch(ahead); m != nil {
		rec.ExtractedDate = m[1]
	} else if m := isoDateRe.FindStringSubmatch(ahead); m != nil {
		rec.ExtractedDate = m[1]
	} else if m := bareYearRe.FindStringSubmatch(ahead); m != nil {
		rec.ExtractedDate = m[1]
	}
	rec.ResolveDisplayDate()
}

func trimCourt(s string) string {
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == ',') {
		s = s[:len(s)-1]
	}
	return s
}
