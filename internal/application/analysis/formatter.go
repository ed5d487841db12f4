package analysis

import "github.com/turtacn/CiteGuard/internal/domain/citation"

// placeholder is emitted for absent optional string fields.  The external
// schema never omits a key.
const placeholder = "N/A"

// FormattedCitation is the stable external representation of one record.
type FormattedCitation struct {
	Valid              bool                     `json:"valid"`
	Verified           bool                     `json:"verified"`
	CaseName           string                   `json:"case_name"`
	ExtractedCaseName  string                   `json:"extracted_case_name"`
	HintedCaseName     string                   `json:"hinted_case_name"`
	CanonicalName      string                   `json:"canonical_name"`
	Citation           string                   `json:"citation"`
	Date               string                   `json:"date"`
	ExtractedDate      string                   `json:"extracted_date"`
	CanonicalDate      string                   `json:"canonical_date"`
	Court              string                   `json:"court"`
	DocketNumber       string                   `json:"docket_number"`
	StartIndex         *int                     `json:"start_index"`
	EndIndex           *int                     `json:"end_index"`
	Confidence         float64                  `json:"confidence"`
	Method             string                   `json:"method"`
	Pattern            string                   `json:"pattern"`
	Source             string                   `json:"source"`
	URL                string                   `json:"url"`
	Error              string                   `json:"error"`
	IsComplexCitation  bool                     `json:"is_complex_citation"`
	IsParallelCitation bool                     `json:"is_parallel_citation"`
	ComplexFeatures    citation.ComplexFeatures `json:"complex_features"`
	ParallelInfo       interface{}              `json:"parallel_info"`
}

// ParallelInfo is populated only for parallel-citation primaries; other
// records carry an empty object in its place.
type ParallelInfo struct {
	IsParallel         bool     `json:"is_parallel"`
	PrimaryCitation    string   `json:"primary_citation"`
	VerificationStatus string   `json:"verification_status"`
	ParallelCitations  []string `json:"parallel_citations"`
}

// FormatRecord maps one internal record to the external schema, applying
// "N/A" placeholders so every key is always present.
func FormatRecord(rec *citation.Record) *FormattedCitation {
	f := &FormattedCitation{
		Valid:              rec.Verified,
		Verified:           rec.Verified,
		CaseName:           orPlaceholder(rec.CaseName),
		ExtractedCaseName:  orPlaceholder(rec.ExtractedCaseName),
		HintedCaseName:     orPlaceholder(rec.HintedCaseName),
		CanonicalName:      orPlaceholder(rec.CanonicalName),
		Citation:           rec.Citation,
		Date:               orPlaceholder(rec.Date),
		ExtractedDate:      orPlaceholder(rec.ExtractedDate),
		CanonicalDate:      orPlaceholder(rec.CanonicalDate),
		Court:              orPlaceholder(rec.Court),
		DocketNumber:       orPlaceholder(firstDocket(rec)),
		StartIndex:         rec.StartIndex,
		EndIndex:           rec.EndIndex,
		Confidence:         rec.Confidence,
		Method:             string(rec.Method),
		Pattern:            orPlaceholder(rec.Pattern),
		Source:             orPlaceholder(rec.Source),
		URL:                orPlaceholder(rec.URL),
		Error:              orPlaceholder(rec.Error),
		IsComplexCitation:  rec.IsComplex,
		IsParallelCitation: rec.IsParallel,
		ComplexFeatures:    rec.Features,
		ParallelInfo:       struct{}{},
	}

	if rec.IsParallel {
		status := "unverified"
		if rec.Verified {
			status = "verified"
		}
		f.ParallelInfo = &ParallelInfo{
			IsParallel:         true,
			PrimaryCitation:    orPlaceholder(rec.PrimaryCitation),
			VerificationStatus: status,
			ParallelCitations:  append([]string{}, rec.ParallelCitations...),
		}
	}
	return f
}

// FormatRecords maps a whole record set, preserving order.
func FormatRecords(records []*citation.Record) []*FormattedCitation {
	out := make([]*FormattedCitation, 0, len(records))
	for _, rec := range records {
		out = append(out, FormatRecord(rec))
	}
	return out
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func firstDocket(rec *citation.Record) string {
	if len(rec.Dockets) == 0 {
		return ""
	}
	return rec.Dockets[0]
}
