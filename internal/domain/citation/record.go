// Package citation defines the core domain model of the extraction
// pipeline: the citation record, the bounded per-document caches, and the
// ports to external verification capabilities.
package citation

import (
	"strings"

	"github.com/google/uuid"
)

// Method identifies which extraction strategy produced a record.
type Method string

const (
	// MethodRegex marks records produced by the reporter pattern library.
	MethodRegex Method = "regex"
	// MethodTokenizer marks records produced by the dictionary tokenizer.
	MethodTokenizer Method = "tokenizer"
	// MethodFallback marks records produced by last-resort heuristics.
	MethodFallback Method = "fallback"
	// MethodAPI marks records that exist only because an external lookup
	// returned them; such records carry no source-text offsets.
	MethodAPI Method = "api"
)

// Default confidence scores per extraction method.  Verification overrides
// these upward (or to zero for unverifiable reporters).
const (
	ConfidenceRegex        = 0.70
	ConfidenceTokenizer    = 0.80
	ConfidenceVerified     = 0.95
	ConfidenceNotFound     = 0.25
	ConfidenceUnverifiable = 0.0
)

// ComplexFeatures records which structural components a complex citation
// run contained.
type ComplexFeatures struct {
	HasParallelCitations bool `json:"has_parallel_citations"`
	HasCaseHistory       bool `json:"has_case_history"`
	HasDocketNumbers     bool `json:"has_docket_numbers"`
	HasPublicationStatus bool `json:"has_publication_status"`
	HasPinpointPages     bool `json:"has_pinpoint_pages"`
}

// Record is a single extracted citation and everything the pipeline has
// learned about it.  StartIndex/EndIndex are nil for records resolved only
// through an external lookup.  The name and date slots preserve
// provenance: CaseName and Date are the display-resolved values, the
// others record where they came from.
type Record struct {
	ID       uuid.UUID `json:"id"`
	Citation string    `json:"citation"`

	StartIndex *int `json:"start_index,omitempty"`
	EndIndex   *int `json:"end_index,omitempty"`

	CaseName          string `json:"case_name,omitempty"`
	CanonicalName     string `json:"canonical_name,omitempty"`
	ExtractedCaseName string `json:"extracted_case_name,omitempty"`
	HintedCaseName    string `json:"hinted_case_name,omitempty"`

	Date          string `json:"date,omitempty"`
	ExtractedDate string `json:"extracted_date,omitempty"`
	CanonicalDate string `json:"canonical_date,omitempty"`

	Confidence float64 `json:"confidence"`
	Method     Method  `json:"method"`
	Pattern    string  `json:"pattern,omitempty"`

	Verified bool   `json:"verified"`
	Source   string `json:"source,omitempty"`
	URL      string `json:"url,omitempty"`
	Court    string `json:"court,omitempty"`

	IsComplex         bool            `json:"is_complex"`
	IsParallel        bool            `json:"is_parallel"`
	PrimaryCitation   string          `json:"primary_citation,omitempty"`
	ParallelCitations []string        `json:"parallel_citations,omitempty"`
	Features          ComplexFeatures `json:"complex_features"`

	Pinpoints         []string `json:"pinpoints,omitempty"`
	Dockets           []string `json:"dockets,omitempty"`
	History           string   `json:"history,omitempty"`
	PublicationStatus string   `json:"publication_status,omitempty"`

	Context string `json:"context,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewRecord builds a record for a citation found in source text.
func NewRecord(cite string, start, end int, method Method) *Record {
	confidence := 0.0
	switch method {
	case MethodRegex, MethodFallback:
		confidence = ConfidenceRegex
	case MethodTokenizer:
		confidence = ConfidenceTokenizer
	}
	return &Record{
		ID:         uuid.New(),
		Citation:   cite,
		StartIndex: &start,
		EndIndex:   &end,
		Method:     method,
		Confidence: confidence,
	}
}

// ResolveDisplayName sets CaseName from the provenance slots, preferring
// canonical over extracted over hinted.  Idempotent.
func (r *Record) ResolveDisplayName() {
	switch {
	case r.CanonicalName != "":
		r.CaseName = r.CanonicalName
	case r.ExtractedCaseName != "":
		r.CaseName = r.ExtractedCaseName
	case r.HintedCaseName != "":
		r.CaseName = r.HintedCaseName
	}
}

// ResolveDisplayDate sets Date from the provenance slots, preferring the
// canonical (verified) date over the extracted one.  Idempotent.
func (r *Record) ResolveDisplayDate() {
	switch {
	case r.CanonicalDate != "":
		r.Date = r.CanonicalDate
	case r.ExtractedDate != "":
		r.Date = r.ExtractedDate
	}
}

// AddParallel appends cite to ParallelCitations, skipping the record's own
// citation and duplicates.  The invariant that parallel_citations never
// contains the record's own citation is enforced here, not by callers.
func (r *Record) AddParallel(cite string) {
	if cite == "" || strings.EqualFold(cite, r.Citation) {
		return
	}
	for _, existing := range r.ParallelCitations {
		if strings.EqualFold(existing, cite) {
			return
		}
	}
	r.ParallelCitations = append(r.ParallelCitations, cite)
	r.IsParallel = true
}

// Offset returns the record's start offset, or -1 when the record has no
// source-text position.  Useful for ordering mixed result sets.
func (r *Record) Offset() int {
	if r.StartIndex == nil {
		return -1
	}
	return *r.StartIndex
}

// HasPosition reports whether the record carries source-text offsets.
func (r *Record) HasPosition() bool {
	return r.StartIndex != nil && r.EndIndex != nil
}

// NormalizeCaseName lowercases a case name, collapses whitespace, and
// strips trailing punctuation so that "SMITH  v. Jones," and "Smith v.
// Jones" compare equal.  Used for grouping and unique-case counting.
func NormalizeCaseName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.Trim(name, ".,;: ")
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeCitation produces the canonical comparison form of a citation
// string: lowercased with collapsed whitespace.  Extractor deduplication
// and cache keying both go through this.
func NormalizeCitation(cite string) string {
	return strings.Join(strings.Fields(strings.ToLower(cite)), " ")
}
