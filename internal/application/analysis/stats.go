package analysis

import "github.com/turtacn/CiteGuard/internal/domain/citation"

// Statistics aggregates a result set.  VerifiedCitations plus
// UnverifiedCitations always equals TotalCitations.
type Statistics struct {
	TotalCitations      int `json:"total_citations"`
	ParallelCitations   int `json:"parallel_citations"`
	VerifiedCitations   int `json:"verified_citations"`
	UnverifiedCitations int `json:"unverified_citations"`
	UniqueCases         int `json:"unique_cases"`
	ComplexCitations    int `json:"complex_citations"`
}

// Summarize computes aggregate statistics over a record set.  UniqueCases
// counts distinct normalized case names; records with no name at all each
// count as their own case, keyed by citation text.
func Summarize(records []*citation.Record) *Statistics {
	stats := &Statistics{TotalCitations: len(records)}
	cases := make(map[string]bool)

	for _, rec := range records {
		if rec.Verified {
			stats.VerifiedCitations++
		} else {
			stats.UnverifiedCitations++
		}
		if rec.IsParallel {
			stats.ParallelCitations++
		}
		if rec.IsComplex {
			stats.ComplexCitations++
		}

		key := citation.NormalizeCaseName(rec.CaseName)
		if key == "" {
			key = citation.NormalizeCitation(rec.Citation)
		}
		cases[key] = true
	}

	stats.UniqueCases = len(cases)
	return stats
}
