package analysis

import (
	"regexp"
	"sort"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
)

// GrouperOptions are the conservative-merge thresholds.  The defaults come
// from the pipeline configuration; see config.PipelineConfig.
type GrouperOptions struct {
	NameSimilarityThreshold float64
	ContextJaccardExact     float64
	ContextJaccardFuzzy     float64
	// MaxSeparatorDistance bounds how far apart two citations may sit in
	// the source text and still count as co-located.
	MaxSeparatorDistance int
}

// DefaultGrouperOptions mirrors the pipeline defaults.
func DefaultGrouperOptions() GrouperOptions {
	return GrouperOptions{
		NameSimilarityThreshold: 0.95,
		ContextJaccardExact:     0.70,
		ContextJaccardFuzzy:     0.80,
		MaxSeparatorDistance:    80,
	}
}

// separatorRe is the explicit co-location signal: a comma or semicolon
// between the two citations, optionally surrounded by pinpoint pages.
var (
	separatorRe     = regexp.MustCompile(`[,;]\s*`)
	separatorOnlyRe = regexp.MustCompile(`^[\s\d,;.\-–]*$`)
)

// GroupParallel merges citation records that refer to the same case
// through parallel reporters.  A merge happens only when ALL of the
// following hold for a candidate pair:
//
//  1. case names match exactly (normalized) or with token-Jaccard
//     similarity at or above the name threshold;
//  2. the records' context windows overlap with word-Jaccard above the
//     exact threshold (or the stricter fuzzy threshold when the names
//     matched only fuzzily);
//  3. the source text between the citations is a comma/semicolon
//     separator run, confirming co-location in one citation string.
//
// Name similarity alone never merges: distinct cases sharing a party name
// ("State v. Smith") must stay separate.  The earliest record becomes the
// primary; merged records' citation strings move into its
// parallel_citations.  The function is idempotent and fail-closed: any
// doubt leaves records unmerged.
func GroupParallel(text string, records []*citation.Record, opts GrouperOptions) []*citation.Record {
	if len(records) < 2 {
		return records
	}

	ordered := make([]*citation.Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Offset() < ordered[j].Offset()
	})

	merged := make(map[int]bool)

	for i := 0; i < len(ordered); i++ {
		if merged[i] {
			continue
		}
		primary := ordered[i]

		// Co-location chains through the cluster: in "A, B, C" the text
		// between A and C contains B, so C is tested against the most
		// recently merged member rather than the head.
		tail := primary

		for j := i + 1; j < len(ordered); j++ {
			if merged[j] {
				continue
			}
			candidate := ordered[j]

			exact, ok := namesMatch(primary, candidate, opts.NameSimilarityThreshold)
			if !ok {
				continue
			}

			ctxThreshold := opts.ContextJaccardExact
			if !exact {
				ctxThreshold = opts.ContextJaccardFuzzy
			}
			if contextJaccard(primary.Context, candidate.Context) <= ctxThreshold {
				continue
			}

			if !coLocated(text, tail, candidate, opts.MaxSeparatorDistance) {
				continue
			}

			primary.AddParallel(candidate.Citation)
			for _, p := range candidate.ParallelCitations {
				primary.AddParallel(p)
			}
			candidate.PrimaryCitation = primary.Citation
			merged[j] = true
			tail = candidate
		}
	}

	// Primaries keep an empty PrimaryCitation; only dropped records point
	// at their head, and those do not appear in the output.
	var out []*citation.Record
	for i, rec := range ordered {
		if merged[i] {
			continue
		}
		out = append(out, rec)
	}
	if out == nil {
		out = []*citation.Record{}
	}
	return out
}

// namesMatch applies merge condition 1.  Records without names fail
// closed: an empty name can never support a merge.
func namesMatch(a, b *citation.Record, threshold float64) (exact, ok bool) {
	na := citation.NormalizeCaseName(bestName(a))
	nb := citation.NormalizeCaseName(bestName(b))
	if na == "" || nb == "" {
		return false, false
	}
	if na == nb {
		return true, true
	}
	if nameJaccard(na, nb) >= threshold {
		return false, true
	}
	return false, false
}

func bestName(r *citation.Record) string {
	if r.CaseName != "" {
		return r.CaseName
	}
	if r.CanonicalName != "" {
		return r.CanonicalName
	}
	return r.ExtractedCaseName
}

// coLocated applies merge condition 3: the span between the two citations
// must be a short separator run ("," / ";" plus optional pinpoint pages).
func coLocated(text string, a, b *citation.Record, maxDistance int) bool {
	if !a.HasPosition() || !b.HasPosition() {
		return false
	}
	lo, hi := *a.EndIndex, *b.StartIndex
	if hi < lo {
		lo, hi = *b.EndIndex, *a.StartIndex
	}
	if hi < lo || hi-lo > maxDistance || hi > len(text) {
		return false
	}
	between := text[lo:hi]
	return separatorRe.MatchString(between) && separatorOnlyRe.MatchString(between)
}
