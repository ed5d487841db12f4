package analysis

import (
	"strings"
	"testing"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
)

func positionedRecord(t *testing.T, text, cite, name string) *citation.Record {
	t.Helper()
	idx := strings.Index(text, cite)
	if idx < 0 {
		t.Fatalf("citation %q not found in text", cite)
	}
	rec := citation.NewRecord(cite, idx, idx+len(cite), citation.MethodRegex)
	rec.ExtractedCaseName = name
	rec.ResolveDisplayName()

	lo := idx - 200
	if lo < 0 {
		lo = 0
	}
	hi := idx + len(cite) + 200
	if hi > len(text) {
		hi = len(text)
	}
	rec.Context = text[lo:hi]
	return rec
}

func TestGroupParallel_MergesParallelPair(t *testing.T) {
	text := "Smith v. Jones, 142 Wn.2d 450, 13 P.3d 1065 (2000), is controlling."
	recs := []*citation.Record{
		positionedRecord(t, text, "142 Wn.2d 450", "Smith v. Jones"),
		positionedRecord(t, text, "13 P.3d 1065", "Smith v. Jones"),
	}

	grouped := GroupParallel(text, recs, DefaultGrouperOptions())

	if len(grouped) != 1 {
		t.Fatalf("got %d records, want 1 merged", len(grouped))
	}
	primary := grouped[0]
	if primary.Citation != "142 Wn.2d 450" {
		t.Errorf("primary = %q, want the earliest citation", primary.Citation)
	}
	if !primary.IsParallel {
		t.Error("primary must be flagged parallel")
	}
	if len(primary.ParallelCitations) != 1 || primary.ParallelCitations[0] != "13 P.3d 1065" {
		t.Errorf("parallel citations = %v", primary.ParallelCitations)
	}
	if primary.PrimaryCitation != "" {
		t.Errorf("the surviving head must not point at another record, got %q", primary.PrimaryCitation)
	}
}

func TestGroupParallel_Idempotent(t *testing.T) {
	text := "Smith v. Jones, 142 Wn.2d 450, 13 P.3d 1065 (2000), is controlling."
	recs := []*citation.Record{
		positionedRecord(t, text, "142 Wn.2d 450", "Smith v. Jones"),
		positionedRecord(t, text, "13 P.3d 1065", "Smith v. Jones"),
	}

	once := GroupParallel(text, recs, DefaultGrouperOptions())
	twice := GroupParallel(text, once, DefaultGrouperOptions())

	if len(twice) != len(once) {
		t.Fatalf("regrouping changed record count: %d -> %d", len(once), len(twice))
	}
	if len(twice[0].ParallelCitations) != 1 {
		t.Errorf("regrouping changed parallel list: %v", twice[0].ParallelCitations)
	}
}

func TestGroupParallel_NeverMergesOnNameAlone(t *testing.T) {
	// Two different cases that share the name "State v. Smith".  The prose
	// between them is not a separator run, so they must stay apart even
	// though the names agree exactly.
	text := "State v. Smith, 100 Wn.2d 100 (1980), addressed the warrant requirement in a vehicle stop. " +
		"Two decades later a different panel in State v. Smith, 200 Wn.2d 200 (2020), reached the opposite result."
	recs := []*citation.Record{
		positionedRecord(t, text, "100 Wn.2d 100", "State v. Smith"),
		positionedRecord(t, text, "200 Wn.2d 200", "State v. Smith"),
	}

	grouped := GroupParallel(text, recs, DefaultGrouperOptions())

	if len(grouped) != 2 {
		t.Fatalf("got %d records, want 2 unmerged: sharing a name must not merge", len(grouped))
	}
	for _, rec := range grouped {
		if rec.IsParallel {
			t.Errorf("record %q wrongly marked parallel", rec.Citation)
		}
	}
}

func TestGroupParallel_EmptyNamesFailClosed(t *testing.T) {
	text := "See 2021 WL 111111, 2021 WL 222222, for the orders."
	recs := []*citation.Record{
		positionedRecord(t, text, "2021 WL 111111", ""),
		positionedRecord(t, text, "2021 WL 222222", ""),
	}

	grouped := GroupParallel(text, recs, DefaultGrouperOptions())
	if len(grouped) != 2 {
		t.Fatalf("records without names must never merge, got %d", len(grouped))
	}
}

func TestGroupParallel_MergesAllQualifyingCandidatesInTextOrder(t *testing.T) {
	text := "Smith v. Jones, 142 Wn.2d 450, 13 P.3d 1065, 148 L. Ed. 2d 388 (2000)."
	recs := []*citation.Record{
		positionedRecord(t, text, "142 Wn.2d 450", "Smith v. Jones"),
		positionedRecord(t, text, "13 P.3d 1065", "Smith v. Jones"),
		positionedRecord(t, text, "148 L. Ed. 2d 388", "Smith v. Jones"),
	}

	grouped := GroupParallel(text, recs, DefaultGrouperOptions())

	if len(grouped) != 1 {
		t.Fatalf("got %d records, want 1", len(grouped))
	}
	want := []string{"13 P.3d 1065", "148 L. Ed. 2d 388"}
	got := grouped[0].ParallelCitations
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("parallel citations = %v, want %v in text order", got, want)
	}
}

func TestGroupParallel_SmallInputsPassThrough(t *testing.T) {
	if got := GroupParallel("text", nil, DefaultGrouperOptions()); len(got) != 0 {
		t.Errorf("nil input: got %v", got)
	}
	text := "Smith v. Jones, 142 Wn.2d 450 (2000)"
	one := []*citation.Record{positionedRecord(t, text, "142 Wn.2d 450", "Smith v. Jones")}
	if got := GroupParallel(text, one, DefaultGrouperOptions()); len(got) != 1 {
		t.Errorf("single record: got %d", len(got))
	}
}
