package cite_extractor

import (
	"strings"
	"testing"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
)

func newTestNameExtractor() *nameExtractor {
	return newNameExtractor(DefaultExtractorConfig())
}

func recordAt(cite string, start int) *citation.Record {
	return citation.NewRecord(cite, start, start+len(cite), citation.MethodRegex)
}

func recordIn(t *testing.T, text, cite string) *citation.Record {
	t.Helper()
	idx := strings.Index(text, cite)
	if idx < 0 {
		t.Fatalf("citation %q not in text %q", cite, text)
	}
	return recordAt(cite, idx)
}

func TestAssociate_LastNameInWindowWins(t *testing.T) {
	n := newTestNameExtractor()
	text := "Brown v. Board was distinguished. The rule from Smith v. Jones, 142 Wn.2d 450 applies."
	rec := recordIn(t, text, "142 Wn.2d 450")

	n.associate(text, rec, citation.NewRecentNames(10))

	if rec.ExtractedCaseName != "Smith v. Jones" {
		t.Errorf("extracted = %q, want the name closest to the citation", rec.ExtractedCaseName)
	}
}

func TestAssociate_WindowTruncatedAtPriorYearParenthetical(t *testing.T) {
	n := newTestNameExtractor()
	// The prior citation's (1954) parenthetical must stop Brown v. Board
	// from bleeding into this citation's search window.
	text := "Brown v. Board, 347 U.S. 483 (1954). See 142 Wn.2d 450 for the state rule."
	rec := recordIn(t, text, "142 Wn.2d 450")

	n.associate(text, rec, citation.NewRecentNames(10))

	if rec.ExtractedCaseName != "" {
		t.Errorf("extracted = %q, want empty: prior case name is out of window", rec.ExtractedCaseName)
	}
}

func TestAssociate_StripsIntroductoryPhrases(t *testing.T) {
	n := newTestNameExtractor()
	text := "quoting Smith v. Jones, 142 Wn.2d 450"
	rec := recordIn(t, text, "142 Wn.2d 450")

	n.associate(text, rec, citation.NewRecentNames(10))

	if rec.ExtractedCaseName != "Smith v. Jones" {
		t.Errorf("extracted = %q, intro phrase should be stripped", rec.ExtractedCaseName)
	}
}

func TestAssociate_ProceduralForms(t *testing.T) {
	n := newTestNameExtractor()
	tests := []struct {
		text string
		cite string
		want string
	}{
		{"In re Marriage of Littlefield, 133 Wn.2d 39", "133 Wn.2d 39", "In re Marriage of Littlefield"},
		{"Estate of Bracken, 175 Wn.2d 549", "175 Wn.2d 549", "Estate of Bracken"},
		{"Matter of Dependency of K.W., 199 Wn.2d 131", "199 Wn.2d 131", "Matter of Dependency of K.W."},
	}
	for _, tt := range tests {
		rec := recordIn(t, tt.text, tt.cite)
		n.associate(tt.text, rec, citation.NewRecentNames(10))
		if rec.ExtractedCaseName != tt.want {
			t.Errorf("text %q: extracted = %q, want %q", tt.text, rec.ExtractedCaseName, tt.want)
		}
	}
}

func TestAssociate_RejectsOutOfBoundsNames(t *testing.T) {
	cfg := DefaultExtractorConfig()
	cfg.MaxNameLength = 20
	n := newNameExtractor(cfg)

	text := "Extraordinarily Long Corporate Appellation Incorporated v. Another Very Long Name Holdings, 142 Wn.2d 450"
	rec := recordIn(t, text, "142 Wn.2d 450")

	n.associate(text, rec, citation.NewRecentNames(10))

	if rec.ExtractedCaseName != "" {
		t.Errorf("extracted = %q, want rejection of over-long candidate", rec.ExtractedCaseName)
	}
}

func TestAssociate_ShortFormUsesRecencyCache(t *testing.T) {
	n := newTestNameExtractor()
	recent := citation.NewRecentNames(10)
	recent.Push("Smith v. Jones", "2000")

	rec := recordAt("Id.", 0)
	n.associate("Id. at 453.", rec, recent)

	if rec.ExtractedCaseName != "Smith v. Jones" {
		t.Errorf("extracted = %q, want cached name", rec.ExtractedCaseName)
	}
	if rec.Date != "2000" {
		t.Errorf("date = %q, want cached date", rec.Date)
	}
}

func TestAssociate_ShortFormWithEmptyCache(t *testing.T) {
	n := newTestNameExtractor()
	rec := recordAt("Id.", 0)
	n.associate("Id. at 453.", rec, citation.NewRecentNames(10))
	if rec.ExtractedCaseName != "" {
		t.Errorf("extracted = %q, want empty with cold cache", rec.ExtractedCaseName)
	}
}

func TestHintedName_PrefersBlockSimilarToCanonical(t *testing.T) {
	window := "The trial court erred. Smith against Jones Industries controls here"
	got := HintedName(window, "Smith v. Jones Industries", "142 Wn.2d 450", 0.30)
	if got != "Smith against Jones Industries controls here" {
		t.Errorf("HintedName() = %q", got)
	}
}

func TestHintedName_NeverEmpty(t *testing.T) {
	if got := HintedName("", "", "142 Wn.2d 450", 0.30); got != "142 Wn.2d 450" {
		t.Errorf("empty window must fall back to citation text, got %q", got)
	}
	if got := HintedName("some trailing words", "", "142 Wn.2d 450", 0.30); got != "some trailing words" {
		t.Errorf("no canonical must fall back to last block, got %q", got)
	}
}

func TestEditRatio(t *testing.T) {
	if editRatio("Smith v. Jones", "Smith v. Jones") != 1 {
		t.Error("identical strings must score 1")
	}
	if editRatio("", "Smith") != 0 {
		t.Error("empty string must score 0")
	}
	if score := editRatio("Smith v. Jones", "Smith v. Jone"); score < 0.9 {
		t.Errorf("near-identical strings scored %v", score)
	}
	if score := editRatio("Smith v. Jones", "completely different"); score > 0.5 {
		t.Errorf("dissimilar strings scored %v", score)
	}
}
