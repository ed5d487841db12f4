package cite_extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
)

type stubTokenizer struct {
	fn func(ctx context.Context, text string) ([]Span, error)
}

func (s *stubTokenizer) Tokenize(ctx context.Context, text string) ([]Span, error) {
	if s.fn == nil {
		return nil, nil
	}
	return s.fn(ctx, text)
}

func newTestExtractor(t *testing.T, tok Tokenizer) CitationExtractor {
	t.Helper()
	ex, err := NewCitationExtractor(tok, DefaultExtractorConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewCitationExtractor: %v", err)
	}
	return ex
}

func TestExtract_ParallelCitationPair(t *testing.T) {
	ex := newTestExtractor(t, nil)
	text := "As the court held in Smith v. Jones, 142 Wn.2d 450, 13 P.3d 1065 (2000), the duty attaches."

	res, err := ex.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.CitationCount != 2 {
		t.Fatalf("CitationCount = %d, want 2; records: %+v", res.CitationCount, res.Records)
	}

	first, second := res.Records[0], res.Records[1]
	if first.Citation != "142 Wn.2d 450" || second.Citation != "13 P.3d 1065" {
		t.Fatalf("citations = %q, %q", first.Citation, second.Citation)
	}
	if first.Offset() >= second.Offset() {
		t.Error("records must preserve source-text order")
	}
	for _, rec := range res.Records {
		if rec.ExtractedCaseName != "Smith v. Jones" {
			t.Errorf("citation %q: extracted name = %q, want Smith v. Jones", rec.Citation, rec.ExtractedCaseName)
		}
		if rec.Date != "2000" {
			t.Errorf("citation %q: date = %q, want 2000", rec.Citation, rec.Date)
		}
		if rec.Method != citation.MethodRegex {
			t.Errorf("citation %q: method = %s", rec.Citation, rec.Method)
		}
		if rec.Confidence != citation.ConfidenceRegex {
			t.Errorf("citation %q: confidence = %v", rec.Citation, rec.Confidence)
		}
		if rec.Context == "" {
			t.Errorf("citation %q: context window is empty", rec.Citation)
		}
	}
}

func TestExtract_EmptyTextRejected(t *testing.T) {
	ex := newTestExtractor(t, nil)
	for _, text := range []string{"", "   \n\t  "} {
		if _, err := ex.Extract(context.Background(), text); err == nil {
			t.Errorf("text %q: empty input must be rejected, not processed", text)
		}
	}
}

func TestExtract_NoCitationsIsValidEmptyResult(t *testing.T) {
	ex := newTestExtractor(t, nil)
	res, err := ex.Extract(context.Background(), "This paragraph contains no legal citations at all.")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.CitationCount != 0 {
		t.Fatalf("CitationCount = %d, want 0", res.CitationCount)
	}
}

func TestExtract_TokenizerFailsSoft(t *testing.T) {
	tok := &stubTokenizer{fn: func(ctx context.Context, text string) ([]Span, error) {
		return nil, errors.New("tokenizer backend down")
	}}
	ex := newTestExtractor(t, tok)

	res, err := ex.Extract(context.Background(), "See 142 Wn.2d 450 (2000).")
	if err != nil {
		t.Fatalf("tokenizer failure must not surface: %v", err)
	}
	if res.CitationCount != 1 {
		t.Fatalf("CitationCount = %d, want 1 regex result", res.CitationCount)
	}
	if res.Records[0].Method != citation.MethodRegex {
		t.Errorf("method = %s, want regex", res.Records[0].Method)
	}
}

func TestExtract_MergePrefersTokenizerOnCollision(t *testing.T) {
	tok := &stubTokenizer{fn: func(ctx context.Context, text string) ([]Span, error) {
		idx := strings.Index(text, "142 Wn.2d 450")
		return []Span{{Text: "142 Wn.2d 450", Start: idx, End: idx + len("142 Wn.2d 450")}}, nil
	}}
	ex := newTestExtractor(t, tok)

	res, err := ex.Extract(context.Background(), "See 142 Wn.2d 450 (2000).")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.CitationCount != 1 {
		t.Fatalf("CitationCount = %d, want 1 after dedupe", res.CitationCount)
	}
	rec := res.Records[0]
	if rec.Method != citation.MethodTokenizer {
		t.Errorf("method = %s, want tokenizer on collision", rec.Method)
	}
	if rec.Confidence != citation.ConfidenceTokenizer {
		t.Errorf("confidence = %v, want %v", rec.Confidence, citation.ConfidenceTokenizer)
	}
	if rec.Pattern != "wash_2d" {
		t.Errorf("pattern = %q, regex metadata must survive the merge", rec.Pattern)
	}
}

func TestExtract_StatuteSpansFiltered(t *testing.T) {
	tok := &stubTokenizer{fn: func(ctx context.Context, text string) ([]Span, error) {
		idx := strings.Index(text, "42 U.S.C.")
		return []Span{{Text: "42 U.S.C. § 1983", Start: idx, End: idx + len("42 U.S.C. § 1983")}}, nil
	}}
	ex := newTestExtractor(t, tok)

	res, err := ex.Extract(context.Background(), "The claim arises under 42 U.S.C. § 1983 and nothing else.")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.CitationCount != 0 {
		t.Fatalf("statute must be filtered, got %+v", res.Records[0])
	}
}

func TestExtract_WestlawWithoutCaseName(t *testing.T) {
	ex := newTestExtractor(t, nil)
	res, err := ex.Extract(context.Background(), "The order was entered, 2021 WL 123456, without further explanation.")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.CitationCount != 1 {
		t.Fatalf("CitationCount = %d, want 1", res.CitationCount)
	}
	rec := res.Records[0]
	if rec.Citation != "2021 WL 123456" {
		t.Fatalf("citation = %q", rec.Citation)
	}
	if rec.CaseName != "" || rec.ExtractedCaseName != "" {
		t.Errorf("no surrounding name exists, got case_name=%q extracted=%q", rec.CaseName, rec.ExtractedCaseName)
	}
}

func TestExtract_IdBackReference(t *testing.T) {
	tok := &stubTokenizer{fn: func(ctx context.Context, text string) ([]Span, error) {
		idx := strings.Index(text, "Id.")
		return []Span{{Text: "Id.", Start: idx, End: idx + 3}}, nil
	}}
	ex := newTestExtractor(t, tok)

	text := "Smith v. Jones, 142 Wn.2d 450 (2000) controls. Id. confirms the standard."
	res, err := ex.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.CitationCount != 2 {
		t.Fatalf("CitationCount = %d, want 2", res.CitationCount)
	}

	idRec := res.Records[1]
	if idRec.Citation != "Id." {
		t.Fatalf("second record = %q, want the Id. reference", idRec.Citation)
	}
	if idRec.ExtractedCaseName != "Smith v. Jones" {
		t.Errorf("Id. should resolve to the previous case name, got %q", idRec.ExtractedCaseName)
	}
	if idRec.Date != "2000" {
		t.Errorf("Id. should inherit the previous date, got %q", idRec.Date)
	}
}

func TestExtract_ShortFormResolvedWithoutTokenizer(t *testing.T) {
	// The production pipeline must find "Id." references on its own; no
	// strategy injection, dictionary tokenizer as deployed.
	ex, err := NewCitationExtractor(NewDictionaryTokenizer(), DefaultExtractorConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewCitationExtractor: %v", err)
	}

	text := "Brown v. Board of Education, 347 U.S. 483 (1954), barred the practice. Id. at 495 confirms the holding."
	res, err := ex.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.CitationCount != 2 {
		t.Fatalf("CitationCount = %d, want the reporter citation plus the Id. reference; records: %+v", res.CitationCount, res.Records)
	}

	idRec := res.Records[1]
	if idRec.Citation != "Id. at 495" {
		t.Fatalf("second record = %q, want the Id. reference", idRec.Citation)
	}
	if idRec.Pattern != "short_form" {
		t.Errorf("pattern = %q", idRec.Pattern)
	}
	if idRec.ExtractedCaseName != "Brown v. Board of Education" {
		t.Errorf("Id. resolved to %q, want the antecedent case name", idRec.ExtractedCaseName)
	}
	if idRec.Date != "1954" {
		t.Errorf("Id. date = %q, want the antecedent date", idRec.Date)
	}
}

func TestExtract_RepeatedShortFormsStayDistinct(t *testing.T) {
	ex := newTestExtractor(t, nil)
	text := "Smith v. Jones, 142 Wn.2d 450 (2000) controls. Id. at 453 applies. Id. at 460 extends it."

	res, err := ex.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.CitationCount != 3 {
		t.Fatalf("CitationCount = %d, want 3; each Id. is its own back-reference", res.CitationCount)
	}
	for _, rec := range res.Records[1:] {
		if rec.ExtractedCaseName != "Smith v. Jones" {
			t.Errorf("citation %q resolved to %q", rec.Citation, rec.ExtractedCaseName)
		}
	}
}

func TestExtract_DeduplicatesRepeatedCitations(t *testing.T) {
	ex := newTestExtractor(t, nil)
	res, err := ex.Extract(context.Background(), "See 142 Wn.2d 450. Compare 142 Wn.2d 450 again.")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.CitationCount != 1 {
		t.Fatalf("CitationCount = %d, want 1 after exact-text dedupe", res.CitationCount)
	}
}

func TestExtractBatch_PreservesOrderAndBounds(t *testing.T) {
	ex := newTestExtractor(t, nil)
	texts := []string{
		"See 142 Wn.2d 450 (2000).",
		"No citations here.",
		"See 531 U.S. 98 (2000).",
	}
	results, err := ex.ExtractBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].CitationCount != 1 || results[1].CitationCount != 0 || results[2].CitationCount != 1 {
		t.Errorf("counts = %d, %d, %d", results[0].CitationCount, results[1].CitationCount, results[2].CitationCount)
	}
}
