package analysis

import (
	"context"
	"testing"

	"github.com/turtacn/CiteGuard/internal/config"
	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/internal/intelligence/cite_extractor"
)

func newTestService(t *testing.T, client citation.Verifier) Service {
	t.Helper()

	extractor, err := cite_extractor.NewCitationExtractor(
		cite_extractor.NewDictionaryTokenizer(),
		cite_extractor.DefaultExtractorConfig(), nil, nil)
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}

	var verifier *Verifier
	if client != nil {
		verifier = NewVerifier(client, nil, nil, VerifierOptions{}, nil)
	}

	svc, err := NewService(extractor, verifier, config.NewDefaultConfig().Pipeline, nil, nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc
}

func TestAnalyzeText_ParallelPairEndToEnd(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return &citation.LookupResult{
			Outcome:  citation.OutcomeVerified,
			CaseName: "Smith v. Jones",
			Date:     "2000",
			Source:   "courtlistener",
		}, nil
	}}
	svc := newTestService(t, client)

	res, err := svc.AnalyzeText(context.Background(), &AnalyzeInput{
		Text:   "Smith v. Jones, 142 Wn.2d 450, 13 P.3d 1065 (2000), is controlling here.",
		Verify: true,
	})
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}

	if len(res.Results) != 1 {
		t.Fatalf("got %d results, want 1 merged parallel group: %+v", len(res.Results), res.Results)
	}
	head := res.Results[0]
	if head.Citation != "142 Wn.2d 450" {
		t.Errorf("primary = %q", head.Citation)
	}
	if !head.IsParallelCitation {
		t.Error("primary should be flagged parallel")
	}
	info, ok := head.ParallelInfo.(*ParallelInfo)
	if !ok || len(info.ParallelCitations) != 1 || info.ParallelCitations[0] != "13 P.3d 1065" {
		t.Errorf("parallel_info = %+v", head.ParallelInfo)
	}
	if head.CaseName != "Smith v. Jones" || head.Date != "2000" {
		t.Errorf("name = %q, date = %q", head.CaseName, head.Date)
	}
	if !head.Verified {
		t.Error("head should be verified")
	}

	if res.Summary.TotalCitations != 1 || res.Summary.ParallelCitations != 1 || res.Summary.UniqueCases != 1 {
		t.Errorf("summary = %+v", res.Summary)
	}
	if res.Summary.VerifiedCitations+res.Summary.UnverifiedCitations != res.Summary.TotalCitations {
		t.Error("summary counts inconsistent")
	}
}

func TestAnalyzeText_NoCitationsIsValidEmptyResult(t *testing.T) {
	svc := newTestService(t, nil)

	res, err := svc.AnalyzeText(context.Background(), &AnalyzeInput{Text: "No citations in this brief."})
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if res.Summary.TotalCitations != 0 || len(res.Results) != 0 {
		t.Errorf("expected empty result, got %+v", res.Summary)
	}
}

func TestAnalyzeText_EmptyDocumentRejected(t *testing.T) {
	svc := newTestService(t, nil)
	for _, text := range []string{"", "  \n\t "} {
		if _, err := svc.AnalyzeText(context.Background(), &AnalyzeInput{Text: text}); err == nil {
			t.Errorf("text %q: a blank document must be rejected", text)
		}
	}
}

func TestAnalyzeText_AggregatesCitationErrors(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return &citation.LookupResult{Outcome: citation.OutcomeNotFound, Source: "courtlistener"}, nil
	}}
	svc := newTestService(t, client)

	res, err := svc.AnalyzeText(context.Background(), &AnalyzeInput{
		Text:   "See Smith v. Jones, 142 Wn.2d 450 (2000).",
		Verify: true,
	})
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if res.Errors == nil {
		t.Fatal("Errors must be present even when empty")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want the not-found citation surfaced", res.Errors)
	}
	if res.Errors[0] != "142 Wn.2d 450: citation not found in verification source" {
		t.Errorf("Errors[0] = %q", res.Errors[0])
	}
}

func TestAnalyzeText_NoVerifierLeavesRecordsUnavailable(t *testing.T) {
	svc := newTestService(t, nil)

	res, err := svc.AnalyzeText(context.Background(), &AnalyzeInput{
		Text:   "See Smith v. Jones, 142 Wn.2d 450 (2000).",
		Verify: true,
	})
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if len(res.Results) != 1 {
		t.Fatalf("got %d results", len(res.Results))
	}
	rec := res.Results[0]
	if rec.Verified {
		t.Error("nothing can verify without a verifier")
	}
	if rec.Source != "unavailable" {
		t.Errorf("source = %q, want unavailable (distinct from not-found)", rec.Source)
	}
}

func TestAnalyzeText_WestlawEndsUnverifiableNotHallucinated(t *testing.T) {
	client := &mockLookup{}
	svc := newTestService(t, client)

	res, err := svc.AnalyzeText(context.Background(), &AnalyzeInput{
		Text:   "The order appears at 2021 WL 123456 in the docket.",
		Verify: true,
	})
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if len(res.Results) != 1 {
		t.Fatalf("got %d results", len(res.Results))
	}
	rec := res.Results[0]
	if rec.CaseName != "N/A" {
		t.Errorf("case name = %q, want N/A for a bare Westlaw number", rec.CaseName)
	}
	if rec.Source != "unverifiable" {
		t.Errorf("source = %q, want the distinct unverifiable classification", rec.Source)
	}
	if rec.Error == "citation not found in verification source" {
		t.Error("unverifiable must not carry a not-found flag")
	}
}

func TestAnalyzeText_NilInput(t *testing.T) {
	svc := newTestService(t, nil)
	if _, err := svc.AnalyzeText(context.Background(), nil); err == nil {
		t.Fatal("nil input must be rejected")
	}
}

func TestVerifyCitation_SingleLookup(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return &citation.LookupResult{Outcome: citation.OutcomeVerified, CaseName: "Bush v. Gore"}, nil
	}}
	svc := newTestService(t, client)

	res, err := svc.VerifyCitation(context.Background(), "531 U.S. 98", "Bush v. Gore")
	if err != nil {
		t.Fatalf("VerifyCitation: %v", err)
	}
	if res.Outcome != citation.OutcomeVerified || res.CaseName != "Bush v. Gore" {
		t.Errorf("result = %+v", res)
	}

	if _, err := svc.VerifyCitation(context.Background(), "", ""); err == nil {
		t.Error("empty citation must be rejected")
	}
}

func TestVerifyCitation_NoVerifierIsUnavailable(t *testing.T) {
	svc := newTestService(t, nil)
	res, err := svc.VerifyCitation(context.Background(), "531 U.S. 98", "")
	if err != nil {
		t.Fatalf("VerifyCitation: %v", err)
	}
	if res.Outcome != citation.OutcomeUnavailable {
		t.Errorf("outcome = %v, want unavailable", res.Outcome)
	}
}
