package analysis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
)

type mockLookup struct {
	calls int64
	fn    func(ctx context.Context, cite, hint string) (*citation.LookupResult, error)
}

func (m *mockLookup) LookupCase(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.fn == nil {
		return &citation.LookupResult{Outcome: citation.OutcomeNotFound}, nil
	}
	return m.fn(ctx, cite, hint)
}

type mapCache struct {
	entries map[string]*citation.LookupResult
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*citation.LookupResult)}
}

func (c *mapCache) Get(ctx context.Context, cite string) (*citation.LookupResult, bool, error) {
	res, ok := c.entries[cite]
	return res, ok, nil
}

func (c *mapCache) Set(ctx context.Context, cite string, res *citation.LookupResult) error {
	c.entries[cite] = res
	return nil
}

func testRecord(cite, name string) *citation.Record {
	rec := citation.NewRecord(cite, 0, len(cite), citation.MethodRegex)
	rec.ExtractedCaseName = name
	rec.ResolveDisplayName()
	return rec
}

func TestVerifyAll_VerifiedOutcome(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return &citation.LookupResult{
			Outcome:  citation.OutcomeVerified,
			CaseName: "Smith v. Jones",
			Date:     "2000-11-22",
			URL:      "https://www.courtlistener.com/opinion/1",
			Court:    "Wash.",
			Source:   "courtlistener",
		}, nil
	}}
	v := NewVerifier(client, nil, nil, VerifierOptions{}, nil)

	rec := testRecord("142 Wn.2d 450", "Smith v. Jones")
	v.VerifyAll(context.Background(), []*citation.Record{rec})

	if !rec.Verified {
		t.Fatal("record should be verified")
	}
	if rec.CanonicalName != "Smith v. Jones" {
		t.Errorf("canonical = %q", rec.CanonicalName)
	}
	if rec.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 when names agree", rec.Confidence)
	}
	if rec.Source != "courtlistener" {
		t.Errorf("source = %q", rec.Source)
	}
	if rec.CaseName != "Smith v. Jones" {
		t.Errorf("display name = %q", rec.CaseName)
	}
}

func TestVerifyAll_VerifiedWithDifferentNameScoresLower(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return &citation.LookupResult{Outcome: citation.OutcomeVerified, CaseName: "Smith v. Jones Industries"}, nil
	}}
	v := NewVerifier(client, nil, nil, VerifierOptions{}, nil)

	rec := testRecord("142 Wn.2d 450", "Smith v. Jones")
	v.VerifyAll(context.Background(), []*citation.Record{rec})

	if !rec.Verified {
		t.Fatal("record should be verified")
	}
	if rec.Confidence != citation.ConfidenceVerified {
		t.Errorf("confidence = %v, want %v for a name mismatch", rec.Confidence, citation.ConfidenceVerified)
	}
	if rec.CaseName != "Smith v. Jones Industries" {
		t.Errorf("canonical must win the display slot, got %q", rec.CaseName)
	}
}

func TestVerifyAll_NotFoundIsStrongButNotAbsolute(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return &citation.LookupResult{Outcome: citation.OutcomeNotFound, Source: "courtlistener"}, nil
	}}
	v := NewVerifier(client, nil, nil, VerifierOptions{}, nil)

	rec := testRecord("999 Wn.2d 999", "Fake v. Case")
	v.VerifyAll(context.Background(), []*citation.Record{rec})

	if rec.Verified {
		t.Fatal("not-found record must stay unverified")
	}
	if rec.Confidence != citation.ConfidenceNotFound {
		t.Errorf("confidence = %v, want %v", rec.Confidence, citation.ConfidenceNotFound)
	}
	if rec.Error == "" {
		t.Error("not-found should carry an explanatory error field")
	}
	if rec.Source == "unavailable" {
		t.Error("not-found must not be conflated with unavailability")
	}
}

func TestVerifyAll_NetworkErrorIsUnavailableNotNotFound(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	v := NewVerifier(client, nil, nil, VerifierOptions{}, nil)

	rec := testRecord("142 Wn.2d 450", "Smith v. Jones")
	v.VerifyAll(context.Background(), []*citation.Record{rec})

	if rec.Verified {
		t.Fatal("record must not verify on transport failure")
	}
	if rec.Source != "unavailable" {
		t.Errorf("source = %q, want unavailable", rec.Source)
	}
	if rec.Confidence != 0 {
		t.Errorf("confidence = %v, want 0 for unavailability", rec.Confidence)
	}
	if rec.Error != "" && rec.Error == "citation not found in verification source" {
		t.Error("unavailability must not carry the not-found flag")
	}
}

func TestVerifyAll_WestlawShortCircuitsAsUnverifiable(t *testing.T) {
	client := &mockLookup{}
	v := NewVerifier(client, nil, nil, VerifierOptions{}, nil)

	rec := testRecord("2021 WL 123456", "")
	v.VerifyAll(context.Background(), []*citation.Record{rec})

	if atomic.LoadInt64(&client.calls) != 0 {
		t.Error("Westlaw numbers must never reach the external client")
	}
	if rec.Source != "unverifiable" {
		t.Errorf("source = %q, want unverifiable", rec.Source)
	}
	if rec.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", rec.Confidence)
	}
}

func TestVerifyAll_NilClientDegradesToUnavailable(t *testing.T) {
	v := NewVerifier(nil, nil, nil, VerifierOptions{}, nil)

	rec := testRecord("142 Wn.2d 450", "Smith v. Jones")
	v.VerifyAll(context.Background(), []*citation.Record{rec})

	if rec.Verified || rec.Source != "unavailable" {
		t.Errorf("verified=%v source=%q, want graceful degradation", rec.Verified, rec.Source)
	}
}

func TestVerifyAll_DeduplicatesLookups(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return &citation.LookupResult{Outcome: citation.OutcomeVerified, CaseName: "Smith v. Jones"}, nil
	}}
	v := NewVerifier(client, nil, nil, VerifierOptions{}, nil)

	recs := []*citation.Record{
		testRecord("142 Wn.2d 450", "Smith v. Jones"),
		testRecord("142 Wn.2d 450", "Smith v. Jones"),
		testRecord("142 wn.2d 450", "Smith v. Jones"),
	}
	v.VerifyAll(context.Background(), recs)

	if got := atomic.LoadInt64(&client.calls); got != 1 {
		t.Errorf("client called %d times, want 1 for one unique citation", got)
	}
	for _, rec := range recs {
		if !rec.Verified {
			t.Errorf("record %q missed the shared outcome", rec.Citation)
		}
	}
}

func TestVerifyAll_CacheHitSkipsClient(t *testing.T) {
	client := &mockLookup{}
	cache := newMapCache()
	cache.entries[citation.NormalizeCitation("142 Wn.2d 450")] = &citation.LookupResult{
		Outcome:  citation.OutcomeVerified,
		CaseName: "Smith v. Jones",
	}
	v := NewVerifier(client, cache, nil, VerifierOptions{}, nil)

	rec := testRecord("142 Wn.2d 450", "Smith v. Jones")
	v.VerifyAll(context.Background(), []*citation.Record{rec})

	if atomic.LoadInt64(&client.calls) != 0 {
		t.Error("cache hit must skip the external client")
	}
	if !rec.Verified {
		t.Error("cached outcome not applied")
	}
}

func TestVerifyAll_DateProvenancePreserved(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return &citation.LookupResult{
			Outcome:  citation.OutcomeVerified,
			CaseName: "Smith v. Jones",
			Date:     "2000-11-22",
		}, nil
	}}
	v := NewVerifier(client, nil, nil, VerifierOptions{}, nil)

	rec := testRecord("142 Wn.2d 450", "Smith v. Jones")
	rec.ExtractedDate = "2000"
	rec.ResolveDisplayDate()
	v.VerifyAll(context.Background(), []*citation.Record{rec})

	if rec.ExtractedDate != "2000" {
		t.Errorf("ExtractedDate = %q, the in-text date must survive verification", rec.ExtractedDate)
	}
	if rec.CanonicalDate != "2000-11-22" {
		t.Errorf("CanonicalDate = %q", rec.CanonicalDate)
	}
	if rec.Date != "2000-11-22" {
		t.Errorf("Date = %q, the verified date must win the display slot", rec.Date)
	}
}

func TestVerifyAll_ParallelClusterNamesLaterMember(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		if cite == "142 Wn.2d 450" {
			return &citation.LookupResult{
				Outcome:  citation.OutcomeVerified,
				CaseName: "Smith v. Jones",
				Date:     "2000",
			}, nil
		}
		return &citation.LookupResult{Outcome: citation.OutcomeNotFound, Source: "courtlistener"}, nil
	}}
	v := NewVerifier(client, nil, nil, VerifierOptions{}, nil)

	primary := testRecord("142 Wn.2d 450", "Smith v. Jones")
	primary.AddParallel("13 P.3d 1065")
	v.VerifyAll(context.Background(), []*citation.Record{primary})

	// The regional reporter arrives alone in a later batch and misses in
	// the external database; the cluster verified above still names it.
	orphan := testRecord("13 P.3d 1065", "")
	v.VerifyAll(context.Background(), []*citation.Record{orphan})

	if orphan.Verified {
		t.Fatal("cluster enrichment must not flip verification")
	}
	if orphan.CanonicalName != "Smith v. Jones" {
		t.Errorf("CanonicalName = %q, want the cluster's resolved name", orphan.CanonicalName)
	}
	if orphan.CaseName != "Smith v. Jones" {
		t.Errorf("display name = %q", orphan.CaseName)
	}
	if orphan.Date != "2000" {
		t.Errorf("date = %q, want the cluster's date", orphan.Date)
	}
}

type countingMetrics struct {
	lookups     map[string]int
	cacheHits   int
	cacheMisses int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{lookups: make(map[string]int)}
}

func (m *countingMetrics) RecordDocument(status string, textLength int) {}
func (m *countingMetrics) RecordParallelGroups(count int)               {}
func (m *countingMetrics) RecordLookup(outcome string, seconds float64) {
	m.lookups[outcome]++
}
func (m *countingMetrics) RecordCacheLookup(hit bool) {
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func TestVerifyAll_ReportsLookupAndCacheMetrics(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return &citation.LookupResult{Outcome: citation.OutcomeVerified, CaseName: "Smith v. Jones"}, nil
	}}
	metrics := newCountingMetrics()
	v := NewVerifier(client, newMapCache(), nil, VerifierOptions{Metrics: metrics}, nil)

	rec := testRecord("142 Wn.2d 450", "Smith v. Jones")
	v.VerifyAll(context.Background(), []*citation.Record{rec})
	v.VerifyAll(context.Background(), []*citation.Record{testRecord("142 Wn.2d 450", "Smith v. Jones")})

	if metrics.lookups["verified"] != 1 {
		t.Errorf("verified lookups = %d, want 1 external call recorded", metrics.lookups["verified"])
	}
	if metrics.cacheMisses != 1 || metrics.cacheHits != 1 {
		t.Errorf("cache hits/misses = %d/%d, want 1/1 across the two passes", metrics.cacheHits, metrics.cacheMisses)
	}
}

func TestVerifyAll_CancelledContextLeavesRecordsUnavailable(t *testing.T) {
	client := &mockLookup{fn: func(ctx context.Context, cite, hint string) (*citation.LookupResult, error) {
		return &citation.LookupResult{Outcome: citation.OutcomeVerified}, nil
	}}
	v := NewVerifier(client, nil, nil, VerifierOptions{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := testRecord("142 Wn.2d 450", "Smith v. Jones")
	v.VerifyAll(ctx, []*citation.Record{rec})

	if rec.Verified {
		t.Fatal("no lookup ran, record must stay unverified")
	}
	if rec.Source != "unavailable" {
		t.Errorf("source = %q, want unavailable partial-result state", rec.Source)
	}
}
