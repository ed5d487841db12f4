package analysis

import (
	"context"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/internal/intelligence/cite_extractor"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

// unverifiableRe matches citation families no configured database can
// confirm.  Westlaw and LEXIS slip numbers are proprietary identifiers.
var unverifiableRe = regexp.MustCompile(`\b\d{4}\s+(?:WL|(?:U\.?\s*S\.?\s*(?:App\.?|Dist\.?)\s*)?LEXIS)\s+\d+\b`)

// VerifierOptions control batch verification behavior.  Metrics is
// optional; a nil value disables verification telemetry.
type VerifierOptions struct {
	Concurrency         int
	HintSimilarityFloor float64
	ParallelCacheSize   int
	Metrics             PipelineMetrics
}

// Verifier enriches citation records with external verification outcomes.
// Lookups are cache-first, deduplicated in flight, and run on a bounded
// worker pool.  A nil external client degrades every lookup to the
// unavailable outcome rather than failing.
type Verifier struct {
	client citation.Verifier
	cache  citation.VerificationCache
	store  citation.VerificationStore
	opts   VerifierOptions
	logger logging.Logger

	// parallel carries resolved name/date across reporters of the same
	// case, so one verified member of a cluster names the others.
	parallel *citation.ParallelCache

	sf singleflight.Group
}

// NewVerifier wires a batch verifier.  cache and store are optional.
func NewVerifier(client citation.Verifier, cache citation.VerificationCache, store citation.VerificationStore, opts VerifierOptions, logger logging.Logger) *Verifier {
	if opts.Concurrency < 1 {
		opts.Concurrency = 8
	}
	if opts.HintSimilarityFloor <= 0 {
		opts.HintSimilarityFloor = 0.30
	}
	if opts.ParallelCacheSize < 1 {
		opts.ParallelCacheSize = 256
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Verifier{
		client:   client,
		cache:    cache,
		store:    store,
		opts:     opts,
		logger:   logger,
		parallel: citation.NewParallelCache(opts.ParallelCacheSize),
	}
}

// VerifyAll resolves every unique citation among records and applies the
// outcomes in place.  On context cancellation, records whose lookups never
// ran are left in the unavailable state; the partial results are still
// usable.
func (v *Verifier) VerifyAll(ctx context.Context, records []*citation.Record) {
	unique := make(map[string][]*citation.Record)
	var keys []string
	for _, rec := range records {
		key := citation.NormalizeCitation(rec.Citation)
		if _, seen := unique[key]; !seen {
			keys = append(keys, key)
		}
		unique[key] = append(unique[key], rec)
	}

	results := make(map[string]*citation.LookupResult, len(keys))
	var mu sync.Mutex

	sem := make(chan struct{}, v.opts.Concurrency)
	var wg sync.WaitGroup

	for _, key := range keys {
		recs := unique[key]
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(key string, sample *citation.Record) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			res := v.lookup(ctx, sample)
			mu.Lock()
			results[key] = res
			mu.Unlock()
		}(key, recs[0])
	}
	wg.Wait()

	for key, recs := range unique {
		res, ok := results[key]
		if !ok || res == nil {
			res = &citation.LookupResult{Outcome: citation.OutcomeUnavailable, Source: "unavailable"}
		}
		for _, rec := range recs {
			applyOutcome(rec, res, v.opts.HintSimilarityFloor)
		}
	}

	v.propagateParallel(records)
}

// propagateParallel shares a verified record's canonical name and date
// with the other reporters of the same case.  The cache outlives the
// call, so a cluster verified in one document names a lone member of the
// same cluster seen later.
func (v *Verifier) propagateParallel(records []*citation.Record) {
	for _, rec := range records {
		if !rec.Verified || rec.CanonicalName == "" {
			continue
		}
		entry := citation.ParallelEntry{CaseName: rec.CanonicalName, Date: rec.Date}
		v.parallel.Put(rec.Citation, entry)
		for _, p := range rec.ParallelCitations {
			v.parallel.Put(p, entry)
		}
	}

	for _, rec := range records {
		if rec.Verified || rec.CanonicalName != "" {
			continue
		}
		entry, ok := v.parallel.Get(rec.Citation)
		if !ok {
			continue
		}
		rec.CanonicalName = entry.CaseName
		if rec.CanonicalDate == "" {
			rec.CanonicalDate = entry.Date
		}
		rec.ResolveDisplayName()
		rec.ResolveDisplayDate()
	}
}

// lookup resolves one citation: unverifiable short-circuit, then cache,
// then the external client behind singleflight.
func (v *Verifier) lookup(ctx context.Context, rec *citation.Record) *citation.LookupResult {
	if unverifiableRe.MatchString(rec.Citation) || cite_extractor.IsShortFormReference(rec.Citation) {
		v.recordOutcome(citation.OutcomeUnverifiable)
		return &citation.LookupResult{Outcome: citation.OutcomeUnverifiable, Source: "unverifiable"}
	}
	if v.client == nil {
		v.recordOutcome(citation.OutcomeUnavailable)
		return &citation.LookupResult{Outcome: citation.OutcomeUnavailable, Source: "unavailable"}
	}

	key := citation.NormalizeCitation(rec.Citation)

	if v.cache != nil {
		cached, hit, err := v.cache.Get(ctx, key)
		switch {
		case err != nil:
			v.logger.Warn("verification cache read failed",
				logging.String("citation", rec.Citation), logging.Err(err))
		case hit:
			if v.opts.Metrics != nil {
				v.opts.Metrics.RecordCacheLookup(true)
			}
			return cached
		default:
			if v.opts.Metrics != nil {
				v.opts.Metrics.RecordCacheLookup(false)
			}
		}
	}

	start := time.Now()
	out, err, _ := v.sf.Do(key, func() (interface{}, error) {
		res, lookupErr := v.client.LookupCase(ctx, rec.Citation, rec.ExtractedCaseName)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return res, nil
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		// Network and transport failures are unavailability, never a
		// statement about the citation's existence.
		if errors.IsNotFound(err) {
			v.recordLookup(citation.OutcomeNotFound, elapsed)
			return &citation.LookupResult{Outcome: citation.OutcomeNotFound, Source: "courtlistener"}
		}
		v.logger.Warn("citation lookup failed",
			logging.String("citation", rec.Citation), logging.Err(err))
		v.recordLookup(citation.OutcomeUnavailable, elapsed)
		return &citation.LookupResult{Outcome: citation.OutcomeUnavailable, Source: "unavailable"}
	}

	res := out.(*citation.LookupResult)
	v.recordLookup(res.Outcome, elapsed)
	if v.cache != nil && res.Outcome != citation.OutcomeUnavailable {
		if err := v.cache.Set(ctx, key, res); err != nil {
			v.logger.Warn("verification cache write failed",
				logging.String("citation", rec.Citation), logging.Err(err))
		}
	}
	if v.store != nil && res.Outcome != citation.OutcomeUnavailable {
		if err := v.store.Save(ctx, verificationRecord(rec.Citation, res)); err != nil {
			v.logger.Warn("verification store write failed",
				logging.String("citation", rec.Citation), logging.Err(err))
		}
	}
	return res
}

func (v *Verifier) recordOutcome(outcome citation.Outcome) {
	if v.opts.Metrics != nil {
		v.opts.Metrics.RecordLookup(string(outcome), 0)
	}
}

func (v *Verifier) recordLookup(outcome citation.Outcome, seconds float64) {
	if v.opts.Metrics != nil {
		v.opts.Metrics.RecordLookup(string(outcome), seconds)
	}
}

// applyOutcome copies a lookup result onto a record.  Confidence moves up
// for verified citations, down for not-found, and to zero when the lookup
// was unavailable or the citation is categorically unverifiable.
func applyOutcome(rec *citation.Record, res *citation.LookupResult, hintFloor float64) {
	switch res.Outcome {
	case citation.OutcomeVerified:
		rec.Verified = true
		rec.Source = sourceOrDefault(res.Source, "courtlistener")
		rec.CanonicalName = res.CaseName
		rec.URL = res.URL
		if res.Court != "" {
			rec.Court = res.Court
		}
		if res.Date != "" {
			rec.CanonicalDate = res.Date
		}
		rec.Confidence = citation.ConfidenceVerified
		if rec.ExtractedCaseName != "" &&
			citation.NormalizeCaseName(rec.ExtractedCaseName) == citation.NormalizeCaseName(res.CaseName) {
			rec.Confidence = 1.0
		}
		if res.CaseName != "" {
			rec.HintedCaseName = cite_extractor.HintedName(rec.Context, res.CaseName, rec.Citation, hintFloor)
		}
		rec.ResolveDisplayName()
		rec.ResolveDisplayDate()

	case citation.OutcomeNotFound:
		rec.Verified = false
		rec.Source = sourceOrDefault(res.Source, "courtlistener")
		// Not found is a strong signal, not proof of fabrication; the
		// score reflects that uncertainty.
		rec.Confidence = citation.ConfidenceNotFound
		rec.Error = "citation not found in verification source"

	case citation.OutcomeUnverifiable:
		rec.Verified = false
		rec.Source = "unverifiable"
		rec.Confidence = citation.ConfidenceUnverifiable

	default:
		rec.Verified = false
		rec.Source = "unavailable"
		rec.Confidence = citation.ConfidenceUnverifiable
	}
}

func sourceOrDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

func verificationRecord(cite string, res *citation.LookupResult) *citation.VerificationRecord {
	return &citation.VerificationRecord{
		Citation: citation.NormalizeCitation(cite),
		Outcome:  res.Outcome,
		CaseName: res.CaseName,
		Date:     res.Date,
		URL:      res.URL,
		Court:    res.Court,
		Source:   res.Source,
	}
}
