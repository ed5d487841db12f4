package cite_extractor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// ExtractorConfig holds tuneable parameters for the extraction pipeline.
type ExtractorConfig struct {
	ContextWindow       int     `json:"context_window" yaml:"context_window"`
	NameSearchWindow    int     `json:"name_search_window" yaml:"name_search_window"`
	MinNameLength       int     `json:"min_name_length" yaml:"min_name_length"`
	MaxNameLength       int     `json:"max_name_length" yaml:"max_name_length"`
	HintSimilarityFloor float64 `json:"hint_similarity_floor" yaml:"hint_similarity_floor"`
	RecentNamesSize     int     `json:"recent_names_size" yaml:"recent_names_size"`
	MaxTextLength       int     `json:"max_text_length" yaml:"max_text_length"`
	BatchConcurrency    int     `json:"batch_concurrency" yaml:"batch_concurrency"`
}

// DefaultExtractorConfig returns production-ready defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		ContextWindow:       200,
		NameSearchWindow:    500,
		MinNameLength:       5,
		MaxNameLength:       200,
		HintSimilarityFloor: 0.30,
		RecentNamesSize:     10,
		MaxTextLength:       2_000_000,
		BatchConcurrency:    4,
	}
}

// ---------------------------------------------------------------------------
// Dependency interfaces
// ---------------------------------------------------------------------------

// Span is one citation candidate located by a tokenizer.
type Span struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Tokenizer locates citation spans through dictionary/statistical matching
// rather than fixed reporter regexes.  Implementations may fail; the
// extractor treats any tokenizer error as "no tokenizer results".
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]Span, error)
}

// Metrics records operational telemetry for the extraction pipeline.
type Metrics interface {
	RecordExtraction(ctx context.Context, method string, count int)
	RecordDuration(ctx context.Context, stage string, seconds float64)
}

// Logger is a minimal structured logger.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// ---------------------------------------------------------------------------
// Result types
// ---------------------------------------------------------------------------

// ExtractionResult is the output of a single Extract call.  CleanedText is
// the normalized text every record's offsets refer to.
type ExtractionResult struct {
	Records          []*citation.Record `json:"records"`
	CitationCount    int                `json:"citation_count"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
	TextLength       int                `json:"text_length"`
	CleanedText      string             `json:"-"`
}

// ---------------------------------------------------------------------------
// CitationExtractor
// ---------------------------------------------------------------------------

// CitationExtractor is the top-level API for citation extraction.
type CitationExtractor interface {
	Extract(ctx context.Context, text string) (*ExtractionResult, error)
	ExtractBatch(ctx context.Context, texts []string) ([]*ExtractionResult, error)
}

type citationExtractorImpl struct {
	tokenizer Tokenizer
	names     *nameExtractor
	config    ExtractorConfig
	metrics   Metrics
	logger    Logger
}

// NewCitationExtractor constructs a fully-wired extractor.  The tokenizer
// is optional: when nil, only the reporter pattern library runs.
func NewCitationExtractor(tokenizer Tokenizer, config ExtractorConfig, metrics Metrics, logger Logger) (CitationExtractor, error) {
	if config.ContextWindow < 1 {
		return nil, errors.NewInvalidInputError("context window must be positive")
	}
	if config.NameSearchWindow < config.ContextWindow {
		return nil, errors.NewInvalidInputError("name search window must cover the context window")
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	return &citationExtractorImpl{
		tokenizer: tokenizer,
		names:     newNameExtractor(config),
		config:    config,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

func (e *citationExtractorImpl) Extract(ctx context.Context, text string) (*ExtractionResult, error) {
	// Empty input is a caller mistake, not a document with zero citations.
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeEmptyDocument, "document text is empty")
	}

	start := time.Now()

	// 1. Normalize once; every offset below refers to the cleaned text.
	cleaned := Clean(text)
	if len(cleaned) > e.config.MaxTextLength {
		cleaned = cleaned[:e.config.MaxTextLength]
	}

	// 2. Run both strategies.  They are independent, so they may run
	// concurrently; the sort in merge keeps the output deterministic
	// regardless of completion order.
	var regexRecords, tokenRecords []*citation.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		regexRecords = e.regexExtract(cleaned)
		return nil
	})
	g.Go(func() error {
		tokenRecords = e.tokenizerExtract(gctx, cleaned)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.metrics.RecordExtraction(ctx, string(citation.MethodRegex), len(regexRecords))
	e.metrics.RecordExtraction(ctx, string(citation.MethodTokenizer), len(tokenRecords))

	// 3. Merge and dedupe, keeping the higher-confidence record when both
	// strategies found the same citation text.
	merged := mergeRecords(regexRecords, tokenRecords)

	// 4. Statutes are never case citations; drop them before name
	// association wastes effort on them.
	merged = filterStatutes(merged)

	// 5. Attach context windows, then associate names and dates.  The
	// recency cache for "Id." back-references is confined to this call.
	recent := citation.NewRecentNames(e.config.RecentNamesSize)
	for _, rec := range merged {
		rec.Context = contextWindow(cleaned, *rec.StartIndex, *rec.EndIndex, e.config.ContextWindow)
		// A back-reference's date is its antecedent's; scanning forward
		// from "Id." would pick up the next citation's year instead.
		if !IsShortFormReference(rec.Citation) {
			associateDate(cleaned, rec)
		}
		e.names.associate(cleaned, rec, recent)
	}

	// 6. Structural analysis of complex citation runs.
	for _, rec := range merged {
		annotateComplex(cleaned, rec, e.config.ContextWindow)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Offset() < merged[j].Offset()
	})

	elapsed := time.Since(start)
	e.metrics.RecordDuration(ctx, "extract", elapsed.Seconds())

	return &ExtractionResult{
		Records:          merged,
		CitationCount:    len(merged),
		ProcessingTimeMs: elapsed.Milliseconds(),
		TextLength:       len(cleaned),
		CleanedText:      cleaned,
	}, nil
}

func (e *citationExtractorImpl) ExtractBatch(ctx context.Context, texts []string) ([]*ExtractionResult, error) {
	if len(texts) == 0 {
		return []*ExtractionResult{}, nil
	}

	results := make([]*ExtractionResult, len(texts))
	errs := make([]error, len(texts))

	concurrency := e.config.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, txt := range texts {
		wg.Add(1)
		go func(idx int, t string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := e.Extract(ctx, t)
			results[idx] = res
			errs[idx] = err
		}(i, txt)
	}
	wg.Wait()

	allFailed := true
	for i := range results {
		if errs[i] == nil {
			allFailed = false
		} else if results[i] == nil {
			results[i] = &ExtractionResult{Records: []*citation.Record{}}
		}
	}
	if allFailed {
		return results, fmt.Errorf("all %d extractions failed; first error: %w", len(texts), errs[0])
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Regex strategy
// ---------------------------------------------------------------------------

func (e *citationExtractorImpl) regexExtract(text string) []*citation.Record {
	var records []*citation.Record
	seen := make(map[string]bool)

	for _, p := range Patterns() {
		for _, loc := range p.Pattern.FindAllStringIndex(text, -1) {
			cite := text[loc[0]:loc[1]]
			key := citation.NormalizeCitation(cite)
			if seen[key] {
				continue
			}
			seen[key] = true

			rec := citation.NewRecord(cite, loc[0], loc[1], citation.MethodRegex)
			rec.Pattern = p.Name
			records = append(records, rec)
		}
	}

	// Short-form back-references ("Id.", "id. at 12").  Each occurrence is
	// positional, resolving against the citation before it, so they are
	// never deduplicated by text.
	for _, loc := range shortFormScanRe.FindAllStringIndex(text, -1) {
		rec := citation.NewRecord(text[loc[0]:loc[1]], loc[0], loc[1], citation.MethodRegex)
		rec.Pattern = "short_form"
		records = append(records, rec)
	}
	return records
}

// ---------------------------------------------------------------------------
// Tokenizer strategy (fails soft)
// ---------------------------------------------------------------------------

func (e *citationExtractorImpl) tokenizerExtract(ctx context.Context, text string) []*citation.Record {
	if e.tokenizer == nil {
		return nil
	}
	spans, err := e.tokenizer.Tokenize(ctx, text)
	if err != nil {
		e.logger.Warn("tokenizer failed, continuing with regex results only", "error", err)
		return nil
	}

	var records []*citation.Record
	seen := make(map[string]bool)
	for _, span := range spans {
		if span.Text == "" || span.Start < 0 || span.End > len(text) || span.Start >= span.End {
			continue
		}
		key := citation.NormalizeCitation(span.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, citation.NewRecord(span.Text, span.Start, span.End, citation.MethodTokenizer))
	}
	return records
}

// ---------------------------------------------------------------------------
// Merge & filtering
// ---------------------------------------------------------------------------

// dedupeKey is the merge identity of a record.  Full citations collapse
// on normalized text; short-form references stay distinct per position
// because each resolves against a different antecedent.
func dedupeKey(rec *citation.Record) string {
	key := citation.NormalizeCitation(rec.Citation)
	if IsShortFormReference(rec.Citation) {
		key = fmt.Sprintf("%s#%d", key, rec.Offset())
	}
	return key
}

// mergeRecords unions both strategies' candidates, deduplicating by
// normalized citation text.  On collision the tokenizer record wins on
// confidence but inherits the regex record's pattern name.
func mergeRecords(regexRecords, tokenRecords []*citation.Record) []*citation.Record {
	byKey := make(map[string]*citation.Record)
	var order []string

	for _, rec := range regexRecords {
		key := dedupeKey(rec)
		if _, ok := byKey[key]; !ok {
			byKey[key] = rec
			order = append(order, key)
		}
	}
	for _, rec := range tokenRecords {
		key := dedupeKey(rec)
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = rec
			order = append(order, key)
			continue
		}
		if rec.Confidence > existing.Confidence {
			rec.Pattern = existing.Pattern
			byKey[key] = rec
		}
	}

	merged := make([]*citation.Record, 0, len(order))
	for _, key := range order {
		merged = append(merged, byKey[key])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Offset() < merged[j].Offset()
	})
	return merged
}

func filterStatutes(records []*citation.Record) []*citation.Record {
	kept := records[:0]
	for _, rec := range records {
		if IsStatute(rec.Citation) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func contextWindow(text string, start, end, window int) string {
	lo := start - window
	if lo < 0 {
		lo = 0
	}
	hi := end + window
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// ---------------------------------------------------------------------------
// Noop implementations for optional dependencies
// ---------------------------------------------------------------------------

type noopLogger struct{}

func (n *noopLogger) Info(msg string, kv ...interface{})  {}
func (n *noopLogger) Warn(msg string, kv ...interface{})  {}
func (n *noopLogger) Error(msg string, kv ...interface{}) {}
func (n *noopLogger) Debug(msg string, kv ...interface{}) {}

type noopMetrics struct{}

func (n *noopMetrics) RecordExtraction(ctx context.Context, method string, count int)    {}
func (n *noopMetrics) RecordDuration(ctx context.Context, stage string, seconds float64) {}
