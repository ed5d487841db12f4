// Package analysis orchestrates the citation pipeline: extraction,
// parallel-citation grouping, external verification, statistics, and
// formatting for the stable external schema.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/CiteGuard/internal/config"
	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/internal/intelligence/cite_extractor"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

// Service defines the application-level citation analysis operations.
type Service interface {
	// AnalyzeText runs the full pipeline over one document.
	AnalyzeText(ctx context.Context, input *AnalyzeInput) (*DocumentResult, error)
	// VerifyCitation resolves a single citation string on demand.
	VerifyCitation(ctx context.Context, cite string, nameHint string) (*citation.LookupResult, error)
}

// AnalyzeInput is one document-analysis request.
type AnalyzeInput struct {
	Text   string
	Verify bool
}

// Metadata describes the processing run.
type Metadata struct {
	ProcessingTimeMs int64 `json:"processing_time_ms"`
	TextLength       int   `json:"text_length"`
}

// Summary is the headline subset of the statistics.
type Summary struct {
	TotalCitations      int `json:"total_citations"`
	ParallelCitations   int `json:"parallel_citations"`
	VerifiedCitations   int `json:"verified_citations"`
	UnverifiedCitations int `json:"unverified_citations"`
	UniqueCases         int `json:"unique_cases"`
}

// DocumentResult is the full document-level output.  Errors aggregates
// the per-citation error messages; it is empty when every record was
// processed cleanly.
type DocumentResult struct {
	Results    []*FormattedCitation `json:"results"`
	Statistics *Statistics          `json:"statistics"`
	Summary    *Summary             `json:"summary"`
	Errors     []string             `json:"errors"`
	Metadata   Metadata             `json:"metadata"`
}

type serviceImpl struct {
	extractor   cite_extractor.CitationExtractor
	verifier    *Verifier
	grouperOpts GrouperOptions
	metrics     PipelineMetrics
	logger      logging.Logger
}

// NewService creates the analysis application service.  verifier may be
// nil, in which case AnalyzeText leaves every record unverified with the
// unavailable source, and VerifyCitation reports unavailability.  metrics
// may be nil.
func NewService(extractor cite_extractor.CitationExtractor, verifier *Verifier, pipeline config.PipelineConfig, metrics PipelineMetrics, logger logging.Logger) (Service, error) {
	if extractor == nil {
		return nil, errors.NewInvalidInputError("citation extractor is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		extractor: extractor,
		verifier:  verifier,
		grouperOpts: GrouperOptions{
			NameSimilarityThreshold: pipeline.NameSimilarityThreshold,
			ContextJaccardExact:     pipeline.ContextJaccardExact,
			ContextJaccardFuzzy:     pipeline.ContextJaccardFuzzy,
			MaxSeparatorDistance:    DefaultGrouperOptions().MaxSeparatorDistance,
		},
		metrics: metrics,
		logger:  logger,
	}, nil
}

func (s *serviceImpl) AnalyzeText(ctx context.Context, input *AnalyzeInput) (*DocumentResult, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("analyze input is required")
	}
	// An empty document is a request mistake, distinct from a real
	// document that happens to cite nothing.
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidInputError("document text is required")
	}

	start := time.Now()

	extraction, err := s.extractor.Extract(ctx, input.Text)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordDocument("error", 0)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "citation extraction failed")
	}

	records := GroupParallel(extraction.CleanedText, extraction.Records, s.grouperOpts)

	if input.Verify && s.verifier != nil {
		s.verifier.VerifyAll(ctx, records)
	} else {
		for _, rec := range records {
			if rec.Source == "" {
				rec.Source = "unavailable"
			}
		}
	}

	citationErrors := make([]string, 0)
	for _, rec := range records {
		if rec.Error != "" {
			citationErrors = append(citationErrors, fmt.Sprintf("%s: %s", rec.Citation, rec.Error))
		}
	}

	stats := Summarize(records)
	result := &DocumentResult{
		Results:    FormatRecords(records),
		Statistics: stats,
		Errors:     citationErrors,
		Summary: &Summary{
			TotalCitations:      stats.TotalCitations,
			ParallelCitations:   stats.ParallelCitations,
			VerifiedCitations:   stats.VerifiedCitations,
			UnverifiedCitations: stats.UnverifiedCitations,
			UniqueCases:         stats.UniqueCases,
		},
		Metadata: Metadata{
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			TextLength:       extraction.TextLength,
		},
	}

	if s.metrics != nil {
		s.metrics.RecordDocument("ok", extraction.TextLength)
		s.metrics.RecordParallelGroups(stats.ParallelCitations)
	}

	s.logger.Info("document analyzed",
		logging.Int("citations", stats.TotalCitations),
		logging.Int("verified", stats.VerifiedCitations),
		logging.Int("unique_cases", stats.UniqueCases),
		logging.Int64("duration_ms", result.Metadata.ProcessingTimeMs))

	return result, nil
}

func (s *serviceImpl) VerifyCitation(ctx context.Context, cite string, nameHint string) (*citation.LookupResult, error) {
	if cite == "" {
		return nil, errors.NewInvalidInputError("citation is required")
	}
	if s.verifier == nil {
		return &citation.LookupResult{Outcome: citation.OutcomeUnavailable, Source: "unavailable"}, nil
	}

	rec := &citation.Record{Citation: cite, ExtractedCaseName: nameHint, Method: citation.MethodAPI}
	return s.verifier.lookup(ctx, rec), nil
}
