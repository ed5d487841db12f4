// Package bootstrap wires configuration into runnable pipeline components.
// The HTTP server, the worker, and the CLI all assemble the same stack;
// keeping the construction here keeps the three entry points in sync.
package bootstrap

import (
	"github.com/turtacn/CiteGuard/internal/application/analysis"
	"github.com/turtacn/CiteGuard/internal/config"
	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/internal/infrastructure/verification/courtlistener"
	"github.com/turtacn/CiteGuard/internal/intelligence/cite_extractor"
)

// NewLogger builds the process logger from service configuration.
func NewLogger(cfg config.LogConfig) (logging.Logger, error) {
	logCfg := logging.LogConfig{
		Level:  cfg.Level,
		Format: cfg.Format,
	}
	if cfg.Output != "" {
		logCfg.OutputPaths = []string{cfg.Output}
	}
	return logging.NewLogger(logCfg)
}

// ExtractorConfig maps pipeline settings onto the extractor's knobs,
// falling back to extractor defaults for anything unset.
func ExtractorConfig(p config.PipelineConfig) cite_extractor.ExtractorConfig {
	ec := cite_extractor.DefaultExtractorConfig()
	if p.ContextWindow > 0 {
		ec.ContextWindow = p.ContextWindow
	}
	if p.NameSearchWindow > 0 {
		ec.NameSearchWindow = p.NameSearchWindow
	}
	if p.MinNameLength > 0 {
		ec.MinNameLength = p.MinNameLength
	}
	if p.MaxNameLength > 0 {
		ec.MaxNameLength = p.MaxNameLength
	}
	if p.HintSimilarityFloor > 0 {
		ec.HintSimilarityFloor = p.HintSimilarityFloor
	}
	if p.RecentNamesSize > 0 {
		ec.RecentNamesSize = p.RecentNamesSize
	}
	return ec
}

// NewExtractor builds the citation extractor with the dictionary tokenizer.
// metrics may be nil.
func NewExtractor(cfg *config.Config, metrics cite_extractor.Metrics, log logging.Logger) (cite_extractor.CitationExtractor, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return cite_extractor.NewCitationExtractor(
		cite_extractor.NewDictionaryTokenizer(),
		ExtractorConfig(cfg.Pipeline),
		metrics,
		kvLogger{log},
	)
}

// NewVerifier builds the batch verifier backed by the CourtListener client.
// store, metrics, and cache may be nil; a nil cache falls back to the
// process-local TTL cache.
func NewVerifier(cfg *config.Config, cache citation.VerificationCache, store citation.VerificationStore, metrics analysis.PipelineMetrics, log logging.Logger) (*analysis.Verifier, error) {
	client, err := courtlistener.NewClient(cfg.CourtListener, log)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		cache = citation.NewMemoryVerificationCache(0, 0)
	}
	return analysis.NewVerifier(client, cache, store, analysis.VerifierOptions{
		Concurrency:         cfg.Pipeline.VerifyConcurrency,
		HintSimilarityFloor: cfg.Pipeline.HintSimilarityFloor,
		ParallelCacheSize:   cfg.Pipeline.ParallelCacheSize,
		Metrics:             metrics,
	}, log), nil
}

// kvLogger adapts the structured Logger to the extractor's
// keys-and-values interface.
type kvLogger struct {
	l logging.Logger
}

func (k kvLogger) fields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, logging.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (k kvLogger) Info(msg string, keysAndValues ...interface{}) {
	k.l.Info(msg, k.fields(keysAndValues)...)
}

func (k kvLogger) Warn(msg string, keysAndValues ...interface{}) {
	k.l.Warn(msg, k.fields(keysAndValues)...)
}

func (k kvLogger) Error(msg string, keysAndValues ...interface{}) {
	k.l.Error(msg, k.fields(keysAndValues)...)
}

func (k kvLogger) Debug(msg string, keysAndValues ...interface{}) {
	k.l.Debug(msg, k.fields(keysAndValues)...)
}
