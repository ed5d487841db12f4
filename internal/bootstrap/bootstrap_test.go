package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CiteGuard/internal/config"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/internal/intelligence/cite_extractor"
	"github.com/turtacn/CiteGuard/internal/testutil"
)

func TestExtractorConfig_MapsPipelineSettings(t *testing.T) {
	ec := ExtractorConfig(config.PipelineConfig{
		ContextWindow:    100,
		NameSearchWindow: 400,
		MinNameLength:    8,
	})

	assert.Equal(t, 100, ec.ContextWindow)
	assert.Equal(t, 400, ec.NameSearchWindow)
	assert.Equal(t, 8, ec.MinNameLength)

	// Unset fields keep extractor defaults.
	def := cite_extractor.DefaultExtractorConfig()
	assert.Equal(t, def.MaxNameLength, ec.MaxNameLength)
	assert.Equal(t, def.RecentNamesSize, ec.RecentNamesSize)
}

func TestExtractorConfig_ZeroValueKeepsDefaults(t *testing.T) {
	assert.Equal(t, cite_extractor.DefaultExtractorConfig(), ExtractorConfig(config.PipelineConfig{}))
}

func TestNewExtractor(t *testing.T) {
	cfg := config.NewDefaultConfig()
	ex, err := NewExtractor(cfg, nil, logging.NewNopLogger())
	require.NoError(t, err)
	assert.NotNil(t, ex)
}

func TestKVLogger_PairsBecomeFields(t *testing.T) {
	mock := testutil.NewMockLogger()
	kv := kvLogger{mock}

	kv.Info("extraction complete", "citations", 4, "method", "regex")
	kv.Warn("tokenizer failed", 42, "dangling value ignored")

	assert.Equal(t, 4, mock.FieldValue("extraction complete", "citations"))
	assert.Equal(t, "regex", mock.FieldValue("extraction complete", "method"))
	assert.True(t, mock.HasMessage("warn", "tokenizer failed"))
}
