// Package config defines all configuration structures for CiteGuard.
// No I/O or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// Build-time variables stamped via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the persistent
// verification store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the shared verification
// cache.  Leave Addr empty to run with the in-process cache only.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds producer/consumer parameters for asynchronous document
// verification jobs.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	DocumentTopic   string        `mapstructure:"document_topic"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int           `mapstructure:"producer_retries"`
	CommitInterval  time.Duration `mapstructure:"commit_interval"`
}

// CourtListenerConfig holds parameters for the external case-law lookup API.
// An empty APIKey is legal: the verifier then classifies every lookup as
// unavailable rather than failing.
type CourtListenerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	RateInterval   time.Duration `mapstructure:"rate_interval"`
}

// PipelineConfig holds the tunable heuristics of the extraction pipeline.
// The similarity thresholds are empirically tuned, not derived; change them
// only against a labelled corpus.
type PipelineConfig struct {
	// ContextWindow is the number of characters captured on each side of a
	// citation for display and for grouping proximity checks.
	ContextWindow int `mapstructure:"context_window"`

	// NameSearchWindow is how far backwards from a citation the case-name
	// extractor searches.
	NameSearchWindow int `mapstructure:"name_search_window"`

	// MinNameLength / MaxNameLength bound accepted case-name candidates.
	MinNameLength int `mapstructure:"min_name_length"`
	MaxNameLength int `mapstructure:"max_name_length"`

	// NameSimilarityThreshold is the token-Jaccard cutoff above which two
	// case names are treated as the same case during grouping.
	NameSimilarityThreshold float64 `mapstructure:"name_similarity_threshold"`

	// ContextJaccardExact / ContextJaccardFuzzy are the context-overlap
	// cutoffs used when names match exactly, respectively only fuzzily.
	ContextJaccardExact float64 `mapstructure:"context_jaccard_exact"`
	ContextJaccardFuzzy float64 `mapstructure:"context_jaccard_fuzzy"`

	// HintSimilarityFloor is the minimum similarity for a text block to be
	// accepted as a hinted case name.
	HintSimilarityFloor float64 `mapstructure:"hint_similarity_floor"`

	// RecentNamesSize bounds the short-form ("Id.") back-reference cache.
	RecentNamesSize int `mapstructure:"recent_names_size"`

	// ParallelCacheSize bounds the per-document parallel-citation cache.
	ParallelCacheSize int `mapstructure:"parallel_cache_size"`

	// VerifyConcurrency is the size of the verification worker pool.
	VerifyConcurrency int `mapstructure:"verify_concurrency"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
	HealthPort     int           `mapstructure:"health_port"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// Config is the root configuration structure for the entire service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	CourtListener CourtListenerConfig `mapstructure:"courtlistener"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Log           LogConfig           `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// Callers should treat any error as fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host != "" {
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required when database.host is set")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required when database.host is set")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
		}
	}

	if c.Redis.Addr != "" && c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required when brokers are configured")
	}

	if c.CourtListener.BaseURL == "" {
		return fmt.Errorf("config: courtlistener.base_url is required")
	}
	if c.CourtListener.MaxRetries < 0 {
		return fmt.Errorf("config: courtlistener.max_retries must be >= 0, got %d", c.CourtListener.MaxRetries)
	}

	if err := c.Pipeline.validate(); err != nil {
		return err
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid", c.Log.Level)
	}

	return nil
}

func (p *PipelineConfig) validate() error {
	if p.ContextWindow < 1 {
		return fmt.Errorf("config: pipeline.context_window must be >= 1, got %d", p.ContextWindow)
	}
	if p.NameSearchWindow < p.ContextWindow {
		return fmt.Errorf("config: pipeline.name_search_window %d must be >= context_window %d",
			p.NameSearchWindow, p.ContextWindow)
	}
	if p.MinNameLength < 1 || p.MaxNameLength <= p.MinNameLength {
		return fmt.Errorf("config: pipeline name length bounds [%d, %d] are invalid",
			p.MinNameLength, p.MaxNameLength)
	}
	for name, v := range map[string]float64{
		"name_similarity_threshold": p.NameSimilarityThreshold,
		"context_jaccard_exact":     p.ContextJaccardExact,
		"context_jaccard_fuzzy":     p.ContextJaccardFuzzy,
		"hint_similarity_floor":     p.HintSimilarityFloor,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: pipeline.%s %.3f is out of range [0, 1]", name, v)
		}
	}
	if p.ContextJaccardFuzzy < p.ContextJaccardExact {
		return fmt.Errorf("config: pipeline.context_jaccard_fuzzy %.2f must be >= context_jaccard_exact %.2f (fuzzy name matches need stricter context agreement)",
			p.ContextJaccardFuzzy, p.ContextJaccardExact)
	}
	if p.VerifyConcurrency < 1 {
		return fmt.Errorf("config: pipeline.verify_concurrency must be >= 1, got %d", p.VerifyConcurrency)
	}
	return nil
}
