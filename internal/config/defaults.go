package config

import "time"

const (
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultShutdownTimeout = 30 * time.Second

	DefaultDBPort     = 5432
	DefaultDBMaxConns = 10

	DefaultRedisTTL       = 24 * time.Hour
	DefaultRedisKeyPrefix = "citeguard:"

	DefaultKafkaDocumentTopic = "citation.document.verify"
	DefaultKafkaGroupID       = "citeguard-workers"

	DefaultCourtListenerBaseURL = "https://www.courtlistener.com/api/rest/v4"
	DefaultRequestTimeout       = 10 * time.Second
	DefaultMaxRetries           = 3
	DefaultRetryBackoff         = 500 * time.Millisecond
	DefaultRateInterval         = 100 * time.Millisecond

	DefaultContextWindow     = 200
	DefaultNameSearchWindow  = 500
	DefaultMinNameLength     = 5
	DefaultMaxNameLength     = 200
	DefaultNameSimilarity    = 0.95
	DefaultContextJacExact   = 0.70
	DefaultContextJacFuzzy   = 0.80
	DefaultHintFloor         = 0.30
	DefaultRecentNamesSize   = 10
	DefaultParallelCacheSize = 256
	DefaultVerifyConcurrency = 8

	DefaultWorkerConcurrency = 4
	DefaultWorkerMaxRetries  = 3
	DefaultHandlerTimeout    = 5 * time.Minute
	DefaultHealthPort        = 8081

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins.  Call after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 10 << 20 // 10 MiB of plain text is a very large brief
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Database.Host != "" {
		if cfg.Database.Port == 0 {
			cfg.Database.Port = DefaultDBPort
		}
		if cfg.Database.MaxConns == 0 {
			cfg.Database.MaxConns = DefaultDBMaxConns
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.ConnMaxLifetime == 0 {
			cfg.Database.ConnMaxLifetime = time.Hour
		}
		if cfg.Database.MigrationPath == "" {
			cfg.Database.MigrationPath = "file://internal/infrastructure/database/postgres/migrations"
		}
	}

	if cfg.Redis.Addr != "" {
		if cfg.Redis.PoolSize == 0 {
			cfg.Redis.PoolSize = 10
		}
		if cfg.Redis.DialTimeout == 0 {
			cfg.Redis.DialTimeout = 5 * time.Second
		}
		if cfg.Redis.ReadTimeout == 0 {
			cfg.Redis.ReadTimeout = 3 * time.Second
		}
		if cfg.Redis.WriteTimeout == 0 {
			cfg.Redis.WriteTimeout = 3 * time.Second
		}
		if cfg.Redis.DefaultTTL == 0 {
			cfg.Redis.DefaultTTL = DefaultRedisTTL
		}
		if cfg.Redis.KeyPrefix == "" {
			cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		if cfg.Kafka.GroupID == "" {
			cfg.Kafka.GroupID = DefaultKafkaGroupID
		}
		if cfg.Kafka.DocumentTopic == "" {
			cfg.Kafka.DocumentTopic = DefaultKafkaDocumentTopic
		}
		if cfg.Kafka.DeadLetterTopic == "" {
			cfg.Kafka.DeadLetterTopic = cfg.Kafka.DocumentTopic + ".dlq"
		}
		if cfg.Kafka.AutoOffsetReset == "" {
			cfg.Kafka.AutoOffsetReset = "earliest"
		}
		if cfg.Kafka.CommitInterval == 0 {
			cfg.Kafka.CommitInterval = time.Second
		}
	}

	if cfg.CourtListener.BaseURL == "" {
		cfg.CourtListener.BaseURL = DefaultCourtListenerBaseURL
	}
	if cfg.CourtListener.RequestTimeout == 0 {
		cfg.CourtListener.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.CourtListener.MaxRetries == 0 {
		cfg.CourtListener.MaxRetries = DefaultMaxRetries
	}
	if cfg.CourtListener.RetryBackoff == 0 {
		cfg.CourtListener.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.CourtListener.RateInterval == 0 {
		cfg.CourtListener.RateInterval = DefaultRateInterval
	}

	applyPipelineDefaults(&cfg.Pipeline)

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = DefaultWorkerMaxRetries
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = time.Second
	}
	if cfg.Worker.HandlerTimeout == 0 {
		cfg.Worker.HandlerTimeout = DefaultHandlerTimeout
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultHealthPort
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

func applyPipelineDefaults(p *PipelineConfig) {
	if p.ContextWindow == 0 {
		p.ContextWindow = DefaultContextWindow
	}
	if p.NameSearchWindow == 0 {
		p.NameSearchWindow = DefaultNameSearchWindow
	}
	if p.MinNameLength == 0 {
		p.MinNameLength = DefaultMinNameLength
	}
	if p.MaxNameLength == 0 {
		p.MaxNameLength = DefaultMaxNameLength
	}
	if p.NameSimilarityThreshold == 0 {
		p.NameSimilarityThreshold = DefaultNameSimilarity
	}
	if p.ContextJaccardExact == 0 {
		p.ContextJaccardExact = DefaultContextJacExact
	}
	if p.ContextJaccardFuzzy == 0 {
		p.ContextJaccardFuzzy = DefaultContextJacFuzzy
	}
	if p.HintSimilarityFloor == 0 {
		p.HintSimilarityFloor = DefaultHintFloor
	}
	if p.RecentNamesSize == 0 {
		p.RecentNamesSize = DefaultRecentNamesSize
	}
	if p.ParallelCacheSize == 0 {
		p.ParallelCacheSize = DefaultParallelCacheSize
	}
	if p.VerifyConcurrency == 0 {
		p.VerifyConcurrency = DefaultVerifyConcurrency
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults.
// Entry points fall back to it when no config file is present.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
