// API server entry point for CiteGuard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/CiteGuard/internal/application/analysis"
	"github.com/turtacn/CiteGuard/internal/bootstrap"
	"github.com/turtacn/CiteGuard/internal/config"
	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/internal/infrastructure/database/postgres"
	"github.com/turtacn/CiteGuard/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/CiteGuard/internal/infrastructure/database/redis"
	"github.com/turtacn/CiteGuard/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CiteGuard/internal/infrastructure/verification/courtlistener"
	httpserver "github.com/turtacn/CiteGuard/internal/interfaces/http"
	"github.com/turtacn/CiteGuard/internal/interfaces/http/handlers"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting CiteGuard API server",
		logging.String("version", config.Version),
		logging.Int("port", cfg.Server.Port))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "citeguard",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		logger.Fatal("metrics collector", logging.Err(err))
	}
	metrics := prometheus.NewAppMetrics(collector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hot-reload the log level on config file changes.  Only the safe
	// subset is applied at runtime; everything else needs a restart.
	if *configPath != "" {
		stopWatch, err := config.Watch(*configPath, func(updated *config.Config) {
			logging.SetLevel(logger, updated.Log.Level)
			logger.Info("configuration reloaded", logging.String("log_level", updated.Log.Level))
		})
		if err != nil {
			logger.Warn("config watch disabled", logging.Err(err))
		} else {
			defer stopWatch()
		}
	}

	health := handlers.NewHealthHandler()

	// Optional backing services.  Each degrades independently: without
	// Postgres nothing is persisted, without Redis nothing is cached, and
	// without Kafka document submission returns 503.
	var store citation.VerificationStore
	if cfg.Database.Host != "" {
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("postgres connection", logging.Err(err))
		}
		defer conn.Close()
		if cfg.Database.MigrationPath != "" {
			if err := conn.Migrate(); err != nil {
				logger.Fatal("migrations", logging.Err(err))
			}
		}
		store = repositories.NewVerificationRepository(conn.Pool(), logger)
		health.RegisterCheck("postgres", conn.HealthCheck)
	}

	var cache citation.VerificationCache
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("redis connection", logging.Err(err))
		}
		defer client.Close()
		var cacheOpts []redis.CacheOption
		if cfg.Redis.KeyPrefix != "" {
			cacheOpts = append(cacheOpts, redis.WithPrefix(cfg.Redis.KeyPrefix))
		}
		if cfg.Redis.DefaultTTL > 0 {
			cacheOpts = append(cacheOpts, redis.WithTTL(cfg.Redis.DefaultTTL))
		}
		cache = redis.NewVerificationCache(client, logger, cacheOpts...)
		health.RegisterCheck("redis", client.Ping)
	}

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			logger.Fatal("kafka producer", logging.Err(err))
		}
		defer producer.Close()
	}

	clClient, err := courtlistener.NewClient(cfg.CourtListener, logger)
	if err != nil {
		logger.Fatal("courtlistener client", logging.Err(err))
	}
	health.RegisterCheck("courtlistener", clClient.Health)

	if cache == nil {
		cache = citation.NewMemoryVerificationCache(0, 0)
	}
	pipelineMetrics := prometheus.NewPipelineAdapter(metrics)
	verifier := analysis.NewVerifier(clClient, cache, store, analysis.VerifierOptions{
		Concurrency:         cfg.Pipeline.VerifyConcurrency,
		HintSimilarityFloor: cfg.Pipeline.HintSimilarityFloor,
		ParallelCacheSize:   cfg.Pipeline.ParallelCacheSize,
		Metrics:             pipelineMetrics,
	}, logger)

	extractor, err := bootstrap.NewExtractor(cfg, prometheus.NewExtractionAdapter(metrics), logger)
	if err != nil {
		logger.Fatal("extractor", logging.Err(err))
	}

	service, err := analysis.NewService(extractor, verifier, cfg.Pipeline, pipelineMetrics, logger)
	if err != nil {
		logger.Fatal("analysis service", logging.Err(err))
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		CitationHandler: handlers.NewCitationHandler(service, store, producer, cfg.Kafka.DocumentTopic, logger),
		HealthHandler:   health,
		Logger:          logger,
		Metrics:         metrics,
		MetricsHandler:  collector.Handler(),
		Mode:            cfg.Server.Mode,
	})

	server := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", logging.Err(err))
		}
	}

	if err := server.Stop(context.Background()); err != nil {
		logger.Error("shutdown", logging.Err(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
