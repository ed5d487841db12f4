// Background worker entry point for CiteGuard.  Consumes submitted
// documents from Kafka, runs the analysis pipeline, and publishes the
// per-document results.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"github.com/turtacn/CiteGuard/pkg/errors"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		fmt.Fprintln(os.Stderr, "fatal: worker requires kafka brokers")
		os.Exit(1)
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting CiteGuard worker",
		logging.String("version", config.Version),
		logging.String("group_id", cfg.Kafka.GroupID))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "citeguard",
		Subsystem:            "worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		logger.Fatal("metrics collector", logging.Err(err))
	}
	metrics := prometheus.NewAppMetrics(collector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store citation.VerificationStore
	if cfg.Database.Host != "" {
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("postgres connection", logging.Err(err))
		}
		defer conn.Close()
		store = repositories.NewVerificationRepository(conn.Pool(), logger)
	}

	var cache citation.VerificationCache
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("redis connection", logging.Err(err))
		}
		defer client.Close()
		cache = redis.NewVerificationCache(client, logger)
	}

	pipelineMetrics := prometheus.NewPipelineAdapter(metrics)
	verifier, err := bootstrap.NewVerifier(cfg, cache, store, pipelineMetrics, logger)
	if err != nil {
		logger.Fatal("verifier", logging.Err(err))
	}

	extractor, err := bootstrap.NewExtractor(cfg, prometheus.NewExtractionAdapter(metrics), logger)
	if err != nil {
		logger.Fatal("extractor", logging.Err(err))
	}

	service, err := analysis.NewService(extractor, verifier, cfg.Pipeline, pipelineMetrics, logger)
	if err != nil {
		logger.Fatal("analysis service", logging.Err(err))
	}

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Fatal("kafka producer", logging.Err(err))
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.ConsumerOptions{
		MaxRetries:      cfg.Worker.MaxRetries,
		RetryBackoff:    cfg.Worker.RetryBackoff,
		HandlerTimeout:  cfg.Worker.HandlerTimeout,
		DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
	}, logger)
	if err != nil {
		logger.Fatal("kafka consumer", logging.Err(err))
	}

	handler := &documentHandler{
		service:  service,
		producer: producer,
		metrics:  metrics,
		logger:   logger,
	}
	consumer.Register(kafka.EventDocumentSubmitted, handler.Handle)

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("consumer start", logging.Err(err))
	}

	healthSrv := startHealthServer(cfg.Worker.HealthPort, collector, logger)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := consumer.Stop(); err != nil {
		logger.Error("consumer stop", logging.Err(err))
	}
	if healthSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthSrv.Shutdown(shutdownCtx)
	}
}

// documentHandler processes one submitted document per event.
type documentHandler struct {
	service  analysis.Service
	producer *kafka.Producer
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
}

func (h *documentHandler) Handle(ctx context.Context, env *kafka.EventEnvelope) error {
	var payload kafka.DocumentSubmittedPayload
	if err := env.DecodePayload(&payload); err != nil {
		return err
	}
	if payload.DocumentID == "" {
		return errors.New(errors.ErrCodeJobPayloadInvalid, "document_id is required")
	}

	start := time.Now()
	result, err := h.service.AnalyzeText(ctx, &analysis.AnalyzeInput{
		Text:   payload.Text,
		Verify: payload.Verify,
	})
	if err != nil {
		h.metrics.JobsTotal.WithLabelValues("failed").Inc()
		return err
	}

	out := kafka.DocumentAnalyzedPayload{
		DocumentID:          payload.DocumentID,
		TotalCitations:      result.Summary.TotalCitations,
		VerifiedCitations:   result.Summary.VerifiedCitations,
		UnverifiedCitations: result.Summary.UnverifiedCitations,
		ParallelCitations:   result.Summary.ParallelCitations,
		ProcessingTimeMs:    time.Since(start).Milliseconds(),
		AnalyzedAt:          time.Now().UTC(),
	}
	resultEnv, err := kafka.NewEnvelope(kafka.EventDocumentAnalyzed, "citeguard-worker", out)
	if err != nil {
		return err
	}
	if err := h.producer.Publish(ctx, kafka.TopicDocumentResult, payload.DocumentID, resultEnv); err != nil {
		h.metrics.JobsTotal.WithLabelValues("failed").Inc()
		return err
	}

	h.metrics.JobsTotal.WithLabelValues("completed").Inc()
	h.metrics.JobDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	h.logger.Info("document analyzed",
		logging.String("document_id", payload.DocumentID),
		logging.Int("citations", out.TotalCitations),
		logging.Int64("duration_ms", out.ProcessingTimeMs))
	return nil
}

// startHealthServer exposes liveness and metrics for the worker.  Port 0
// disables it.
func startHealthServer(port int, collector prometheus.MetricsCollector, logger logging.Logger) *http.Server {
	if port <= 0 {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, config.Version)
	})
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker health server listening", logging.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server", logging.Err(err))
		}
	}()
	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
