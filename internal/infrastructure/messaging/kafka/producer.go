package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/CiteGuard/internal/config"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "kafka: producer closed")

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes envelopes.  Messages are keyed by document ID so one
// document's events stay ordered within a partition.
type Producer struct {
	writer WriterInterface
	logger logging.Logger
	closed atomic.Bool

	sent   atomic.Int64
	failed atomic.Int64
}

// NewProducer builds a producer from service configuration.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.NewInvalidInputError("kafka: at least one broker is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  retries + 1,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	return &Producer{writer: writer, logger: log}, nil
}

// NewProducerWithWriter injects a writer, for tests.
func NewProducerWithWriter(writer WriterInterface, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Producer{writer: writer, logger: log}
}

// Publish sends one envelope to a topic.
func (p *Producer) Publish(ctx context.Context, topic, key string, env *EventEnvelope) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if env == nil {
		return errors.NewInvalidInputError("kafka: nil envelope")
	}
	data, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "kafka: marshal envelope")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		p.logger.Error("kafka publish failed",
			logging.String("topic", topic),
			logging.String("event_type", env.EventType),
			logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeExternalService, "kafka: publish")
	}
	p.sent.Add(1)
	p.logger.Debug("kafka message published",
		logging.String("topic", topic),
		logging.String("event_id", env.EventID))
	return nil
}

// SubmitDocument enqueues a document analysis job.
func (p *Producer) SubmitDocument(ctx context.Context, topic string, payload DocumentSubmittedPayload) (string, error) {
	if payload.DocumentID == "" {
		return "", errors.NewInvalidInputError("kafka: document ID is required")
	}
	if payload.Text == "" {
		return "", errors.New(errors.ErrCodeEmptyDocument, "kafka: document text is empty")
	}
	if payload.SubmittedAt.IsZero() {
		payload.SubmittedAt = time.Now().UTC()
	}
	env, err := NewEnvelope(EventDocumentSubmitted, "citeguard-apiserver", payload)
	if err != nil {
		return "", err
	}
	if err := p.Publish(ctx, topic, payload.DocumentID, env); err != nil {
		return "", err
	}
	return env.EventID, nil
}

// Stats reports sent/failed counters.
func (p *Producer) Stats() (sent, failed int64) {
	return p.sent.Load(), p.failed.Load()
}

// Close flushes and shuts the writer down.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
