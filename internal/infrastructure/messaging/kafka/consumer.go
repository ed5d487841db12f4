package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/CiteGuard/internal/config"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "kafka: consumer already running")
	ErrConsumerClosed = errors.New(errors.ErrCodeInternal, "kafka: consumer closed")
)

// Handler processes one decoded envelope.  Returning an error triggers the
// retry policy; exhausted messages go to the dead-letter topic.
type Handler func(ctx context.Context, env *EventEnvelope) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerOptions tune the retry policy.
type ConsumerOptions struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	HandlerTimeout  time.Duration
	DeadLetterTopic string
}

// ConsumerMetrics counts message dispositions.
type ConsumerMetrics struct {
	Consumed     atomic.Int64
	Processed    atomic.Int64
	Failed       atomic.Int64
	Retried      atomic.Int64
	DeadLettered atomic.Int64
}

// Consumer pulls document jobs off the verify topic and dispatches them to
// registered handlers by event type.
type Consumer struct {
	reader   ReaderInterface
	opts     ConsumerOptions
	logger   logging.Logger
	producer *Producer // dead-letter publishing; may be nil

	handlers map[string]Handler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	metrics ConsumerMetrics
}

// NewConsumer builds a consumer group reader from service configuration.
func NewConsumer(cfg config.KafkaConfig, opts ConsumerOptions, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.NewInvalidInputError("kafka: at least one broker is required")
	}
	if cfg.GroupID == "" {
		return nil, errors.NewInvalidInputError("kafka: group ID is required")
	}
	topic := cfg.DocumentTopic
	if topic == "" {
		topic = TopicDocumentVerify
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}
	commitInterval := cfg.CommitInterval
	if commitInterval == 0 {
		commitInterval = time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          topic,
		StartOffset:    startOffset,
		CommitInterval: commitInterval,
		MinBytes:       1,
		MaxBytes:       10 * 1024 * 1024,
	})

	var dlq *Producer
	if opts.DeadLetterTopic != "" {
		p, err := NewProducer(cfg, log)
		if err != nil {
			reader.Close()
			return nil, err
		}
		dlq = p
	}

	return newConsumer(reader, dlq, opts, log), nil
}

// NewConsumerWithReader injects reader and dead-letter producer, for tests.
func NewConsumerWithReader(reader ReaderInterface, dlq *Producer, opts ConsumerOptions, log logging.Logger) *Consumer {
	return newConsumer(reader, dlq, opts, log)
}

func newConsumer(reader ReaderInterface, dlq *Producer, opts ConsumerOptions, log logging.Logger) *Consumer {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.HandlerTimeout == 0 {
		opts.HandlerTimeout = 5 * time.Minute
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Consumer{
		reader:   reader,
		opts:     opts,
		logger:   log,
		producer: dlq,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to an event type.  Must be called before Start.
func (c *Consumer) Register(eventType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = h
}

// Start begins the fetch loop.  It returns immediately; Stop blocks until
// in-flight messages finish.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loop(runCtx)
	}()
	return nil
}

// Stop halts consumption and closes the reader.
func (c *Consumer) Stop() error {
	if !c.running.Swap(false) {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	if c.producer != nil {
		c.producer.Close()
	}
	return c.reader.Close()
}

// Metrics exposes the disposition counters.
func (c *Consumer) Metrics() *ConsumerMetrics {
	return &c.metrics
}

func (c *Consumer) loop(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka fetch failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.metrics.Consumed.Add(1)

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("kafka commit failed", logging.Err(err))
		}
	}
}

// process runs a message through its handler with the retry policy.  A
// message with no registered handler or an undecodable body goes straight
// to the dead-letter topic: retrying cannot fix it.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	env, err := DecodeEnvelope(msg.Value)
	if err != nil {
		c.logger.Warn("dead-lettering undecodable message",
			logging.String("topic", msg.Topic), logging.Err(err))
		c.deadLetter(ctx, msg, env)
		return
	}

	c.mu.RLock()
	handler, ok := c.handlers[env.EventType]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("no handler for event type",
			logging.String("event_type", env.EventType))
		c.deadLetter(ctx, msg, env)
		return
	}

	backoff := c.opts.RetryBackoff
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.Retried.Add(1)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		handlerCtx, cancel := context.WithTimeout(ctx, c.opts.HandlerTimeout)
		err = handler(handlerCtx, env)
		cancel()
		if err == nil {
			c.metrics.Processed.Add(1)
			return
		}
		c.logger.Warn("handler failed",
			logging.String("event_id", env.EventID),
			logging.Int("attempt", attempt+1),
			logging.Err(err))
	}

	c.metrics.Failed.Add(1)
	c.deadLetter(ctx, msg, env)
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, env *EventEnvelope) {
	if c.producer == nil || c.opts.DeadLetterTopic == "" {
		return
	}
	dead := env
	if dead == nil {
		dead = &EventEnvelope{
			EventType: "unknown",
			Timestamp: time.Now().UTC(),
			Payload:   msg.Value,
		}
	}
	if err := c.producer.Publish(ctx, c.opts.DeadLetterTopic, string(msg.Key), dead); err != nil {
		c.logger.Error("dead-letter publish failed", logging.Err(err))
		return
	}
	c.metrics.DeadLettered.Add(1)
}
