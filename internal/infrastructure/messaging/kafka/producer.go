// Package kafka publishes analysis lifecycle events.  The producer is
// fire-and-forget from the orchestrator's point of view: emission failures
// degrade to a warning, never a failed analysis.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/channeliq/channeliq/internal/application/analysis"
	"github.com/channeliq/channeliq/internal/config"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/pkg/errors"
)

// TopicAnalysisCompleted carries one event per finished analysis request.
const TopicAnalysisCompleted = "analysis.completed"

const eventSource = "channeliq-engine"

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "kafka producer is closed")

// EventEnvelope standardizes event messages on the wire.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes analysis events.  Implements analysis.EventPublisher.
type Producer struct {
	writer WriterInterface
	prefix string
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
	failed atomic.Int64
}

var _ analysis.EventPublisher = (*Producer)(nil)

// NewProducer builds a producer from the kafka configuration.  Returns nil
// when the producer is disabled, which the orchestrator treats as no-op
// emission.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required when kafka is enabled")
	}

	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  retries + 1,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer: writer,
		prefix: cfg.TopicPrefix,
		logger: log.Named("kafka"),
	}, nil
}

// NewProducerWithWriter adopts an existing writer; used by tests.
func NewProducerWithWriter(writer WriterInterface, prefix string, log logging.Logger) *Producer {
	return &Producer{writer: writer, prefix: prefix, logger: log}
}

// PublishAnalysisCompleted emits one completion event.  The message is keyed
// by the pseudonymized tenant token so one tenant's events stay ordered.
func (p *Producer) PublishAnalysisCompleted(ctx context.Context, event analysis.CompletionEvent) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode completion event")
	}
	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     TopicAnalysisCompleted,
		Source:        eventSource,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "1.0",
		Payload:       payload,
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event envelope")
	}

	msg := kafka.Message{
		Topic: p.topic(TopicAnalysisCompleted),
		Key:   []byte(event.TenantToken),
		Value: value,
		Time:  envelope.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to publish completion event")
	}

	p.sent.Add(1)
	p.logger.Debug("analysis event published",
		logging.String("topic", msg.Topic),
		logging.String("event_id", envelope.EventID),
	)
	return nil
}

// Close flushes and closes the writer.  Safe to call more than once.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}

func (p *Producer) topic(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}
