package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/telemetry"
)

// DefaultTopic receives outcome events when no topic is configured.
const DefaultTopic = "seqgate-tx-outcomes"

// KafkaConfig holds Kafka producer configuration.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter publishes events as JSON keyed by transaction hash.
type KafkaEmitter struct {
	writer messageWriter
	topic  string
}

// NewKafkaEmitter creates a producer for cfg.
func NewKafkaEmitter(cfg KafkaConfig) (*KafkaEmitter, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		cfg.Topic = DefaultTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 500 * time.Millisecond,
	}
	return &KafkaEmitter{writer: writer, topic: cfg.Topic}, nil
}

func (k *KafkaEmitter) Emit(ctx context.Context, event *domain.Event) error {
	return k.EmitBatch(ctx, []*domain.Event{event})
}

func (k *KafkaEmitter) EmitBatch(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	tracer := otel.Tracer("seqgate/kafka")
	messages := make([]kafka.Message, 0, len(events))
	spans := make([]trace.Span, 0, len(events))
	for _, event := range events {
		spanCtx, span := tracer.Start(ctx, "outcome.publish", trace.WithSpanKind(trace.SpanKindProducer))
		span.SetAttributes(
			attribute.String("network", event.Network),
			attribute.String("tx.hash", string(event.TxHash)),
			attribute.String("tx.status", string(event.Status)),
		)

		payload, err := json.Marshal(event)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			for _, s := range spans {
				s.End()
			}
			return err
		}
		headers := []kafka.Header{{Key: "event_type", Value: []byte(event.EventType)}}
		telemetry.InjectKafkaHeaders(spanCtx, &headers)
		messages = append(messages, kafka.Message{
			Topic:   k.topic,
			Key:     []byte(event.TxHash),
			Value:   payload,
			Headers: headers,
		})
		spans = append(spans, span)
	}

	err := k.writer.WriteMessages(ctx, messages...)
	for _, span := range spans {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	return err
}

func (k *KafkaEmitter) Close() error {
	return k.writer.Close()
}
