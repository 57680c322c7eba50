package event

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// MessageWriter is the part of *kafka.Writer the forwarder needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder is a catch-all event handler that copies every domain
// event onto a Kafka topic, keyed by aggregate ID so events of one order
// stay in one partition.
type KafkaForwarder struct {
	writer MessageWriter
	topic  string
	tracer trace.Tracer
	logger *zap.Logger
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)

// NewKafkaForwarder builds a forwarder writing to cfg.Topic on cfg.Brokers
func NewKafkaForwarder(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaForwarder, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           10 * time.Second,
		ReadTimeout:            10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaForwarderWithWriter(w, cfg.Topic, logger), nil
}

// NewKafkaForwarderWithWriter wraps an existing writer
func NewKafkaForwarderWithWriter(w MessageWriter, topic string, logger *zap.Logger) *KafkaForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaForwarder{
		writer: w,
		topic:  topic,
		tracer: otel.Tracer("storefront/event/kafka"),
		logger: logger,
	}
}

// EventTypes returns nil so the bus delivers every event
func (f *KafkaForwarder) EventTypes() []string {
	return nil
}

// Handle publishes evt. The W3C trace context of ctx travels in the
// message headers.
func (f *KafkaForwarder) Handle(ctx context.Context, evt shared.DomainEvent) error {
	ctx, span := f.tracer.Start(ctx, "publish "+f.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", f.topic),
			attribute.String("messaging.kafka.message.key", evt.AggregateID().String()),
			attribute.String("event.type", evt.EventType()),
		),
	)
	defer span.End()

	value, err := Encode(evt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(evt.EventType())},
		{Key: "event_id", Value: []byte(evt.EventID().String())},
	}
	otel.GetTextMapPropagator().Inject(ctx, &headerCarrier{headers: &headers})

	msg := kafka.Message{
		Key:     []byte(evt.AggregateID().String()),
		Value:   value,
		Time:    evt.OccurredAt(),
		Headers: headers,
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("kafka: publish %s: %w", evt.EventType(), err)
	}

	f.logger.Debug("Event forwarded to kafka",
		zap.String("topic", f.topic),
		zap.String("event_type", evt.EventType()),
		zap.String("aggregate_id", evt.AggregateID().String()))
	return nil
}

// Close flushes and closes the writer
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

// headerCarrier adapts Kafka headers to propagation.TextMapCarrier
type headerCarrier struct {
	headers *[]kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, len(*c.headers))
	for i, h := range *c.headers {
		keys[i] = h.Key
	}
	return keys
}
