package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// kafkaPublisher implements Publisher on a Kafka topic.
type kafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to the given brokers
// and topic.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &kafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "event-publisher").Str("topic", topic).Logger(),
	}
}

// Publish writes one enveloped event keyed by aggregate ID, so all
// events for an order or return land on the same partition in order.
func (p *kafkaPublisher) Publish(ctx context.Context, key string, eventType string, payload any) error {
	data, err := json.Marshal(Envelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("key", key).
		Msg("event published")

	return nil
}

// Close flushes and closes the underlying writer.
func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards all events. It stands in when event publishing
// is disabled by configuration.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, key string, eventType string, payload any) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
