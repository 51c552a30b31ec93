// Package events publishes domain events onto Kafka for downstream
// consumers. Postgres stays the source of truth; the stream is a mirror, so
// callers treat publish failures as log-and-continue.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const sourceName = "twin-server"

type Producer struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewProducer builds a synchronous producer. Writes are acked by all replicas
// and flushed immediately; assessment volume is low enough that batching
// would only add latency.
func NewProducer(brokers []string, topic string, logger zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer, logger: logger}
}

// Publish sends one JSON-encoded event keyed by key. The event type and
// producing service travel as message headers.
func (p *Producer) Publish(ctx context.Context, eventType, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
			{Key: "source", Value: []byte(sourceName)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	p.logger.Debug().Str("event_type", eventType).Str("key", key).Msg("event published")
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
