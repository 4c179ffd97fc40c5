//go:build enterprise
// +build enterprise

// Package eventbus optionally republishes axis-pipeline stream events and
// nudge messages onto Kafka for out-of-process observers: a build-tagged
// kafka-go writer publishing a JSON envelope per event, logging publish
// errors and returning them to the caller.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes arbitrary JSON-serializable envelopes to a single
// Kafka topic.
type KafkaSink struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaSink builds a sink backed by a kafka-go Writer. brokers and topic
// are required; the writer uses the LeastBytes balancer.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 10 * time.Second,
		},
		topic: topic,
	}
}

// envelope wraps a published event with a correlation key and kind tag so
// a consumer can demultiplex the topic without a schema registry.
type envelope struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
	Data any    `json:"data"`
}

// Publish writes one event. Errors are logged and returned; callers
// typically treat publish failures as non-fatal (the sink is an
// observability side channel, not the source of truth).
func (s *KafkaSink) Publish(ctx context.Context, kind, key string, data any) error {
	payload, err := json.Marshal(envelope{Kind: kind, Key: key, Data: data})
	if err != nil {
		return err
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Topic: s.topic,
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		log.Warn().Err(err).Str("kind", kind).Str("topic", s.topic).Msg("eventbus: publish failed")
		return err
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
