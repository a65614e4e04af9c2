package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"quotagate/internal/platform/kafka/producer"
	"quotagate/pkg/platform/audit"
)

// MessageProducer is the subset of the Kafka producer used by KafkaSink.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaSink publishes audit events as JSON records keyed by user id.
type KafkaSink struct {
	producer MessageProducer
	topic    string
}

func NewKafkaSink(p MessageProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (s *KafkaSink) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	key := event.UserID
	if key == "" {
		key = event.Subject
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(key),
		Value: value,
		Headers: map[string]string{
			"event_type": event.Action,
			"event_id":   event.ID,
		},
	})
}

// MemorySink keeps events in memory. Used when no broker is configured and in tests.
type MemorySink struct {
	mu     sync.Mutex
	events []audit.Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}
