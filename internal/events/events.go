package events

import (
	"context"
	"sync"
	"time"

	"clinicbook/pkg/kafka"
	"clinicbook/pkg/logger"
)

const (
	TypeAppointmentBooked    = "appointment.booked"
	TypeAppointmentConflict  = "appointment.conflict"
	TypeAvailabilityDeclared = "availability.declared"

	schemaVersion = "1"
	source        = "clinic-client"
)

// Event is a workflow outcome worth recording outside the client.
// CorrelationID ties together events from the same submission attempt.
type Event struct {
	Type          string         `json:"type"`
	Key           string         `json:"key"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Data          map[string]any `json:"data"`
}

func New(eventType, key string, data map[string]any) Event {
	return Event{
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

func (e Event) WithCorrelationID(id string) Event {
	e.CorrelationID = id
	return e
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// KafkaPublisher writes events to the configured topic, keyed by Event.Key.
type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) *KafkaPublisher {
	producer.Use(kafka.LoggingMiddleware(log, producer.Topic()))
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	builder := kafka.NewMessage().
		WithKey(event.Key).
		WithEventType(event.Type).
		WithSource(source).
		WithSchemaVersion(schemaVersion).
		WithValue(event)
	if event.CorrelationID != "" {
		builder.WithCorrelationID(event.CorrelationID)
	}
	msg, err := builder.Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}
