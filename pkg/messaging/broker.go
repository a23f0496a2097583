package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// Message is the envelope every published event travels in.
type Message struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// NewMessage stamps payload with a fresh id and the given time.
func NewMessage(eventType string, payload interface{}, at time.Time) Message {
	return Message{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: at.UTC(),
		Payload:    payload,
	}
}

// NopBroker discards every message. Used when no broker is configured.
type NopBroker struct{}

func (NopBroker) Publish(context.Context, string, interface{}) error { return nil }

func (NopBroker) Close() error { return nil }
