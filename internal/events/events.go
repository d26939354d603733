// Package events publishes catalog-change records to a message broker.
// Publishing is best-effort: a broker failure is logged and never fails
// the request that produced the change.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Fomalhautarc/kucun/config"
	"github.com/Fomalhautarc/kucun/internal/metrics"
	"github.com/rs/zerolog"
)

// Catalog change types.
const (
	TypeProductCreated  = "product.created"
	TypeProductUpdated  = "product.updated"
	TypeCategoryCreated = "category.created"
)

const defaultTopic = "inventory.changes"

// Event is a record of a single catalog change.
type Event struct {
	// Type is one of the Type* constants.
	Type string `json:"type"`

	// ProductID identifies the affected product, zero for category events.
	ProductID int `json:"product_id,omitempty"`

	// CategoryID identifies the affected category, zero for product events.
	CategoryID int `json:"category_id,omitempty"`

	// Name is the product or category name after the change.
	Name string `json:"name,omitempty"`

	// Inventory and Price carry the post-change values when the change
	// touched them.
	Inventory *int     `json:"inventory,omitempty"`
	Price     *float64 `json:"price,omitempty"`

	// OccurredAt is the time the change was committed.
	OccurredAt time.Time `json:"occurred_at"`
}

// Backend delivers a serialized event to a broker topic or queue.
type Backend interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher serializes events onto a Backend. A nil *Publisher is a
// valid no-op, so callers never have to branch on whether a broker is
// configured.
type Publisher struct {
	backend Backend
	topic   string
	log     zerolog.Logger
}

// NewPublisher wraps a backend. An empty topic falls back to the default.
func NewPublisher(backend Backend, topic string, log zerolog.Logger) *Publisher {
	if topic == "" {
		topic = defaultTopic
	}
	return &Publisher{backend: backend, topic: topic, log: log}
}

// FromConfig builds a Publisher for the configured backend, or nil when
// the backend is "none" or unset.
func FromConfig(ctx context.Context, cfg config.EventsConfig, log zerolog.Logger) (*Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		backend, err := NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq backend: %w", err)
		}
		return NewPublisher(backend, defaultTopic, log), nil
	case "pubsub":
		backend, err := NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub backend: %w", err)
		}
		return NewPublisher(backend, defaultTopic, log), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// Publish sends one event. Errors are logged and counted, not returned.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("type", event.Type).Msg("marshal event")
		metrics.EventsPublishedTotal.WithLabelValues(event.Type, "error").Inc()
		return
	}

	attrs := map[string]string{"type": event.Type}
	if _, err := p.backend.Publish(ctx, p.topic, data, attrs); err != nil {
		p.log.Error().Err(err).Str("type", event.Type).Msg("publish event")
		metrics.EventsPublishedTotal.WithLabelValues(event.Type, "error").Inc()
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(event.Type, "ok").Inc()
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.backend.Close()
}
