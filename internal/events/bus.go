// Package events records invoice lifecycle events in domain_events and hands
// them to in-process subscribers such as the owner email notifier.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
)

// Store persists events.
type Store interface {
	InsertDomainEvent(ctx context.Context, arg dbgen.InsertDomainEventParams) (dbgen.InsertDomainEventRow, error)
}

// Invoice is the event payload: the invoice as it stood after the write.
type Invoice struct {
	InvoiceID  string  `json:"invoice_id"`
	OwnerID    string  `json:"owner_id"`
	Number     string  `json:"number"`
	Status     string  `json:"status"`
	Total      float64 `json:"total"`
	Currency   string  `json:"currency"`
	PaymentURL string  `json:"payment_url,omitempty"`
	Provider   string  `json:"provider,omitempty"`
}

// Event is a persisted occurrence of Topic.
type Event struct {
	ID         string
	Topic      string
	OccurredAt time.Time
	Invoice    Invoice
}

// Handler reacts to an event. Errors are logged by the bus.
type Handler func(ctx context.Context, ev Event) error

// Bus persists events before delivering them to subscribers. A subscriber
// failure never rolls back the event row.
type Bus struct {
	Store Store

	mu   sync.RWMutex
	subs map[string][]Handler
}

// Subscribe registers h for each topic.
func (b *Bus) Subscribe(h Handler, topics ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[string][]Handler)
	}
	for _, t := range topics {
		b.subs[t] = append(b.subs[t], h)
	}
}

// Publish is Emit for callers whose own write already committed: failures
// are logged, not returned. A nil bus drops the event.
func (b *Bus) Publish(ctx context.Context, topic string, inv Invoice) {
	if b == nil {
		return
	}
	if _, err := b.Emit(ctx, topic, inv); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("topic", topic).Str("invoice_id", inv.InvoiceID).Msg("publish event")
	}
}

// Emit stores the event and runs the subscribers for its topic in
// registration order. Subscriber errors are joined into the result.
func (b *Bus) Emit(ctx context.Context, topic string, inv Invoice) (Event, error) {
	if b == nil || b.Store == nil {
		return Event{}, errors.New("events: store not configured")
	}
	if !IsKnownTopic(topic) {
		return Event{}, fmt.Errorf("events: unknown topic %q", topic)
	}
	aggregate, err := common.ParseUUID(inv.InvoiceID)
	if err != nil {
		return Event{}, fmt.Errorf("events: invoice id: %w", err)
	}
	payload, err := json.Marshal(inv)
	if err != nil {
		return Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	row, err := b.Store.InsertDomainEvent(ctx, dbgen.InsertDomainEventParams{
		Topic:       topic,
		AggregateID: aggregate,
		Payload:     payload,
	})
	if err != nil {
		return Event{}, fmt.Errorf("events: persist %s: %w", topic, err)
	}
	ev := Event{
		ID:         common.UUIDString(row.ID),
		Topic:      row.Topic,
		OccurredAt: row.OccurredAt.Time,
		Invoice:    inv,
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[topic]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("events: %s subscriber: %w", topic, err))
		}
	}
	return ev, errors.Join(errs...)
}
