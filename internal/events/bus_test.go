package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
	"github.com/noah-isme/backend-invoice/internal/events"
)

type stubStore struct {
	params []dbgen.InsertDomainEventParams
	err    error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.InsertDomainEventRow, error) {
	if s.err != nil {
		return dbgen.InsertDomainEventRow{}, s.err
	}
	s.params = append(s.params, arg)
	return dbgen.InsertDomainEventRow{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}, nil
}

func paidInvoice() events.Invoice {
	return events.Invoice{
		InvoiceID: uuid.NewString(),
		OwnerID:   uuid.NewString(),
		Number:    "INV-00042",
		Status:    "paid",
		Total:     108.5,
		Currency:  "USD",
	}
}

func TestEmitPersistsThenDeliversToTopicSubscribers(t *testing.T) {
	store := &stubStore{}
	bus := &events.Bus{Store: store}

	var paid, sent []events.Event
	bus.Subscribe(func(_ context.Context, ev events.Event) error { paid = append(paid, ev); return nil }, events.TopicInvoicePaid)
	bus.Subscribe(func(_ context.Context, ev events.Event) error { sent = append(sent, ev); return nil }, events.TopicInvoiceSent)

	inv := paidInvoice()
	ev, err := bus.Emit(context.Background(), events.TopicInvoicePaid, inv)
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Len(t, paid, 1)
	require.Empty(t, sent)
	require.Equal(t, inv, paid[0].Invoice)

	require.Len(t, store.params, 1)
	require.Equal(t, inv.InvoiceID, uuid.UUID(store.params[0].AggregateID.Bytes).String())
	var stored events.Invoice
	require.NoError(t, json.Unmarshal(store.params[0].Payload, &stored))
	require.Equal(t, inv, stored)
}

func TestEmitRejectsBadInput(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), "order.created", paidInvoice())
	require.ErrorContains(t, err, "unknown topic")

	_, err = bus.Emit(context.Background(), events.TopicInvoiceCreated, events.Invoice{InvoiceID: "nope"})
	require.Error(t, err)
}

func TestEmitJoinsSubscriberErrorsAndKeepsGoing(t *testing.T) {
	store := &stubStore{}
	bus := &events.Bus{Store: store}
	calls := 0
	bus.Subscribe(func(context.Context, events.Event) error { calls++; return errors.New("smtp down") }, events.TopicInvoiceSent)
	bus.Subscribe(func(context.Context, events.Event) error { calls++; return nil }, events.TopicInvoiceSent)

	_, err := bus.Emit(context.Background(), events.TopicInvoiceSent, paidInvoice())
	require.ErrorContains(t, err, "smtp down")
	require.Equal(t, 2, calls)
	require.Len(t, store.params, 1)
}

func TestEmitDoesNotDeliverUnpersistedEvents(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{err: errors.New("db down")}}
	called := false
	bus.Subscribe(func(context.Context, events.Event) error { called = true; return nil }, events.TopicInvoicePaid)

	_, err := bus.Emit(context.Background(), events.TopicInvoicePaid, paidInvoice())
	require.ErrorContains(t, err, "db down")
	require.False(t, called)
}

func TestPublishOnNilBus(t *testing.T) {
	var bus *events.Bus
	bus.Publish(context.Background(), events.TopicInvoiceCreated, paidInvoice())
	require.True(t, events.IsKnownTopic(events.TopicPaymentLinkCreated))
}
