package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-invoice/internal/auth"
	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
	"github.com/noah-isme/backend-invoice/internal/events"
)

type stubOwners map[string]auth.User

func (s stubOwners) Me(_ context.Context, id string) (auth.User, error) {
	u, ok := s[id]
	if !ok {
		return auth.User{}, common.ErrNotFound("user")
	}
	return u, nil
}

func publish(t *testing.T, bus *events.Bus, topic string, inv events.Invoice) error {
	t.Helper()
	_, err := bus.Emit(context.Background(), topic, inv)
	return err
}

type memStore struct{}

func (memStore) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.InsertDomainEventRow, error) {
	return dbgen.InsertDomainEventRow{ID: arg.AggregateID, Topic: arg.Topic, AggregateID: arg.AggregateID, Payload: arg.Payload}, nil
}

func TestEmailNotifierMailsOwnerOnPaid(t *testing.T) {
	mail := &common.InMemoryEmail{}
	bus := &events.Bus{Store: memStore{}}
	EmailNotifier{
		Mail:    mail,
		Owners:  stubOwners{"owner-1": {Name: "Dana <Ops>", Email: "dana@example.com"}},
		Enabled: true,
	}.Subscribe(bus)
	inv := events.Invoice{InvoiceID: uuid.NewString(), OwnerID: "owner-1", Number: "INV-00003", Total: 129.25, Currency: "USD"}

	require.NoError(t, publish(t, bus, events.TopicInvoicePaid, inv))
	require.NoError(t, publish(t, bus, events.TopicInvoiceCreated, inv))

	sent := mail.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "dana@example.com", sent[0].To)
	require.Equal(t, "Invoice INV-00003 was paid", sent[0].Subject)
	require.Contains(t, sent[0].HTML, "$129.25")
	require.Contains(t, sent[0].HTML, "Dana &lt;Ops&gt;")
	require.NotContains(t, sent[0].HTML, "Open payment page")
}

func TestEmailNotifierToggles(t *testing.T) {
	mail := &common.InMemoryEmail{}
	bus := &events.Bus{Store: memStore{}}
	n := EmailNotifier{
		Mail:         mail,
		Owners:       stubOwners{"o": {Email: "o@example.com"}},
		Enabled:      true,
		TopicToggles: map[string]bool{events.TopicInvoicePaid: false, events.TopicPaymentLinkCreated: true},
	}
	n.Subscribe(bus)
	inv := events.Invoice{InvoiceID: uuid.NewString(), OwnerID: "o", Number: "INV-1", PaymentURL: "https://pay.test/x"}

	require.NoError(t, publish(t, bus, events.TopicInvoicePaid, inv))
	require.NoError(t, publish(t, bus, events.TopicPaymentLinkCreated, inv))
	require.Len(t, mail.Sent(), 1)
	require.Contains(t, mail.Sent()[0].HTML, `href="https://pay.test/x"`)

	inv.OwnerID = "missing"
	require.Error(t, publish(t, bus, events.TopicPaymentLinkCreated, inv))

	disabledBus := &events.Bus{Store: memStore{}}
	EmailNotifier{Mail: mail, Owners: n.Owners}.Subscribe(disabledBus)
	require.NoError(t, publish(t, disabledBus, events.TopicInvoicePaid, inv))
	require.Len(t, mail.Sent(), 1)
}

type fakeEmails struct {
	last *resend.SendEmailRequest
	err  error
}

func (f *fakeEmails) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "em_123"}, nil
}

func TestResendSender(t *testing.T) {
	api := &fakeEmails{}
	s := &ResendSender{emails: api, from: "Invoices <billing@example.com>", replyTo: "support@example.com"}

	err := s.Send(context.Background(), common.Email{
		To:          "c@example.com",
		Subject:     "Invoice INV-1",
		HTML:        "<p>hi</p>",
		Attachments: []common.Attachment{{Filename: "INV-1.pdf", ContentType: "application/pdf", Content: []byte("%PDF")}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"c@example.com"}, api.last.To)
	require.Equal(t, "support@example.com", api.last.ReplyTo)
	require.Len(t, api.last.Attachments, 1)
	require.Equal(t, "INV-1.pdf", api.last.Attachments[0].Filename)

	api.err = errors.New("rate limited")
	require.ErrorContains(t, s.Send(context.Background(), common.Email{To: "c@example.com"}), "rate limited")
	require.Error(t, s.Send(context.Background(), common.Email{}))

	_, err = NewResendSender(ResendConfig{})
	require.Error(t, err)
}
