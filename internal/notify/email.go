package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/noah-isme/backend-invoice/internal/auth"
	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/events"
	"github.com/noah-isme/backend-invoice/internal/totals"
)

// OwnerSource resolves the account that owns an invoice.
type OwnerSource interface {
	Me(ctx context.Context, userID string) (auth.User, error)
}

// EmailNotifier tells invoice owners about events they care about. Only
// invoice.paid is mailed unless TopicToggles enables more.
type EmailNotifier struct {
	Mail         common.EmailSender
	Owners       OwnerSource
	Enabled      bool
	TopicToggles map[string]bool
}

var ownerTemplate = template.Must(template.New("owner").Parse(`<p>Hi {{.Name}},</p>
<p>{{.Line}}</p>
<p>Invoice <strong>{{.Number}}</strong> &middot; {{.Amount}}</p>
{{if .URL}}<p><a href="{{.URL}}">Open payment page</a></p>{{end}}`))

// Subscribe registers the notifier on bus for the topics it mails.
func (n EmailNotifier) Subscribe(bus *events.Bus) {
	if !n.Enabled || bus == nil {
		return
	}
	topics := []string{events.TopicInvoicePaid}
	if len(n.TopicToggles) > 0 {
		topics = topics[:0]
		for topic, on := range n.TopicToggles {
			if on {
				topics = append(topics, topic)
			}
		}
	}
	bus.Subscribe(n.Handle, topics...)
}

// Handle mails the invoice owner about ev.
func (n EmailNotifier) Handle(ctx context.Context, ev events.Event) error {
	if !n.Enabled || n.Mail == nil || n.Owners == nil {
		return nil
	}
	inv := ev.Invoice
	if strings.TrimSpace(inv.OwnerID) == "" {
		return nil
	}
	owner, err := n.Owners.Me(ctx, inv.OwnerID)
	if err != nil {
		return fmt.Errorf("email notify: load owner: %w", err)
	}
	if owner.Email == "" {
		return nil
	}
	subject, line := copyFor(ev.Topic, inv.Number)
	var body bytes.Buffer
	if err := ownerTemplate.Execute(&body, map[string]string{
		"Name":   owner.Name,
		"Line":   line,
		"Number": inv.Number,
		"Amount": totals.FormatMoney(inv.Total, inv.Currency),
		"URL":    inv.PaymentURL,
	}); err != nil {
		return fmt.Errorf("email notify: render: %w", err)
	}
	return n.Mail.Send(ctx, common.Email{To: owner.Email, Subject: subject, HTML: body.String()})
}

func copyFor(topic, number string) (string, string) {
	switch topic {
	case events.TopicInvoicePaid:
		return fmt.Sprintf("Invoice %s was paid", number), "Good news: your customer paid this invoice."
	case events.TopicInvoiceSent:
		return fmt.Sprintf("Invoice %s was sent", number), "This invoice is on its way to your customer."
	case events.TopicPaymentLinkCreated:
		return fmt.Sprintf("Payment link ready for %s", number), "A payment link was created for this invoice."
	default:
		return fmt.Sprintf("Invoice %s update", number), "Your invoice changed: " + topic + "."
	}
}
