package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/customer"
	"github.com/noah-isme/backend-invoice/internal/invoice"
)

// Enqueuer accepts tasks; *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// InvoiceSource loads and marks invoices.
type InvoiceSource interface {
	Get(ctx context.Context, ownerID, id string) (invoice.Invoice, error)
	MarkSent(ctx context.Context, ownerID, id string) (invoice.Invoice, error)
}

// CustomerSource resolves the default recipient.
type CustomerSource interface {
	Get(ctx context.Context, ownerID, id string) (customer.Customer, error)
}

// Sender moves invoices to sent and queues their delivery.
type Sender struct {
	Invoices  InvoiceSource
	Customers CustomerSource
	Queue     Enqueuer
	MaxRetry  int
}

// Queued is the result of a send request.
type Queued struct {
	Invoice invoice.Invoice `json:"invoice"`
	To      string          `json:"to"`
	TaskID  string          `json:"task_id"`
}

// Send resolves the recipient, enqueues delivery and then marks the invoice
// sent, so a queue outage leaves the status untouched. An empty to falls back
// to the customer's email.
func (s *Sender) Send(ctx context.Context, ownerID, invoiceID, to string) (Queued, error) {
	inv, err := s.Invoices.Get(ctx, ownerID, invoiceID)
	if err != nil {
		return Queued{}, err
	}
	if inv.Status.Locked() {
		return Queued{}, common.NewAppError("INVOICE_LOCKED", fmt.Sprintf("invoice is %s and can no longer be sent", inv.Status), http.StatusConflict, nil)
	}
	to, err = s.recipient(ctx, ownerID, inv, to)
	if err != nil {
		return Queued{}, err
	}
	task, err := NewDeliverTask(DeliverPayload{InvoiceID: inv.ID, OwnerID: ownerID, To: to})
	if err != nil {
		return Queued{}, err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault)}
	if s.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(s.MaxRetry))
	}
	info, err := s.Queue.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return Queued{}, common.NewAppError("DELIVERY_UNAVAILABLE", "could not queue invoice delivery", http.StatusServiceUnavailable, err)
	}
	sent, err := s.Invoices.MarkSent(ctx, ownerID, inv.ID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("invoice", inv.Number).Str("task_id", info.ID).Msg("delivery queued but invoice not marked sent")
		return Queued{}, err
	}
	zerolog.Ctx(ctx).Info().Str("invoice", sent.Number).Str("task_id", info.ID).Msg("invoice delivery queued")
	return Queued{Invoice: sent, To: to, TaskID: info.ID}, nil
}

func (s *Sender) recipient(ctx context.Context, ownerID string, inv invoice.Invoice, to string) (string, error) {
	to = strings.TrimSpace(to)
	if to == "" && s.Customers != nil {
		cust, err := s.Customers.Get(ctx, ownerID, inv.CustomerID)
		if err != nil {
			return "", fmt.Errorf("load customer: %w", err)
		}
		if cust.Email != nil {
			to = strings.TrimSpace(*cust.Email)
		}
	}
	if to == "" {
		return "", common.ErrValidation("no recipient", nil).WithDetails(map[string]string{"to": "is required when the customer has no email"})
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return "", common.ErrValidation("invalid recipient", err).WithDetails(map[string]string{"to": "must be a valid email"})
	}
	return to, nil
}
