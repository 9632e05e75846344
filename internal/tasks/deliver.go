package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/render"
)

// Renderer produces the documents attached to a delivery; *render.Service satisfies it.
type Renderer interface {
	PDF(ctx context.Context, ownerID, invoiceID string) ([]byte, render.Rendered, error)
	Email(doc render.Document, paymentURL string) (string, string, error)
}

// Deliverer handles invoice:deliver tasks.
type Deliverer struct {
	Render Renderer
	Mail   common.EmailSender
	Logger zerolog.Logger
}

// HandleDeliver renders the PDF (archiving it on the way) and emails it with
// the payment link. Missing invoices and malformed payloads are not retried.
func (d *Deliverer) HandleDeliver(ctx context.Context, t *asynq.Task) error {
	var p DeliverPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode deliver payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.InvoiceID == "" || p.OwnerID == "" || p.To == "" {
		return fmt.Errorf("incomplete deliver payload: %w", asynq.SkipRetry)
	}
	log := d.Logger.With().Str("task", TypeInvoiceDeliver).Str("invoice_id", p.InvoiceID).Logger()
	ctx = log.WithContext(ctx)

	pdf, rendered, err := d.Render.PDF(ctx, p.OwnerID, p.InvoiceID)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusNotFound {
			log.Warn().Msg("invoice vanished before delivery")
			return fmt.Errorf("render invoice: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("render invoice: %w", err)
	}
	paymentURL := ""
	if rendered.Invoice.PaymentLinkURL != nil {
		paymentURL = *rendered.Invoice.PaymentLinkURL
	}
	subject, html, err := d.Render.Email(rendered.Document, paymentURL)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	err = d.Mail.Send(ctx, common.Email{
		To:      p.To,
		Subject: subject,
		HTML:    html,
		Attachments: []common.Attachment{{
			Filename:    rendered.Invoice.Number + ".pdf",
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	})
	if err != nil {
		return fmt.Errorf("send invoice email: %w", err)
	}
	log.Info().Str("number", rendered.Invoice.Number).Msg("invoice delivered")
	return nil
}
