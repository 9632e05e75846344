package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/customer"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
	"github.com/noah-isme/backend-invoice/internal/events"
	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/lock"
	"github.com/noah-isme/backend-invoice/internal/obs"
	"github.com/noah-isme/backend-invoice/internal/resilience"
	"github.com/noah-isme/backend-invoice/internal/totals"
)

// Queries is the subset of the generated querier used for payment links.
type Queries interface {
	CreatePaymentLink(ctx context.Context, arg dbgen.CreatePaymentLinkParams) (dbgen.PaymentLink, error)
	GetLatestPaymentLink(ctx context.Context, arg dbgen.GetLatestPaymentLinkParams) (dbgen.PaymentLink, error)
	GetPaymentLinkByExternalID(ctx context.Context, arg dbgen.GetPaymentLinkByExternalIDParams) (dbgen.PaymentLink, error)
	UpdatePaymentLinkStatus(ctx context.Context, arg dbgen.UpdatePaymentLinkStatusParams) (dbgen.PaymentLink, error)
	SetInvoicePaymentLink(ctx context.Context, arg dbgen.SetInvoicePaymentLinkParams) error
}

// InvoiceSource loads owner scoped invoices.
type InvoiceSource interface {
	Get(ctx context.Context, ownerID, id string) (invoice.Invoice, error)
}

// CustomerSource loads the invoice recipient for checkout prefill.
type CustomerSource interface {
	Get(ctx context.Context, ownerID, id string) (customer.Customer, error)
}

// Locker serialises link creation per invoice; lock.Locker satisfies it.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Service issues payment links for invoices.
type Service struct {
	Q         Queries
	Invoices  InvoiceSource
	Customers CustomerSource
	Provider  Provider
	Locker    Locker
	LinkTTL   time.Duration
	// RedirectBaseURL is where the checkout returns; the invoice id is appended.
	RedirectBaseURL string
	Events          *events.Bus
	Now             func() time.Time
}

// Link is the API view of a payment link.
type Link struct {
	InvoiceID   string     `json:"invoice_id"`
	Provider    string     `json:"provider"`
	ExternalID  string     `json:"external_id"`
	URL         string     `json:"url"`
	AmountMinor int64      `json:"amount_minor"`
	Currency    string     `json:"currency"`
	Status      LinkStatus `json:"status"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Reused      bool       `json:"reused"`
}

// CreateLink returns a payable link for the invoice, reusing the latest pending
// link when it has not expired and still matches the invoice total.
func (s *Service) CreateLink(ctx context.Context, ownerID, invoiceID string) (Link, error) {
	if s == nil || s.Q == nil || s.Provider == nil || s.Invoices == nil {
		return Link{}, errors.New("payment service not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.CreateLink")
	defer span.End()

	start := time.Now()
	provider := normaliseLabel(s.Provider.Name())
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.provider", provider),
			attribute.Int64("payment.link.duration_ms", time.Since(start).Milliseconds()),
			attribute.String("payment.link.result", result),
		)
		obs.Inc(obs.PaymentLinkTotal, provider, result)
	}()

	inv, err := s.Invoices.Get(ctx, ownerID, invoiceID)
	if err != nil {
		result = "not_found"
		return Link{}, err
	}
	span.SetAttributes(attribute.String("invoice.id", inv.ID))
	if err := payable(inv); err != nil {
		result = "rejected"
		return Link{}, err
	}

	var link Link
	err = s.withLock(ctx, lock.InvoiceKey("payment-link", inv.ID), func(ctx context.Context) error {
		var created bool
		var err error
		link, created, err = s.ensureLink(ctx, ownerID, inv)
		if err == nil {
			result = "reused"
			if created {
				result = "created"
			}
		}
		return err
	})
	if err != nil {
		span.RecordError(err)
		return Link{}, err
	}
	return link, nil
}

func payable(inv invoice.Invoice) error {
	switch inv.Status {
	case invoice.StatusPaid:
		return common.NewAppError("INVOICE_ALREADY_PAID", "invoice is already paid", http.StatusConflict, nil)
	case invoice.StatusVoid:
		return common.NewAppError("INVOICE_LOCKED", "invoice is void and cannot be paid", http.StatusConflict, nil)
	}
	if totals.MinorUnits(inv.Totals.Total) <= 0 {
		return common.NewAppError("INVOICE_NOT_PAYABLE", "invoice total must be greater than zero", http.StatusUnprocessableEntity, nil)
	}
	return nil
}

func (s *Service) ensureLink(ctx context.Context, ownerID string, inv invoice.Invoice) (Link, bool, error) {
	invUUID, err := common.ParseUUID(inv.ID)
	if err != nil {
		return Link{}, false, err
	}
	amount := totals.MinorUnits(inv.Totals.Total)
	now := s.now()

	existing, err := s.Q.GetLatestPaymentLink(ctx, dbgen.GetLatestPaymentLinkParams{InvoiceID: invUUID, Provider: s.Provider.Name()})
	switch {
	case err == nil:
		if reusable(existing, amount, inv.Currency, now) {
			if inv.PaymentLinkURL == nil || *inv.PaymentLinkURL != existing.Url {
				if err := s.Q.SetInvoicePaymentLink(ctx, dbgen.SetInvoicePaymentLinkParams{ID: invUUID, PaymentLinkUrl: common.Text(existing.Url)}); err != nil {
					return Link{}, false, fmt.Errorf("set invoice payment link: %w", err)
				}
			}
			link := toLink(existing)
			link.Reused = true
			return link, false, nil
		}
	case !common.IsNoRows(err):
		return Link{}, false, fmt.Errorf("get latest payment link: %w", err)
	}

	req := LinkRequest{
		InvoiceID:   inv.ID,
		Number:      inv.Number,
		AmountMinor: amount,
		Currency:    inv.Currency,
		ExpiresAt:   now.Add(s.linkTTL()),
	}
	if s.RedirectBaseURL != "" {
		req.RedirectURL = strings.TrimRight(s.RedirectBaseURL, "/") + "/invoices/" + inv.ID
	}
	if s.Customers != nil {
		if cust, err := s.Customers.Get(ctx, ownerID, inv.CustomerID); err == nil {
			req.CustomerName = cust.Name
			if cust.Email != nil {
				req.CustomerEmail = *cust.Email
			}
		} else {
			zerolog.Ctx(ctx).Warn().Err(err).Str("invoice", inv.Number).Msg("load customer for checkout")
		}
	}
	resp, err := s.Provider.CreateLink(ctx, req)
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return Link{}, false, common.NewAppError("PAYMENT_PROVIDER_UNAVAILABLE", "payment provider temporarily unavailable", http.StatusServiceUnavailable, err)
	}
	if err != nil {
		return Link{}, false, common.NewAppError("PAYMENT_PROVIDER_ERROR", "payment provider unavailable", http.StatusBadGateway, err)
	}
	expiresAt := resp.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = req.ExpiresAt
	}
	payload := resp.Payload
	if len(payload) == 0 {
		payload, _ = json.Marshal(map[string]any{"request": req, "external_id": resp.ExternalID})
	}
	row, err := s.Q.CreatePaymentLink(ctx, dbgen.CreatePaymentLinkParams{
		InvoiceID:   invUUID,
		Provider:    s.Provider.Name(),
		ExternalID:  resp.ExternalID,
		Url:         resp.URL,
		AmountMinor: amount,
		Currency:    inv.Currency,
		Status:      string(StatusPending),
		Payload:     payload,
		ExpiresAt:   common.Timestamptz(expiresAt),
	})
	if err != nil {
		return Link{}, false, fmt.Errorf("create payment link: %w", err)
	}
	if err := s.Q.SetInvoicePaymentLink(ctx, dbgen.SetInvoicePaymentLinkParams{ID: invUUID, PaymentLinkUrl: common.Text(row.Url)}); err != nil {
		return Link{}, false, fmt.Errorf("set invoice payment link: %w", err)
	}
	s.Events.Publish(ctx, events.TopicPaymentLinkCreated, events.Invoice{
		InvoiceID:  inv.ID,
		OwnerID:    ownerID,
		Number:     inv.Number,
		Status:     string(inv.Status),
		Total:      inv.Totals.Total,
		Currency:   row.Currency,
		PaymentURL: row.Url,
		Provider:   row.Provider,
	})
	return toLink(row), true, nil
}

func reusable(link dbgen.PaymentLink, amount int64, currency string, now time.Time) bool {
	if LinkStatus(link.Status) != StatusPending || link.AmountMinor != amount {
		return false
	}
	if !strings.EqualFold(link.Currency, currency) {
		return false
	}
	return !link.ExpiresAt.Valid || link.ExpiresAt.Time.After(now)
}

func (s *Service) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if s.Locker == nil {
		return fn(ctx)
	}
	err := s.Locker.WithLock(ctx, key, fn)
	if errors.Is(err, lock.ErrBusy) {
		return common.NewAppError("PAYMENT_LINK_BUSY", "a payment link is already being created for this invoice", http.StatusConflict, err)
	}
	return err
}

func (s *Service) linkTTL() time.Duration {
	if s.LinkTTL <= 0 {
		return 24 * time.Hour
	}
	return s.LinkTTL
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func toLink(row dbgen.PaymentLink) Link {
	return Link{
		InvoiceID:   common.UUIDString(row.InvoiceID),
		Provider:    row.Provider,
		ExternalID:  row.ExternalID,
		URL:         row.Url,
		AmountMinor: row.AmountMinor,
		Currency:    row.Currency,
		Status:      LinkStatus(row.Status),
		ExpiresAt:   common.TimeValuePtr(row.ExpiresAt),
	}
}
