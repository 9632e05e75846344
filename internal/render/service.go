package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/auth"
	"github.com/noah-isme/backend-invoice/internal/customer"
	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/obs"
)

// InvoiceSource loads owner scoped invoices.
type InvoiceSource interface {
	Get(ctx context.Context, ownerID, id string) (invoice.Invoice, error)
}

// CustomerSource loads owner scoped customers.
type CustomerSource interface {
	Get(ctx context.Context, ownerID, id string) (customer.Customer, error)
}

// BillerSource loads the account that issues the invoice.
type BillerSource interface {
	Me(ctx context.Context, userID string) (auth.User, error)
}

// Service assembles documents from stored invoices.
type Service struct {
	Invoices  InvoiceSource
	Customers CustomerSource
	Billers   BillerSource
	Archive   Archive
	Options   PDFOptions
}

// Rendered is a document together with the invoice it was built from.
type Rendered struct {
	Invoice  invoice.Invoice
	Document Document
	Customer customer.Customer
}

// Load builds the display document for an invoice.
func (s *Service) Load(ctx context.Context, ownerID, invoiceID string) (Rendered, error) {
	inv, err := s.Invoices.Get(ctx, ownerID, invoiceID)
	if err != nil {
		return Rendered{}, err
	}
	cust, err := s.Customers.Get(ctx, ownerID, inv.CustomerID)
	if err != nil {
		return Rendered{}, fmt.Errorf("load customer: %w", err)
	}
	owner, err := s.Billers.Me(ctx, ownerID)
	if err != nil {
		return Rendered{}, fmt.Errorf("load biller: %w", err)
	}
	return Rendered{Invoice: inv, Customer: cust, Document: Summarize(inv, BillerParty(owner), RecipientParty(cust))}, nil
}

// PDF renders the PDF for an invoice and archives it. Archive failures are
// logged; the caller still receives the document.
func (s *Service) PDF(ctx context.Context, ownerID, invoiceID string) ([]byte, Rendered, error) {
	r, err := s.Load(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, Rendered{}, err
	}
	data, err := s.renderPDF(r.Document)
	if err != nil {
		return nil, Rendered{}, err
	}
	if s.Archive != nil {
		if _, err := s.Archive.Put(ctx, ownerID, r.Invoice.Number, data); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("invoice", r.Invoice.Number).Msg("archive invoice pdf")
		}
	}
	return data, r, nil
}

// Email renders the delivery email body.
func (s *Service) Email(doc Document, paymentURL string) (string, string, error) {
	start := time.Now()
	subject, html, err := EmailHTML(doc, paymentURL)
	observe("email", start, err)
	return subject, html, err
}

func (s *Service) renderPDF(doc Document) ([]byte, error) {
	start := time.Now()
	data, err := PDF(doc, s.Options)
	observe("pdf", start, err)
	return data, err
}

func observe(kind string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.Inc(obs.DocumentRenderTotal, kind, result)
	obs.Observe(obs.DocumentRenderLatency, float64(time.Since(start).Milliseconds()), kind)
}

// BillerParty prefers the company profile over the personal name.
func BillerParty(u auth.User) Party {
	p := Party{Name: u.Name, Email: u.Email}
	if u.CompanyName != nil && strings.TrimSpace(*u.CompanyName) != "" {
		p.Name = *u.CompanyName
	}
	if u.CompanyAddress != nil {
		p.Lines = splitLines(*u.CompanyAddress)
	}
	return p
}

// RecipientParty formats a customer as the bill-to block.
func RecipientParty(c customer.Customer) Party {
	p := Party{Name: c.Name}
	if c.Address != nil {
		p.Lines = splitLines(*c.Address)
	}
	if c.Phone != nil {
		p.Lines = append(p.Lines, *c.Phone)
	}
	if c.Email != nil {
		p.Email = *c.Email
	}
	return p
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
