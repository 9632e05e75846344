package payment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-invoice/internal/audit"
	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/totals"
)

type fakeQueries struct {
	mu          sync.Mutex
	links       []dbgen.PaymentLink
	invoiceURLs map[pgtype.UUID]string
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{invoiceURLs: map[pgtype.UUID]string{}}
}

func (f *fakeQueries) CreatePaymentLink(_ context.Context, arg dbgen.CreatePaymentLinkParams) (dbgen.PaymentLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := dbgen.PaymentLink{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		InvoiceID:   arg.InvoiceID,
		Provider:    arg.Provider,
		ExternalID:  arg.ExternalID,
		Url:         arg.Url,
		AmountMinor: arg.AmountMinor,
		Currency:    arg.Currency,
		Status:      arg.Status,
		Payload:     arg.Payload,
		ExpiresAt:   arg.ExpiresAt,
		CreatedAt:   common.Timestamptz(time.Now()),
	}
	f.links = append(f.links, row)
	return row, nil
}

func (f *fakeQueries) GetLatestPaymentLink(_ context.Context, arg dbgen.GetLatestPaymentLinkParams) (dbgen.PaymentLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.links) - 1; i >= 0; i-- {
		if l := f.links[i]; l.InvoiceID == arg.InvoiceID && l.Provider == arg.Provider {
			return l, nil
		}
	}
	return dbgen.PaymentLink{}, pgx.ErrNoRows
}

func (f *fakeQueries) GetPaymentLinkByExternalID(_ context.Context, arg dbgen.GetPaymentLinkByExternalIDParams) (dbgen.PaymentLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.Provider == arg.Provider && l.ExternalID == arg.ExternalID {
			return l, nil
		}
	}
	return dbgen.PaymentLink{}, pgx.ErrNoRows
}

func (f *fakeQueries) UpdatePaymentLinkStatus(_ context.Context, arg dbgen.UpdatePaymentLinkStatusParams) (dbgen.PaymentLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.links {
		if l.ID == arg.ID {
			f.links[i].Status = arg.Status
			f.links[i].Payload = arg.Payload
			return f.links[i], nil
		}
	}
	return dbgen.PaymentLink{}, pgx.ErrNoRows
}

func (f *fakeQueries) SetInvoicePaymentLink(_ context.Context, arg dbgen.SetInvoicePaymentLinkParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoiceURLs[arg.ID] = arg.PaymentLinkUrl.String
	return nil
}

func (f *fakeQueries) linkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links)
}

// fakeInvoices serves invoices for one owner and records settlements.
type fakeInvoices struct {
	mu       sync.Mutex
	owner    string
	invoices map[string]invoice.Invoice
	paid     []string
}

func newFakeInvoices(owner string) *fakeInvoices {
	return &fakeInvoices{owner: owner, invoices: map[string]invoice.Invoice{}}
}

func (f *fakeInvoices) add(status invoice.Status, total float64) invoice.Invoice {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv := invoice.Invoice{
		ID:         uuid.NewString(),
		OwnerID:    f.owner,
		CustomerID: uuid.NewString(),
		Number:     "INV-00042",
		Status:     status,
		Currency:   "USD",
		Totals:     totals.Totals{Subtotal: total, Total: total},
	}
	f.invoices[inv.ID] = inv
	return inv
}

func (f *fakeInvoices) setTotal(id string, total float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv := f.invoices[id]
	inv.Totals.Total = total
	f.invoices[id] = inv
}

func (f *fakeInvoices) Get(_ context.Context, ownerID, id string) (invoice.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok || ownerID != f.owner {
		return invoice.Invoice{}, common.ErrNotFound("invoice")
	}
	return inv, nil
}

func (f *fakeInvoices) GetByID(_ context.Context, id string) (invoice.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return invoice.Invoice{}, common.ErrNotFound("invoice")
	}
	return inv, nil
}

func (f *fakeInvoices) MarkPaid(_ context.Context, id pgtype.UUID) (invoice.Invoice, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := common.UUIDString(id)
	inv, ok := f.invoices[key]
	if !ok {
		return invoice.Invoice{}, false, common.ErrNotFound("invoice")
	}
	if inv.Status == invoice.StatusPaid {
		return inv, false, nil
	}
	inv.Status = invoice.StatusPaid
	f.invoices[key] = inv
	f.paid = append(f.paid, key)
	return inv, true, nil
}

func (f *fakeInvoices) paidIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paid...)
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []string
}

func (a *recordingAuditor) Record(_ context.Context, e audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e.Action+":"+e.ResourceID)
	return nil
}
