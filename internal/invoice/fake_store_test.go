package invoice

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
)

// fakeStore keeps rows in memory. Methods the invoice service never calls
// fall through to the nil embedded Querier and panic.
type fakeStore struct {
	dbgen.Querier

	mu        sync.Mutex
	customers map[pgtype.UUID]dbgen.Customer
	invoices  map[pgtype.UUID]dbgen.Invoice
	items     map[pgtype.UUID][]dbgen.InvoiceItem
	sequences map[pgtype.UUID]int64
	events    []dbgen.InsertDomainEventParams
	// invoices whose pending payment links were superseded
	superseded []pgtype.UUID

	failItemInsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: map[pgtype.UUID]dbgen.Customer{},
		invoices:  map[pgtype.UUID]dbgen.Invoice{},
		items:     map[pgtype.UUID][]dbgen.InvoiceItem{},
		sequences: map[pgtype.UUID]int64{},
	}
}

func pgUUID() pgtype.UUID { return pgtype.UUID{Bytes: uuid.New(), Valid: true} }

func now() pgtype.Timestamptz { return pgtype.Timestamptz{Time: time.Now(), Valid: true} }

func (f *fakeStore) addCustomer(owner pgtype.UUID) dbgen.Customer {
	c := dbgen.Customer{ID: pgUUID(), OwnerID: owner, Name: "Acme", CreatedAt: now(), UpdatedAt: now()}
	f.customers[c.ID] = c
	return c
}

// ExecTx restores the previous state when fn fails.
func (f *fakeStore) ExecTx(_ context.Context, fn func(dbgen.Querier) error) error {
	f.mu.Lock()
	invoices := make(map[pgtype.UUID]dbgen.Invoice, len(f.invoices))
	for k, v := range f.invoices {
		invoices[k] = v
	}
	items := make(map[pgtype.UUID][]dbgen.InvoiceItem, len(f.items))
	for k, v := range f.items {
		items[k] = append([]dbgen.InvoiceItem(nil), v...)
	}
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.invoices, f.items = invoices, items
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) GetCustomer(_ context.Context, arg dbgen.GetCustomerParams) (dbgen.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[arg.ID]
	if !ok || c.OwnerID != arg.OwnerID {
		return dbgen.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) NextInvoiceNumber(_ context.Context, owner pgtype.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequences[owner]++
	return f.sequences[owner], nil
}

func (f *fakeStore) CreateInvoice(_ context.Context, arg dbgen.CreateInvoiceParams) (dbgen.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := dbgen.Invoice{
		ID:            pgUUID(),
		OwnerID:       arg.OwnerID,
		CustomerID:    arg.CustomerID,
		Number:        arg.Number,
		Status:        arg.Status,
		Currency:      arg.Currency,
		IssueDate:     arg.IssueDate,
		DueDate:       arg.DueDate,
		Notes:         arg.Notes,
		Subtotal:      arg.Subtotal,
		DiscountType:  arg.DiscountType,
		DiscountValue: arg.DiscountValue,
		TaxType:       arg.TaxType,
		TaxValue:      arg.TaxValue,
		ShippingType:  arg.ShippingType,
		ShippingValue: arg.ShippingValue,
		Total:         arg.Total,
		CreatedAt:     now(),
		UpdatedAt:     now(),
	}
	f.invoices[row.ID] = row
	return row, nil
}

func (f *fakeStore) UpdateInvoice(_ context.Context, arg dbgen.UpdateInvoiceParams) (dbgen.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.invoices[arg.ID]
	if !ok || row.OwnerID != arg.OwnerID {
		return dbgen.Invoice{}, pgx.ErrNoRows
	}
	row.CustomerID = arg.CustomerID
	row.Currency = arg.Currency
	row.IssueDate, row.DueDate, row.Notes = arg.IssueDate, arg.DueDate, arg.Notes
	row.Subtotal, row.Total = arg.Subtotal, arg.Total
	row.DiscountType, row.DiscountValue = arg.DiscountType, arg.DiscountValue
	row.TaxType, row.TaxValue = arg.TaxType, arg.TaxValue
	row.ShippingType, row.ShippingValue = arg.ShippingType, arg.ShippingValue
	row.UpdatedAt = now()
	f.invoices[arg.ID] = row
	return row, nil
}

func (f *fakeStore) SetInvoicePaymentLink(_ context.Context, arg dbgen.SetInvoicePaymentLinkParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.invoices[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	row.PaymentLinkUrl = arg.PaymentLinkUrl
	f.invoices[arg.ID] = row
	return nil
}

func (f *fakeStore) SupersedePendingPaymentLinks(_ context.Context, invoiceID pgtype.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.superseded = append(f.superseded, invoiceID)
	return nil
}

func (f *fakeStore) GetInvoice(_ context.Context, arg dbgen.GetInvoiceParams) (dbgen.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.invoices[arg.ID]
	if !ok || row.OwnerID != arg.OwnerID {
		return dbgen.Invoice{}, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeStore) GetInvoiceByID(_ context.Context, id pgtype.UUID) (dbgen.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.invoices[id]
	if !ok {
		return dbgen.Invoice{}, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeStore) filter(owner pgtype.UUID, status pgtype.Text, customer pgtype.UUID) []dbgen.Invoice {
	var out []dbgen.Invoice
	for _, row := range f.invoices {
		if row.OwnerID != owner {
			continue
		}
		if status.Valid && row.Status != status.String {
			continue
		}
		if customer.Valid && row.CustomerID != customer {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out
}

func (f *fakeStore) ListInvoices(_ context.Context, arg dbgen.ListInvoicesParams) ([]dbgen.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.filter(arg.OwnerID, arg.Status, arg.CustomerID)
	start := int(arg.OffsetCount)
	if start > len(rows) {
		return nil, nil
	}
	end := start + int(arg.LimitCount)
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], nil
}

func (f *fakeStore) CountInvoices(_ context.Context, arg dbgen.CountInvoicesParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.filter(arg.OwnerID, arg.Status, arg.CustomerID))), nil
}

func (f *fakeStore) UpdateInvoiceStatus(_ context.Context, arg dbgen.UpdateInvoiceStatusParams) (dbgen.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.invoices[arg.ID]
	if !ok {
		return dbgen.Invoice{}, pgx.ErrNoRows
	}
	row.Status = arg.Status
	switch arg.Status {
	case "sent":
		if !row.SentAt.Valid {
			row.SentAt = now()
		}
	case "paid":
		row.PaidAt = now()
	}
	f.invoices[arg.ID] = row
	return row, nil
}

func (f *fakeStore) DeleteInvoice(_ context.Context, arg dbgen.DeleteInvoiceParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.invoices[arg.ID]
	if !ok || row.OwnerID != arg.OwnerID {
		return 0, nil
	}
	delete(f.invoices, arg.ID)
	delete(f.items, arg.ID)
	return 1, nil
}

func (f *fakeStore) CreateInvoiceItem(_ context.Context, arg dbgen.CreateInvoiceItemParams) (dbgen.InvoiceItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failItemInsert {
		return dbgen.InvoiceItem{}, errors.New("insert failed")
	}
	it := dbgen.InvoiceItem{
		ID:          pgUUID(),
		InvoiceID:   arg.InvoiceID,
		Position:    arg.Position,
		Name:        arg.Name,
		Description: arg.Description,
		Quantity:    arg.Quantity,
		Rate:        arg.Rate,
		Amount:      arg.Amount,
	}
	f.items[arg.InvoiceID] = append(f.items[arg.InvoiceID], it)
	return it, nil
}

func (f *fakeStore) ListInvoiceItems(_ context.Context, invoiceID pgtype.UUID) ([]dbgen.InvoiceItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dbgen.InvoiceItem(nil), f.items[invoiceID]...), nil
}

func (f *fakeStore) DeleteInvoiceItems(_ context.Context, invoiceID pgtype.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, invoiceID)
	return nil
}

func (f *fakeStore) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.InsertDomainEventRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, arg)
	return dbgen.InsertDomainEventRow{ID: pgUUID(), Topic: arg.Topic, AggregateID: arg.AggregateID, Payload: arg.Payload, OccurredAt: now()}, nil
}

func (f *fakeStore) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Topic
	}
	return out
}
