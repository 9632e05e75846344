package invoice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
	"github.com/noah-isme/backend-invoice/internal/events"
	"github.com/noah-isme/backend-invoice/internal/obs"
	"github.com/noah-isme/backend-invoice/internal/totals"
)

// Queries is the subset of the generated querier used outside transactions.
type Queries interface {
	GetCustomer(ctx context.Context, arg dbgen.GetCustomerParams) (dbgen.Customer, error)
	GetInvoice(ctx context.Context, arg dbgen.GetInvoiceParams) (dbgen.Invoice, error)
	GetInvoiceByID(ctx context.Context, id pgtype.UUID) (dbgen.Invoice, error)
	ListInvoices(ctx context.Context, arg dbgen.ListInvoicesParams) ([]dbgen.Invoice, error)
	CountInvoices(ctx context.Context, arg dbgen.CountInvoicesParams) (int64, error)
	ListInvoiceItems(ctx context.Context, invoiceID pgtype.UUID) ([]dbgen.InvoiceItem, error)
	UpdateInvoiceStatus(ctx context.Context, arg dbgen.UpdateInvoiceStatusParams) (dbgen.Invoice, error)
	DeleteInvoice(ctx context.Context, arg dbgen.DeleteInvoiceParams) (int64, error)
}

// Store adds transactional execution; db.Store satisfies it.
type Store interface {
	Queries
	ExecTx(ctx context.Context, fn func(dbgen.Querier) error) error
}

// Invalidator drops cached per-owner aggregates after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID string)
}

// Service owns the invoice lifecycle. All money figures it persists come from
// the totals package.
type Service struct {
	Store           Store
	Events          *events.Bus
	Cache           Invalidator
	DefaultCurrency string
}

// ListFilter narrows an invoice listing.
type ListFilter struct {
	Status     Status
	CustomerID string
	Page       int
	PerPage    int
}

type normalized struct {
	items    []totals.LineItem
	discount totals.Adjustment
	tax      totals.Adjustment
	shipping totals.Adjustment
	totals   totals.Totals
	currency string
}

func errLocked(status Status) *common.AppError {
	return common.NewAppError("INVOICE_LOCKED", fmt.Sprintf("invoice is %s and can no longer change", status), http.StatusConflict, nil)
}

// Preview computes the totals for in without persisting anything.
func (s *Service) Preview(in Input) (totals.Totals, []Item, error) {
	n, err := s.normalize(in)
	if err != nil {
		return totals.Totals{}, nil, err
	}
	items := make([]Item, len(n.items))
	for i, it := range n.items {
		items[i] = Item{Position: i + 1, Name: it.Name, Description: it.Description, Quantity: it.Quantity, Rate: it.Rate, Amount: it.Amount}
	}
	return n.totals, items, nil
}

// Create validates in, computes totals and stores the invoice with a fresh
// per-owner number.
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (Invoice, error) {
	owner, err := ownerUUID(ownerID)
	if err != nil {
		return Invoice{}, err
	}
	n, err := s.normalize(in)
	if err != nil {
		return Invoice{}, err
	}
	customerID, err := s.checkCustomer(ctx, owner, in.CustomerID)
	if err != nil {
		return Invoice{}, err
	}

	var (
		row   dbgen.Invoice
		items []dbgen.InvoiceItem
	)
	err = s.Store.ExecTx(ctx, func(q dbgen.Querier) error {
		seq, err := q.NextInvoiceNumber(ctx, owner)
		if err != nil {
			return fmt.Errorf("next invoice number: %w", err)
		}
		row, err = q.CreateInvoice(ctx, dbgen.CreateInvoiceParams{
			OwnerID:       owner,
			CustomerID:    customerID,
			Number:        FormatNumber(seq),
			Status:        string(StatusDraft),
			Currency:      n.currency,
			IssueDate:     optDate(in.IssueDate),
			DueDate:       optDate(in.DueDate),
			Notes:         common.TextPtr(in.Notes),
			Subtotal:      n.totals.Subtotal,
			DiscountType:  string(n.discount.Type),
			DiscountValue: n.discount.Value,
			TaxType:       string(n.tax.Type),
			TaxValue:      n.tax.Value,
			ShippingType:  string(n.shipping.Type),
			ShippingValue: n.shipping.Value,
			Total:         n.totals.Total,
		})
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		items, err = insertItems(ctx, q, row.ID, n.items)
		return err
	})
	if err != nil {
		return Invoice{}, err
	}

	obs.Inc(obs.InvoiceSavedTotal, "create")
	s.afterWrite(ctx, events.TopicInvoiceCreated, row)
	return toInvoice(row, items), nil
}

// Update replaces every writable field and the complete item list. Paid and
// void invoices are refused.
func (s *Service) Update(ctx context.Context, ownerID, id string, in Input) (Invoice, error) {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return Invoice{}, err
	}
	if status := Status(current.Status); status.Locked() {
		return Invoice{}, errLocked(status)
	}
	n, err := s.normalize(in)
	if err != nil {
		return Invoice{}, err
	}
	customerID, err := s.checkCustomer(ctx, current.OwnerID, in.CustomerID)
	if err != nil {
		return Invoice{}, err
	}

	var (
		row   dbgen.Invoice
		items []dbgen.InvoiceItem
	)
	err = s.Store.ExecTx(ctx, func(q dbgen.Querier) error {
		row, err = q.UpdateInvoice(ctx, dbgen.UpdateInvoiceParams{
			ID:            current.ID,
			OwnerID:       current.OwnerID,
			CustomerID:    customerID,
			Currency:      n.currency,
			IssueDate:     optDate(in.IssueDate),
			DueDate:       optDate(in.DueDate),
			Notes:         common.TextPtr(in.Notes),
			Subtotal:      n.totals.Subtotal,
			DiscountType:  string(n.discount.Type),
			DiscountValue: n.discount.Value,
			TaxType:       string(n.tax.Type),
			TaxValue:      n.tax.Value,
			ShippingType:  string(n.shipping.Type),
			ShippingValue: n.shipping.Value,
			Total:         n.totals.Total,
		})
		if err != nil {
			if common.IsNoRows(err) {
				return common.ErrNotFound("invoice")
			}
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := q.DeleteInvoiceItems(ctx, row.ID); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		if items, err = insertItems(ctx, q, row.ID, n.items); err != nil {
			return err
		}
		if totals.MinorUnits(n.totals.Total) == totals.MinorUnits(current.Total) && strings.EqualFold(n.currency, current.Currency) {
			return nil
		}
		// links issued for the old amount must not settle the new one
		if err := q.SupersedePendingPaymentLinks(ctx, row.ID); err != nil {
			return fmt.Errorf("supersede payment links: %w", err)
		}
		if err := q.SetInvoicePaymentLink(ctx, dbgen.SetInvoicePaymentLinkParams{ID: row.ID}); err != nil {
			return fmt.Errorf("clear payment link: %w", err)
		}
		row.PaymentLinkUrl = pgtype.Text{}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}

	obs.Inc(obs.InvoiceSavedTotal, "update")
	s.afterWrite(ctx, events.TopicInvoiceUpdated, row)
	return toInvoice(row, items), nil
}

// Get returns an invoice with its items. Totals are the persisted ones.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Invoice, error) {
	row, err := s.load(ctx, ownerID, id)
	if err != nil {
		return Invoice{}, err
	}
	return s.withItems(ctx, row)
}

// GetByID loads an invoice without owner scoping; used by background work
// that already carries a trusted id.
func (s *Service) GetByID(ctx context.Context, id string) (Invoice, error) {
	uid, err := common.ParseUUID(id)
	if err != nil {
		return Invoice{}, common.ErrNotFound("invoice")
	}
	row, err := s.Store.GetInvoiceByID(ctx, uid)
	if err != nil {
		if common.IsNoRows(err) {
			return Invoice{}, common.ErrNotFound("invoice")
		}
		return Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return s.withItems(ctx, row)
}

// List returns one page of the owner's invoices, newest first.
func (s *Service) List(ctx context.Context, ownerID string, f ListFilter) ([]Summary, int64, error) {
	owner, err := ownerUUID(ownerID)
	if err != nil {
		return nil, 0, err
	}
	var status pgtype.Text
	if f.Status != "" {
		status = pgtype.Text{String: string(f.Status), Valid: true}
	}
	var customerID pgtype.UUID
	if f.CustomerID != "" {
		customerID, err = common.ParseUUID(f.CustomerID)
		if err != nil {
			return nil, 0, common.ErrValidation("invalid customer_id", err).WithDetails(map[string]string{"customer_id": "must be a uuid"})
		}
	}
	total, err := s.Store.CountInvoices(ctx, dbgen.CountInvoicesParams{OwnerID: owner, Status: status, CustomerID: customerID})
	if err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	limit, offset := common.LimitOffset(f.Page, f.PerPage)
	rows, err := s.Store.ListInvoices(ctx, dbgen.ListInvoicesParams{
		OwnerID:     owner,
		Status:      status,
		CustomerID:  customerID,
		LimitCount:  limit,
		OffsetCount: offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return lo.Map(rows, func(r dbgen.Invoice, _ int) Summary { return toSummary(r) }), total, nil
}

// Delete removes an invoice. Paid invoices are kept for the books.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if Status(current.Status) == StatusPaid {
		return errLocked(StatusPaid)
	}
	n, err := s.Store.DeleteInvoice(ctx, dbgen.DeleteInvoiceParams{ID: current.ID, OwnerID: current.OwnerID})
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound("invoice")
	}
	obs.Inc(obs.InvoiceSavedTotal, "delete")
	s.afterWrite(ctx, events.TopicInvoiceDeleted, current)
	return nil
}

// UpdateStatus moves an invoice along the lifecycle. Setting the current
// status again is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, ownerID, id string, to Status) (Invoice, error) {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return Invoice{}, err
	}
	row, err := s.transition(ctx, current, to)
	if err != nil {
		return Invoice{}, err
	}
	return s.withItems(ctx, row)
}

// MarkSent moves a draft to sent; already sent invoices are left alone.
func (s *Service) MarkSent(ctx context.Context, ownerID, id string) (Invoice, error) {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return Invoice{}, err
	}
	if status := Status(current.Status); status.Locked() {
		return Invoice{}, errLocked(status)
	}
	row, err := s.transition(ctx, current, StatusSent)
	if err != nil {
		return Invoice{}, err
	}
	return s.withItems(ctx, row)
}

// MarkPaid settles an invoice on behalf of a payment provider. It returns
// false when the invoice was already paid.
func (s *Service) MarkPaid(ctx context.Context, id pgtype.UUID) (Invoice, bool, error) {
	current, err := s.Store.GetInvoiceByID(ctx, id)
	if err != nil {
		if common.IsNoRows(err) {
			return Invoice{}, false, common.ErrNotFound("invoice")
		}
		return Invoice{}, false, fmt.Errorf("get invoice: %w", err)
	}
	switch Status(current.Status) {
	case StatusPaid:
		inv, err := s.withItems(ctx, current)
		return inv, false, err
	case StatusVoid:
		return Invoice{}, false, errLocked(StatusVoid)
	}
	// a draft that got paid through a shared link skips straight to paid
	row, err := s.setStatus(ctx, current, StatusPaid)
	if err != nil {
		return Invoice{}, false, err
	}
	inv, err := s.withItems(ctx, row)
	return inv, true, err
}

func (s *Service) transition(ctx context.Context, current dbgen.Invoice, to Status) (dbgen.Invoice, error) {
	from := Status(current.Status)
	if from == to {
		return current, nil
	}
	if !CanTransition(from, to) {
		return dbgen.Invoice{}, common.NewAppError("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("cannot move invoice from %s to %s", from, to), http.StatusConflict, nil).
			WithDetails(map[string]string{"from": string(from), "to": string(to)})
	}
	return s.setStatus(ctx, current, to)
}

func (s *Service) setStatus(ctx context.Context, current dbgen.Invoice, to Status) (dbgen.Invoice, error) {
	row, err := s.Store.UpdateInvoiceStatus(ctx, dbgen.UpdateInvoiceStatusParams{Status: string(to), ID: current.ID})
	if err != nil {
		return dbgen.Invoice{}, fmt.Errorf("update invoice status: %w", err)
	}
	obs.Inc(obs.InvoiceSavedTotal, "status_"+string(to))
	s.afterWrite(ctx, statusTopic(to), row)
	return row, nil
}

func statusTopic(to Status) string {
	switch to {
	case StatusSent:
		return events.TopicInvoiceSent
	case StatusPaid:
		return events.TopicInvoicePaid
	case StatusVoid:
		return events.TopicInvoiceVoided
	default:
		return events.TopicInvoiceUpdated
	}
}

// normalize maps client input onto the totals vocabulary, validates it and
// computes the totals that will be persisted.
func (s *Service) normalize(in Input) (normalized, error) {
	var errs []error
	adjust := func(field string, a AdjustmentInput) totals.Adjustment {
		adj, err := totals.ParseAdjustment(field, a.Type, a.Value)
		if err != nil {
			errs = append(errs, err)
		}
		return adj
	}
	n := normalized{
		discount: adjust("discount", in.Discount),
		tax:      adjust("tax", in.Tax),
		shipping: adjust("shipping", in.Shipping),
		currency: strings.ToUpper(strings.TrimSpace(in.Currency)),
	}
	items := lo.Map(in.Items, func(it ItemInput, _ int) totals.LineItem {
		return totals.LineItem{Name: strings.TrimSpace(it.Name), Description: it.Description, Quantity: it.Quantity, Rate: it.Rate}
	})
	for i, it := range items {
		if err := totals.ValidateLineItem(i, it); err != nil {
			errs = append(errs, err)
		}
	}
	if n.currency == "" {
		n.currency = s.DefaultCurrency
	}
	if err := errors.Join(errs...); err != nil {
		obs.Inc(obs.InvoiceValidationFailedTotal, validationReason(err))
		return normalized{}, common.ErrValidation("invoice validation failed", err).WithDetails(totals.FieldErrors(err))
	}
	n.items = totals.Recompute(items)
	n.totals = totals.ComputeTotals(n.items, n.discount, n.tax, n.shipping)
	return n, nil
}

func validationReason(err error) string {
	switch {
	case errors.Is(err, totals.ErrUnknownAdjustmentType):
		return "unknown_adjustment_type"
	case errors.Is(err, totals.ErrInvalidAdjustment):
		return "invalid_adjustment"
	case errors.Is(err, totals.ErrInvalidLineItem):
		return "invalid_line_item"
	default:
		return "other"
	}
}

func (s *Service) checkCustomer(ctx context.Context, owner pgtype.UUID, raw string) (pgtype.UUID, error) {
	invalid := func(reason string) error {
		return common.ErrValidation("invalid customer", nil).WithDetails(map[string]string{"customer_id": reason})
	}
	if strings.TrimSpace(raw) == "" {
		return pgtype.UUID{}, invalid("is required")
	}
	id, err := common.ParseUUID(raw)
	if err != nil {
		return pgtype.UUID{}, invalid("must be a uuid")
	}
	if _, err := s.Store.GetCustomer(ctx, dbgen.GetCustomerParams{ID: id, OwnerID: owner}); err != nil {
		if common.IsNoRows(err) {
			return pgtype.UUID{}, invalid("unknown customer")
		}
		return pgtype.UUID{}, fmt.Errorf("get customer: %w", err)
	}
	return id, nil
}

func (s *Service) load(ctx context.Context, ownerID, id string) (dbgen.Invoice, error) {
	owner, err := ownerUUID(ownerID)
	if err != nil {
		return dbgen.Invoice{}, err
	}
	uid, err := common.ParseUUID(id)
	if err != nil {
		return dbgen.Invoice{}, common.ErrNotFound("invoice")
	}
	row, err := s.Store.GetInvoice(ctx, dbgen.GetInvoiceParams{ID: uid, OwnerID: owner})
	if err != nil {
		if common.IsNoRows(err) {
			return dbgen.Invoice{}, common.ErrNotFound("invoice")
		}
		return dbgen.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return row, nil
}

func (s *Service) withItems(ctx context.Context, row dbgen.Invoice) (Invoice, error) {
	items, err := s.Store.ListInvoiceItems(ctx, row.ID)
	if err != nil {
		return Invoice{}, fmt.Errorf("list invoice items: %w", err)
	}
	return toInvoice(row, items), nil
}

func (s *Service) afterWrite(ctx context.Context, topic string, row dbgen.Invoice) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, common.UUIDString(row.OwnerID))
	}
	s.Events.Publish(ctx, topic, events.Invoice{
		InvoiceID:  common.UUIDString(row.ID),
		OwnerID:    common.UUIDString(row.OwnerID),
		Number:     row.Number,
		Status:     row.Status,
		Total:      row.Total,
		Currency:   row.Currency,
		PaymentURL: row.PaymentLinkUrl.String,
	})
	zerolog.Ctx(ctx).Debug().Str("topic", topic).Str("invoice", row.Number).Msg("invoice written")
}

func insertItems(ctx context.Context, q dbgen.Querier, invoiceID pgtype.UUID, items []totals.LineItem) ([]dbgen.InvoiceItem, error) {
	out := make([]dbgen.InvoiceItem, 0, len(items))
	for i, it := range items {
		row, err := q.CreateInvoiceItem(ctx, dbgen.CreateInvoiceItemParams{
			InvoiceID:   invoiceID,
			Position:    int32(i + 1),
			Name:        it.Name,
			Description: common.TextPtr(it.Description),
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			Amount:      it.Amount,
		})
		if err != nil {
			return nil, fmt.Errorf("create invoice item %d: %w", i+1, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func optDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return common.Date(*t)
}

func ownerUUID(ownerID string) (pgtype.UUID, error) {
	owner, err := common.ParseUUID(ownerID)
	if err != nil {
		return pgtype.UUID{}, common.ErrUnauthorized()
	}
	return owner, nil
}
