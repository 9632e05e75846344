package invoice

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
	"github.com/noah-isme/backend-invoice/internal/totals"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
	StatusVoid  Status = "void"
)

var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusVoid},
	StatusSent:  {StatusPaid, StatusVoid, StatusDraft},
}

// CanTransition reports whether an invoice may move from one status to another.
// Paid and void invoices are terminal.
func CanTransition(from, to Status) bool {
	return lo.Contains(transitions[from], to)
}

// Locked reports whether the invoice content can no longer change.
func (s Status) Locked() bool {
	return s == StatusPaid || s == StatusVoid
}

// ParseStatus validates a client supplied status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusVoid:
		return s, true
	}
	return "", false
}

// FormatNumber renders a per-owner sequence value as an invoice number.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("INV-%05d", seq)
}

const dateLayout = "2006-01-02"

// Item is a persisted line item.
type Item struct {
	ID          string  `json:"id"`
	Position    int     `json:"position"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// Invoice is the API view of an invoice with its items.
type Invoice struct {
	ID             string            `json:"id"`
	OwnerID        string            `json:"owner_id"`
	CustomerID     string            `json:"customer_id"`
	Number         string            `json:"number"`
	Status         Status            `json:"status"`
	Currency       string            `json:"currency"`
	IssueDate      *string           `json:"issue_date"`
	DueDate        *string           `json:"due_date"`
	Notes          *string           `json:"notes"`
	Items          []Item            `json:"items"`
	Discount       totals.Adjustment `json:"discount"`
	Tax            totals.Adjustment `json:"tax"`
	Shipping       totals.Adjustment `json:"shipping"`
	Totals         totals.Totals     `json:"totals"`
	PaymentLinkURL *string           `json:"payment_link_url"`
	SentAt         *time.Time        `json:"sent_at"`
	PaidAt         *time.Time        `json:"paid_at"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Summary is the list view; items are omitted.
type Summary struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Number     string    `json:"number"`
	Status     Status    `json:"status"`
	Currency   string    `json:"currency"`
	IssueDate  *string   `json:"issue_date"`
	DueDate    *string   `json:"due_date"`
	Subtotal   float64   `json:"subtotal"`
	Total      float64   `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
}

// ItemInput is a line item as submitted by a client. Amount is accepted for
// compatibility but always recomputed.
type ItemInput struct {
	Name        string
	Description *string
	Quantity    float64
	Rate        float64
	Amount      float64
}

// AdjustmentInput carries the client vocabulary for an adjustment type.
type AdjustmentInput struct {
	Type  string
	Value float64
}

// Input holds the writable invoice fields. Updates replace every field,
// including the complete item list.
type Input struct {
	CustomerID string
	Currency   string
	IssueDate  *time.Time
	DueDate    *time.Time
	Notes      *string
	Items      []ItemInput
	Discount   AdjustmentInput
	Tax        AdjustmentInput
	Shipping   AdjustmentInput
}

// StoredAdjustments returns the persisted discount, tax and shipping settings of row.
func StoredAdjustments(row dbgen.Invoice) (discount, tax, shipping totals.Adjustment) {
	return totals.Adjustment{Type: totals.Kind(row.DiscountType), Value: row.DiscountValue},
		totals.Adjustment{Type: totals.Kind(row.TaxType), Value: row.TaxValue},
		totals.Adjustment{Type: totals.Kind(row.ShippingType), Value: row.ShippingValue}
}

// storedTotals rebuilds the breakdown from the persisted subtotal. The
// persisted grand total is reported as is.
func storedTotals(row dbgen.Invoice) totals.Totals {
	d, t, s := StoredAdjustments(row)
	out := totals.FromStored(row.Subtotal, d, t, s)
	out.Total = row.Total
	return out
}

func toInvoice(row dbgen.Invoice, items []dbgen.InvoiceItem) Invoice {
	d, t, s := StoredAdjustments(row)
	return Invoice{
		ID:             common.UUIDString(row.ID),
		OwnerID:        common.UUIDString(row.OwnerID),
		CustomerID:     common.UUIDString(row.CustomerID),
		Number:         row.Number,
		Status:         Status(row.Status),
		Currency:       row.Currency,
		IssueDate:      formatDate(common.DateValuePtr(row.IssueDate)),
		DueDate:        formatDate(common.DateValuePtr(row.DueDate)),
		Notes:          common.TextValuePtr(row.Notes),
		Items:          lo.Map(items, func(it dbgen.InvoiceItem, _ int) Item { return toItem(it) }),
		Discount:       d,
		Tax:            t,
		Shipping:       s,
		Totals:         storedTotals(row),
		PaymentLinkURL: common.TextValuePtr(row.PaymentLinkUrl),
		SentAt:         common.TimeValuePtr(row.SentAt),
		PaidAt:         common.TimeValuePtr(row.PaidAt),
		CreatedAt:      common.TimeValue(row.CreatedAt),
		UpdatedAt:      common.TimeValue(row.UpdatedAt),
	}
}

func toSummary(row dbgen.Invoice) Summary {
	return Summary{
		ID:         common.UUIDString(row.ID),
		CustomerID: common.UUIDString(row.CustomerID),
		Number:     row.Number,
		Status:     Status(row.Status),
		Currency:   row.Currency,
		IssueDate:  formatDate(common.DateValuePtr(row.IssueDate)),
		DueDate:    formatDate(common.DateValuePtr(row.DueDate)),
		Subtotal:   row.Subtotal,
		Total:      row.Total,
		CreatedAt:  common.TimeValue(row.CreatedAt),
	}
}

func toItem(it dbgen.InvoiceItem) Item {
	return Item{
		ID:          common.UUIDString(it.ID),
		Position:    int(it.Position),
		Name:        it.Name,
		Description: common.TextValuePtr(it.Description),
		Quantity:    it.Quantity,
		Rate:        it.Rate,
		Amount:      it.Amount,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// ParseDate parses an optional YYYY-MM-DD date.
func ParseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
