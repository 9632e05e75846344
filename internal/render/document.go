// Package render turns a persisted invoice into the documents customers see:
// the PDF attachment and the delivery email body. Money figures are derived
// from the stored subtotal and adjustment settings, never from line items.
package render

import (
	"fmt"
	"strings"

	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/totals"
)

// Party is the biller or the recipient block.
type Party struct {
	Name  string
	Lines []string
	Email string
}

// Row is one formatted line item.
type Row struct {
	Position    int
	Name        string
	Description string
	Quantity    string
	Rate        string
	Amount      string
}

// SummaryLine is one label/value pair under the item table.
type SummaryLine struct {
	Label string
	Value string
	Total bool
}

// Document is the display model shared by the PDF and email renderers.
type Document struct {
	Number     string
	Status     string
	IssueDate  string
	DueDate    string
	Currency   string
	Biller     Party
	Recipient  Party
	Rows       []Row
	Summary    []SummaryLine
	Notes      string
	Totals     totals.Totals
	TotalText  string
	PaymentURL string
}

// Summarize builds the display model for inv.
func Summarize(inv invoice.Invoice, biller, recipient Party) Document {
	t := totals.FromStored(inv.Totals.Subtotal, inv.Discount, inv.Tax, inv.Shipping)
	money := func(v float64) string { return totals.FormatMoney(v, inv.Currency) }

	doc := Document{
		Number:    inv.Number,
		Status:    strings.ToUpper(string(inv.Status)),
		IssueDate: deref(inv.IssueDate),
		DueDate:   deref(inv.DueDate),
		Currency:  inv.Currency,
		Biller:    biller,
		Recipient: recipient,
		Notes:     deref(inv.Notes),
		Totals:    t,
		TotalText: money(t.Total),
	}
	if inv.PaymentLinkURL != nil {
		doc.PaymentURL = *inv.PaymentLinkURL
	}
	for _, it := range inv.Items {
		doc.Rows = append(doc.Rows, Row{
			Position:    it.Position,
			Name:        it.Name,
			Description: deref(it.Description),
			Quantity:    trimNumber(it.Quantity),
			Rate:        money(it.Rate),
			Amount:      money(totals.ComputeAmount(totals.LineItem{Quantity: it.Quantity, Rate: it.Rate})),
		})
	}

	doc.Summary = append(doc.Summary, SummaryLine{Label: "Subtotal", Value: money(t.Subtotal)})
	if inv.Discount.Value != 0 {
		doc.Summary = append(doc.Summary, SummaryLine{Label: label("Discount", inv.Discount), Value: "-" + money(t.DiscountAmount)})
	}
	if inv.Tax.Value != 0 {
		doc.Summary = append(doc.Summary, SummaryLine{Label: label("Tax", inv.Tax), Value: money(t.TaxAmount)})
	}
	if inv.Shipping.Value != 0 {
		doc.Summary = append(doc.Summary, SummaryLine{Label: label("Shipping", inv.Shipping), Value: money(t.ShippingAmount)})
	}
	doc.Summary = append(doc.Summary, SummaryLine{Label: "Total", Value: doc.TotalText, Total: true})
	return doc
}

func label(name string, adj totals.Adjustment) string {
	if adj.Type == totals.KindPercentage {
		return fmt.Sprintf("%s (%s)", name, totals.FormatPercent(adj.Value))
	}
	return name
}

func trimNumber(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
