// Package totals derives invoice money figures from line items and the
// discount, tax and shipping adjustments. Every code path that needs a
// subtotal, an adjustment amount or a grand total goes through this package:
// invoice create, invoice update, previews and the document renderer.
package totals

import "math"

// LineItem is a single billable row on an invoice.
type LineItem struct {
	Name        string
	Description *string
	Quantity    float64
	Rate        float64
	// Amount is derived from Quantity and Rate. Values supplied by callers are
	// treated as stale and never read by the computations below.
	Amount float64
}

// Totals is the itemised breakdown of an invoice.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	ShippingAmount float64 `json:"shipping_amount"`
	Total          float64 `json:"total"`
}

// ComputeAmount returns quantity * rate.
func ComputeAmount(item LineItem) float64 {
	return item.Quantity * item.Rate
}

// ComputeSubtotal sums the item amounts left to right. An empty list yields 0.
func ComputeSubtotal(items []LineItem) float64 {
	var subtotal float64
	for _, it := range items {
		subtotal += ComputeAmount(it)
	}
	return subtotal
}

// ApplyAdjustment resolves an adjustment against base. A zero or NaN value
// contributes nothing whatever its kind. Percentages scale the base, fixed
// values are returned verbatim.
func ApplyAdjustment(base float64, adj Adjustment) float64 {
	if adj.Value == 0 || math.IsNaN(adj.Value) {
		return 0
	}
	if adj.Type == KindPercentage {
		return base * adj.Value / 100
	}
	return adj.Value
}

// ComputeTotals runs the discount -> tax -> shipping cascade. Tax is based on
// the subtotal net of discount; shipping on the discounted subtotal plus tax.
func ComputeTotals(items []LineItem, discount, tax, shipping Adjustment) Totals {
	return cascade(ComputeSubtotal(items), discount, tax, shipping)
}

// FromStored rebuilds the breakdown from a persisted subtotal and the
// persisted adjustment settings. Line items are not consulted.
func FromStored(subtotal float64, discount, tax, shipping Adjustment) Totals {
	return cascade(subtotal, discount, tax, shipping)
}

// Recompute returns copies of items with Amount refreshed from Quantity and
// Rate. The input slice is not modified.
func Recompute(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		it.Amount = ComputeAmount(it)
		out[i] = it
	}
	return out
}

func cascade(subtotal float64, discount, tax, shipping Adjustment) Totals {
	discountAmount := ApplyAdjustment(subtotal, discount)
	taxAmount := ApplyAdjustment(subtotal-discountAmount, tax)
	shippingAmount := ApplyAdjustment(subtotal-discountAmount+taxAmount, shipping)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		ShippingAmount: shippingAmount,
		Total:          subtotal - discountAmount + taxAmount + shippingAmount,
	}
}
