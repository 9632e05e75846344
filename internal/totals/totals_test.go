package totals

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func scenarioItems() []LineItem {
	return []LineItem{{Name: "Consulting", Quantity: 2, Rate: 50}}
}

func TestComputeTotalsEmptyItems(t *testing.T) {
	got := ComputeTotals(nil, Percentage(0), Fixed(0), Fixed(0))
	require.Equal(t, Totals{}, got)

	got = ComputeTotals([]LineItem{}, Percentage(10), Percentage(10), Percentage(10))
	require.Zero(t, got.Subtotal)
	require.Zero(t, got.Total)
}

func TestComputeSubtotalMatchesSumOfAmounts(t *testing.T) {
	items := []LineItem{
		{Name: "a", Quantity: 3, Rate: 19.99},
		{Name: "b", Quantity: 0.5, Rate: 120},
		{Name: "c", Quantity: 7, Rate: 0.1},
	}
	var want float64
	for _, it := range items {
		want += it.Quantity * it.Rate
	}
	require.Equal(t, want, ComputeSubtotal(items))
}

func TestComputeAmountIgnoresStaleAmount(t *testing.T) {
	item := LineItem{Name: "x", Quantity: 4, Rate: 2.5, Amount: 999}
	require.Equal(t, 10.0, ComputeAmount(item))
	require.Equal(t, 10.0, ComputeSubtotal([]LineItem{item}))
}

func TestApplyAdjustmentZeroGuard(t *testing.T) {
	for _, adj := range []Adjustment{Percentage(0), Fixed(0), {Type: KindPercentage, Value: math.NaN()}, {}} {
		require.Zero(t, ApplyAdjustment(1234.5, adj))
	}
}

func TestApplyAdjustmentPercentage(t *testing.T) {
	require.Equal(t, 10.0, ApplyAdjustment(100, Percentage(10)))
	require.Equal(t, 25.0, ApplyAdjustment(200, Percentage(12.5)))
}

func TestApplyAdjustmentFixedIgnoresBase(t *testing.T) {
	require.Equal(t, 10.0, ApplyAdjustment(100, Fixed(10)))
	require.Equal(t, 10.0, ApplyAdjustment(5000, Fixed(10)))
	require.Equal(t, 10.0, ApplyAdjustment(0, Fixed(10)))
}

func TestComputeTotalsCascade(t *testing.T) {
	got := ComputeTotals(scenarioItems(), Percentage(10), Percentage(10), Fixed(5))
	require.Equal(t, Totals{
		Subtotal:       100,
		DiscountAmount: 10,
		TaxAmount:      9,
		ShippingAmount: 5,
		Total:          104,
	}, got)
}

func TestComputeTotalsShippingPercentUsesTaxedBase(t *testing.T) {
	got := ComputeTotals(scenarioItems(), Percentage(10), Percentage(10), Percentage(10))
	require.InDelta(t, 9.9, got.ShippingAmount, 1e-9)
	require.InDelta(t, 108.9, got.Total, 1e-9)
}

func TestComputeTotalsTaxBaseIsNetOfDiscount(t *testing.T) {
	// taxing the raw subtotal would give 100 - 10 + 10 + 5
	subtotal := 100.0
	discount := ApplyAdjustment(subtotal, Percentage(10))
	rawBaseTax := ApplyAdjustment(subtotal, Percentage(10))
	alternative := subtotal - discount + rawBaseTax + 5

	got := ComputeTotals(scenarioItems(), Percentage(10), Percentage(10), Fixed(5))
	require.Equal(t, 105.0, alternative)
	require.NotEqual(t, alternative, got.Total)
	require.Equal(t, 104.0, got.Total)

	// a fixed discount followed by a percentage tax is not the same as the reverse
	fixedFirst := ComputeTotals(scenarioItems(), Fixed(20), Percentage(10), Fixed(0))
	taxFirst := subtotal + ApplyAdjustment(subtotal, Percentage(10)) - 20
	require.Equal(t, 88.0, fixedFirst.Total)
	require.NotEqual(t, taxFirst, fixedFirst.Total)
}

func TestComputeTotalsIdempotent(t *testing.T) {
	items := []LineItem{{Name: "a", Quantity: 3, Rate: 0.1}, {Name: "b", Quantity: 1, Rate: 0.2}}
	d, tx, s := Percentage(7.5), Percentage(8.25), Fixed(3.3)
	first := ComputeTotals(items, d, tx, s)
	second := ComputeTotals(items, d, tx, s)
	require.Equal(t, math.Float64bits(first.Total), math.Float64bits(second.Total))
	require.Equal(t, first, second)
	require.Equal(t, []LineItem{{Name: "a", Quantity: 3, Rate: 0.1}, {Name: "b", Quantity: 1, Rate: 0.2}}, items)
}

func TestComputeTotalsConcurrent(t *testing.T) {
	want := ComputeTotals(scenarioItems(), Percentage(10), Percentage(10), Fixed(5))
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.Equal(t, want, ComputeTotals(scenarioItems(), Percentage(10), Percentage(10), Fixed(5)))
		}()
	}
	wg.Wait()
}

func TestFromStoredMatchesComputeTotals(t *testing.T) {
	cases := []struct {
		name              string
		items             []LineItem
		disc, tax, shipng Adjustment
	}{
		{"scenario", scenarioItems(), Percentage(10), Percentage(10), Fixed(5)},
		{"fixed discount", scenarioItems(), Fixed(15), Percentage(20), Percentage(2)},
		{"fractions", []LineItem{{Name: "a", Quantity: 3, Rate: 33.333}, {Name: "b", Quantity: 0.75, Rate: 19.99}}, Percentage(12.5), Percentage(8.875), Fixed(4.99)},
		{"no adjustments", []LineItem{{Name: "a", Quantity: 1, Rate: 0.1}}, Fixed(0), Percentage(0), Fixed(0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			created := ComputeTotals(tc.items, tc.disc, tc.tax, tc.shipng)
			rendered := FromStored(created.Subtotal, tc.disc, tc.tax, tc.shipng)
			require.Equal(t, created, rendered)
			require.Equal(t, Round2(created.Total), Round2(rendered.Total))
		})
	}
}

func TestRecompute(t *testing.T) {
	in := []LineItem{{Name: "a", Quantity: 2, Rate: 3, Amount: 1}}
	out := Recompute(in)
	require.Equal(t, 6.0, out[0].Amount)
	require.Equal(t, 1.0, in[0].Amount)
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"percentage": KindPercentage,
		"Percentage": KindPercentage,
		"fixed":      KindFixed,
		" amount ":   KindFixed,
		"AMOUNT":     KindFixed,
	}
	for raw, want := range cases {
		got, err := ParseKind(raw, 1)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}

	got, err := ParseKind("", 0)
	require.NoError(t, err)
	require.Equal(t, KindFixed, got)

	_, err = ParseKind("", 5)
	require.ErrorIs(t, err, ErrUnknownAdjustmentType)

	for _, raw := range []string{"bogus", "percent", "pct", "%"} {
		_, err = ParseKind(raw, 5)
		require.ErrorIs(t, err, ErrUnknownAdjustmentType, raw)
	}
}

func TestParseAdjustmentRejectsNegative(t *testing.T) {
	_, err := ParseAdjustment("discount", "amount", -1)
	require.ErrorIs(t, err, ErrInvalidAdjustment)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "discount.value", ve.Field)

	adj, err := ParseAdjustment("tax", "amount", 3)
	require.NoError(t, err)
	require.Equal(t, Fixed(3), adj)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	items := []LineItem{
		{Name: "", Quantity: 1, Rate: 1},
		{Name: "ok", Quantity: -1, Rate: math.Inf(1)},
	}
	err := Validate(items, Percentage(math.NaN()), Adjustment{Type: "bogus", Value: 1}, Fixed(0))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidLineItem)
	require.ErrorIs(t, err, ErrInvalidAdjustment)
	require.ErrorIs(t, err, ErrUnknownAdjustmentType)

	fields := FieldErrors(err)
	require.Equal(t, "is required", fields["items[0].name"])
	require.Equal(t, "must not be negative", fields["items[1].quantity"])
	require.Equal(t, "must be a finite number", fields["items[1].rate"])
	require.Contains(t, fields, "discount.value")
	require.Contains(t, fields, "tax.type")
	require.NotContains(t, fields, "shipping.value")
}

func TestValidateAcceptsEmptyAndZero(t *testing.T) {
	require.NoError(t, Validate(nil, Fixed(0), Percentage(0), Fixed(0)))
	require.NoError(t, Validate([]LineItem{{Name: "free", Quantity: 0, Rate: 0}}, Fixed(0), Fixed(0), Fixed(0)))
}

func TestFormatting(t *testing.T) {
	require.Equal(t, 0.3, Round2(0.1+0.2))
	require.Equal(t, 1.01, Round2(1.005))
	require.Equal(t, "$104.00", FormatMoney(104, "usd"))
	require.Equal(t, "IDR 1500.50", FormatMoney(1500.5, "IDR"))
	require.Equal(t, "9.90", FormatMoney(9.9, ""))
	require.Equal(t, "10%", FormatPercent(10))
	require.Equal(t, "8.875%", FormatPercent(8.875))
	require.Equal(t, int64(10400), MinorUnits(104))
	require.Equal(t, int64(1999), MinorUnits(19.99))
}
