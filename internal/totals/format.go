package totals

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to two decimals. Only presentation code
// calls it; computed and persisted figures keep full precision.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatMoney renders v with two decimals and an optional currency prefix.
func FormatMoney(v float64, currency string) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return s
	}
	if sym, ok := symbols[strings.ToUpper(currency)]; ok {
		if strings.HasPrefix(s, "-") {
			return "-" + sym + s[1:]
		}
		return sym + s
	}
	return strings.ToUpper(currency) + " " + s
}

// FormatPercent renders a percentage value without trailing zeros.
func FormatPercent(v float64) string {
	return decimal.NewFromFloat(v).Round(4).String() + "%"
}

// MinorUnits converts an amount into integer cents, rounding half up.
func MinorUnits(v float64) int64 {
	return decimal.NewFromFloat(v).Round(2).Shift(2).IntPart()
}

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "CA$",
	"AUD": "A$",
}
