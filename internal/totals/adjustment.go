package totals

import (
	"fmt"
	"strings"
)

// Kind selects how an adjustment value is interpreted.
type Kind string

const (
	// KindPercentage scales the base: base * value / 100.
	KindPercentage Kind = "percentage"
	// KindFixed is an absolute money amount independent of the base.
	KindFixed Kind = "fixed"
)

// Adjustment is a discount, tax or shipping setting as stored on an invoice.
type Adjustment struct {
	Type  Kind    `json:"type"`
	Value float64 `json:"value"`
}

// Percentage builds a percentage adjustment.
func Percentage(v float64) Adjustment { return Adjustment{Type: KindPercentage, Value: v} }

// Fixed builds a fixed amount adjustment.
func Fixed(v float64) Adjustment { return Adjustment{Type: KindFixed, Value: v} }

// ParseKind normalises the client vocabularies into a Kind. "amount" is the
// client synonym for fixed. An empty string is accepted only for a zero
// value, where the kind cannot influence the result.
func ParseKind(raw string, value float64) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percentage":
		return KindPercentage, nil
	case "fixed", "amount":
		return KindFixed, nil
	case "":
		if value == 0 {
			return KindFixed, nil
		}
		return "", fmt.Errorf("%w: type is required when value is set", ErrUnknownAdjustmentType)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAdjustmentType, raw)
	}
}

// ParseAdjustment is ParseKind plus value validation.
func ParseAdjustment(field, rawType string, value float64) (Adjustment, error) {
	kind, err := ParseKind(rawType, value)
	if err != nil {
		return Adjustment{}, &ValidationError{Field: field + ".type", Reason: err.Error(), err: err}
	}
	adj := Adjustment{Type: kind, Value: value}
	if err := ValidateAdjustment(field, adj); err != nil {
		return Adjustment{}, err
	}
	return adj, nil
}

func (k Kind) String() string { return string(k) }
