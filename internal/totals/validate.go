package totals

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidLineItem marks a line item that cannot be priced.
	ErrInvalidLineItem = errors.New("invalid line item")
	// ErrInvalidAdjustment marks an adjustment with an unusable value.
	ErrInvalidAdjustment = errors.New("invalid adjustment")
	// ErrUnknownAdjustmentType is returned for types outside percentage/fixed.
	ErrUnknownAdjustmentType = errors.New("unknown adjustment type")
)

// ValidationError points at the offending input field.
type ValidationError struct {
	Field  string
	Reason string
	err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.err }

// ValidateLineItem rejects empty names and negative or non-finite numbers.
// Signed credit lines are not supported.
func ValidateLineItem(idx int, item LineItem) error {
	prefix := fmt.Sprintf("items[%d]", idx)
	var errs []error
	if strings.TrimSpace(item.Name) == "" {
		errs = append(errs, itemErr(prefix+".name", "is required"))
	}
	if reason := checkNumber(item.Quantity); reason != "" {
		errs = append(errs, itemErr(prefix+".quantity", reason))
	}
	if reason := checkNumber(item.Rate); reason != "" {
		errs = append(errs, itemErr(prefix+".rate", reason))
	}
	return errors.Join(errs...)
}

// ValidateAdjustment checks the value and kind of a normalised adjustment.
func ValidateAdjustment(field string, adj Adjustment) error {
	if adj.Type != KindPercentage && adj.Type != KindFixed {
		return &ValidationError{Field: field + ".type", Reason: fmt.Sprintf("unknown type %q", adj.Type), err: ErrUnknownAdjustmentType}
	}
	if reason := checkNumber(adj.Value); reason != "" {
		return &ValidationError{Field: field + ".value", Reason: reason, err: ErrInvalidAdjustment}
	}
	return nil
}

// Validate checks every input of ComputeTotals and reports all problems at once.
func Validate(items []LineItem, discount, tax, shipping Adjustment) error {
	var errs []error
	for i, it := range items {
		if err := ValidateLineItem(i, it); err != nil {
			errs = append(errs, err)
		}
	}
	for _, a := range []struct {
		field string
		adj   Adjustment
	}{{"discount", discount}, {"tax", tax}, {"shipping", shipping}} {
		if err := ValidateAdjustment(a.field, a.adj); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FieldErrors flattens a validation error into field -> reason pairs.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	collect(err, out)
	return out
}

func collect(err error, out map[string]string) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			collect(e, out)
		}
		return
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		out[ve.Field] = ve.Reason
	}
}

func itemErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason, err: ErrInvalidLineItem}
}

func checkNumber(v float64) string {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return "must be a finite number"
	case v < 0:
		return "must not be negative"
	}
	return ""
}
