package common

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator. Field names in reported
// errors follow the json tag of the field.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct runs tag validation on req and converts failures into a
// VALIDATION_ERROR whose details map each field path to the failed rule.
func ValidateStruct(req any) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrValidation("invalid request", err)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fieldPath(fe.Namespace())] = ruleMessage(fe)
	}
	return ErrValidation("request validation failed", err).WithDetails(details)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "uuid":
		return "must be a uuid"
	case "datetime":
		return "must match " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
