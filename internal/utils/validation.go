package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so clients see what they sent
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate validates a struct using the validator
func Validate(s any) error {
	return validate.Struct(s)
}

// ValidateEach validates every element of a slice and prefixes field errors
// with the element position, e.g. "[3].name".
func ValidateEach[T any](items []T) map[string]string {
	details := make(map[string]string)
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			for field, msg := range FormatValidationErrors(err) {
				details[fmt.Sprintf("[%d].%s", i, field)] = msg
			}
		}
	}
	return details
}

// FormatValidationErrors formats validation errors for API response
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errs[field] = "This field is required"
			case "min":
				errs[field] = "Value is too small"
			case "max":
				errs[field] = "Value is too large"
			default:
				errs[field] = "Invalid value"
			}
		}
	}

	return errs
}

// SanitizeString removes potentially dangerous characters from a string
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	return s
}

// ValidationError carries per-field messages for a rejected payload
type ValidationError struct {
	Details map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Details))
}

// ValidationFailure wraps a validator error, or returns nil when err is nil
func ValidationFailure(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Details: FormatValidationErrors(err)}
}
