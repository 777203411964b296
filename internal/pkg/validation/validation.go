// Package validation wraps go-playground/validator with the message format
// shared by the backend handlers and the client auth flow.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with required-on-struct semantics enabled.
func New() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// Describe joins the field messages of a validation failure. ok is false
// when err is not a validator.ValidationErrors.
func Describe(err error) (msg string, ok bool) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "", false
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, FieldError(fe))
	}
	return strings.Join(msgs, "; "), true
}

// FieldError converts a single validation failure into a human-readable message.
func FieldError(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, lowerFirst(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
