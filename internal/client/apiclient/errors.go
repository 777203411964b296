package apiclient

import (
	"errors"
	"fmt"
)

// Error codes produced by the client itself rather than the server.
const (
	CodeShapeMismatch    = "shape_mismatch"
	CodeNetwork          = "network_error"
	CodeValidation       = "validation_failed"
	CodeNotAuthenticated = "not_authenticated"
	CodeNoRefreshToken   = "no_refresh_token"
)

const fallbackMessage = "An unexpected error occurred"

// Error is the only error type the gateway and the auth flow return.
// Status is 0 for failures detected before any request was sent.
type Error struct {
	Status  int
	Message string
	Code    string
	// LoginRequired is set when the server rejected the bearer credential.
	// Callers decide how to reach the login page.
	LoginRequired bool

	err error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Local builds an Error for a failure detected without a network call.
func Local(code, message string) *Error {
	return &Error{Message: message, Code: code}
}

// AsError returns err as an *Error, wrapping foreign errors with status 500.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Status: 500, Message: err.Error(), err: err}
}

// StatusOf reports the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// LoginRequired reports whether err asks for a fresh sign-in.
func LoginRequired(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.LoginRequired
}

// messageFrom picks the first non-empty string among the known message
// fields of an error body.
func messageFrom(body map[string]any) string {
	for _, key := range []string{"message", "error", "details"} {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}
	return fallbackMessage
}
