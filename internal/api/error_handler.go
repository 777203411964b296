package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Clients
// read "message" first, so it always carries the human-readable text.
type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "...", "code": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message), Code: statusCode(he.Code)}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity, errorResponse{Message: err.Error(), Code: "validation_failed"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Message: "Invalid credentials", Code: "invalid_credentials"}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Message: "Unauthorized", Code: "invalid_token"}
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, errorResponse{Message: "Unauthorized", Code: "token_revoked"}
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, errorResponse{Message: "Invalid refresh token", Code: "invalid_refresh_token"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Message: "Access forbidden", Code: "forbidden"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Message: "User not found", Code: "not_found"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Message: "User already exists", Code: "conflict"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Message: "Internal server error", Code: "internal_error"}
}

// statusCode turns an HTTP status into a snake_case code, e.g. 404 → "not_found".
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
