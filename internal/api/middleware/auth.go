package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/starterkit/webapp/internal/core/ports"
)

// Context keys set by Auth.
const (
	ClaimsKey = "claims"
	RoleKey   = "role"
	UserIDKey = "user_id"
)

// TokenVerifier validates an access token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (ports.TokenClaims, error)
}

// Auth validates the bearer token and injects its claims into the context.
// Verification errors are returned untouched so the HTTP error handler can
// tell an expired token from a revoked one.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := verifier.Verify(c.Request().Context(), parts[1])
			if err != nil {
				return err
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, claims.UserID)
			c.Set(RoleKey, claims.Role)

			return next(c)
		}
	}
}
