package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/starterkit/webapp/internal/core/ports"
)

// RBAC admits only callers whose token carries one of roles. It reads the
// claims stored by Auth, so a route without Auth in front is unauthorized
// rather than forbidden.
func RBAC(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsKey).(ports.TokenClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			if !slices.Contains(roles, claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
