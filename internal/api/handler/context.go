package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/starterkit/webapp/internal/api/middleware"
	"github.com/starterkit/webapp/internal/core/ports"
)

// ctxClaims extracts the token claims injected by the Auth middleware.
// A missing subject means the middleware did not run for this route.
func ctxClaims(c echo.Context) (ports.TokenClaims, error) {
	claims, ok := c.Get(middleware.ClaimsKey).(ports.TokenClaims)
	if !ok || claims.UserID == "" {
		return ports.TokenClaims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}
