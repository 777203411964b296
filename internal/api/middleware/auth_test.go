package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
)

type stubVerifier struct {
	claims ports.TokenClaims
	err    error
	got    string
}

func (s *stubVerifier) Verify(_ context.Context, token string) (ports.TokenClaims, error) {
	s.got = token
	return s.claims, s.err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	verifier := &stubVerifier{claims: ports.TokenClaims{UserID: "1", Email: "test@example.com", Role: "admin", TokenID: "jti-1"}}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer signed-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(verifier)(func(c echo.Context) error {
		called = true
		if c.Get(UserIDKey) != "1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(RoleKey) != "admin" {
			t.Fatalf("role not set")
		}
		claims, ok := c.Get(ClaimsKey).(ports.TokenClaims)
		if !ok || claims.TokenID != "jti-1" {
			t.Fatalf("claims not set: %+v", c.Get(ClaimsKey))
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if verifier.got != "signed-token" {
		t.Fatalf("verifier got %q", verifier.got)
	}
}

func TestAuthMiddleware_RejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "wrong scheme", header: "Token abc"},
		{name: "empty token", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := Auth(&stubVerifier{})(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_PropagatesVerifyError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer revoked")
	c := e.NewContext(req, httptest.NewRecorder())

	handler := Auth(&stubVerifier{err: domain.ErrTokenRevoked})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}
