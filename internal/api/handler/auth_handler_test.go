package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/starterkit/webapp/internal/api/middleware"
	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
)

type stubAuthService struct {
	loginFn    func(ctx context.Context, in domain.LoginCredentials) (*domain.AuthResult, error)
	registerFn func(ctx context.Context, in domain.Registration) (*domain.AuthResult, error)
	meFn       func(ctx context.Context, userID string) (*domain.Identity, error)
	logoutFn   func(ctx context.Context, claims ports.TokenClaims) error
	refreshFn  func(ctx context.Context, token string) (*domain.AuthResult, error)
}

func (s *stubAuthService) Login(ctx context.Context, in domain.LoginCredentials) (*domain.AuthResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) Register(ctx context.Context, in domain.Registration) (*domain.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.Identity, error) {
	return s.meFn(ctx, userID)
}

func (s *stubAuthService) Logout(ctx context.Context, claims ports.TokenClaims) error {
	return s.logoutFn(ctx, claims)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (*domain.AuthResult, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Verify(context.Context, string) (ports.TokenClaims, error) {
	return ports.TokenClaims{}, errors.New("not used")
}

var testUser = domain.Identity{ID: "1", Email: "test@example.com", Name: "Test User", Role: domain.RoleUser}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, in domain.LoginCredentials) (*domain.AuthResult, error) {
			if in.Email != "test@example.com" || in.Password != "password" {
				t.Fatalf("unexpected args: %+v", in)
			}
			return &domain.AuthResult{User: testUser, Token: "t", RefreshToken: "r"}, nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/api/auth/login", `{"email":"test@example.com","password":"password"}`)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp domain.AuthResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.User != testUser || resp.Token != "t" || resp.RefreshToken != "r" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Login_ValidationFailsBeforeService(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, domain.LoginCredentials) (*domain.AuthResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	c, _ := newTestContext(http.MethodPost, "/api/auth/login", `{"email":"not-an-email","password":"short"}`)

	err := NewAuthHandler(stub).Login(c)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "email must be a valid email") {
		t.Fatalf("expected field message, got %q", err.Error())
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	c, _ := newTestContext(http.MethodPost, "/api/auth/login", `{`)

	err := NewAuthHandler(&stubAuthService{}).Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Register_Created(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in domain.Registration) (*domain.AuthResult, error) {
			return &domain.AuthResult{
				User:  domain.Identity{ID: "2", Email: in.Email, Name: in.Name, Role: domain.RoleUser},
				Token: "t",
			}, nil
		},
	}
	body := `{"name":"Jane","email":"jane@example.com","password":"password1","confirmPassword":"password1","acceptTerms":true}`
	c, rec := newTestContext(http.MethodPost, "/api/auth/register", body)

	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_RejectsMismatchAndTerms(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, domain.Registration) (*domain.AuthResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	body := `{"name":"Jane","email":"jane@example.com","password":"password1","confirmPassword":"password2","acceptTerms":false}`
	c, _ := newTestContext(http.MethodPost, "/api/auth/register", body)

	err := NewAuthHandler(stub).Register(c)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	for _, want := range []string{"confirmPassword must match password", "acceptTerms is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestAuthHandler_Register_PropagatesConflict(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, domain.Registration) (*domain.AuthResult, error) {
			return nil, domain.ErrUserExists
		},
	}
	body := `{"name":"Jane","email":"jane@example.com","password":"password1","confirmPassword":"password1","acceptTerms":true}`
	c, _ := newTestContext(http.MethodPost, "/api/auth/register", body)

	if err := NewAuthHandler(stub).Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	stub := &stubAuthService{
		meFn: func(_ context.Context, userID string) (*domain.Identity, error) {
			if userID != "1" {
				return nil, domain.ErrUserNotFound
			}
			u := testUser
			return &u, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodGet, "/api/auth/me", "")
	c.Set(middleware.ClaimsKey, ports.TokenClaims{UserID: "1"})
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// A token whose account was deleted is no longer valid.
	c, _ = newTestContext(http.MethodGet, "/api/auth/me", "")
	c.Set(middleware.ClaimsKey, ports.TokenClaims{UserID: "gone"})
	if err := h.Me(c); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	c, _ = newTestContext(http.MethodGet, "/api/auth/me", "")
	var he *echo.HTTPError
	if err := h.Me(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	var revoked string
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, claims ports.TokenClaims) error {
			revoked = claims.TokenID
			return nil
		},
	}
	c, rec := newTestContext(http.MethodDelete, "/api/auth/logout", "")
	c.Set(middleware.ClaimsKey, ports.TokenClaims{UserID: "1", TokenID: "jti-1"})

	if err := NewAuthHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if revoked != "jti-1" {
		t.Fatalf("expected jti-1 revoked, got %q", revoked)
	}
	if !strings.Contains(rec.Body.String(), "Logged out successfully") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(_ context.Context, token string) (*domain.AuthResult, error) {
			if token != "r1" {
				return nil, domain.ErrInvalidRefreshToken
			}
			return &domain.AuthResult{User: testUser, Token: "t2", RefreshToken: "r2"}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/api/auth/refresh-token", `{"refreshToken":"r1"}`)
	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"refreshToken":"r2"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	c, _ = newTestContext(http.MethodPost, "/api/auth/refresh-token", `{}`)
	if err := h.Refresh(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a missing token, got %v", err)
	}
}
