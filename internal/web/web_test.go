package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/api"
	"github.com/starterkit/webapp/internal/client/apiclient"
	"github.com/starterkit/webapp/internal/core/ports"
	"github.com/starterkit/webapp/internal/core/service"
	"github.com/starterkit/webapp/internal/infrastructure/db/memory"
)

// newSite starts the backend in mock mode and the front server in front of it.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	users := memory.NewUserRepository()
	if err := memory.Seed(context.Background(), users, append(memory.DefaultSeed, memory.SeedUser{
		ID: "9", Email: "admin@example.com", Name: "Admin", Password: "adminpass", Role: "admin",
	})); err != nil {
		t.Fatalf("seed: %v", err)
	}
	backend := httptest.NewServer(api.NewRouter(api.Deps{
		Auth:     service.NewAuthService(users, memory.NewTokenStore(), nil, service.AuthOptions{JWTSecret: "s"}, zerolog.Nop()),
		Users:    service.NewUserService(users),
		Log:      zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	}))
	t.Cleanup(backend.Close)

	kv := memory.NewKVStore()
	front := httptest.NewServer(NewRouter(Deps{
		API:         apiclient.Options{BaseURL: backend.URL + api.BasePath, Log: zerolog.Nop()},
		Credentials: func(id string) ports.KeyValueStore { return kv.Scoped(id) },
		Cookies:     NewCookieStore("test-session-key-0123456789abcdef"),
		Log:         zerolog.Nop(),
		Registry:    prometheus.NewRegistry(),
	}))
	t.Cleanup(front.Close)
	return front
}

// newBrowser returns a client that keeps cookies and does not follow redirects.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, b *http.Client, u string) (*http.Response, page) {
	t.Helper()
	resp, err := b.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	return resp, decode(t, resp)
}

func post(t *testing.T, b *http.Client, u string, form url.Values) (*http.Response, page) {
	t.Helper()
	resp, err := b.PostForm(u, form)
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) page {
	t.Helper()
	defer resp.Body.Close()
	var p page
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			t.Fatalf("decode page: %v", err)
		}
	}
	return p
}

func signIn(t *testing.T, site *httptest.Server, b *http.Client, email, password string) {
	t.Helper()
	resp, _ := post(t, b, site.URL+"/auth/login", url.Values{"email": {email}, "password": {password}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login %s: expected 303, got %d", email, resp.StatusCode)
	}
}

func TestDashboard_RedirectsAnonymousVisitor(t *testing.T) {
	site := newSite(t)
	b := newBrowser(t)

	resp, _ := get(t, b, site.URL+"/dashboard")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/auth/login?from=%2Fdashboard" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestLogin_ReturnsToRequestedPage(t *testing.T) {
	site := newSite(t)
	b := newBrowser(t)

	resp, _ := post(t, b, site.URL+"/auth/login", url.Values{
		"email":    {"test@example.com"},
		"password": {"password"},
		"from":     {"/dashboard?tab=profile"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/dashboard?tab=profile" {
		t.Fatalf("unexpected location %q", loc)
	}

	resp, p := get(t, b, site.URL+"/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if p.Page != "dashboard" || p.User == nil || p.User.Email != "test@example.com" {
		t.Fatalf("unexpected page: %+v", p)
	}
}

func TestLogin_RejectsForeignReturnPath(t *testing.T) {
	site := newSite(t)
	b := newBrowser(t)

	resp, _ := post(t, b, site.URL+"/auth/login", url.Values{
		"email":    {"test@example.com"},
		"password": {"password"},
		"from":     {"https://evil.example/phish"},
	})
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected /dashboard, got %q", loc)
	}
}

func TestLogin_Failures(t *testing.T) {
	site := newSite(t)
	b := newBrowser(t)

	resp, p := post(t, b, site.URL+"/auth/login", url.Values{"email": {"test@example.com"}, "password": {"wrongpass"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if p.Page != "login" || p.Error == nil || p.Error.Message != "Invalid credentials" {
		t.Fatalf("unexpected page: %+v", p)
	}

	resp, p = post(t, b, site.URL+"/auth/login", url.Values{"email": {"nope"}, "password": {"password"}})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if p.Error == nil || p.Error.Code != apiclient.CodeValidation {
		t.Fatalf("expected validation error, got %+v", p.Error)
	}
}

func TestRegister_SignsIn(t *testing.T) {
	site := newSite(t)
	b := newBrowser(t)

	resp, _ := post(t, b, site.URL+"/auth/register", url.Values{
		"name":            {"New Person"},
		"email":           {"new@example.com"},
		"password":        {"longenough"},
		"confirmPassword": {"longenough"},
		"acceptTerms":     {"true"},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("expected 303 to /dashboard, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	_, p := get(t, b, site.URL+"/dashboard")
	if p.User == nil || p.User.Name != "New Person" || p.User.Role != "user" {
		t.Fatalf("unexpected user: %+v", p.User)
	}

	resp, p = post(t, b, site.URL+"/auth/register", url.Values{
		"name":            {"Again"},
		"email":           {"new@example.com"},
		"password":        {"longenough"},
		"confirmPassword": {"longenough"},
		"acceptTerms":     {"true"},
	})
	if resp.StatusCode != http.StatusConflict || p.Error == nil {
		t.Fatalf("expected 409 with error, got %d %+v", resp.StatusCode, p.Error)
	}
}

func TestLogout_EndsSession(t *testing.T) {
	site := newSite(t)
	b := newBrowser(t)
	signIn(t, site, b, "test@example.com", "password")

	resp, _ := post(t, b, site.URL+"/auth/logout", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/auth/login" {
		t.Fatalf("expected 303 to /auth/login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = get(t, b, site.URL+"/dashboard")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", resp.StatusCode)
	}
}

func TestBrowsersAreIsolated(t *testing.T) {
	site := newSite(t)
	alice := newBrowser(t)
	signIn(t, site, alice, "test@example.com", "password")

	resp, _ := get(t, newBrowser(t), site.URL+"/dashboard")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("second browser should be anonymous, got %d", resp.StatusCode)
	}
	resp, _ = get(t, alice, site.URL+"/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first browser should stay signed in, got %d", resp.StatusCode)
	}
}

func TestUsersPage(t *testing.T) {
	site := newSite(t)

	member := newBrowser(t)
	signIn(t, site, member, "test@example.com", "password")
	resp, p := get(t, member, site.URL+"/dashboard/users")
	if resp.StatusCode != http.StatusForbidden || p.Error == nil {
		t.Fatalf("expected 403 for non-admin, got %d %+v", resp.StatusCode, p)
	}

	admin := newBrowser(t)
	signIn(t, site, admin, "admin@example.com", "adminpass")
	resp, p = get(t, admin, site.URL+"/dashboard/users")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if p.Users == nil || p.Users.Meta.Total != 2 || len(p.Users.Data) != 2 {
		t.Fatalf("unexpected users page: %+v", p.Users)
	}

	for _, q := range []string{"page=abc", "page=-1"} {
		resp, p = get(t, admin, site.URL+"/dashboard/users?"+q)
		if resp.StatusCode != http.StatusBadRequest || p.Error == nil || p.Error.Code != apiclient.CodeValidation {
			t.Fatalf("%s: expected 400 validation page, got %d %+v", q, resp.StatusCode, p.Error)
		}
	}
}

func TestStaticRoutes(t *testing.T) {
	site := newSite(t)
	b := newBrowser(t)

	resp, _ := get(t, b, site.URL+"/auth")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/auth/login" {
		t.Fatalf("expected /auth to redirect to login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, p := get(t, b, site.URL+"/auth/login?from=%2Fdashboard")
	if resp.StatusCode != http.StatusOK || p.Page != "login" || p.From != "/dashboard" {
		t.Fatalf("unexpected login page: %d %+v", resp.StatusCode, p)
	}

	resp, p = get(t, b, site.URL+"/")
	if resp.StatusCode != http.StatusOK || p.Page != "home" || p.User != nil {
		t.Fatalf("unexpected home page: %d %+v", resp.StatusCode, p)
	}

	resp, p = get(t, b, site.URL+"/nowhere")
	if resp.StatusCode != http.StatusNotFound || p.Page != "not_found" {
		t.Fatalf("expected not_found page, got %d %+v", resp.StatusCode, p)
	}
}
