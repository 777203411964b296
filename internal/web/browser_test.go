package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/api"
	"github.com/starterkit/webapp/internal/client/apiclient"
	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
	"github.com/starterkit/webapp/internal/core/service"
	"github.com/starterkit/webapp/internal/infrastructure/db/memory"
)

func TestSessionRegistry_TracksOnlySignedInBrowsers(t *testing.T) {
	r := newSessionRegistry(time.Minute)

	anon := r.acquire("a")
	r.release("a", anon)
	if r.size() != 0 {
		t.Fatalf("anonymous browser tracked, size %d", r.size())
	}

	s := r.acquire("b")
	s.SignIn(domain.Identity{ID: "1", Email: "test@example.com", Name: "Test User"})
	r.release("b", s)
	if r.acquire("b") != s || r.size() != 1 {
		t.Fatalf("signed-in store not kept, size %d", r.size())
	}

	// A stale throwaway store of the same browser must not evict the live one.
	r.release("b", r.acquire("other"))
	if r.size() != 1 {
		t.Fatal("unrelated store evicted the tracked one")
	}

	s.SignOut()
	r.release("b", s)
	if r.size() != 0 {
		t.Fatalf("signed-out store still tracked, size %d", r.size())
	}
}

func TestSessionRegistry_EvictsIdleEntries(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := newSessionRegistry(time.Minute)
	r.now = func() time.Time { return now }

	for _, id := range []string{"idle", "active"} {
		s := r.acquire(id)
		s.SignIn(domain.Identity{ID: id, Email: id + "@example.com", Name: id})
		r.release(id, s)
	}

	now = now.Add(45 * time.Second)
	r.acquire("active")
	now = now.Add(30 * time.Second)
	r.acquire("active")

	if r.size() != 1 {
		t.Fatalf("expected only the active browser left, size %d", r.size())
	}
	if _, ok := r.entries["active"]; !ok {
		t.Fatal("active browser evicted")
	}
}

func TestBrowserMiddleware_BoundedRegistry(t *testing.T) {
	users := memory.NewUserRepository()
	if err := memory.Seed(context.Background(), users, memory.DefaultSeed); err != nil {
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
	registry := newSessionRegistry(time.Minute)
	e := echo.New()
	site := e.Group("", browserMiddleware(Deps{
		API:         apiclient.Options{BaseURL: backend.URL + api.BasePath, Log: zerolog.Nop()},
		Credentials: func(id string) ports.KeyValueStore { return kv.Scoped(id) },
		Cookies:     NewCookieStore("test-session-key-0123456789abcdef"),
		Log:         zerolog.Nop(),
	}, registry))
	site.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, visitorOf(c).flow.Bootstrap(c.Request().Context()).String())
	})
	site.POST("/login", func(c echo.Context) error {
		_, err := visitorOf(c).flow.Login(c.Request().Context(), domain.LoginCredentials{Email: "test@example.com", Password: "password"})
		return err
	})
	site.POST("/logout", func(c echo.Context) error {
		return visitorOf(c).flow.Logout(c.Request().Context())
	})

	for i := 0; i < 2000; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	if n := registry.size(); n != 0 {
		t.Fatalf("anonymous requests grew the registry to %d", n)
	}

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	b := newBrowser(t)
	for _, step := range []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/login", 1},
		{http.MethodGet, "/whoami", 1},
		{http.MethodPost, "/logout", 0},
	} {
		req, _ := http.NewRequest(step.method, srv.URL+step.path, nil)
		resp, err := b.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", step.method, step.path, err)
		}
		resp.Body.Close()
		if n := registry.size(); n != step.want {
			t.Fatalf("after %s %s: expected registry size %d, got %d", step.method, step.path, step.want, n)
		}
	}
}
