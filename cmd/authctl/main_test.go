package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/api"
	"github.com/starterkit/webapp/internal/client/apiclient"
	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/service"
	"github.com/starterkit/webapp/internal/infrastructure/db/memory"
)

func newBackend(t *testing.T) string {
	t.Helper()
	users := memory.NewUserRepository()
	if err := memory.Seed(context.Background(), users, memory.DefaultSeed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Auth:     service.NewAuthService(users, memory.NewTokenStore(), nil, service.AuthOptions{JWTSecret: "s"}, zerolog.Nop()),
		Users:    service.NewUserService(users),
		Log:      zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	}))
	t.Cleanup(srv.Close)
	return srv.URL + api.BasePath
}

func TestRun_CredentialsSurviveInvocations(t *testing.T) {
	ctx := context.Background()
	base := newBackend(t)
	db := filepath.Join(t.TempDir(), "authctl.db")
	global := []string{"-api", base, "-db", db}

	var out bytes.Buffer
	if err := run(ctx, append(global, "login", "-email", "test@example.com", "-password", "password"), &out); err != nil {
		t.Fatalf("login: %v", err)
	}

	out.Reset()
	if err := run(ctx, append(global, "me"), &out); err != nil {
		t.Fatalf("me: %v", err)
	}
	var id domain.Identity
	if err := json.Unmarshal(out.Bytes(), &id); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if id.Email != "test@example.com" {
		t.Fatalf("unexpected identity %+v", id)
	}

	if err := run(ctx, append(global, "refresh"), &bytes.Buffer{}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := run(ctx, append(global, "logout"), &bytes.Buffer{}); err != nil {
		t.Fatalf("logout: %v", err)
	}

	err := run(ctx, append(global, "me"), &bytes.Buffer{})
	if err == nil || apiclient.AsError(err).Code != apiclient.CodeNotAuthenticated {
		t.Fatalf("expected not authenticated after logout, got %v", err)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "authctl.db")
	if err := run(context.Background(), []string{"-db", db, "whoami"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
