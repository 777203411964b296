// Command web runs the front server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starterkit/webapp/internal/client/apiclient"
	"github.com/starterkit/webapp/internal/core/ports"
	"github.com/starterkit/webapp/internal/infrastructure/db/memory"
	redisstore "github.com/starterkit/webapp/internal/infrastructure/db/redis"
	"github.com/starterkit/webapp/internal/pkg/config"
	"github.com/starterkit/webapp/internal/web"
	"github.com/starterkit/webapp/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	// credentialTTL matches the browser cookie lifetime.
	credentialTTL = 30 * 24 * time.Hour
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "web:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := cfg.ValidateWeb(); err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "webapp-web",
	})

	var credentials func(id string) ports.KeyValueStore
	if cfg.Web.UseRedis {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		kv := redisstore.NewKVStore(rdb, "web:cred", credentialTTL)
		credentials = func(id string) ports.KeyValueStore { return kv.Scoped(id) }
	} else {
		kv := memory.NewKVStore()
		credentials = func(id string) ports.KeyValueStore { return kv.Scoped(id) }
	}

	e := web.NewRouter(web.Deps{
		API: apiclient.Options{
			BaseURL: cfg.Client.APIURL,
			Timeout: cfg.Client.Timeout,
			Log:     log,
		},
		Credentials:  credentials,
		Cookies:      web.NewCookieStore(cfg.Web.SessionKey),
		CookieSecure: cfg.Web.CookieSecure,
		Log:          log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Web.Port).Str("api_url", cfg.Client.APIURL).Msg("front server listening")
		if err := e.Start(":" + cfg.Web.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
