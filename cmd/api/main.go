// Command api runs the auth backend.
//
//	@title			webapp auth API
//	@version		1.0
//	@description	Authentication and user administration for the webapp starter.
//	@BasePath		/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
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

	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/api"
	"github.com/starterkit/webapp/internal/core/ports"
	"github.com/starterkit/webapp/internal/core/service"
	"github.com/starterkit/webapp/internal/infrastructure/db/memory"
	mongostore "github.com/starterkit/webapp/internal/infrastructure/db/mongo"
	redisstore "github.com/starterkit/webapp/internal/infrastructure/db/redis"
	"github.com/starterkit/webapp/internal/infrastructure/http/handlers"
	"github.com/starterkit/webapp/internal/infrastructure/queue"
	"github.com/starterkit/webapp/internal/pkg/config"
	"github.com/starterkit/webapp/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// backends are the storage adapters the services run on.
type backends struct {
	users     ports.UserRepository
	tokens    ports.TokenStore
	audit     ports.AuditRepository
	readiness map[string]handlers.Check
	close     func(context.Context)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "api:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "webapp-api",
	})

	var b *backends
	if cfg.API.EnableMocks {
		b, err = mockBackends(ctx, cfg, log)
	} else {
		b, err = realBackends(ctx, cfg)
	}
	if err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(cfg.API.AuditWorkers, service.NewAuditService(b.audit, log), log)
	dispatcher.Start(ctx)

	authService := service.NewAuthService(b.users, b.tokens, dispatcher, service.AuthOptions{
		JWTSecret:  cfg.API.JWTSecret,
		AccessTTL:  cfg.API.AccessTokenTTL,
		RefreshTTL: cfg.API.RefreshTokenTTL,
	}, log)

	e := api.NewRouter(api.Deps{
		Auth:      authService,
		Users:     service.NewUserService(b.users),
		Readiness: b.readiness,
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.API.Port).Bool("mocks", cfg.API.EnableMocks).Msg("auth api listening")
		if err := e.Start(":" + cfg.API.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	log.Info().Msg("shutting down")
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	b.close(shutdownCtx)
	return nil
}

// mockBackends keeps everything in process memory, seeded with demo accounts.
func mockBackends(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backends, error) {
	seed := memory.DefaultSeed
	if cfg.API.MockSeedFile != "" {
		loaded, err := memory.LoadSeedFile(cfg.API.MockSeedFile)
		if err != nil {
			return nil, err
		}
		seed = loaded
	}

	users := memory.NewUserRepository()
	if err := memory.Seed(ctx, users, seed); err != nil {
		return nil, err
	}
	log.Warn().Int("accounts", len(seed)).Msg("mock mode: in-memory storage, data is lost on restart")

	return &backends{
		users:     users,
		tokens:    memory.NewTokenStore(),
		audit:     memory.NewAuditRepository(),
		readiness: map[string]handlers.Check{},
		close:     func(context.Context) {},
	}, nil
}

func realBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	users := mongostore.NewUserRepository(db)
	audit := mongostore.NewAuditRepository(db)
	if err := mongostore.EnsureIndexes(ctx, users, audit); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &backends{
		users:  users,
		tokens: redisstore.NewTokenStore(rdb),
		audit:  audit,
		readiness: map[string]handlers.Check{
			"mongo": handlers.MongoCheck(db),
			"redis": handlers.RedisCheck(rdb),
		},
		close: func(ctx context.Context) {
			_ = rdb.Close()
			_ = client.Disconnect(ctx)
		},
	}, nil
}
