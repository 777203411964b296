// Package config loads the settings of every binary from environment
// variables. Each binary reads only the sections it needs.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API    APIConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Web    WebConfig
	Client ClientConfig
	CLI    CLIConfig
}

// APIConfig configures the auth backend (cmd/api).
type APIConfig struct {
	Port            string        `env:"PORT,              default=8000"`
	JWTSecret       string        `env:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	// EnableMocks swaps Mongo and Redis for in-memory stores seeded with
	// demo accounts.
	EnableMocks  bool   `env:"ENABLE_MOCKS, default=false"`
	MockSeedFile string `env:"MOCK_SEED_FILE"`
	AuditWorkers int    `env:"AUDIT_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=webapp"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// WebConfig configures the front server (cmd/web).
type WebConfig struct {
	Port string `env:"WEB_PORT, default=3000"`
	// SessionKey signs the browser cookie. Required outside development.
	SessionKey   string `env:"SESSION_KEY"`
	CookieSecure bool   `env:"COOKIE_SECURE, default=false"`
	// UseRedis stores browser credentials in Redis instead of process memory.
	UseRedis bool `env:"WEB_USE_REDIS, default=false"`
}

// ClientConfig configures the API gateway shared by cmd/web and cmd/authctl.
type ClientConfig struct {
	APIURL  string        `env:"API_URL,     default=http://localhost:8000/api"`
	Timeout time.Duration `env:"API_TIMEOUT, default=10s"`
}

type CLIConfig struct {
	DBPath string `env:"AUTHCTL_DB, default=authctl.db"`
}

// IsDevelopment reports whether the process runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// ValidateAPI checks the settings cmd/api cannot start without.
func (c *Config) ValidateAPI() error {
	if c.API.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("config: JWT_SECRET is required when ENV=%s", c.Env)
		}
		c.API.JWTSecret = "development-only-secret"
	}
	if c.API.AccessTokenTTL <= 0 || c.API.RefreshTokenTTL <= 0 {
		return fmt.Errorf("config: token TTLs must be positive")
	}
	return nil
}

// ValidateWeb checks the settings cmd/web cannot start without.
func (c *Config) ValidateWeb() error {
	if c.Web.SessionKey == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("config: SESSION_KEY is required when ENV=%s", c.Env)
		}
		c.Web.SessionKey = "development-only-session-key-32b"
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("config: API_TIMEOUT must be positive")
	}
	return nil
}
