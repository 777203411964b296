package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/starterkit/webapp/docs"
	"github.com/starterkit/webapp/internal/api/handler"
	"github.com/starterkit/webapp/internal/api/middleware"
	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
	"github.com/starterkit/webapp/internal/infrastructure/http/handlers"
)

// BasePath prefixes every auth and users route.
const BasePath = "/api"

// Deps are the services the router wires into handlers.
type Deps struct {
	Auth  ports.AuthService
	Users ports.UserService
	// Readiness lists the dependency checks behind GET /health/ready.
	Readiness map[string]handlers.Check
	Log       zerolog.Logger
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(RequestLogger(d.Log))
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "webapp_api",
		Registerer: registerer,
	}))

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users)
	requireAuth := middleware.Auth(d.Auth)

	// Resource routes live under /api, the base path clients are configured with.
	api := e.Group(BasePath)

	// --- Auth routes ---
	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/refresh-token", authHandler.Refresh)
	auth.GET("/me", authHandler.Me, requireAuth)
	auth.DELETE("/logout", authHandler.Logout, requireAuth)

	// --- Users resource (admin only) ---
	users := api.Group("/users", requireAuth, middleware.RBAC(domain.RoleAdmin))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Replace)
	users.PATCH("/:id", userHandler.Patch)
	users.DELETE("/:id", userHandler.Delete)

	// --- Health probes (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler("webapp-api").Liveness)
	e.GET("/health/ready", handlers.NewReadinessHandler(d.Readiness).Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// RequestLogger logs one line per request through zerolog.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			if uid, _ := c.Get(middleware.UserIDKey).(string); uid != "" {
				role, _ := c.Get(middleware.RoleKey).(string)
				ev = ev.Str("user_id", uid).Str("role", role)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
