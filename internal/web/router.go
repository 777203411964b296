// Package web is the front server: guarded pages rendered as JSON page
// descriptors on top of the client auth flow.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/api"
	"github.com/starterkit/webapp/internal/client/apiclient"
	"github.com/starterkit/webapp/internal/client/guard"
	"github.com/starterkit/webapp/internal/client/session"
	"github.com/starterkit/webapp/internal/core/ports"
	"github.com/starterkit/webapp/internal/infrastructure/http/handlers"
	"github.com/starterkit/webapp/internal/pkg/validation"
)

type Deps struct {
	API apiclient.Options
	// Credentials returns the credential storage of one browser.
	Credentials  func(browserID string) ports.KeyValueStore
	Cookies      sessions.Store
	CookieSecure bool
	// StaleTime bounds how long a fetched identity is reused. Zero means
	// session.DefaultStaleTime.
	StaleTime time.Duration
	Log       zerolog.Logger
	Registry  *prometheus.Registry
}

// NewCookieStore builds the signed cookie store holding browser ids.
func NewCookieStore(key string) *sessions.CookieStore {
	return sessions.NewCookieStore([]byte(key))
}

func NewRouter(d Deps) *echo.Echo {
	if d.StaleTime <= 0 {
		d.StaleTime = session.DefaultStaleTime
	}
	if d.API.HTTPClient == nil {
		timeout := d.API.Timeout
		if timeout <= 0 {
			timeout = apiclient.DefaultTimeout
		}
		// Shared by every visitor so connections are pooled.
		d.API.HTTPClient = &http.Client{Timeout: timeout}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorPage(d.Log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(api.RequestLogger(d.Log))
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "webapp_web",
		Registerer: registerer,
	}))

	e.GET("/health", handlers.NewHealthHandler("webapp-web").Liveness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))

	p := &pages{validate: validation.New(), log: d.Log}
	site := e.Group("", browserMiddleware(d, newSessionRegistry(d.StaleTime)))
	protected := guard.Middleware(resolveSession, guard.DefaultLoginPath)

	site.GET("/", p.home)
	site.GET(dashboardPath, p.dashboard, protected)
	site.GET(dashboardPath+"/users", p.dashboardUsers, protected)

	site.GET("/auth", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, guard.DefaultLoginPath)
	})
	site.GET(guard.DefaultLoginPath, p.showLogin)
	site.POST(guard.DefaultLoginPath, p.login)
	site.GET("/auth/register", p.showRegister)
	site.POST("/auth/register", p.register)
	site.POST("/auth/logout", p.logout)

	return e
}

// resolveSession settles the visitor's session before the guard decides.
func resolveSession(c echo.Context) (loading, authenticated bool) {
	v := visitorOf(c)
	if _, err := v.flow.CurrentIdentity(c.Request().Context()); err != nil {
		return false, false
	}
	snap := v.flow.Session().Snapshot()
	return snap.Loading(), snap.Authenticated()
}

// errorPage renders unmatched routes and handler failures as page descriptors.
func errorPage(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := http.StatusText(status)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		} else {
			log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		out := page{Page: "error", Title: http.StatusText(status), Error: &pageError{Status: status, Message: message}}
		if status == http.StatusNotFound {
			out.Page, out.Title = "not_found", "Page not found"
		}
		if err := c.JSON(status, out); err != nil {
			log.Error().Err(err).Msg("failed to write error page")
		}
	}
}
