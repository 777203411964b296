// Package guard decides whether a protected page may render.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// DefaultLoginPath is where unauthenticated visitors are sent.
const DefaultLoginPath = "/auth/login"

type Decision int

const (
	Render Decision = iota
	Wait
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case Wait:
		return "wait"
	default:
		return "redirect"
	}
}

type Input struct {
	Loading       bool
	Authenticated bool
	// Target is the requested path including its query string.
	Target string
}

type Outcome struct {
	Decision Decision
	// Location is set for Redirect only.
	Location string
}

// Decide is pure: loading wins over everything, then authentication.
func Decide(in Input, loginPath string) Outcome {
	if in.Loading {
		return Outcome{Decision: Wait}
	}
	if in.Authenticated {
		return Outcome{Decision: Render}
	}
	return Outcome{Decision: Redirect, Location: LoginLocation(loginPath, in.Target)}
}

// LoginLocation builds "<loginPath>?from=<target>".
func LoginLocation(loginPath, target string) string {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	if target == "" {
		return loginPath
	}
	return loginPath + "?from=" + url.QueryEscape(target)
}

// SafeReturnPath reports whether from is a local absolute path that is safe
// to redirect to after sign-in.
func SafeReturnPath(from string) (string, bool) {
	if from == "" || !strings.HasPrefix(from, "/") {
		return "", false
	}
	// Protocol-relative and backslash tricks leave the origin.
	if strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") || strings.ContainsAny(from, "\r\n") {
		return "", false
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	return from, true
}

// Resolver reports the session state of the visitor behind c.
type Resolver func(c echo.Context) (loading, authenticated bool)

// Middleware protects the routes it wraps.
func Middleware(resolve Resolver, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			loading, authenticated := resolve(c)
			out := Decide(Input{
				Loading:       loading,
				Authenticated: authenticated,
				Target:        c.Request().URL.RequestURI(),
			}, loginPath)

			switch out.Decision {
			case Render:
				return next(c)
			case Wait:
				return c.NoContent(http.StatusNoContent)
			default:
				return c.Redirect(http.StatusSeeOther, out.Location)
			}
		}
	}
}
