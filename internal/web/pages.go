package web

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/client/apiclient"
	"github.com/starterkit/webapp/internal/client/auth"
	"github.com/starterkit/webapp/internal/client/guard"
	"github.com/starterkit/webapp/internal/client/session"
	"github.com/starterkit/webapp/internal/client/users"
	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/pkg/validation"
)

const (
	dashboardPath = "/dashboard"
	usersPageSize = 10
)

// page is the JSON descriptor returned for every front server route.
type page struct {
	Page  string           `json:"page"`
	Title string           `json:"title"`
	User  *domain.Identity `json:"user,omitempty"`
	From  string           `json:"from,omitempty"`
	Error *pageError       `json:"error,omitempty"`
	Users *users.Page      `json:"users,omitempty"`
}

type pageError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type loginForm struct {
	Email      string `form:"email"      json:"email"`
	Password   string `form:"password"   json:"password"`
	RememberMe bool   `form:"rememberMe" json:"rememberMe"`
	From       string `form:"from"       json:"from"`
}

type registerForm struct {
	Name            string `form:"name"            json:"name"`
	Email           string `form:"email"           json:"email"`
	Password        string `form:"password"        json:"password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword"`
	AcceptTerms     bool   `form:"acceptTerms"     json:"acceptTerms"`
	From            string `form:"from"            json:"from"`
}

// usersQuery is the query string of the users page. A missing page means 1.
type usersQuery struct {
	Page   int    `query:"page"   validate:"omitempty,min=1"`
	Search string `query:"search" validate:"max=100"`
}

type pages struct {
	validate *validator.Validate
	log      zerolog.Logger
}

func (p *pages) home(c echo.Context) error {
	v := visitorOf(c)
	out := page{Page: "home", Title: "Home"}
	if v.flow.Bootstrap(c.Request().Context()) == session.Authenticated {
		if id, ok := v.flow.Session().Cached(); ok {
			out.User = &id
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (p *pages) dashboard(c echo.Context) error {
	id, ok := visitorOf(c).flow.Session().Cached()
	if !ok {
		return p.loginRequired(c)
	}
	return c.JSON(http.StatusOK, page{Page: "dashboard", Title: "Dashboard", User: &id})
}

func (p *pages) dashboardUsers(c echo.Context) error {
	v := visitorOf(c)
	var q usersQuery
	if err := c.Bind(&q); err != nil {
		return badUsersQuery(c, "page must be a number")
	}
	if err := p.validate.Struct(q); err != nil {
		msg, _ := validation.Describe(err)
		return badUsersQuery(c, msg)
	}
	if q.Page == 0 {
		q.Page = 1
	}

	list, err := v.users.List(c.Request().Context(), q.Page, usersPageSize, q.Search)
	if err != nil {
		if apiclient.LoginRequired(err) {
			return p.loginRequired(c)
		}
		return c.JSON(statusFor(err), page{Page: "users", Title: "Users", Error: toPageError(err)})
	}

	out := page{Page: "users", Title: "Users", Users: &list}
	if id, ok := v.flow.Session().Cached(); ok {
		out.User = &id
	}
	return c.JSON(http.StatusOK, out)
}

func (p *pages) showLogin(c echo.Context) error {
	from, _ := guard.SafeReturnPath(c.QueryParam("from"))
	return c.JSON(http.StatusOK, page{Page: "login", Title: "Sign in", From: from})
}

func (p *pages) login(c echo.Context) error {
	var f loginForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if f.From == "" {
		f.From = c.QueryParam("from")
	}

	_, err := visitorOf(c).flow.Login(c.Request().Context(), domain.LoginCredentials{
		Email:      f.Email,
		Password:   f.Password,
		RememberMe: f.RememberMe,
	})
	if err != nil {
		from, _ := guard.SafeReturnPath(f.From)
		return c.JSON(statusFor(err), page{Page: "login", Title: "Sign in", From: from, Error: toPageError(err)})
	}
	return c.Redirect(http.StatusSeeOther, afterSignIn(f.From))
}

func (p *pages) showRegister(c echo.Context) error {
	from, _ := guard.SafeReturnPath(c.QueryParam("from"))
	return c.JSON(http.StatusOK, page{Page: "register", Title: "Create account", From: from})
}

func (p *pages) register(c echo.Context) error {
	var f registerForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if f.From == "" {
		f.From = c.QueryParam("from")
	}

	_, err := visitorOf(c).flow.Register(c.Request().Context(), domain.Registration{
		Name:            f.Name,
		Email:           f.Email,
		Password:        f.Password,
		ConfirmPassword: f.ConfirmPassword,
		AcceptTerms:     f.AcceptTerms,
	})
	if err != nil {
		from, _ := guard.SafeReturnPath(f.From)
		return c.JSON(statusFor(err), page{Page: "register", Title: "Create account", From: from, Error: toPageError(err)})
	}
	return c.Redirect(http.StatusSeeOther, afterSignIn(f.From))
}

func (p *pages) logout(c echo.Context) error {
	if err := visitorOf(c).flow.Logout(c.Request().Context()); err != nil {
		p.log.Warn().Err(err).Msg("logout: clearing credentials failed")
	}
	return c.Redirect(http.StatusSeeOther, guard.DefaultLoginPath)
}

func (p *pages) loginRequired(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, guard.LoginLocation(guard.DefaultLoginPath, c.Request().URL.RequestURI()))
}

func badUsersQuery(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, page{
		Page:  "users",
		Title: "Users",
		Error: &pageError{Status: http.StatusBadRequest, Message: msg, Code: apiclient.CodeValidation},
	})
}

func afterSignIn(from string) string {
	if dest, ok := guard.SafeReturnPath(from); ok {
		return dest
	}
	return dashboardPath
}

// statusFor picks the response status of a failed flow call. Errors raised
// before reaching the backend carry no status of their own.
func statusFor(err error) int {
	if auth.IsLocal(err) {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.Code == apiclient.CodeValidation {
			return http.StatusUnprocessableEntity
		}
		return http.StatusUnauthorized
	}
	return apiclient.StatusOf(err)
}

func toPageError(err error) *pageError {
	apiErr := apiclient.AsError(err)
	return &pageError{Status: statusFor(err), Message: apiErr.Message, Code: apiErr.Code}
}
