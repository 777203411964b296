// Package auth drives sign-in, sign-out and identity lookups against the
// auth backend, keeping the credential vault and the session store in step.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/client/apiclient"
	"github.com/starterkit/webapp/internal/client/credential"
	"github.com/starterkit/webapp/internal/client/session"
	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/pkg/validation"
)

// Backend endpoints, relative to the gateway base URL.
const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	LogoutPath   = "/auth/logout"
	MePath       = "/auth/me"
	RefreshPath  = apiclient.RefreshPath
)

func errNotAuthenticated() *apiclient.Error {
	return apiclient.Local(apiclient.CodeNotAuthenticated, "Not authenticated")
}

func errNoRefreshToken() *apiclient.Error {
	return apiclient.Local(apiclient.CodeNoRefreshToken, "No refresh token available")
}

type Flow struct {
	api      *apiclient.Client
	vault    *credential.Vault
	session  *session.Store
	validate *validator.Validate
	log      zerolog.Logger
}

func New(api *apiclient.Client, vault *credential.Vault, sess *session.Store, log zerolog.Logger) *Flow {
	return &Flow{
		api:      api,
		vault:    vault,
		session:  sess,
		validate: validation.New(),
		log:      log,
	}
}

// NewGateway builds the gateway for a flow over vault and sess. Every 401 it
// sees, whoever issued the request, signs sess out.
func NewGateway(opts apiclient.Options, vault *credential.Vault, sess *session.Store) *apiclient.Client {
	next := opts.OnUnauthorized
	opts.OnUnauthorized = func() {
		sess.SignOut()
		if next != nil {
			next()
		}
	}
	return apiclient.New(opts, vault)
}

func (f *Flow) Session() *session.Store {
	return f.session
}

func (f *Flow) Login(ctx context.Context, in domain.LoginCredentials) (domain.Identity, error) {
	if err := f.check(in); err != nil {
		return domain.Identity{}, err
	}
	result, err := apiclient.Post[domain.AuthResult](ctx, f.api, LoginPath, in)
	if err != nil {
		return domain.Identity{}, f.fail(err)
	}
	return f.establish(ctx, result)
}

func (f *Flow) Register(ctx context.Context, in domain.Registration) (domain.Identity, error) {
	if err := f.check(in); err != nil {
		return domain.Identity{}, err
	}
	result, err := apiclient.Post[domain.AuthResult](ctx, f.api, RegisterPath, in)
	if err != nil {
		return domain.Identity{}, f.fail(err)
	}
	return f.establish(ctx, result)
}

// Logout tells the backend to revoke the token, then clears local state
// whatever the backend answered. Only a local storage failure is returned.
func (f *Flow) Logout(ctx context.Context) error {
	if err := f.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: LogoutPath}); err != nil {
		f.log.Warn().Err(err).Msg("logout request failed, clearing local session anyway")
	}
	f.session.SignOut()
	return f.vault.Clear(ctx)
}

// Refresh trades the stored refresh token for a new credential. Without a
// stored refresh token it fails without touching the network.
func (f *Flow) Refresh(ctx context.Context) (domain.Identity, error) {
	token, ok, err := f.vault.RefreshToken(ctx)
	if err != nil {
		return domain.Identity{}, apiclient.AsError(err)
	}
	if !ok {
		return domain.Identity{}, errNoRefreshToken()
	}

	result, err := apiclient.Post[domain.AuthResult](ctx, f.api, RefreshPath, domain.RefreshRequest{RefreshToken: token})
	if err != nil {
		return domain.Identity{}, f.fail(err)
	}
	return f.establish(ctx, result)
}

// CurrentIdentity returns the signed-in identity, from cache when it is
// fresh. Any failure leaves the session unauthenticated.
func (f *Flow) CurrentIdentity(ctx context.Context) (domain.Identity, error) {
	if !f.vault.HasToken(ctx) {
		f.session.Reject(f.session.Begin())
		return domain.Identity{}, errNotAuthenticated()
	}
	if id, ok := f.session.Cached(); ok {
		return id, nil
	}

	ticket := f.session.Begin()
	id, err := apiclient.Get[domain.Identity](ctx, f.api, MePath, nil)
	if err != nil {
		apiErr := apiclient.AsError(err)
		if apiErr.Code == apiclient.CodeShapeMismatch {
			// A token that does not yield a valid identity is worthless.
			if cerr := f.vault.ClearToken(ctx); cerr != nil {
				f.log.Warn().Err(cerr).Msg("clear token after malformed identity")
			}
		}
		f.session.Reject(ticket)
		return domain.Identity{}, apiErr
	}

	id.Normalize()
	if !f.session.Resolve(ticket, id) {
		// The session changed while the request was in flight.
		if f.session.IsAuthenticated() {
			if cur, ok := f.session.Cached(); ok {
				return cur, nil
			}
		}
		return domain.Identity{}, errNotAuthenticated()
	}
	return id, nil
}

// Bootstrap resolves the initial Unknown state.
func (f *Flow) Bootstrap(ctx context.Context) session.State {
	if st := f.session.State(); st != session.Unknown {
		return st
	}
	if _, err := f.CurrentIdentity(ctx); err != nil {
		f.log.Debug().Err(err).Msg("bootstrap: no session")
	}
	return f.session.State()
}

func (f *Flow) establish(ctx context.Context, result domain.AuthResult) (domain.Identity, error) {
	if err := f.vault.Save(ctx, result.Credential()); err != nil {
		return domain.Identity{}, apiclient.AsError(err)
	}
	id := result.User
	id.Normalize()
	f.session.SignIn(id)
	return id, nil
}

// fail keeps the session consistent with a gateway error. A 401 means the
// gateway already dropped the bearer token.
func (f *Flow) fail(err error) error {
	apiErr := apiclient.AsError(err)
	if apiErr.Status == http.StatusUnauthorized {
		f.session.SignOut()
	}
	return apiErr
}

func (f *Flow) check(in any) error {
	err := f.validate.Struct(in)
	if err == nil {
		return nil
	}
	if msg, ok := validation.Describe(err); ok {
		return apiclient.Local(apiclient.CodeValidation, msg)
	}
	return apiclient.Local(apiclient.CodeValidation, err.Error())
}

// IsLocal reports whether err was produced without contacting the backend.
func IsLocal(err error) bool {
	var apiErr *apiclient.Error
	return errors.As(err, &apiErr) && apiErr.Status == 0
}
