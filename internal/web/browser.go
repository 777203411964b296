package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/starterkit/webapp/internal/client/auth"
	"github.com/starterkit/webapp/internal/client/credential"
	"github.com/starterkit/webapp/internal/client/session"
	"github.com/starterkit/webapp/internal/client/users"
)

const (
	cookieName    = "webapp_session"
	cookieMaxAge  = 30 * 24 * 60 * 60
	browserIDKey  = "bid"
	visitorCtxKey = "visitor"
)

// visitor bundles the client stack of one browser for the current request.
type visitor struct {
	id    string
	flow  *auth.Flow
	users *users.Client
}

// sessionRegistry keeps the session store of each signed-in browser so the
// identity cache outlives a single request. Anonymous browsers get a
// throwaway store per request and are never tracked.
type sessionRegistry struct {
	mu        sync.Mutex
	entries   map[string]registryEntry
	staleTime time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type registryEntry struct {
	store    *session.Store
	lastSeen time.Time
}

func newSessionRegistry(staleTime time.Duration) *sessionRegistry {
	return &sessionRegistry{
		entries:   make(map[string]registryEntry),
		staleTime: staleTime,
		now:       time.Now,
	}
}

// acquire returns the tracked store of browserID, or a fresh untracked one.
func (r *sessionRegistry) acquire(browserID string) *session.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweep(now)
	if e, ok := r.entries[browserID]; ok {
		e.lastSeen = now
		r.entries[browserID] = e
		return e.store
	}
	return session.New(r.staleTime)
}

// release tracks s while it is authenticated and forgets it once signed out.
// A store replaced by a concurrent request of the same browser is left alone.
func (r *sessionRegistry) release(browserID string, s *session.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.IsAuthenticated() {
		r.entries[browserID] = registryEntry{store: s, lastSeen: r.now()}
		return
	}
	if e, ok := r.entries[browserID]; ok && e.store == s {
		delete(r.entries, browserID)
	}
}

// sweep drops entries idle for longer than the stale time. Their cached
// identity would be refetched anyway; the credential stays in the KV store.
func (r *sessionRegistry) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.staleTime {
		return
	}
	r.lastSweep = now
	for id, e := range r.entries {
		if now.Sub(e.lastSeen) > r.staleTime {
			delete(r.entries, id)
		}
	}
}

func (r *sessionRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// browserMiddleware gives every browser an opaque id in a signed cookie and
// builds its client stack over the credentials stored under that id.
func browserMiddleware(d Deps, registry *sessionRegistry) echo.MiddlewareFunc {
	log := d.Log
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req, res := c.Request(), c.Response()

			sess, err := d.Cookies.Get(req, cookieName)
			if err != nil {
				// Tampered or rotated-key cookies start a fresh browser.
				log.Debug().Err(err).Msg("discarding unreadable session cookie")
			}

			id, _ := sess.Values[browserIDKey].(string)
			if id == "" {
				id = uuid.NewString()
				sess.Values[browserIDKey] = id
				sess.Options = &sessions.Options{
					Path:     "/",
					MaxAge:   cookieMaxAge,
					HttpOnly: true,
					Secure:   d.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				}
				if err := sess.Save(req, res); err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist session")
				}
			}

			store := registry.acquire(id)
			defer registry.release(id, store)

			vault := credential.NewVault(d.Credentials(id))
			gw := auth.NewGateway(d.API, vault, store)
			c.Set(visitorCtxKey, &visitor{
				id:    id,
				flow:  auth.New(gw, vault, store, log),
				users: users.New(gw),
			})
			return next(c)
		}
	}
}

func visitorOf(c echo.Context) *visitor {
	v, _ := c.Get(visitorCtxKey).(*visitor)
	return v
}
