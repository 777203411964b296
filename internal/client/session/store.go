// Package session tracks who the client is signed in as.
//
// The store is a projection over the last identity fetch. Fetches take a
// Ticket before going to the network; SignIn, SignOut and Clear start a new
// generation, and results carrying an older ticket are discarded. A profile
// fetch that loses a race with logout therefore cannot sign the user back in.
package session

import (
	"sync"
	"time"

	"github.com/starterkit/webapp/internal/core/domain"
)

// DefaultStaleTime is how long a fetched identity is served from cache.
const DefaultStaleTime = 5 * time.Minute

type State int

const (
	Unknown State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Ticket identifies the generation an identity fetch started in.
type Ticket uint64

// Snapshot is a consistent copy of the store.
type Snapshot struct {
	State    State
	Identity *domain.Identity
}

// Loading reports whether the initial state is still being resolved.
func (s Snapshot) Loading() bool { return s.State == Unknown }

func (s Snapshot) Authenticated() bool { return s.State == Authenticated }

type Store struct {
	mu         sync.Mutex
	state      State
	identity   *domain.Identity
	fetchedAt  time.Time
	generation uint64
	staleTime  time.Duration
	now        func() time.Time
}

// New returns a store in the Unknown state. staleTime <= 0 uses DefaultStaleTime.
func New(staleTime time.Duration) *Store {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &Store{staleTime: staleTime, now: time.Now}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	return snap
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// Cached returns the identity when it was fetched within the stale time.
func (s *Store) Cached() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil || s.fetchedAt.IsZero() || s.now().Sub(s.fetchedAt) >= s.staleTime {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

// Begin hands out a ticket for an identity fetch.
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Ticket(s.generation)
}

// Resolve records a fetched identity. It reports false, leaving the store
// untouched, when the session changed since t was issued.
func (s *Store) Resolve(t Ticket, id domain.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(t) != s.generation {
		return false
	}
	s.setIdentity(id)
	return true
}

// Reject records that the fetch behind t found no valid identity.
func (s *Store) Reject(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(t) != s.generation {
		return false
	}
	s.clearIdentity()
	return true
}

// SignIn starts a new generation with id as the authenticated identity.
func (s *Store) SignIn(id domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.setIdentity(id)
}

// SignOut starts a new generation with no identity.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.clearIdentity()
}

// Invalidate marks the cached identity stale so the next read refetches.
// The session state is kept.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchedAt = time.Time{}
}

// Clear drops all cached data and cancels in-flight fetches. A store that
// was never resolved stays Unknown.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.state == Unknown {
		s.identity = nil
		s.fetchedAt = time.Time{}
		return
	}
	s.clearIdentity()
}

func (s *Store) setIdentity(id domain.Identity) {
	s.identity = &id
	s.fetchedAt = s.now()
	s.state = Authenticated
}

func (s *Store) clearIdentity() {
	s.identity = nil
	s.fetchedAt = time.Time{}
	s.state = Unauthenticated
}
