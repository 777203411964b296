package session

import (
	"sync"
	"testing"
	"time"

	"github.com/starterkit/webapp/internal/core/domain"
)

var alice = domain.Identity{ID: "1", Email: "test@example.com", Name: "Test User", Role: domain.RoleUser}

func TestStore_StartsUnknown(t *testing.T) {
	s := New(0)
	snap := s.Snapshot()
	if snap.State != Unknown || !snap.Loading() || snap.Authenticated() || snap.Identity != nil {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
}

func TestStore_Transitions(t *testing.T) {
	s := New(0)

	if !s.Reject(s.Begin()) || s.State() != Unauthenticated {
		t.Fatalf("unknown → unauthenticated failed: %s", s.State())
	}
	s.SignIn(alice)
	if s.State() != Authenticated {
		t.Fatalf("unauthenticated → authenticated failed: %s", s.State())
	}
	s.SignOut()
	if s.State() != Unauthenticated {
		t.Fatalf("authenticated → unauthenticated failed: %s", s.State())
	}
	s.Clear()
	if s.State() != Unauthenticated {
		t.Fatalf("Clear must not return to unknown, got %s", s.State())
	}
}

func TestStore_StaleFetchAfterSignOutIsDiscarded(t *testing.T) {
	s := New(0)
	s.SignIn(alice)

	ticket := s.Begin()
	s.SignOut()

	if s.Resolve(ticket, alice) {
		t.Fatal("a fetch that started before sign-out must be discarded")
	}
	if s.IsAuthenticated() {
		t.Fatal("stale fetch resurrected the session")
	}
}

func TestStore_StaleRejectAfterSignInIsDiscarded(t *testing.T) {
	s := New(0)
	ticket := s.Begin()
	s.SignIn(alice)

	if s.Reject(ticket) {
		t.Fatal("a failed fetch that started before sign-in must be discarded")
	}
	if !s.IsAuthenticated() {
		t.Fatal("stale failure signed the user out")
	}
}

func TestStore_CacheStaleTime(t *testing.T) {
	now := time.Unix(1000, 0)
	s := New(5 * time.Minute)
	s.now = func() time.Time { return now }

	s.SignIn(alice)
	if got, ok := s.Cached(); !ok || got != alice {
		t.Fatalf("expected fresh cache, got %+v %v", got, ok)
	}

	now = now.Add(5 * time.Minute)
	if _, ok := s.Cached(); ok {
		t.Fatal("identity served after stale time")
	}
	if !s.IsAuthenticated() {
		t.Fatal("stale cache must not sign the user out")
	}
}

func TestStore_Invalidate(t *testing.T) {
	s := New(0)
	s.SignIn(alice)
	s.Invalidate()

	if _, ok := s.Cached(); ok {
		t.Fatal("invalidated identity still served from cache")
	}
	if !s.IsAuthenticated() {
		t.Fatal("Invalidate must keep the state")
	}
	if !s.Resolve(s.Begin(), alice) {
		t.Fatal("Invalidate must not cancel fetches")
	}
}

func TestStore_ClearOnUnknownStaysUnknown(t *testing.T) {
	s := New(0)
	ticket := s.Begin()
	s.Clear()
	if s.State() != Unknown {
		t.Fatalf("expected unknown, got %s", s.State())
	}
	if s.Resolve(ticket, alice) {
		t.Fatal("Clear must cancel in-flight fetches")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); s.SignIn(alice) }()
		go func() { defer wg.Done(); s.SignOut() }()
		go func() { defer wg.Done(); _ = s.Resolve(s.Begin(), alice); _ = s.Snapshot() }()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.Authenticated() != (snap.Identity != nil) {
		t.Fatalf("state and identity disagree: %+v", snap)
	}
}
