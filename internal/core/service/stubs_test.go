package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
)

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by id
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	copy := cloneUser(user)
	if copy.ID == "" {
		copy.ID = fmt.Sprintf("u%d", r.nextID)
	}
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, int64(len(out)), nil
}

type stubTokenStore struct {
	refresh map[string]string
	revoked map[string]time.Duration
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{refresh: make(map[string]string), revoked: make(map[string]time.Duration)}
}

func (s *stubTokenStore) SaveRefresh(_ context.Context, token, userID string, _ time.Duration) error {
	s.refresh[token] = userID
	return nil
}

func (s *stubTokenStore) ConsumeRefresh(_ context.Context, token string) (string, error) {
	userID, ok := s.refresh[token]
	if !ok {
		return "", domain.ErrInvalidRefreshToken
	}
	delete(s.refresh, token)
	return userID, nil
}

func (s *stubTokenStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.revoked[jti] = ttl
	return nil
}

func (s *stubTokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := s.revoked[jti]
	return ok, nil
}

type stubAuditSink struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (s *stubAuditSink) Enqueue(event domain.AuthEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *stubAuditSink) last() domain.AuthEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return domain.AuthEvent{}
	}
	return s.events[len(s.events)-1]
}
