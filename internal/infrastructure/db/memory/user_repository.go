// Package memory provides in-process implementations of the storage ports.
// They back the mock mode of the auth backend and the single-process clients.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
)

// UserRepository is a mutex-guarded map of users keyed by id.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	c := cloneUser(user)
	if c.ID == "" {
		c.ID = uuid.NewString()
	} else if _, taken := r.users[c.ID]; taken {
		return nil, domain.ErrUserExists
	}
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// List mirrors the Mongo ordering: newest first, ties broken by id.
func (r *UserRepository) List(_ context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.mu.RLock()
	matched := make([]*domain.User, 0, len(r.users))
	search := strings.ToLower(filter.Search)
	for _, u := range r.users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Name), search) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start < 0 {
		start = 0
	}
	if start >= len(matched) {
		return []*domain.User{}, total, nil
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}
