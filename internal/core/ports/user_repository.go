package ports

import (
	"context"

	"github.com/starterkit/webapp/internal/core/domain"
)

// ListUsersFilter carries the paging parameters for listing users.
type ListUsersFilter struct {
	Search string // optional: partial match on email or name
	Page   int    // 1-based
	Limit  int    // capped at 100 by the service
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	// List returns a page of users matching filter and the total count.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
}
