package ports

import (
	"context"

	"github.com/starterkit/webapp/internal/core/domain"
)

// CreateUserInput is the DTO for admin-created accounts.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Avatar   string
}

// UpdateUserInput carries optional fields; nil means "leave unchanged".
type UpdateUserInput struct {
	Name   *string
	Email  *string
	Role   *string
	Avatar *string
}

// ListUsersResult is a page of users plus paging metadata.
type ListUsersResult struct {
	Items      []domain.Identity
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService implements the admin users resource.
type UserService interface {
	List(ctx context.Context, filter ListUsersFilter) (*ListUsersResult, error)
	Get(ctx context.Context, id string) (*domain.Identity, error)
	Create(ctx context.Context, in CreateUserInput) (*domain.Identity, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*domain.Identity, error)
	Delete(ctx context.Context, id string) error
}
