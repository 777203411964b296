package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/starterkit/webapp/internal/api/metrics"
	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type userService struct {
	repo ports.UserRepository
	now  func() time.Time
}

// NewUserService returns the admin users resource implementation.
func NewUserService(repo ports.UserRepository) ports.UserService {
	return &userService{repo: repo, now: time.Now}
}

func (s *userService) List(ctx context.Context, filter ports.ListUsersFilter) (*ports.ListUsersResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	items := make([]domain.Identity, len(users))
	for i, u := range users {
		items[i] = u.Identity()
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ports.ListUsersResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *userService) Get(ctx context.Context, id string) (*domain.Identity, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	identity := user.Identity()
	return &identity, nil
}

func (s *userService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.Identity, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:        normalizeEmail(in.Email),
		Name:         strings.TrimSpace(in.Name),
		Avatar:       in.Avatar,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	metrics.UsersMutationsTotal.WithLabelValues("create").Inc()
	identity := created.Identity()
	return &identity, nil
}

func (s *userService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.Identity, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = normalizeEmail(*in.Email)
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if in.Role != nil {
		if !domain.ValidRole(*in.Role) {
			return nil, domain.ErrInvalidInput
		}
		user.Role = *in.Role
	}
	user.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	metrics.UsersMutationsTotal.WithLabelValues("update").Inc()
	identity := updated.Identity()
	return &identity, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.UsersMutationsTotal.WithLabelValues("delete").Inc()
	return nil
}
