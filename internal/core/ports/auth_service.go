package ports

import (
	"context"
	"time"

	"github.com/starterkit/webapp/internal/core/domain"
)

// TokenClaims is what the auth middleware extracts from a verified access token.
type TokenClaims struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// AuthService implements the backend side of the auth endpoints.
type AuthService interface {
	Login(ctx context.Context, in domain.LoginCredentials) (*domain.AuthResult, error)
	Register(ctx context.Context, in domain.Registration) (*domain.AuthResult, error)
	Me(ctx context.Context, userID string) (*domain.Identity, error)
	Logout(ctx context.Context, claims TokenClaims) error
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	// Verify parses an access token and rejects revoked ones.
	Verify(ctx context.Context, token string) (TokenClaims, error)
}
