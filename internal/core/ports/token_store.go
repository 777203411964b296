package ports

import (
	"context"
	"time"
)

// TokenStore keeps the server-side token state: single-use refresh tokens
// and the revocation list of access tokens that were logged out before
// their expiry.
type TokenStore interface {
	SaveRefresh(ctx context.Context, token, userID string, ttl time.Duration) error
	// ConsumeRefresh returns the owner of token and deletes it. It returns
	// domain.ErrInvalidRefreshToken when the token is unknown or expired.
	ConsumeRefresh(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
