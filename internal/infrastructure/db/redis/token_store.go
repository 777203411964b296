package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/starterkit/webapp/internal/core/domain"
)

// TokenStore keeps refresh tokens and revoked access token ids in Redis.
// Key formats:
//
//	auth:refresh:<token>  -> user id (expires with the refresh token)
//	auth:revoked:<jti>    -> "1"     (expires with the access token)
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore creates a TokenStore wrapping the given Redis client.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func (s *TokenStore) SaveRefresh(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// ConsumeRefresh atomically reads and deletes the refresh token.
func (s *TokenStore) ConsumeRefresh(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, refreshKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("consume refresh token: %w", err)
	}
	return userID, nil
}

func (s *TokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return s.client.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

func (s *TokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func refreshKey(token string) string { return "auth:refresh:" + token }

func revokedKey(jti string) string { return "auth:revoked:" + jti }
