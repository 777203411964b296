package memory

import (
	"context"
	"sync"
	"time"

	"github.com/starterkit/webapp/internal/core/domain"
)

type refreshEntry struct {
	userID    string
	expiresAt time.Time
}

// TokenStore keeps refresh tokens and revoked token ids with lazy expiry.
type TokenStore struct {
	mu      sync.Mutex
	refresh map[string]refreshEntry
	revoked map[string]time.Time
	now     func() time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		refresh: make(map[string]refreshEntry),
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *TokenStore) SaveRefresh(_ context.Context, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[token] = refreshEntry{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *TokenStore) ConsumeRefresh(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.refresh[token]
	delete(s.refresh, token)
	if !ok || !s.now().Before(entry.expiresAt) {
		return "", domain.ErrInvalidRefreshToken
	}
	return entry.userID, nil
}

func (s *TokenStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = s.now().Add(ttl)
	return nil
}

func (s *TokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[jti]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.revoked, jti)
		return false, nil
	}
	return true, nil
}
