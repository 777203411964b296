// Package credential persists the bearer token pair of a client.
package credential

import (
	"context"
	"fmt"

	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
)

// Storage keys. Browsers and the CLI share them so a store can move between hosts.
const (
	TokenKey        = "auth_token"
	RefreshTokenKey = "refresh_token"
)

// Vault reads and writes a Credential in a key/value store.
type Vault struct {
	store ports.KeyValueStore
}

func NewVault(store ports.KeyValueStore) *Vault {
	return &Vault{store: store}
}

func (v *Vault) Token(ctx context.Context) (string, bool, error) {
	return v.get(ctx, TokenKey)
}

func (v *Vault) RefreshToken(ctx context.Context) (string, bool, error) {
	return v.get(ctx, RefreshTokenKey)
}

// HasToken reports whether a bearer token is stored. Read errors count as absent.
func (v *Vault) HasToken(ctx context.Context) bool {
	_, ok, err := v.Token(ctx)
	return ok && err == nil
}

// Load returns the stored credential; ok is false without a bearer token.
func (v *Vault) Load(ctx context.Context) (domain.Credential, bool, error) {
	token, ok, err := v.Token(ctx)
	if err != nil || !ok {
		return domain.Credential{}, false, err
	}
	refresh, _, err := v.RefreshToken(ctx)
	if err != nil {
		return domain.Credential{}, false, err
	}
	return domain.Credential{Token: token, RefreshToken: refresh}, true, nil
}

// Save persists cred. An empty RefreshToken keeps the stored one.
func (v *Vault) Save(ctx context.Context, cred domain.Credential) error {
	if cred.Token == "" {
		return fmt.Errorf("save credential: empty token")
	}
	if err := v.store.Set(ctx, TokenKey, cred.Token); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	if cred.RefreshToken != "" {
		if err := v.store.Set(ctx, RefreshTokenKey, cred.RefreshToken); err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}
	}
	return nil
}

// ClearToken removes the bearer token and keeps the refresh token.
func (v *Vault) ClearToken(ctx context.Context) error {
	if err := v.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Clear removes both tokens.
func (v *Vault) Clear(ctx context.Context) error {
	if err := v.store.Delete(ctx, TokenKey, RefreshTokenKey); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (v *Vault) get(ctx context.Context, key string) (string, bool, error) {
	val, ok, err := v.store.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || val == "" {
		return "", false, nil
	}
	return val, true, nil
}
