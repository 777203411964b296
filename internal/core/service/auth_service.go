package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	tokenIssuer       = "webapp-auth"
)

// accessClaims is the payload of an access token.
type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthOptions tunes token lifetimes. Zero values fall back to the defaults.
type AuthOptions struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthService implements login, registration, logout and token refresh.
type AuthService struct {
	users      ports.UserRepository
	tokens     ports.TokenStore
	audit      ports.AuditSink
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenStore, audit ports.AuditSink, opts AuthOptions, log zerolog.Logger) *AuthService {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = defaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = defaultRefreshTTL
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		audit:      audit,
		jwtSecret:  []byte(opts.JWTSecret),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        time.Now,
		log:        log,
	}
}

func (s *AuthService) Login(ctx context.Context, in domain.LoginCredentials) (*domain.AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.record(domain.AuthEvent{Type: domain.EventLogin, Email: email, Reason: "unknown_email"})
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		s.record(domain.AuthEvent{Type: domain.EventLogin, UserID: user.ID, Email: email, Reason: "bad_password"})
		return nil, domain.ErrInvalidCredentials
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.record(domain.AuthEvent{Type: domain.EventLogin, UserID: user.ID, Email: email, Success: true})
	return result, nil
}

func (s *AuthService) Register(ctx context.Context, in domain.Registration) (*domain.AuthResult, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Password != in.ConfirmPassword || !in.AcceptTerms {
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.record(domain.AuthEvent{Type: domain.EventRegister, Email: email, Reason: "duplicate"})
		}
		return nil, err
	}

	result, err := s.issue(ctx, created)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.record(domain.AuthEvent{Type: domain.EventRegister, UserID: created.ID, Email: email, Success: true})
	return result, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.Identity, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	id := user.Identity()
	return &id, nil
}

// Logout revokes the presented access token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims ports.TokenClaims) error {
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl > 0 && claims.TokenID != "" {
		if err := s.tokens.Revoke(ctx, claims.TokenID, ttl); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}
	s.record(domain.AuthEvent{Type: domain.EventLogout, UserID: claims.UserID, Email: claims.Email, Success: true})
	return nil
}

// Refresh exchanges a refresh token for a new token pair. Refresh tokens are
// single use: the presented token is consumed before the new pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidRefreshToken
	}

	userID, err := s.tokens.ConsumeRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRefreshToken) {
			s.record(domain.AuthEvent{Type: domain.EventRefresh, Reason: "unknown_token"})
		}
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	s.record(domain.AuthEvent{Type: domain.EventRefresh, UserID: user.ID, Email: user.Email, Success: true})
	return result, nil
}

func (s *AuthService) Verify(ctx context.Context, token string) (ports.TokenClaims, error) {
	claims := &accessClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(tokenIssuer))
	if err != nil || !tkn.Valid {
		return ports.TokenClaims{}, domain.ErrInvalidToken
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return ports.TokenClaims{}, fmt.Errorf("verify: %w", err)
	}
	if revoked {
		return ports.TokenClaims{}, domain.ErrTokenRevoked
	}

	out := ports.TokenClaims{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *AuthService) issue(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	refresh := uuid.NewString()
	if err := s.tokens.SaveRefresh(ctx, refresh, user.ID, s.refreshTTL); err != nil {
		return nil, err
	}

	return &domain.AuthResult{
		User:         user.Identity(),
		Token:        token,
		RefreshToken: refresh,
	}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		Email: user.Email,
		Role:  user.Role,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}

func (s *AuthService) record(event domain.AuthEvent) {
	if s.audit == nil {
		return
	}
	event.At = s.now().UTC()
	s.audit.Enqueue(event)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
