package domain

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrForbidden           = errors.New("access forbidden")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidInput        = errors.New("invalid input")
)
