package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// Identity is the public profile of an authenticated user. It is the shape
// returned by /auth/me and embedded in every auth response.
type Identity struct {
	ID     string `json:"id"               validate:"required"`
	Email  string `json:"email"            validate:"required,email"`
	Name   string `json:"name"             validate:"required"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role"             validate:"omitempty,oneof=user admin"`
}

// Normalize applies payload defaults: a missing role means "user".
func (i *Identity) Normalize() {
	if i.Role == "" {
		i.Role = RoleUser
	}
}

// User models a stored account on the backend.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity projects the stored account onto its public profile.
func (u *User) Identity() Identity {
	return Identity{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Avatar: u.Avatar,
		Role:   u.Role,
	}
}
