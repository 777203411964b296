package domain

// Credential is the bearer token pair persisted by clients. RefreshToken is
// optional; an empty Token means the client is unauthenticated.
type Credential struct {
	Token        string
	RefreshToken string
}

// LoginCredentials is the body of POST /auth/login.
type LoginCredentials struct {
	Email      string `json:"email"                validate:"required,email"`
	Password   string `json:"password"             validate:"required,min=8,max=100"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Name            string `json:"name"            validate:"required,min=2"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,min=8,max=100"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	AcceptTerms     bool   `json:"acceptTerms"     validate:"required"`
}

// RefreshRequest is the body of POST /auth/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthResult is returned by login, register and refresh.
type AuthResult struct {
	User         Identity `json:"user"`
	Token        string   `json:"token"                  validate:"required"`
	RefreshToken string   `json:"refreshToken,omitempty"`
}

// Credential extracts the token pair to persist.
func (r AuthResult) Credential() Credential {
	return Credential{Token: r.Token, RefreshToken: r.RefreshToken}
}
