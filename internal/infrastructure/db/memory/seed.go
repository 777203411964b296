package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/starterkit/webapp/internal/core/domain"
)

// SeedUser is one account of a mock seed file.
//
//	users:
//	  - id: "1"
//	    email: test@example.com
//	    name: Test User
//	    password: password
//	    role: user
type SeedUser struct {
	ID       string `yaml:"id"`
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Avatar   string `yaml:"avatar"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type seedFile struct {
	Users []SeedUser `yaml:"users"`
}

// DefaultSeed is the account the mock backend always knows about.
var DefaultSeed = []SeedUser{{
	ID:       "1",
	Email:    "test@example.com",
	Name:     "Test User",
	Password: "password",
	Role:     domain.RoleUser,
}}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) ([]SeedUser, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(b)
}

// ParseSeed decodes seed YAML and checks every entry.
func ParseSeed(b []byte) ([]SeedUser, error) {
	var doc seedFile
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("seed file is malformed: %w", err)
	}
	for i, u := range doc.Users {
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("seed user %d: email and password are required", i)
		}
		if u.Role != "" && !domain.ValidRole(u.Role) {
			return nil, fmt.Errorf("seed user %d: unknown role %q", i, u.Role)
		}
	}
	return doc.Users, nil
}

// Seed hashes and inserts the given users. Existing emails are skipped.
func Seed(ctx context.Context, repo *UserRepository, users []SeedUser) error {
	now := time.Now().UTC()
	for _, su := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.MinCost)
		if err != nil {
			return fmt.Errorf("seed %s: %w", su.Email, err)
		}
		role := su.Role
		if role == "" {
			role = domain.RoleUser
		}
		_, err = repo.Create(ctx, &domain.User{
			ID:           su.ID,
			Email:        strings.ToLower(su.Email),
			Name:         su.Name,
			Avatar:       su.Avatar,
			PasswordHash: string(hash),
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil && !errors.Is(err, domain.ErrUserExists) {
			return fmt.Errorf("seed %s: %w", su.Email, err)
		}
	}
	return nil
}
