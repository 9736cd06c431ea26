// Package seed holds the fixed demo directory the mock backend serves.
package seed

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/authflow/internal/model"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Password123"

// DemoTOTPSecret is the authenticator secret of user@example.com.
const DemoTOTPSecret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

// User is a seeded identity together with its raw password.
type User struct {
	Identity model.Identity
	Password string
}

// Users returns the demo directory. Each call returns fresh copies.
func Users() []User {
	return []User{
		{
			Identity: model.Identity{
				ID:               uuid.MustParse("6f1c2d1e-8a4b-4c55-9e0a-000000000001"),
				Email:            "user@example.com",
				Name:             "John Doe",
				Avatar:           "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=150&h=150&fit=crop&crop=face",
				TwoFactorEnabled: true,
				TOTPSecret:       DemoTOTPSecret,
				IsEmailVerified:  true,
			},
			Password: DemoPassword,
		},
		{
			Identity: model.Identity{
				ID:              uuid.MustParse("6f1c2d1e-8a4b-4c55-9e0a-000000000002"),
				Email:           "locked@example.com",
				Name:            "Locked User",
				IsLocked:        true,
				IsEmailVerified: true,
			},
			Password: DemoPassword,
		},
		{
			Identity: model.Identity{
				ID:              uuid.MustParse("6f1c2d1e-8a4b-4c55-9e0a-000000000003"),
				Email:           "suspended@example.com",
				Name:            "Suspended User",
				IsSuspended:     true,
				IsEmailVerified: true,
			},
			Password: DemoPassword,
		},
		{
			Identity: model.Identity{
				ID:    uuid.MustParse("6f1c2d1e-8a4b-4c55-9e0a-000000000004"),
				Email: "unverified@example.com",
				Name:  "Unverified User",
			},
			Password: DemoPassword,
		},
	}
}

// Hasher derives stored password hashes.
type Hasher interface {
	Hash(password string) (string, error)
}

// Identities hashes the seed passwords and returns ready-to-store identities.
func Identities(hasher Hasher, users []User) ([]model.Identity, error) {
	out := make([]model.Identity, 0, len(users))
	for _, u := range users {
		hash, err := hasher.Hash(u.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", u.Identity.Email, err)
		}
		identity := u.Identity
		identity.PasswordHash = hash
		out = append(out, identity)
	}
	return out, nil
}
