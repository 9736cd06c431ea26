package model

import (
	"context"

	"github.com/google/uuid"
)

// IdentityStore is the read side of the identity directory.
type IdentityStore interface {
	GetByEmail(ctx context.Context, email string) (Identity, error)
	GetByID(ctx context.Context, id uuid.UUID) (Identity, error)
}

// Identity is a directory entry with its credential material.
// Status flags are administrator-set; the login flows only read them.
type Identity struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	Name             string
	Avatar           string
	TwoFactorEnabled bool
	TOTPSecret       string
	IsLocked         bool
	IsSuspended      bool
	IsEmailVerified  bool
}

// User returns the identity without credential material.
func (i Identity) User() User {
	return User{
		ID:               i.ID,
		Email:            i.Email,
		Name:             i.Name,
		Avatar:           i.Avatar,
		TwoFactorEnabled: i.TwoFactorEnabled,
	}
}

// User is the public view of an identity. It is what clients persist.
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Avatar           string    `json:"avatar,omitempty"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
}
