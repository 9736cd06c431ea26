package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChallengeStore persists pending two-factor challenges.
type ChallengeStore interface {
	Create(ctx context.Context, challenge Challenge) error
	Get(ctx context.Context, id uuid.UUID) (Challenge, error)
	Update(ctx context.Context, challenge Challenge) error
	// Consume removes the challenge. Only the first call for an ID succeeds;
	// later calls return ErrNotFound.
	Consume(ctx context.Context, id uuid.UUID) error
}

// Challenge is the server-side half of a temporary token: it binds the token
// to one identity and tracks the code currently expected.
type Challenge struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	IssuedAt     time.Time
	CodeIssuedAt time.Time
	ExpiresAt    time.Time
	Attempts     int

	// CodeHash is set by verifiers that issue their own codes.
	CodeHash []byte
}

// Expired reports whether the challenge can no longer be redeemed at now.
func (c Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Credentials is a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TwoFactorCode is a verification request body.
type TwoFactorCode struct {
	Code string `json:"code"`
}

// AuthResult is the success payload of login and verification.
// Exactly one of Token and TempToken is set.
type AuthResult struct {
	User              User   `json:"user"`
	Token             string `json:"token,omitempty"`
	RequiresTwoFactor bool   `json:"requiresTwoFactor"`
	TempToken         string `json:"tempToken,omitempty"`
}

// CodeResent acknowledges a new-code request.
type CodeResent struct {
	Message           string    `json:"message"`
	ResendAvailableAt time.Time `json:"resendAvailableAt"`
}
