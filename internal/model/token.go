package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenManager mints and validates auth tokens and temporary tokens.
type TokenManager interface {
	GenerateAuthToken(userID uuid.UUID) (token string, claims TokenClaims, err error)
	GenerateTempToken(userID, challengeID uuid.UUID, issuedAt time.Time) (string, error)
	ParseAuthToken(token string) (TokenClaims, error)
	ParseTempToken(token string) (TokenClaims, error)
}

// TokenClaims is what a parsed token reveals about its subject.
type TokenClaims struct {
	UserID    uuid.UUID
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
