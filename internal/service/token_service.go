package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
)

// TokenService provides high-level operations for issuing, resolving
// and revoking tokens. It composes the TokenManager and RevocationStore.
type TokenService struct {
	manager model.TokenManager
	store   model.RevocationStore
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, store model.RevocationStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger}
}

// IssueAuth mints an auth token for userID.
func (s *TokenService) IssueAuth(userID uuid.UUID) (string, error) {
	token, _, err := s.manager.GenerateAuthToken(userID)
	if err != nil {
		return "", fmt.Errorf("issue auth: %w", err)
	}
	return token, nil
}

// IssueTemp mints a temporary token that points at challenge.
func (s *TokenService) IssueTemp(challenge model.Challenge) (string, error) {
	token, err := s.manager.GenerateTempToken(challenge.UserID, challenge.ID, challenge.IssuedAt)
	if err != nil {
		return "", fmt.Errorf("issue temp: %w", err)
	}
	return token, nil
}

// ParseTemp validates a temporary token and returns the challenge ID and
// subject it was issued for.
func (s *TokenService) ParseTemp(token string) (challengeID uuid.UUID, userID uuid.UUID, err error) {
	claims, err := s.manager.ParseTempToken(token)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: %w", model.ErrTokenInvalid, err)
	}
	challengeID, err = uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: jti: %w", model.ErrTokenInvalid, err)
	}
	return challengeID, claims.UserID, nil
}

// Resolve validates an auth token and rejects revoked ones.
func (s *TokenService) Resolve(ctx context.Context, token string) (model.TokenClaims, error) {
	claims, err := s.manager.ParseAuthToken(token)
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("%w: %w", model.ErrTokenInvalid, err)
	}

	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return model.TokenClaims{}, fmt.Errorf("%w: %w", model.ErrTokenInvalid, model.ErrTokenRevoked)
	}
	return claims, nil
}

// Revoke blocks token until it would have expired on its own.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	claims, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}

	if err := s.store.Revoke(ctx, claims.ID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke: %w", err)
	}

	s.logger.Debug("Token service: token revoked",
		"user_id", claims.UserID,
		"expires_at", claims.ExpiresAt)
	return nil
}
