package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/authflow/internal/model"
)

// Claims represents JWT claims with token type and user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"user_id"`
	TokenType string    `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey string
	now       func() time.Time
}

// Option configures JWT.
type Option func(*JWT)

// WithClock replaces the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) { j.now = now }
}

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey string, opts ...Option) *JWT {
	j := &JWT{secretKey: secretKey, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

var _ model.TokenManager = (*JWT)(nil)

const (
	// AuthTTL bounds an authenticated session.
	AuthTTL = 24 * time.Hour
	// TempTTL bounds a pending two-factor challenge.
	TempTTL = 10 * time.Minute

	typeAuth = "access"
	typeTemp = "2fa"
)

// GenerateAuthToken creates an auth token with a fresh JTI.
func (j *JWT) GenerateAuthToken(userID uuid.UUID) (string, model.TokenClaims, error) {
	now := j.now()
	claims := model.TokenClaims{
		UserID:    userID,
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(AuthTTL),
	}

	token, err := j.sign(claims, typeAuth)
	if err != nil {
		return "", model.TokenClaims{}, fmt.Errorf("failed to sign auth token: %w", err)
	}
	return token, claims, nil
}

// GenerateTempToken creates a temporary token bound to userID whose JTI is
// the challenge ID.
func (j *JWT) GenerateTempToken(userID, challengeID uuid.UUID, issuedAt time.Time) (string, error) {
	token, err := j.sign(model.TokenClaims{
		UserID:    userID,
		ID:        challengeID.String(),
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(TempTTL),
	}, typeTemp)
	if err != nil {
		return "", fmt.Errorf("failed to sign temp token: %w", err)
	}
	return token, nil
}

// ParseAuthToken validates an auth token and returns its claims.
func (j *JWT) ParseAuthToken(tokenString string) (model.TokenClaims, error) {
	claims, err := j.parse(tokenString, typeAuth)
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("failed to parse auth token: %w", err)
	}
	return claims, nil
}

// ParseTempToken validates a temporary token and returns its claims.
func (j *JWT) ParseTempToken(tokenString string) (model.TokenClaims, error) {
	claims, err := j.parse(tokenString, typeTemp)
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("failed to parse temp token: %w", err)
	}
	return claims, nil
}

func (j *JWT) sign(c model.TokenClaims, tokenType string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        c.ID,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
		UserID:    c.UserID,
		TokenType: tokenType,
	})
	return token.SignedString([]byte(j.secretKey))
}

func (j *JWT) parse(tokenString, tokenType string) (model.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return model.TokenClaims{}, err
	}

	if !token.Valid {
		return model.TokenClaims{}, model.ErrTokenMalformed
	}

	if claims.TokenType != tokenType {
		return model.TokenClaims{}, fmt.Errorf("%w: %s", model.ErrTokenType, claims.TokenType)
	}

	return toModel(claims)
}

// PeekIssuedAt reads the iat claim without verifying the signature. Clients
// use it to recover when a stored temporary token was issued; the server
// never trusts it.
func PeekIssuedAt(tokenString string) (time.Time, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", model.ErrTokenMalformed, err)
	}
	if claims.IssuedAt == nil {
		return time.Time{}, model.ErrTokenMalformed
	}
	return claims.IssuedAt.Time, nil
}

func toModel(c *Claims) (model.TokenClaims, error) {
	if c.UserID == uuid.Nil || c.IssuedAt == nil || c.ExpiresAt == nil {
		return model.TokenClaims{}, model.ErrTokenMalformed
	}
	return model.TokenClaims{
		UserID:    c.UserID,
		ID:        c.ID,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// IsExpired reports whether err was caused by an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
