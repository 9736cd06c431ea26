package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
)

// CodeResentMessage acknowledges a successful new-code request.
const CodeResentMessage = "A new verification code has been sent to your device."

// Policy holds the thresholds the auth service enforces.
type Policy struct {
	MaxFailedAttempts int
	LockoutWindow     time.Duration
	ChallengeTTL      time.Duration
	CodeTTL           time.Duration
	// MaxCodeAttempts bounds wrong codes per challenge. Zero means unlimited.
	MaxCodeAttempts   int
	ResendCooldown    time.Duration
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MaxFailedAttempts: 5,
		LockoutWindow:     15 * time.Minute,
		ChallengeTTL:      10 * time.Minute,
		CodeTTL:           5 * time.Minute,
		ResendCooldown:    45 * time.Second,
	}
}

// PasswordVerifier checks a raw password against a stored hash.
type PasswordVerifier interface {
	Verify(password, encoded string) (bool, error)
}

var _ model.AuthClient = (*Auth)(nil)

// Auth implements login, second-factor verification and code re-issue.
// Every error it returns is an *apierror.APIError.
type Auth struct {
	identities model.IdentityStore
	attempts   model.AttemptStore
	challenges model.ChallengeStore
	tokens     *TokenService
	codes      model.CodeVerifier
	transport  model.Transport
	passwords  PasswordVerifier
	policy     Policy
	logger     *logger.Logger
	now        func() time.Time
}

// AuthOption configures Auth.
type AuthOption func(*Auth)

// WithClock replaces the time source.
func WithClock(now func() time.Time) AuthOption {
	return func(a *Auth) { a.now = now }
}

// WithPolicy overrides the default thresholds.
func WithPolicy(p Policy) AuthOption {
	return func(a *Auth) { a.policy = p }
}

func NewAuth(
	identities model.IdentityStore,
	attempts model.AttemptStore,
	challenges model.ChallengeStore,
	tokens *TokenService,
	codes model.CodeVerifier,
	transport model.Transport,
	passwords PasswordVerifier,
	logger *logger.Logger,
	opts ...AuthOption,
) *Auth {
	a := &Auth{
		identities: identities,
		attempts:   attempts,
		challenges: challenges,
		tokens:     tokens,
		codes:      codes,
		transport:  transport,
		passwords:  passwords,
		policy:     DefaultPolicy(),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login checks credentials. The checks run in a fixed order and each one
// short-circuits the rest: lockout, directory lookup, account status, then
// the password itself.
func (a *Auth) Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	email := normalizeEmail(creds.Email)

	a.logger.Debug("Auth service: starting login",
		"email", email)

	if err := a.roundTrip(ctx, model.OpLogin); err != nil {
		a.logger.Info("Auth service: login round trip failed",
			"email", email,
			"error", err.Error())
		return model.AuthResult{}, err
	}

	now := a.now()

	state, err := a.attemptState(ctx, email, now)
	if err != nil {
		return model.AuthResult{}, a.internal("failed to get attempt state", err, "email", email)
	}
	if state.Locked(now, a.policy.MaxFailedAttempts, a.policy.LockoutWindow) {
		a.logger.Info("Auth service: login throttled",
			"email", email,
			"attempts", state.Count)
		return model.AuthResult{}, apierror.NewErrTooManyAttempts()
	}

	identity, err := a.identities.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		if err := a.recordFailure(ctx, email, now); err != nil {
			return model.AuthResult{}, err
		}
		a.logger.Info("Auth service: user not found",
			"email", email)
		return model.AuthResult{}, apierror.NewErrUserNotFound()
	}
	if err != nil {
		return model.AuthResult{}, a.internal("failed to get user by email", err, "email", email)
	}

	switch {
	case identity.IsLocked:
		a.logger.Info("Auth service: account locked", "email", email)
		return model.AuthResult{}, apierror.NewErrAccountLocked()
	case identity.IsSuspended:
		a.logger.Info("Auth service: account suspended", "email", email)
		return model.AuthResult{}, apierror.NewErrAccountSuspended()
	case !identity.IsEmailVerified:
		a.logger.Info("Auth service: email not verified", "email", email)
		return model.AuthResult{}, apierror.NewErrEmailNotVerified()
	}

	ok, err := a.passwords.Verify(creds.Password, identity.PasswordHash)
	if err != nil {
		return model.AuthResult{}, a.internal("failed to verify password", err, "email", email)
	}
	if !ok {
		if err := a.recordFailure(ctx, email, now); err != nil {
			return model.AuthResult{}, err
		}
		a.logger.Info("Auth service: invalid credentials",
			"email", email)
		return model.AuthResult{}, apierror.NewErrInvalidCredentials()
	}

	if err := a.attempts.Clear(ctx, email); err != nil {
		return model.AuthResult{}, a.internal("failed to clear attempts", err, "email", email)
	}

	if identity.TwoFactorEnabled {
		tempToken, err := a.startChallenge(ctx, identity, now)
		if err != nil {
			return model.AuthResult{}, err
		}

		a.logger.Info("Auth service: login requires second factor",
			"email", email,
			"user_id", identity.ID)

		return model.AuthResult{
			User:              identity.User(),
			RequiresTwoFactor: true,
			TempToken:         tempToken,
		}, nil
	}

	token, err := a.tokens.IssueAuth(identity.ID)
	if err != nil {
		return model.AuthResult{}, a.internal("failed to issue auth token", err, "email", email)
	}

	a.logger.Info("Auth service: login completed successfully",
		"email", email,
		"user_id", identity.ID)

	return model.AuthResult{User: identity.User(), Token: token}, nil
}

// VerifyTwoFactor redeems a temporary token with a second-factor code.
// A redeemed token cannot be used again.
func (a *Auth) VerifyTwoFactor(ctx context.Context, tempToken string, code model.TwoFactorCode) (model.AuthResult, error) {
	a.logger.Debug("Auth service: starting second factor verification")

	if err := a.roundTrip(ctx, model.OpVerifyTwoFactor); err != nil {
		a.logger.Info("Auth service: verification round trip failed",
			"error", err.Error())
		return model.AuthResult{}, err
	}

	now := a.now()

	challenge, identity, err := a.resolveChallenge(ctx, tempToken, now)
	if err != nil {
		return model.AuthResult{}, err
	}

	verifyErr := a.codes.Verify(ctx, identity, challenge, code.Code, now)
	switch {
	case errors.Is(verifyErr, model.ErrCodeInvalid):
		return model.AuthResult{}, a.rejectCode(ctx, challenge)
	case errors.Is(verifyErr, model.ErrCodeExpired):
		a.logger.Info("Auth service: code expired",
			"user_id", identity.ID)
		return model.AuthResult{}, apierror.NewErrExpired2FACode()
	case verifyErr != nil:
		return model.AuthResult{}, a.internal("failed to verify code", verifyErr, "user_id", identity.ID)
	}

	if !now.Before(challenge.CodeIssuedAt.Add(a.policy.CodeTTL)) {
		a.logger.Info("Auth service: code outlived its window",
			"user_id", identity.ID,
			"code_issued_at", challenge.CodeIssuedAt)
		return model.AuthResult{}, apierror.NewErrExpired2FACode()
	}

	err = a.challenges.Consume(ctx, challenge.ID)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Auth service: challenge already redeemed",
			"user_id", identity.ID)
		return model.AuthResult{}, apierror.NewErrInvalidSession()
	}
	if err != nil {
		return model.AuthResult{}, a.internal("failed to consume challenge", err, "user_id", identity.ID)
	}

	token, err := a.tokens.IssueAuth(identity.ID)
	if err != nil {
		return model.AuthResult{}, a.internal("failed to issue auth token", err, "user_id", identity.ID)
	}

	a.logger.Info("Auth service: second factor verified successfully",
		"user_id", identity.ID)

	return model.AuthResult{User: identity.User(), Token: token}, nil
}

// RequestNewCode re-issues the code of a pending challenge. The previous code
// stops working. Wrong codes counted so far still count.
func (a *Auth) RequestNewCode(ctx context.Context, tempToken string) (model.CodeResent, error) {
	a.logger.Debug("Auth service: starting code re-issue")

	if err := a.roundTrip(ctx, model.OpRequestNewCode); err != nil {
		a.logger.Info("Auth service: code re-issue round trip failed",
			"error", err.Error())
		return model.CodeResent{}, err
	}

	now := a.now()

	challenge, identity, err := a.resolveChallenge(ctx, tempToken, now)
	if err != nil {
		return model.CodeResent{}, err
	}

	challenge.CodeIssuedAt = now
	challenge.CodeHash = nil
	if err := a.codes.Issue(ctx, identity, &challenge); err != nil {
		return model.CodeResent{}, a.internal("failed to issue code", err, "user_id", identity.ID)
	}

	err = a.challenges.Update(ctx, challenge)
	if errors.Is(err, model.ErrNotFound) {
		return model.CodeResent{}, apierror.NewErrInvalidSession()
	}
	if err != nil {
		return model.CodeResent{}, a.internal("failed to update challenge", err, "user_id", identity.ID)
	}

	a.logger.Info("Auth service: code re-issued",
		"user_id", identity.ID,
		"challenge_id", challenge.ID)

	return model.CodeResent{
		Message:           CodeResentMessage,
		ResendAvailableAt: now.Add(a.policy.ResendCooldown),
	}, nil
}

// Authenticate resolves the user behind an auth token.
func (a *Auth) Authenticate(ctx context.Context, authToken string) (model.User, error) {
	claims, err := a.tokens.Resolve(ctx, authToken)
	if err != nil {
		a.logger.Debug("Auth service: auth token rejected",
			"error", err.Error())
		return model.User{}, apierror.NewErrSessionExpired()
	}

	identity, err := a.identities.GetByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, apierror.NewErrSessionExpired()
	}
	if err != nil {
		return model.User{}, a.internal("failed to get user by id", err, "user_id", claims.UserID)
	}
	return identity.User(), nil
}

// Logout revokes authToken. An already invalid token is not an error.
func (a *Auth) Logout(ctx context.Context, authToken string) error {
	err := a.tokens.Revoke(ctx, authToken)
	if err == nil {
		a.logger.Info("Auth service: logged out")
		return nil
	}
	if errors.Is(err, model.ErrTokenInvalid) {
		a.logger.Debug("Auth service: logout with unusable token",
			"error", err.Error())
		return nil
	}
	return a.internal("failed to revoke token", err)
}

func (a *Auth) roundTrip(ctx context.Context, op model.Operation) error {
	if err := a.transport.Call(ctx, op); err != nil {
		return apierror.From(err)
	}
	// Nothing below may run for a request the caller has given up on.
	if ctx.Err() != nil {
		return apierror.NewErrNetwork()
	}
	return nil
}

// attemptState returns the counter for email, dropping it first when the
// lockout window has passed since the last failure.
func (a *Auth) attemptState(ctx context.Context, email string, now time.Time) (model.AttemptState, error) {
	state, err := a.attempts.Get(ctx, email)
	if err != nil {
		return model.AttemptState{}, err
	}
	if state.Stale(now, a.policy.LockoutWindow) {
		if err := a.attempts.Clear(ctx, email); err != nil {
			return model.AttemptState{}, err
		}
		return model.AttemptState{Email: email}, nil
	}
	return state, nil
}

func (a *Auth) recordFailure(ctx context.Context, email string, now time.Time) error {
	state, err := a.attempts.RecordFailure(ctx, email, now)
	if err != nil {
		return a.internal("failed to record failed attempt", err, "email", email)
	}
	a.logger.Debug("Auth service: failed attempt recorded",
		"email", email,
		"attempts", state.Count)
	return nil
}

func (a *Auth) startChallenge(ctx context.Context, identity model.Identity, now time.Time) (string, error) {
	challenge := model.Challenge{
		ID:           uuid.New(),
		UserID:       identity.ID,
		IssuedAt:     now,
		CodeIssuedAt: now,
		ExpiresAt:    now.Add(a.policy.ChallengeTTL),
	}

	if err := a.codes.Issue(ctx, identity, &challenge); err != nil {
		return "", a.internal("failed to issue code", err, "user_id", identity.ID)
	}
	if err := a.challenges.Create(ctx, challenge); err != nil {
		return "", a.internal("failed to create challenge", err, "user_id", identity.ID)
	}

	tempToken, err := a.tokens.IssueTemp(challenge)
	if err != nil {
		return "", a.internal("failed to issue temp token", err, "user_id", identity.ID)
	}
	return tempToken, nil
}

// resolveChallenge maps a temporary token to its live challenge and identity.
// Every way it can fail looks the same to the caller.
func (a *Auth) resolveChallenge(ctx context.Context, tempToken string, now time.Time) (model.Challenge, model.Identity, error) {
	challengeID, userID, err := a.tokens.ParseTemp(tempToken)
	if err != nil {
		a.logger.Info("Auth service: temp token rejected",
			"error", err.Error())
		return model.Challenge{}, model.Identity{}, apierror.NewErrInvalidSession()
	}

	challenge, err := a.challenges.Get(ctx, challengeID)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Auth service: challenge not found",
			"challenge_id", challengeID)
		return model.Challenge{}, model.Identity{}, apierror.NewErrInvalidSession()
	}
	if err != nil {
		return model.Challenge{}, model.Identity{}, a.internal("failed to get challenge", err, "challenge_id", challengeID)
	}

	if challenge.UserID != userID || challenge.Expired(now) {
		a.logger.Info("Auth service: challenge does not match token",
			"challenge_id", challengeID)
		return model.Challenge{}, model.Identity{}, apierror.NewErrInvalidSession()
	}

	identity, err := a.identities.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Auth service: challenge subject not found",
			"user_id", userID)
		return model.Challenge{}, model.Identity{}, apierror.NewErrInvalidSession()
	}
	if err != nil {
		return model.Challenge{}, model.Identity{}, a.internal("failed to get user by id", err, "user_id", userID)
	}

	return challenge, identity, nil
}

// rejectCode counts a wrong code against the challenge. With a budget set,
// running out of attempts burns the challenge.
func (a *Auth) rejectCode(ctx context.Context, challenge model.Challenge) error {
	challenge.Attempts++

	if a.policy.MaxCodeAttempts > 0 && challenge.Attempts >= a.policy.MaxCodeAttempts {
		if err := a.challenges.Consume(ctx, challenge.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
			return a.internal("failed to drop challenge", err, "challenge_id", challenge.ID)
		}
		a.logger.Info("Auth service: code attempts exhausted",
			"user_id", challenge.UserID)
		return apierror.NewErrTooManyCodeAttempts()
	}

	err := a.challenges.Update(ctx, challenge)
	if errors.Is(err, model.ErrNotFound) {
		return apierror.NewErrInvalidSession()
	}
	if err != nil {
		return a.internal("failed to update challenge", err, "challenge_id", challenge.ID)
	}

	a.logger.Info("Auth service: invalid code",
		"user_id", challenge.UserID,
		"attempts", challenge.Attempts)
	return apierror.NewErrInvalid2FACode()
}

// internal logs err with its detail and returns the generic category.
func (a *Auth) internal(msg string, err error, args ...any) error {
	a.logger.Error("Auth service: "+msg,
		append(args, "error", err.Error())...)
	return apierror.NewErrUnknown()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
