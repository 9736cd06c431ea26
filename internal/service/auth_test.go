package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authflow/internal/apierror"
	servermocks "github.com/dtroode/authflow/internal/mocks"
	"github.com/dtroode/authflow/internal/model"
	"github.com/dtroode/authflow/internal/otp"
	"github.com/dtroode/authflow/internal/password"
	"github.com/dtroode/authflow/internal/repository/memory"
	"github.com/dtroode/authflow/internal/repository/seed"
	"github.com/dtroode/authflow/internal/simulator"
	"github.com/dtroode/authflow/internal/testutil"
	"github.com/dtroode/authflow/internal/token"
)

const (
	userEmail       = "user@example.com"
	plainEmail      = "plain@example.com"
	goodCode        = "123456"
	expiredCode     = "111111"
	wrongCode       = "000000"
	correctPassword = seed.DemoPassword
)

var plainUser = seed.User{
	Identity: model.Identity{
		ID:              uuid.MustParse("6f1c2d1e-8a4b-4c55-9e0a-0000000000ff"),
		Email:           plainEmail,
		Name:            "Plain User",
		IsEmailVerified: true,
	},
	Password: correctPassword,
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	auth     *Auth
	clock    *testClock
	attempts *memory.AttemptStore
	jwt      *token.JWT
}

func newHarness(t *testing.T, codes model.CodeVerifier, opts ...AuthOption) *harness {
	t.Helper()

	hasher := password.NewHasher(password.Params{Time: 1, MemKiB: 1024, Par: 1})
	identities, err := seed.Identities(hasher, append(seed.Users(), plainUser))
	require.NoError(t, err)
	directory, err := memory.NewIdentityStore(identities)
	require.NoError(t, err)

	if codes == nil {
		codes = otp.NewFixture()
	}

	clock := &testClock{t: time.Now().UTC().Truncate(time.Second)}
	jwt := token.NewJWT("test-secret", token.WithClock(clock.Now))
	attempts := memory.NewAttemptStore()
	log := testutil.MakeNoopLogger()

	auth := NewAuth(
		directory,
		attempts,
		memory.NewChallengeStore(),
		NewTokenService(jwt, memory.NewRevocationStore(), log),
		codes,
		simulator.Instant{},
		hasher,
		log,
		append([]AuthOption{WithClock(clock.Now)}, opts...)...,
	)

	return &harness{auth: auth, clock: clock, attempts: attempts, jwt: jwt}
}

func (h *harness) login(t *testing.T, email, pass string) (model.AuthResult, error) {
	t.Helper()
	return h.auth.Login(context.Background(), model.Credentials{Email: email, Password: pass})
}

func (h *harness) pending(t *testing.T) string {
	t.Helper()
	res, err := h.login(t, userEmail, correctPassword)
	require.NoError(t, err)
	require.True(t, res.RequiresTwoFactor)
	return res.TempToken
}

func (h *harness) verify(t *testing.T, tempToken, code string) (model.AuthResult, error) {
	t.Helper()
	return h.auth.VerifyTwoFactor(context.Background(), tempToken, model.TwoFactorCode{Code: code})
}

func (h *harness) failures(t *testing.T, email string) int {
	t.Helper()
	state, err := h.attempts.Get(context.Background(), email)
	require.NoError(t, err)
	return state.Count
}

func requireAPIError(t *testing.T, err error, code apierror.Code, field string) {
	t.Helper()
	require.Error(t, err)
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr), "expected *apierror.APIError, got %T", err)
	assert.Equal(t, code, apiErr.Code)
	assert.Equal(t, field, apiErr.Field)
}

func TestAuth_Login_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantCode  apierror.Code
		wantField string
	}{
		{"locked account", "locked@example.com", correctPassword, apierror.CodeAccountLocked, ""},
		{"suspended account", "suspended@example.com", correctPassword, apierror.CodeAccountSuspended, ""},
		{"unverified account", "unverified@example.com", correctPassword, apierror.CodeEmailNotVerified, ""},
		{"unknown email", "nobody@example.com", correctPassword, apierror.CodeUserNotFound, apierror.FieldEmail},
		{"wrong password", userEmail, "Password124", apierror.CodeInvalidCredentials, apierror.FieldPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			res, err := h.login(t, tt.email, tt.password)
			requireAPIError(t, err, tt.wantCode, tt.wantField)
			assert.Empty(t, res.Token)
			assert.Empty(t, res.TempToken)
		})
	}
}

func TestAuth_Login_TwoFactorUser(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.login(t, userEmail, correctPassword)
	require.NoError(t, err)
	assert.True(t, res.RequiresTwoFactor)
	assert.NotEmpty(t, res.TempToken)
	assert.Empty(t, res.Token, "a second-factor login never hands out an auth token")
	assert.Equal(t, "John Doe", res.User.Name)
	assert.True(t, res.User.TwoFactorEnabled)
}

func TestAuth_Login_PlainUser(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.login(t, "  PLAIN@example.com ", correctPassword)
	require.NoError(t, err)
	assert.False(t, res.RequiresTwoFactor)
	assert.Empty(t, res.TempToken)
	require.NotEmpty(t, res.Token)

	user, err := h.auth.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, plainUser.Identity.ID, user.ID)
}

func TestAuth_Login_StatusChecksPrecedePassword(t *testing.T) {
	for email, code := range map[string]apierror.Code{
		"locked@example.com":     apierror.CodeAccountLocked,
		"suspended@example.com":  apierror.CodeAccountSuspended,
		"unverified@example.com": apierror.CodeEmailNotVerified,
	} {
		t.Run(email, func(t *testing.T) {
			h := newHarness(t, nil)
			_, err := h.login(t, email, "definitely-wrong")
			requireAPIError(t, err, code, "")
			assert.Zero(t, h.failures(t, email), "status failures are not counted")
		})
	}
}

func TestAuth_Login_LockoutAfterFiveFailures(t *testing.T) {
	h := newHarness(t, nil)

	for i := 0; i < 5; i++ {
		_, err := h.login(t, plainEmail, "wrong-password")
		requireAPIError(t, err, apierror.CodeInvalidCredentials, apierror.FieldPassword)
	}

	_, err := h.login(t, plainEmail, correctPassword)
	requireAPIError(t, err, apierror.CodeTooManyAttempts, "")

	h.clock.Advance(14 * time.Minute)
	_, err = h.login(t, plainEmail, correctPassword)
	requireAPIError(t, err, apierror.CodeTooManyAttempts, "")

	h.clock.Advance(time.Minute)
	res, err := h.login(t, plainEmail, correctPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestAuth_Login_LockoutForUnknownEmail(t *testing.T) {
	h := newHarness(t, nil)

	for i := 0; i < 5; i++ {
		_, err := h.login(t, "ghost@example.com", "wrong-password")
		requireAPIError(t, err, apierror.CodeUserNotFound, apierror.FieldEmail)
	}

	_, err := h.login(t, "ghost@example.com", "wrong-password")
	requireAPIError(t, err, apierror.CodeTooManyAttempts, "")
}

func TestAuth_Login_SuccessClearsCounter(t *testing.T) {
	h := newHarness(t, nil)

	for i := 0; i < 4; i++ {
		_, err := h.login(t, plainEmail, "wrong-password")
		require.Error(t, err)
	}
	assert.Equal(t, 4, h.failures(t, plainEmail))

	_, err := h.login(t, plainEmail, correctPassword)
	require.NoError(t, err)
	assert.Zero(t, h.failures(t, plainEmail))

	_, err = h.login(t, plainEmail, "wrong-password")
	require.Error(t, err)
	assert.Equal(t, 1, h.failures(t, plainEmail))
}

func TestAuth_Login_StaleCounterRestarts(t *testing.T) {
	h := newHarness(t, nil)

	for i := 0; i < 4; i++ {
		_, err := h.login(t, plainEmail, "wrong-password")
		require.Error(t, err)
	}

	h.clock.Advance(16 * time.Minute)
	_, err := h.login(t, plainEmail, "wrong-password")
	requireAPIError(t, err, apierror.CodeInvalidCredentials, apierror.FieldPassword)
	assert.Equal(t, 1, h.failures(t, plainEmail))
}

func TestAuth_Login_LockoutPrecedesLookup(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	identities := servermocks.NewIdentityStore(t)
	attempts := servermocks.NewAttemptStore(t)
	attempts.On("Get", mock.Anything, "someone@example.com").
		Return(model.AttemptState{Email: "someone@example.com", Count: 5, LastAttemptAt: now.Add(-time.Minute)}, nil).Once()

	log := testutil.MakeNoopLogger()
	a := NewAuth(identities, attempts, servermocks.NewChallengeStore(t), NewTokenService(token.NewJWT("s"), memory.NewRevocationStore(), log),
		otp.NewFixture(), simulator.Instant{}, password.NewHasher(password.Params{}), log,
		WithClock(func() time.Time { return now }))

	_, err := a.Login(context.Background(), model.Credentials{Email: "someone@example.com", Password: correctPassword})
	requireAPIError(t, err, apierror.CodeTooManyAttempts, "")
	identities.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestAuth_Login_TransportFailureTouchesNothing(t *testing.T) {
	for _, failure := range []*apierror.APIError{apierror.NewErrNetwork(), apierror.NewErrServer()} {
		t.Run(string(failure.Code), func(t *testing.T) {
			transport := servermocks.NewTransport(t)
			transport.On("Call", mock.Anything, model.OpLogin).Return(failure).Once()

			log := testutil.MakeNoopLogger()
			a := NewAuth(servermocks.NewIdentityStore(t), servermocks.NewAttemptStore(t), servermocks.NewChallengeStore(t),
				NewTokenService(token.NewJWT("s"), memory.NewRevocationStore(), log),
				otp.NewFixture(), transport, password.NewHasher(password.Params{}), log)

			_, err := a.Login(context.Background(), model.Credentials{Email: userEmail, Password: "x"})
			requireAPIError(t, err, failure.Code, "")
		})
	}
}

func TestAuth_Login_CancelledLeavesCounterAlone(t *testing.T) {
	h := newHarness(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.auth.Login(ctx, model.Credentials{Email: plainEmail, Password: "wrong-password"})
	requireAPIError(t, err, apierror.CodeNetworkError, "")
	assert.Zero(t, h.failures(t, plainEmail))
}

func TestAuth_Login_StoreFailureIsUnknown(t *testing.T) {
	attempts := servermocks.NewAttemptStore(t)
	attempts.On("Get", mock.Anything, userEmail).Return(model.AttemptState{}, errors.New("dial tcp 10.1.2.3:5432: refused")).Once()

	log := testutil.MakeNoopLogger()
	a := NewAuth(servermocks.NewIdentityStore(t), attempts, servermocks.NewChallengeStore(t),
		NewTokenService(token.NewJWT("s"), memory.NewRevocationStore(), log),
		otp.NewFixture(), simulator.Instant{}, password.NewHasher(password.Params{}), log)

	_, err := a.Login(context.Background(), model.Credentials{Email: userEmail, Password: correctPassword})
	requireAPIError(t, err, apierror.CodeUnknownError, "")
	assert.NotContains(t, err.Error(), "10.1.2.3")
}

func TestAuth_VerifyTwoFactor_RoundTrip(t *testing.T) {
	h := newHarness(t, nil)
	tempToken := h.pending(t)

	res, err := h.verify(t, tempToken, goodCode)
	require.NoError(t, err)
	assert.False(t, res.RequiresTwoFactor)
	assert.Empty(t, res.TempToken)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, userEmail, res.User.Email)

	user, err := h.auth.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User, user)

	_, err = h.verify(t, tempToken, goodCode)
	requireAPIError(t, err, apierror.CodeInvalid2FACode, "")
}

func TestAuth_VerifyTwoFactor_CodeOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		wantCode  apierror.Code
		wantField string
	}{
		{"not in accepted set", wrongCode, apierror.CodeInvalid2FACode, apierror.FieldCode},
		{"accepted but expired", expiredCode, apierror.CodeExpired2FACode, apierror.FieldCode},
		{"other expired fixture", "654321", apierror.CodeExpired2FACode, apierror.FieldCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			tempToken := h.pending(t)

			res, err := h.verify(t, tempToken, tt.code)
			requireAPIError(t, err, tt.wantCode, tt.wantField)
			assert.Empty(t, res.Token)

			res, err = h.verify(t, tempToken, goodCode)
			require.NoError(t, err, "a rejected code leaves the challenge usable")
			assert.NotEmpty(t, res.Token)
		})
	}
}

func TestAuth_VerifyTwoFactor_InvalidSession(t *testing.T) {
	h := newHarness(t, nil)
	live := h.pending(t)

	liveChallenge, _, err := h.auth.tokens.ParseTemp(live)
	require.NoError(t, err)
	foreign, err := token.NewJWT("other-secret", token.WithClock(h.clock.Now)).
		GenerateTempToken(seed.Users()[0].Identity.ID, liveChallenge, h.clock.Now())
	require.NoError(t, err)

	stranger := uuid.New()
	forged, err := h.jwt.GenerateTempToken(stranger, uuid.New(), h.clock.Now())
	require.NoError(t, err)

	authToken, _, err := h.jwt.GenerateAuthToken(plainUser.Identity.ID)
	require.NoError(t, err)

	for name, tempToken := range map[string]string{
		"garbage":            "not-a-token",
		"empty":              "",
		"unknown challenge":  forged,
		"auth token as temp": authToken,
		"wrong signature":    foreign,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := h.verify(t, tempToken, goodCode)
			requireAPIError(t, err, apierror.CodeInvalid2FACode, "")
			assert.Equal(t, "Invalid session. Please login again.", apierror.From(err).Message)
		})
	}
}

func TestAuth_VerifyTwoFactor_TokenBoundToIdentity(t *testing.T) {
	h := newHarness(t, nil)
	tempToken := h.pending(t)

	challengeID, _, err := h.auth.tokens.ParseTemp(tempToken)
	require.NoError(t, err)

	// Same challenge, different subject.
	swapped, err := h.jwt.GenerateTempToken(plainUser.Identity.ID, challengeID, h.clock.Now())
	require.NoError(t, err)

	_, err = h.verify(t, swapped, goodCode)
	requireAPIError(t, err, apierror.CodeInvalid2FACode, "")

	_, err = h.verify(t, tempToken, goodCode)
	require.NoError(t, err)
}

func TestAuth_VerifyTwoFactor_WrongCodesUnlimitedByDefault(t *testing.T) {
	h := newHarness(t, nil)
	tempToken := h.pending(t)

	for i := 0; i < 10; i++ {
		_, err := h.verify(t, tempToken, wrongCode)
		requireAPIError(t, err, apierror.CodeInvalid2FACode, apierror.FieldCode)
	}

	res, err := h.verify(t, tempToken, goodCode)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func withCodeBudget(n int) AuthOption {
	p := DefaultPolicy()
	p.MaxCodeAttempts = n
	return WithPolicy(p)
}

func TestAuth_VerifyTwoFactor_CodeAttemptsExhausted(t *testing.T) {
	h := newHarness(t, nil, withCodeBudget(5))
	tempToken := h.pending(t)

	for i := 0; i < 4; i++ {
		_, err := h.verify(t, tempToken, wrongCode)
		requireAPIError(t, err, apierror.CodeInvalid2FACode, apierror.FieldCode)
	}

	_, err := h.verify(t, tempToken, wrongCode)
	requireAPIError(t, err, apierror.CodeTooManyAttempts, "")

	_, err = h.verify(t, tempToken, goodCode)
	requireAPIError(t, err, apierror.CodeInvalid2FACode, "")
}

func TestAuth_RequestNewCode_KeepsAttemptCount(t *testing.T) {
	h := newHarness(t, nil, withCodeBudget(3))
	tempToken := h.pending(t)

	for i := 0; i < 2; i++ {
		_, err := h.verify(t, tempToken, wrongCode)
		requireAPIError(t, err, apierror.CodeInvalid2FACode, apierror.FieldCode)
	}

	_, err := h.auth.RequestNewCode(context.Background(), tempToken)
	require.NoError(t, err)

	_, err = h.verify(t, tempToken, wrongCode)
	requireAPIError(t, err, apierror.CodeTooManyAttempts, "")
}

func TestAuth_VerifyTwoFactor_CodeWindow(t *testing.T) {
	h := newHarness(t, nil)
	tempToken := h.pending(t)

	h.clock.Advance(6 * time.Minute)
	_, err := h.verify(t, tempToken, goodCode)
	requireAPIError(t, err, apierror.CodeExpired2FACode, apierror.FieldCode)

	_, err = h.auth.RequestNewCode(context.Background(), tempToken)
	require.NoError(t, err)

	res, err := h.verify(t, tempToken, goodCode)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestAuth_VerifyTwoFactor_ChallengeExpires(t *testing.T) {
	h := newHarness(t, nil)
	tempToken := h.pending(t)

	h.clock.Advance(11 * time.Minute)
	_, err := h.verify(t, tempToken, goodCode)
	requireAPIError(t, err, apierror.CodeInvalid2FACode, "")
}

func TestAuth_RequestNewCode(t *testing.T) {
	h := newHarness(t, nil)
	tempToken := h.pending(t)

	for i := 0; i < 4; i++ {
		_, err := h.verify(t, tempToken, wrongCode)
		require.Error(t, err)
	}

	resent, err := h.auth.RequestNewCode(context.Background(), tempToken)
	require.NoError(t, err)
	assert.Equal(t, CodeResentMessage, resent.Message)
	assert.Equal(t, h.clock.Now().Add(45*time.Second), resent.ResendAvailableAt)

	for i := 0; i < 4; i++ {
		_, err := h.verify(t, tempToken, wrongCode)
		requireAPIError(t, err, apierror.CodeInvalid2FACode, apierror.FieldCode)
	}

	_, err = h.auth.RequestNewCode(context.Background(), "garbage")
	requireAPIError(t, err, apierror.CodeInvalid2FACode, "")
}

type captureNotifier struct {
	mu    sync.Mutex
	codes []string
}

func (n *captureNotifier) Deliver(_ context.Context, _ model.Identity, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes = append(n.codes, code)
	return nil
}

func (n *captureNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[len(n.codes)-1]
}

func TestAuth_RequestNewCode_RotatesDispatchedCode(t *testing.T) {
	notifier := &captureNotifier{}
	h := newHarness(t, otp.NewDispatch(notifier))
	tempToken := h.pending(t)

	first := notifier.last()

	_, err := h.auth.RequestNewCode(context.Background(), tempToken)
	require.NoError(t, err)
	second := notifier.last()

	if first != second {
		_, err = h.verify(t, tempToken, first)
		requireAPIError(t, err, apierror.CodeInvalid2FACode, apierror.FieldCode)
	}

	res, err := h.verify(t, tempToken, second)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestAuth_Logout(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.login(t, plainEmail, correctPassword)
	require.NoError(t, err)

	require.NoError(t, h.auth.Logout(context.Background(), res.Token))

	_, err = h.auth.Authenticate(context.Background(), res.Token)
	requireAPIError(t, err, apierror.CodeInvalidCredentials, "")

	assert.NoError(t, h.auth.Logout(context.Background(), res.Token), "second logout is a no-op")
	assert.NoError(t, h.auth.Logout(context.Background(), "garbage"))
}

func TestAuth_Authenticate_Expired(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.login(t, plainEmail, correctPassword)
	require.NoError(t, err)

	h.clock.Advance(token.AuthTTL + time.Second)
	_, err = h.auth.Authenticate(context.Background(), res.Token)
	requireAPIError(t, err, apierror.CodeInvalidCredentials, "")
}
