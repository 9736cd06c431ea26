package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/mocks"
	"github.com/dtroode/authflow/internal/model"
	"github.com/dtroode/authflow/internal/testutil"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 2, p.MaxRetries)
	assert.Equal(t, time.Second, p.InitialInterval)
	assert.Equal(t, 10*time.Second, p.MaxInterval)
}

func TestRetrying_RetriesTransportFailures(t *testing.T) {
	t.Parallel()

	next := mocks.NewAuthClient(t)
	r := NewRetrying(next, fastPolicy(), testutil.MakeNoopLogger())
	creds := model.Credentials{Email: "user@example.com", Password: "Password123"}

	next.On("Login", mock.Anything, creds).Return(model.AuthResult{}, apierror.NewErrNetwork()).Once()
	next.On("Login", mock.Anything, creds).Return(model.AuthResult{}, apierror.NewErrServer()).Once()
	next.On("Login", mock.Anything, creds).Return(model.AuthResult{Token: "auth"}, nil).Once()

	out, err := r.Login(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, "auth", out.Token)
}

func TestRetrying_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	next := mocks.NewAuthClient(t)
	r := NewRetrying(next, fastPolicy(), testutil.MakeNoopLogger())

	next.On("RequestNewCode", mock.Anything, "temp").Return(model.CodeResent{}, apierror.NewErrNetwork()).Times(3)

	_, err := r.RequestNewCode(context.Background(), "temp")
	assert.Equal(t, apierror.CodeNetworkError, apierror.CodeOf(err))
}

func TestRetrying_NeverRetriesUserFailures(t *testing.T) {
	t.Parallel()

	failures := []*apierror.APIError{
		apierror.NewErrInvalidCredentials(),
		apierror.NewErrUserNotFound(),
		apierror.NewErrInvalid2FACode(),
		apierror.NewErrExpired2FACode(),
		apierror.NewErrTooManyAttempts(),
		apierror.NewErrValidation(apierror.FieldCode, "bad"),
	}

	for _, failure := range failures {
		failure := failure
		t.Run(string(failure.Code), func(t *testing.T) {
			t.Parallel()

			next := mocks.NewAuthClient(t)
			r := NewRetrying(next, fastPolicy(), testutil.MakeNoopLogger())
			next.On("VerifyTwoFactor", mock.Anything, "temp", mock.Anything).
				Return(model.AuthResult{}, failure).Once()

			_, err := r.VerifyTwoFactor(context.Background(), "temp", model.TwoFactorCode{Code: "000000"})
			assert.Equal(t, failure, apierror.From(err))
		})
	}
}

func TestRetrying_ForeignErrorIsUnknown(t *testing.T) {
	t.Parallel()

	next := mocks.NewAuthClient(t)
	r := NewRetrying(next, fastPolicy(), testutil.MakeNoopLogger())
	next.On("Logout", mock.Anything, "auth").Return(assert.AnError).Once()

	err := r.Logout(context.Background(), "auth")
	assert.Equal(t, apierror.CodeUnknownError, apierror.CodeOf(err))
}

func TestRetrying_StopsOnCancel(t *testing.T) {
	t.Parallel()

	next := mocks.NewAuthClient(t)
	policy := fastPolicy()
	policy.InitialInterval = time.Hour
	policy.MaxInterval = time.Hour
	r := NewRetrying(next, policy, testutil.MakeNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	next.On("Login", mock.Anything, mock.Anything).
		Return(model.AuthResult{}, apierror.NewErrServer()).
		Run(func(mock.Arguments) { cancel() }).
		Once()

	done := make(chan error, 1)
	go func() {
		_, err := r.Login(ctx, model.Credentials{})
		done <- err
	}()

	select {
	case err := <-done:
		assert.Equal(t, apierror.CodeNetworkError, apierror.CodeOf(err))
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop ignored cancellation")
	}
}
