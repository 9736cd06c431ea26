package apierror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUserMessage_CoversEveryCode(t *testing.T) {
	seen := map[string]Code{}
	for _, c := range Codes {
		msg := UserMessage(c)
		assert.NotEmpty(t, msg, c)
		if prev, ok := seen[msg]; ok {
			t.Errorf("codes %s and %s share message %q", prev, c, msg)
		}
		seen[msg] = c
	}
	assert.Equal(t, UserMessage(CodeUnknownError), UserMessage("SOMETHING_ELSE"))
}

func TestRetryable(t *testing.T) {
	for _, c := range Codes {
		want := c == CodeNetworkError || c == CodeServerError
		assert.Equal(t, want, Retryable(c), c)
	}
}

func TestFrom(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
		assert.Equal(t, Code(""), CodeOf(nil))
	})

	t.Run("wrapped api error", func(t *testing.T) {
		err := fmt.Errorf("login: %w", NewErrAccountLocked())
		got := From(err)
		require.NotNil(t, got)
		assert.Equal(t, CodeAccountLocked, got.Code)
		assert.True(t, errors.Is(err, ErrAccountLocked))
		assert.False(t, errors.Is(err, ErrAccountSuspended))
	})

	t.Run("internal error collapses", func(t *testing.T) {
		got := From(errors.New("pq: connection refused on 10.0.0.3"))
		assert.Equal(t, CodeUnknownError, got.Code)
		assert.NotContains(t, got.Message, "10.0.0.3")
	})
}

func TestStatusRoundTrip(t *testing.T) {
	for _, original := range []*APIError{
		NewErrInvalidCredentials(),
		NewErrUserNotFound(),
		NewErrInvalidSession(),
		NewErrExpired2FACode(),
		NewErrTooManyAttempts(),
	} {
		t.Run(string(original.Code), func(t *testing.T) {
			wire := ToStatus(original)
			st, ok := status.FromError(wire)
			require.True(t, ok)
			assert.Equal(t, GRPCCode(original.Code), st.Code())

			back := FromStatus(wire)
			assert.Equal(t, original.Code, back.Code)
			assert.Equal(t, original.Field, back.Field)
			assert.Equal(t, original.Message, back.Message)
		})
	}
}

func TestFromStatus_WithoutDetails(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"unavailable", status.Error(codes.Unavailable, "connection refused"), CodeNetworkError},
		{"deadline", status.Error(codes.DeadlineExceeded, "deadline"), CodeNetworkError},
		{"internal", status.Error(codes.Internal, "panic"), CodeServerError},
		{"rate limited", status.Error(codes.ResourceExhausted, "slow down"), CodeTooManyAttempts},
		{"plain error", errors.New("boom"), CodeUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatus(tt.err).Code)
		})
	}
}
