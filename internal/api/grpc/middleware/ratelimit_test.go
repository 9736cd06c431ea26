package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/status"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/testutil"
)

func TestRateLimit_Limit(t *testing.T) {
	// One token per hour: only the burst gets through.
	rl := NewRateLimit(1.0/3600, 2)
	ctx := context.Background()

	assert.NoError(t, rl.Limit(ctx))
	assert.NoError(t, rl.Limit(ctx))
	assert.ErrorIs(t, rl.Limit(ctx), ErrRateLimited)
}

func TestRateLimit_Disabled(t *testing.T) {
	rl := NewRateLimit(0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, rl.Limit(context.Background()))
	}
}

func TestRecovery_Handle(t *testing.T) {
	r := NewRecovery(testutil.MakeNoopLogger())

	err := r.Handle("nil map write")

	_, ok := status.FromError(err)
	assert.True(t, ok)
	assert.Equal(t, apierror.CodeServerError, apierror.FromStatus(err).Code)
}
