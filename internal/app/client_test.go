package app

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authflow/internal/client"
	"github.com/dtroode/authflow/internal/config"
	"github.com/dtroode/authflow/internal/model"
	"github.com/dtroode/authflow/internal/repository/seed"
	"github.com/dtroode/authflow/internal/service"
	"github.com/dtroode/authflow/internal/testutil"
)

func TestOpenSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite creates the directory and survives reopening", func(t *testing.T) {
		cfg := config.DefaultClientConfig()
		cfg.Session.Path = filepath.Join(t.TempDir(), "nested", "session.db")

		store, closeStore, err := OpenSessionStore(ctx, &cfg)
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, "authToken", "tok"))
		require.NoError(t, closeStore())

		store, closeStore, err = OpenSessionStore(ctx, &cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = closeStore() })

		got, err := store.Get(ctx, "authToken")
		require.NoError(t, err)
		assert.Equal(t, "tok", got)
	})

	t.Run("memory", func(t *testing.T) {
		cfg := config.DefaultClientConfig()
		cfg.Session.Backend = config.SessionMemory

		store, closeStore, err := OpenSessionStore(ctx, &cfg)
		require.NoError(t, err)
		assert.NoError(t, closeStore())

		_, err = store.Get(ctx, "authToken")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.DefaultClientConfig()
		cfg.Session.Backend = "floppy"

		_, _, err := OpenSessionStore(ctx, &cfg)
		assert.Error(t, err)
	})
}

func TestConnect(t *testing.T) {
	ctx := context.Background()
	log := testutil.MakeNoopLogger()

	t.Run("in-process backend", func(t *testing.T) {
		cfg := config.DefaultClientConfig()

		remote, closeRemote, err := Connect(ctx, &cfg, testConfig(), io.Discard, log)
		require.NoError(t, err)
		t.Cleanup(func() { _ = closeRemote() })
		assert.IsType(t, &service.Auth{}, remote)

		res, err := remote.Login(ctx, model.Credentials{Email: "user@example.com", Password: seed.DemoPassword})
		require.NoError(t, err)
		assert.True(t, res.RequiresTwoFactor)
	})

	t.Run("dispatch without a code sink", func(t *testing.T) {
		cfg := config.DefaultClientConfig()
		server := testConfig()
		server.TwoFactor.Mode = config.TwoFactorDispatch

		_, _, err := Connect(ctx, &cfg, server, nil, log)
		assert.ErrorContains(t, err, "AUTHFLOW_LOG_FILE")
	})

	t.Run("dispatch delivers to the sink", func(t *testing.T) {
		cfg := config.DefaultClientConfig()
		server := testConfig()
		server.TwoFactor.Mode = config.TwoFactorDispatch
		var sink bytes.Buffer

		remote, closeRemote, err := Connect(ctx, &cfg, server, &sink, log)
		require.NoError(t, err)
		t.Cleanup(func() { _ = closeRemote() })

		_, err = remote.Login(ctx, model.Credentials{Email: "user@example.com", Password: seed.DemoPassword})
		require.NoError(t, err)
		assert.Contains(t, sink.String(), "verification code for user@example.com")
	})

	t.Run("remote backend", func(t *testing.T) {
		cfg := config.DefaultClientConfig()
		cfg.ServerAddr = "localhost:50051"

		remote, closeRemote, err := Connect(ctx, &cfg, nil, io.Discard, log)
		require.NoError(t, err)
		t.Cleanup(func() { _ = closeRemote() })
		assert.IsType(t, &client.GRPC{}, remote)
	})
}

func TestRetryPolicy(t *testing.T) {
	p := RetryPolicy(config.Retry{
		MaxRetries:      4,
		InitialInterval: config.Duration{Duration: 200 * time.Millisecond},
	})

	assert.Equal(t, 4, p.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, p.InitialInterval)
	assert.Equal(t, client.DefaultRetryPolicy().MaxInterval, p.MaxInterval)
	assert.Equal(t, client.DefaultRetryPolicy().Multiplier, p.Multiplier)
}
