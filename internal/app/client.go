package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dtroode/authflow/internal/client"
	"github.com/dtroode/authflow/internal/config"
	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
	storage "github.com/dtroode/authflow/internal/storage/minio"
	"github.com/dtroode/authflow/internal/storage/memory"
	"github.com/dtroode/authflow/internal/storage/sqlite"
)

// Remote is the backend as the terminal client sees it.
type Remote interface {
	model.AuthClient
	Authenticate(ctx context.Context, authToken string) (model.User, error)
}

func noopClose() error { return nil }

// OpenSessionStore opens the durable session store the config selects.
func OpenSessionStore(ctx context.Context, cfg *config.ClientConfig) (model.KeyValueStore, func() error, error) {
	switch cfg.Session.Backend {
	case config.SessionMemory:
		return memory.NewStore(), noopClose, nil

	case config.SessionSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Session.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create session directory: %w", err)
		}
		s, err := sqlite.Open(ctx, cfg.Session.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session store: %w", err)
		}
		return s, s.Close, nil

	case config.SessionMinio:
		mc, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
			Secure: cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		s, err := storage.NewClient(ctx, mc, cfg.Minio.Bucket, cfg.Minio.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize session bucket: %w", err)
		}
		return s, noopClose, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
}

// Connect reaches the backend: over gRPC when a server address is
// configured, otherwise an in-process backend built from server settings.
// Dispatched codes of an in-process backend go to codeSink, which the
// dispatch mode requires.
func Connect(ctx context.Context, cfg *config.ClientConfig, server *config.Config, codeSink io.Writer, logger *logger.Logger) (Remote, func() error, error) {
	if cfg.ServerAddr == "" {
		if server.TwoFactor.Mode == config.TwoFactorDispatch && codeSink == nil {
			return nil, nil, errors.New("two-factor dispatch mode needs a log file (AUTHFLOW_LOG_FILE) to receive codes")
		}
		backend, err := NewBackend(ctx, server, codeSink, logger)
		if err != nil {
			return nil, nil, err
		}
		return backend.Auth, backend.Close, nil
	}

	conn, err := client.Dial(cfg.ServerAddr, cfg.ServerTLS)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Client: using remote backend", "addr", cfg.ServerAddr, "tls", cfg.ServerTLS)
	return client.NewGRPC(conn, logger), conn.Close, nil
}

// RetryPolicy converts the configured retry bounds.
func RetryPolicy(cfg config.Retry) client.RetryPolicy {
	p := client.DefaultRetryPolicy()
	p.MaxRetries = cfg.MaxRetries
	if cfg.InitialInterval.Duration > 0 {
		p.InitialInterval = cfg.InitialInterval.Duration
	}
	if cfg.MaxInterval.Duration > 0 {
		p.MaxInterval = cfg.MaxInterval.Duration
	}
	return p
}
