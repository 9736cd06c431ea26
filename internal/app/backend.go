// Package app assembles the auth backend from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dtroode/authflow/internal/config"
	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
	"github.com/dtroode/authflow/internal/otp"
	"github.com/dtroode/authflow/internal/password"
	"github.com/dtroode/authflow/internal/repository/memory"
	"github.com/dtroode/authflow/internal/repository/postgres"
	"github.com/dtroode/authflow/internal/repository/redis"
	"github.com/dtroode/authflow/internal/repository/seed"
	"github.com/dtroode/authflow/internal/service"
	"github.com/dtroode/authflow/internal/simulator"
	"github.com/dtroode/authflow/internal/token"
)

// Backend is a ready auth service plus the connections it holds.
type Backend struct {
	Auth *service.Auth

	closers []func() error
}

// Close releases every connection the backend opened.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// NewBackend builds the auth service. The directory lives in postgres when
// a DSN is configured and in memory otherwise; redis, when configured, takes
// over challenges and revocations. Dispatched codes are written to codeSink.
func NewBackend(ctx context.Context, cfg *config.Config, codeSink io.Writer, logger *logger.Logger) (*Backend, error) {
	b := &Backend{}

	hasher := password.NewHasher(password.Params{
		Time:   cfg.KDF.Time,
		MemKiB: cfg.KDF.MemKiB,
		Par:    cfg.KDF.Par,
	})
	identities, err := seed.Identities(hasher, seed.Users())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare directory: %w", err)
	}

	var (
		directory   model.IdentityStore
		challenges  model.ChallengeStore
		revocations model.RevocationStore
	)

	if cfg.Database.DSN != "" {
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		b.closers = append(b.closers, db.Close)

		repo := postgres.NewIdentityRepository(db)
		if err := repo.Seed(ctx, identities); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to seed directory: %w", err)
		}
		directory = repo
		challenges = postgres.NewChallengeRepository(db, logger)
		revocations = postgres.NewRevocationRepository(db)
		logger.Info("Backend: using postgres directory")
	} else {
		store, err := memory.NewIdentityStore(identities)
		if err != nil {
			return nil, fmt.Errorf("failed to build directory: %w", err)
		}
		directory = store
		challenges = memory.NewChallengeStore()
		revocations = memory.NewRevocationStore()
		logger.Info("Backend: using in-memory directory")
	}

	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			_ = b.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		b.closers = append(b.closers, client.Close)

		challenges = redis.NewChallengeStore(client)
		revocations = redis.NewRevocationStore(client)
		logger.Info("Backend: keeping challenges in redis", "addr", cfg.Redis.Addr)
	}

	codes, err := codeVerifier(cfg.TwoFactor.Mode, codeSink)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	tokens := service.NewTokenService(token.NewJWT(cfg.JWT.Secret), revocations, logger)

	policy := service.DefaultPolicy()
	policy.MaxCodeAttempts = cfg.TwoFactor.MaxAttempts

	b.Auth = service.NewAuth(
		directory,
		memory.NewAttemptStore(),
		challenges,
		tokens,
		codes,
		transport(cfg.Simulator),
		hasher,
		logger,
		service.WithPolicy(policy),
	)
	return b, nil
}

func codeVerifier(mode string, sink io.Writer) (model.CodeVerifier, error) {
	switch mode {
	case config.TwoFactorFixture:
		return otp.NewFixture(), nil
	case config.TwoFactorTOTP:
		return otp.NewTOTP(), nil
	case config.TwoFactorDispatch:
		if sink == nil {
			return nil, errors.New("dispatch mode has nowhere to deliver codes")
		}
		return otp.NewDispatch(otp.NewWriterNotifier(sink)), nil
	}
	return nil, fmt.Errorf("unknown two-factor mode %q", mode)
}

func transport(cfg config.Simulator) model.Transport {
	if !cfg.Enabled {
		return simulator.Instant{}
	}
	opts := []simulator.Option{simulator.WithDelayScale(cfg.Scale)}
	if cfg.Seed != 0 {
		opts = append(opts, simulator.WithSeed(cfg.Seed))
	}
	return simulator.NewRandom(opts...)
}
