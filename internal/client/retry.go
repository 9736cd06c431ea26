package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
)

// RetryPolicy bounds automatic retries of transport-class failures.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryPolicy retries twice, waiting 1s then 2s, never more than 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      2,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2,
	}
}

// Retrying retries NETWORK_ERROR and SERVER_ERROR failures of the wrapped
// client. Every other category needs new input and is returned at once.
type Retrying struct {
	next   model.AuthClient
	policy RetryPolicy
	logger *logger.Logger
}

var _ model.AuthClient = (*Retrying)(nil)

func NewRetrying(next model.AuthClient, policy RetryPolicy, logger *logger.Logger) *Retrying {
	return &Retrying{next: next, policy: policy, logger: logger}
}

func (r *Retrying) Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	var out model.AuthResult
	err := r.do(ctx, "login", func() (err error) {
		out, err = r.next.Login(ctx, creds)
		return err
	})
	return out, err
}

func (r *Retrying) VerifyTwoFactor(ctx context.Context, tempToken string, code model.TwoFactorCode) (model.AuthResult, error) {
	var out model.AuthResult
	err := r.do(ctx, "verify", func() (err error) {
		out, err = r.next.VerifyTwoFactor(ctx, tempToken, code)
		return err
	})
	return out, err
}

func (r *Retrying) RequestNewCode(ctx context.Context, tempToken string) (model.CodeResent, error) {
	var out model.CodeResent
	err := r.do(ctx, "resend", func() (err error) {
		out, err = r.next.RequestNewCode(ctx, tempToken)
		return err
	})
	return out, err
}

func (r *Retrying) Logout(ctx context.Context, authToken string) error {
	return r.do(ctx, "logout", func() error {
		return r.next.Logout(ctx, authToken)
	})
}

func (r *Retrying) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.Multiplier = r.policy.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.MaxRetries)), ctx)
}

func (r *Retrying) do(ctx context.Context, op string, call func() error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := call()
		if err == nil {
			return nil
		}
		apiErr := apierror.From(err)
		if !apierror.Retryable(apiErr.Code) {
			return backoff.Permanent(apiErr)
		}
		return apiErr
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Info("Retrying client: retrying after failure",
			"op", op,
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"code", string(apierror.CodeOf(err)))
	}

	err := backoff.RetryNotify(operation, r.backOff(ctx), notify)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apierror.NewErrNetwork()
	}
	return apierror.From(err)
}
