// Package simulator stands in for the network between the client and the
// auth backend: it delays each call and fails a fraction of them.
package simulator

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/model"
)

// Profile describes the simulated round trip of one operation.
type Profile struct {
	MinDelay         time.Duration
	MaxDelay         time.Duration
	NetworkErrorRate float64
	ServerErrorRate  float64
}

// DefaultProfiles mirror the latencies and failure rates of the demo backend.
var DefaultProfiles = map[model.Operation]Profile{
	model.OpLogin: {
		MinDelay:         500 * time.Millisecond,
		MaxDelay:         1500 * time.Millisecond,
		NetworkErrorRate: 0.05,
		ServerErrorRate:  0.02,
	},
	model.OpVerifyTwoFactor: {
		MinDelay:         300 * time.Millisecond,
		MaxDelay:         1100 * time.Millisecond,
		NetworkErrorRate: 0.03,
		ServerErrorRate:  0.01,
	},
	model.OpRequestNewCode: {
		MinDelay:         1300 * time.Millisecond,
		MaxDelay:         1300 * time.Millisecond,
		NetworkErrorRate: 0.02,
		ServerErrorRate:  0.01,
	},
}

var _ model.Transport = (*Random)(nil)

// Random delays uniformly within the profile range and then fails with the
// profile's probabilities. Network failures are drawn before server failures.
type Random struct {
	profiles map[model.Operation]Profile
	scale    float64

	mu  sync.Mutex
	rnd *rand.Rand

	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures Random.
type Option func(*Random)

// WithProfiles replaces the per-operation profiles.
func WithProfiles(p map[model.Operation]Profile) Option {
	return func(r *Random) { r.profiles = p }
}

// WithDelayScale multiplies every delay; 0 disables delays.
func WithDelayScale(scale float64) Option {
	return func(r *Random) { r.scale = scale }
}

// WithSeed makes the failure and delay sequence reproducible.
func WithSeed(seed uint64) Option {
	return func(r *Random) { r.rnd = rand.New(rand.NewPCG(seed, seed)) }
}

func NewRandom(opts ...Option) *Random {
	r := &Random{
		profiles: DefaultProfiles,
		scale:    1,
		rnd:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Call blocks for the simulated round trip. A cancelled context ends the
// wait early with NETWORK_ERROR.
func (r *Random) Call(ctx context.Context, op model.Operation) error {
	p, ok := r.profiles[op]
	if !ok {
		return nil
	}

	delay, networkRoll, serverRoll := r.draw(p)

	if err := r.sleep(ctx, delay); err != nil {
		return apierror.NewErrNetwork()
	}

	if networkRoll < p.NetworkErrorRate {
		return apierror.NewErrNetwork()
	}
	if serverRoll < p.ServerErrorRate {
		return apierror.NewErrServer()
	}
	return nil
}

func (r *Random) draw(p Profile) (time.Duration, float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delay := p.MinDelay
	if spread := p.MaxDelay - p.MinDelay; spread > 0 {
		delay += time.Duration(r.rnd.Int64N(int64(spread)))
	}
	delay = time.Duration(float64(delay) * r.scale)

	return delay, r.rnd.Float64(), r.rnd.Float64()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ model.Transport = Instant{}

// Instant never delays and never fails. It only reports cancellation.
type Instant struct{}

func (Instant) Call(ctx context.Context, _ model.Operation) error {
	if ctx.Err() != nil {
		return apierror.NewErrNetwork()
	}
	return nil
}
