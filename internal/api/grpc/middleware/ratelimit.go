package middleware

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when the request budget is spent.
var ErrRateLimited = errors.New("request rate exceeded")

// RateLimit is a process-wide token bucket. It satisfies the go-grpc-middleware
// ratelimit.Limiter interface.
type RateLimit struct {
	limiter *rate.Limiter
}

// NewRateLimit allows perSecond requests on average with bursts of burst.
// A non-positive perSecond disables limiting.
func NewRateLimit(perSecond float64, burst int) *RateLimit {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimit{limiter: rate.NewLimiter(limit, burst)}
}

// Limit rejects the request when no token is available right now.
func (r *RateLimit) Limit(_ context.Context) error {
	if !r.limiter.Allow() {
		return ErrRateLimited
	}
	return nil
}
