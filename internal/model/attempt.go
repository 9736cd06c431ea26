package model

import (
	"context"
	"time"
)

// AttemptStore keeps per-email failed login counters for the lifetime of the process.
type AttemptStore interface {
	Get(ctx context.Context, email string) (AttemptState, error)
	RecordFailure(ctx context.Context, email string, at time.Time) (AttemptState, error)
	Clear(ctx context.Context, email string) error
}

// AttemptState is the failed-attempt counter of one email.
// The zero value means no failures are on record.
type AttemptState struct {
	Email         string
	Count         int
	LastAttemptAt time.Time
}

// Locked reports whether the counter blocks further attempts at now.
func (a AttemptState) Locked(now time.Time, threshold int, window time.Duration) bool {
	return a.Count >= threshold && now.Sub(a.LastAttemptAt) < window
}

// Stale reports whether the counter is older than window and no longer counts.
func (a AttemptState) Stale(now time.Time, window time.Duration) bool {
	return a.Count > 0 && now.Sub(a.LastAttemptAt) >= window
}
