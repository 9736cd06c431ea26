package model

import (
	"context"
	"time"
)

// RevocationStore remembers auth token IDs that were logged out before they expired.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
