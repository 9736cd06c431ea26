package model

import (
	"context"
	"time"
)

// CodeVerifier decides which second-factor codes a challenge accepts.
type CodeVerifier interface {
	// Issue prepares a fresh code for challenge. Verifiers that hand out their
	// own codes record it in challenge.CodeHash; the previous code stops working.
	Issue(ctx context.Context, identity Identity, challenge *Challenge) error
	// Verify returns nil, ErrCodeInvalid or ErrCodeExpired.
	Verify(ctx context.Context, identity Identity, challenge Challenge, code string, now time.Time) error
}
