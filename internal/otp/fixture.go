// Package otp provides the second-factor code verifiers the auth service can
// be configured with.
package otp

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dtroode/authflow/internal/model"
)

// FixtureCodes is the accepted code set of the demo directory.
var FixtureCodes = []string{"123456", "654321", "111111"}

// FixtureExpiryMarker marks accepted fixture codes that count as expired.
const FixtureExpiryMarker = "1"

var _ model.CodeVerifier = (*Fixture)(nil)

// Fixture accepts a fixed code set. Accepted codes ending in the expiry marker
// report ErrCodeExpired, which lets demos and tests reach the expired branch
// without waiting on a clock.
type Fixture struct {
	codes  []string
	marker string
}

func NewFixture() *Fixture {
	return &Fixture{codes: FixtureCodes, marker: FixtureExpiryMarker}
}

func (f *Fixture) Issue(context.Context, model.Identity, *model.Challenge) error {
	return nil
}

func (f *Fixture) Verify(_ context.Context, _ model.Identity, _ model.Challenge, code string, _ time.Time) error {
	if !slices.Contains(f.codes, code) {
		return model.ErrCodeInvalid
	}
	if strings.HasSuffix(code, f.marker) {
		return model.ErrCodeExpired
	}
	return nil
}
