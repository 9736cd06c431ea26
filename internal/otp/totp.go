package otp

import (
	"context"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/dtroode/authflow/internal/model"
)

const (
	totpPeriod = 30
	// totpLookback is how far back a code still counts as "expired" rather
	// than simply wrong.
	totpLookback = 5 * time.Minute
)

var totpOpts = totp.ValidateOpts{
	Period:    totpPeriod,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

var _ model.CodeVerifier = (*TOTP)(nil)

// TOTP checks codes from an authenticator app against the identity's secret.
type TOTP struct{}

func NewTOTP() *TOTP {
	return &TOTP{}
}

func (v *TOTP) Issue(context.Context, model.Identity, *model.Challenge) error {
	return nil
}

func (v *TOTP) Verify(_ context.Context, identity model.Identity, _ model.Challenge, code string, now time.Time) error {
	if identity.TOTPSecret == "" || len(code) != int(otp.DigitsSix) {
		return model.ErrCodeInvalid
	}

	ok, err := totp.ValidateCustom(code, identity.TOTPSecret, now, totpOpts)
	if err != nil {
		return model.ErrCodeInvalid
	}
	if ok {
		return nil
	}

	exact := totpOpts
	exact.Skew = 0
	for at := now.Add(-2 * totpPeriod * time.Second); now.Sub(at) <= totpLookback; at = at.Add(-totpPeriod * time.Second) {
		if old, _ := totp.ValidateCustom(code, identity.TOTPSecret, at, exact); old {
			return model.ErrCodeExpired
		}
	}

	return model.ErrCodeInvalid
}

// GenerateCode returns the code valid for secret at t.
func GenerateCode(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, totpOpts)
}
