package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/dtroode/authflow/internal/model"
)

// Notifier delivers an issued code to its owner.
type Notifier interface {
	Deliver(ctx context.Context, identity model.Identity, code string) error
}

var _ model.CodeVerifier = (*Dispatch)(nil)

// Dispatch generates a random code per challenge and hands it to a Notifier.
// Only the hash is kept; issuing again replaces the previous code.
type Dispatch struct {
	notifier Notifier
}

func NewDispatch(notifier Notifier) *Dispatch {
	return &Dispatch{notifier: notifier}
}

func (d *Dispatch) Issue(ctx context.Context, identity model.Identity, challenge *model.Challenge) error {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := d.notifier.Deliver(ctx, identity, code); err != nil {
		return fmt.Errorf("failed to deliver code: %w", err)
	}

	challenge.CodeHash = hashCode(code)
	return nil
}

func (d *Dispatch) Verify(_ context.Context, _ model.Identity, challenge model.Challenge, code string, _ time.Time) error {
	if len(challenge.CodeHash) == 0 {
		return model.ErrCodeInvalid
	}
	if subtle.ConstantTimeCompare(challenge.CodeHash, hashCode(code)) != 1 {
		return model.ErrCodeInvalid
	}
	return nil
}

func hashCode(code string) []byte {
	h := sha256.Sum256([]byte(code))
	return h[:]
}

// WriterNotifier prints codes to w. It is the development delivery channel;
// real SMS or email delivery is out of scope.
type WriterNotifier struct {
	w io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Deliver(_ context.Context, identity model.Identity, code string) error {
	_, err := fmt.Fprintf(n.w, "verification code for %s: %s\n", identity.Email, code)
	return err
}
