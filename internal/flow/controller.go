// Package flow maps session state onto the screens of the login flow and
// turns user actions into session transitions.
package flow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/model"
	"github.com/dtroode/authflow/internal/session"
)

// Step is the screen shown to the user.
type Step int

const (
	StepLogin Step = iota
	StepTwoFactor
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepLogin:
		return "login"
	case StepTwoFactor:
		return "2fa"
	case StepSuccess:
		return "success"
	}
	return "unknown"
}

// StepFor derives the step from a session state.
func StepFor(state session.State) Step {
	switch state.(type) {
	case session.PendingTwoFactor:
		return StepTwoFactor
	case session.Authenticated:
		return StepSuccess
	default:
		return StepLogin
	}
}

// ResendCooldown gates the resend button after a code is issued.
const ResendCooldown = 45 * time.Second

// Feedback is what the UI renders after an action. FieldMessage sits next
// to Field; Toast is a general notice, a failure unless Info is set.
type Feedback struct {
	Field        string
	FieldMessage string
	Toast        string
	Info         bool
}

// Empty reports whether there is nothing to show.
func (f Feedback) Empty() bool {
	return f == Feedback{}
}

// FeedbackFor renders err for display.
func FeedbackFor(err error) Feedback {
	if err == nil {
		return Feedback{}
	}
	if errors.Is(err, session.ErrAlreadyAuthenticated) {
		return Feedback{}
	}

	apiErr := apierror.From(err)
	if apiErr.Field != "" {
		return Feedback{Field: apiErr.Field, FieldMessage: apiErr.Message}
	}

	toast := apierror.UserMessage(apiErr.Code)
	if apiErr.Code == apierror.CodeValidationError && apiErr.Message != "" {
		toast = apiErr.Message
	}
	return Feedback{Toast: toast}
}

// Session is the part of session.Manager the controller drives.
type Session interface {
	State() session.State
	Login(ctx context.Context, creds model.Credentials) (session.State, error)
	VerifyTwoFactor(ctx context.Context, code string) (session.State, error)
	RequestNewCode(ctx context.Context) (model.CodeResent, error)
	Back(ctx context.Context) session.State
	Logout(ctx context.Context) session.State
}

var _ Session = (*session.Manager)(nil)

// Result is the outcome of an action.
type Result struct {
	Step     Step
	Feedback Feedback
	// ResendAt is when the resend action unlocks; zero outside StepTwoFactor.
	ResendAt time.Time
	// User is set on StepSuccess.
	User model.User
}

// Controller routes user actions to the session.
type Controller struct {
	session Session
	now     func() time.Time
}

func NewController(s Session) *Controller {
	return &Controller{session: s, now: time.Now}
}

// Current returns the step for the present state.
func (c *Controller) Current() Result {
	return c.result(c.session.State(), Feedback{})
}

// SubmitLogin validates and submits credentials.
func (c *Controller) SubmitLogin(ctx context.Context, email, password string) Result {
	if err := ValidateLogin(email, password); err != nil {
		return c.result(c.session.State(), FeedbackFor(err))
	}

	state, err := c.session.Login(ctx, model.Credentials{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	return c.result(state, FeedbackFor(err))
}

// SubmitCode validates and submits a verification code.
func (c *Controller) SubmitCode(ctx context.Context, code string) Result {
	if err := ValidateCode(code); err != nil {
		return c.result(c.session.State(), FeedbackFor(err))
	}

	state, err := c.session.VerifyTwoFactor(ctx, code)
	return c.result(state, FeedbackFor(err))
}

// ResendCode asks for a new code. The reply's availability time restarts
// the cooldown.
func (c *Controller) ResendCode(ctx context.Context) Result {
	resent, err := c.session.RequestNewCode(ctx)
	res := c.result(c.session.State(), FeedbackFor(err))
	if err != nil {
		return res
	}

	res.Feedback = Feedback{Toast: resent.Message, Info: true}
	if !resent.ResendAvailableAt.IsZero() {
		res.ResendAt = resent.ResendAvailableAt
	} else {
		res.ResendAt = c.now().Add(ResendCooldown)
	}
	return res
}

// Back returns from the code screen to the login screen.
func (c *Controller) Back(ctx context.Context) Result {
	return c.result(c.session.Back(ctx), Feedback{})
}

// Logout ends the session.
func (c *Controller) Logout(ctx context.Context) Result {
	return c.result(c.session.Logout(ctx), Feedback{})
}

func (c *Controller) result(state session.State, fb Feedback) Result {
	res := Result{Step: StepFor(state), Feedback: fb}
	switch s := state.(type) {
	case session.PendingTwoFactor:
		res.ResendAt = s.IssuedAt.Add(ResendCooldown)
	case session.Authenticated:
		res.User = s.User
	}
	return res
}

// Remaining returns the whole seconds left until at, never negative.
func Remaining(now, at time.Time) int {
	d := at.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
