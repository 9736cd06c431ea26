// Package session holds the client's authentication state and keeps it in
// step with persistent storage.
package session

import (
	"time"

	"github.com/dtroode/authflow/internal/model"
)

// State is one of Anonymous, PendingTwoFactor or Authenticated.
type State interface {
	state()
}

// Anonymous is the state with no credentials on hand.
type Anonymous struct{}

// PendingTwoFactor waits for a second-factor code.
type PendingTwoFactor struct {
	TempToken string
	IssuedAt  time.Time
}

// Authenticated holds a usable auth token.
type Authenticated struct {
	User  model.User
	Token string
}

func (Anonymous) state()        {}
func (PendingTwoFactor) state() {}
func (Authenticated) state()    {}

// Keys used in the durable and volatile stores.
const (
	KeyAuthToken = "authToken"
	KeyUser      = "user"
	KeyTempToken = "tempToken"
)
