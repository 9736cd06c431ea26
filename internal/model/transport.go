package model

import "context"

// Operation names a service call for transport simulation.
type Operation string

const (
	OpLogin           Operation = "login"
	OpVerifyTwoFactor Operation = "verify_two_factor"
	OpRequestNewCode  Operation = "request_new_code"
)

// Transport stands in for the network between the client and the auth
// backend. Call blocks for the simulated round trip and returns a
// categorized error when the trip fails.
type Transport interface {
	Call(ctx context.Context, op Operation) error
}
