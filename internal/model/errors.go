package model

import "errors"

var (
	// ErrNotFound is returned by stores when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCodeInvalid is returned by code verifiers for a code that is not accepted.
	ErrCodeInvalid = errors.New("verification code invalid")
	// ErrCodeExpired is returned by code verifiers for a code that was valid once.
	ErrCodeExpired = errors.New("verification code expired")
)
