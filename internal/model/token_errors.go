package model

import "errors"

var (
	// ErrTokenInvalid wraps every reason a presented token was not accepted.
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenRevoked   = errors.New("token revoked")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenType      = errors.New("token type mismatch")
)
