// Package apierror defines the closed set of failure categories returned by
// authentication operations, the user-facing message table and the retry
// policy callers apply to each category.
package apierror

import (
	"errors"
	"fmt"
)

// Code is a failure category.
type Code string

const (
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeAccountLocked      Code = "ACCOUNT_LOCKED"
	CodeAccountSuspended   Code = "ACCOUNT_SUSPENDED"
	CodeEmailNotVerified   Code = "EMAIL_NOT_VERIFIED"
	CodeInvalid2FACode     Code = "INVALID_2FA_CODE"
	CodeExpired2FACode     Code = "EXPIRED_2FA_CODE"
	CodeTooManyAttempts    Code = "TOO_MANY_ATTEMPTS"
	CodeNetworkError       Code = "NETWORK_ERROR"
	CodeServerError        Code = "SERVER_ERROR"
	CodeValidationError    Code = "VALIDATION_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Field names reported with field-level failures.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldCode     = "code"
)

// Codes lists every category in declaration order.
var Codes = []Code{
	CodeInvalidCredentials,
	CodeUserNotFound,
	CodeAccountLocked,
	CodeAccountSuspended,
	CodeEmailNotVerified,
	CodeInvalid2FACode,
	CodeExpired2FACode,
	CodeTooManyAttempts,
	CodeNetworkError,
	CodeServerError,
	CodeValidationError,
	CodeUnknownError,
}

var userMessages = map[Code]string{
	CodeInvalidCredentials: "Invalid email or password. Please check your credentials and try again.",
	CodeUserNotFound:       "No account found with this email address.",
	CodeAccountLocked:      "Your account has been temporarily locked due to multiple failed login attempts.",
	CodeAccountSuspended:   "Your account has been suspended. Please contact support for assistance.",
	CodeEmailNotVerified:   "Please verify your email address before logging in.",
	CodeInvalid2FACode:     "Invalid verification code. Please check the code and try again.",
	CodeExpired2FACode:     "Verification code has expired. Please request a new code.",
	CodeTooManyAttempts:    "Too many failed attempts. Please wait before trying again.",
	CodeNetworkError:       "Network connection error. Please check your internet connection.",
	CodeServerError:        "Server error occurred. Please try again later.",
	CodeValidationError:    "Please check your input and try again.",
	CodeUnknownError:       "An unexpected error occurred. Please try again.",
}

// UserMessage returns the fixed toast text for code.
func UserMessage(code Code) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[CodeUnknownError]
}

// Valid reports whether code belongs to the taxonomy.
func (c Code) Valid() bool {
	_, ok := userMessages[c]
	return ok
}

// Retryable reports whether a failure of this category may be retried
// automatically. Only transport-class failures qualify; everything else
// needs new input from the user.
func Retryable(code Code) bool {
	return code == CodeNetworkError || code == CodeServerError
}

// APIError is a categorized failure. Message is the operation-specific detail
// shown next to Field, or as a general notice when Field is empty.
type APIError struct {
	Code    Code
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another *APIError by code, so errors.Is(err, apierror.ErrX) works
// against the sentinel values below.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New builds an APIError.
func New(code Code, message, field string) *APIError {
	return &APIError{Code: code, Message: message, Field: field}
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidCredentials = &APIError{Code: CodeInvalidCredentials}
	ErrUserNotFound       = &APIError{Code: CodeUserNotFound}
	ErrAccountLocked      = &APIError{Code: CodeAccountLocked}
	ErrAccountSuspended   = &APIError{Code: CodeAccountSuspended}
	ErrEmailNotVerified   = &APIError{Code: CodeEmailNotVerified}
	ErrInvalid2FACode     = &APIError{Code: CodeInvalid2FACode}
	ErrExpired2FACode     = &APIError{Code: CodeExpired2FACode}
	ErrTooManyAttempts    = &APIError{Code: CodeTooManyAttempts}
	ErrNetwork            = &APIError{Code: CodeNetworkError}
	ErrServer             = &APIError{Code: CodeServerError}
	ErrValidation         = &APIError{Code: CodeValidationError}
	ErrUnknown            = &APIError{Code: CodeUnknownError}
)

func NewErrInvalidCredentials() *APIError {
	return New(CodeInvalidCredentials, "Invalid email or password.", FieldPassword)
}

func NewErrUserNotFound() *APIError {
	return New(CodeUserNotFound, "No account found with this email address.", FieldEmail)
}

func NewErrAccountLocked() *APIError {
	return New(CodeAccountLocked, "Your account has been temporarily locked.", "")
}

func NewErrAccountSuspended() *APIError {
	return New(CodeAccountSuspended, "Your account has been suspended. Please contact support.", "")
}

func NewErrEmailNotVerified() *APIError {
	return New(CodeEmailNotVerified, "Please verify your email address before logging in.", "")
}

func NewErrTooManyAttempts() *APIError {
	return New(CodeTooManyAttempts, "Too many failed login attempts. Please try again in 15 minutes.", "")
}

func NewErrTooManyCodeAttempts() *APIError {
	return New(CodeTooManyAttempts, "Too many incorrect codes. Please login again.", "")
}

// NewErrInvalidSession reports an unusable temporary token without saying
// which part of it was wrong.
func NewErrInvalidSession() *APIError {
	return New(CodeInvalid2FACode, "Invalid session. Please login again.", "")
}

// NewErrSessionExpired rejects an auth token the server no longer accepts.
func NewErrSessionExpired() *APIError {
	return New(CodeInvalidCredentials, "Your session has expired. Please login again.", "")
}

func NewErrInvalid2FACode() *APIError {
	return New(CodeInvalid2FACode, "Invalid verification code. Please try again.", FieldCode)
}

func NewErrExpired2FACode() *APIError {
	return New(CodeExpired2FACode, "Verification code has expired. Please request a new code.", FieldCode)
}

func NewErrNetwork() *APIError {
	return New(CodeNetworkError, "Network connection failed", "")
}

func NewErrServer() *APIError {
	return New(CodeServerError, "Internal server error", "")
}

func NewErrValidation(field, message string) *APIError {
	return New(CodeValidationError, message, field)
}

func NewErrUnknown() *APIError {
	return New(CodeUnknownError, "An unexpected error occurred", "")
}

// From returns the *APIError carried by err. Anything else collapses to
// UNKNOWN_ERROR so raw internal detail never reaches the caller.
func From(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code.Valid() {
		return apiErr
	}
	return NewErrUnknown()
}

// CodeOf is shorthand for From(err).Code; it returns "" for a nil error.
func CodeOf(err error) Code {
	if apiErr := From(err); apiErr != nil {
		return apiErr.Code
	}
	return ""
}
