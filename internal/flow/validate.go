package flow

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"github.com/dtroode/authflow/internal/apierror"
)

const minPasswordLength = 8

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateLogin checks credentials before they are sent anywhere.
func ValidateLogin(email, password string) *apierror.APIError {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return apierror.NewErrValidation(apierror.FieldEmail, "Email is required")
	case !validEmail(email):
		return apierror.NewErrValidation(apierror.FieldEmail, "Please enter a valid email address")
	}

	switch {
	case password == "":
		return apierror.NewErrValidation(apierror.FieldPassword, "Password is required")
	case len([]rune(password)) < minPasswordLength:
		return apierror.NewErrValidation(apierror.FieldPassword, "Password must be at least 8 characters")
	case !mixedPassword(password):
		return apierror.NewErrValidation(apierror.FieldPassword,
			"Password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
	return nil
}

// ValidateCode checks that code is exactly six digits.
func ValidateCode(code string) *apierror.APIError {
	if !codePattern.MatchString(code) {
		return apierror.NewErrValidation(apierror.FieldCode, "Code must be exactly 6 digits")
	}
	return nil
}

// validEmail accepts a bare address only: no display name, a dotted domain.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

func mixedPassword(password string) bool {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
