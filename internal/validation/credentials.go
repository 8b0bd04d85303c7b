// Package validation holds the caller-side credential policy applied before
// anything reaches the password hasher.
package validation

import (
	"regexp"
	"strings"

	"github.com/corpopadel/padel-auth/internal/common"
)

// EmailPattern accepts "local@domain.tld" with no whitespace and one '@'.
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	MinPasswordLen = 8
	// MaxPasswordLen is bcrypt's input limit in bytes.
	MaxPasswordLen = 72
	MaxEmailLen    = 254
)

// NormalizeEmail trims surrounding spaces and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if email == "" {
		return &common.ValidationError{Field: "email", Message: "email is required"}
	}
	if len(email) > MaxEmailLen || !EmailPattern.MatchString(email) {
		return &common.ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return &common.ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < MinPasswordLen {
		return &common.ValidationError{Field: "password", Message: "password must be at least 8 characters long"}
	}
	if len(password) > MaxPasswordLen {
		return &common.ValidationError{Field: "password", Message: "password must not exceed 72 bytes"}
	}
	return nil
}
