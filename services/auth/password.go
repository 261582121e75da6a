package auth

import (
	"errors"
	"unicode"
)

// ErrWeakPassword is returned when a password fails the policy.
var ErrWeakPassword = errors.New("password must be at least 8 characters and contain an uppercase letter, a lowercase letter, a digit and a symbol")

// ValidatePassword enforces the account password policy: at least 8
// characters with one uppercase letter, one lowercase letter, one digit and
// one symbol.
func ValidatePassword(password string) error {
	var length, hasUpper, hasLower, hasDigit, hasSymbol = 0, false, false, false, false

	for _, r := range password {
		length++
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if length < 8 || !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return ErrWeakPassword
	}
	return nil
}
