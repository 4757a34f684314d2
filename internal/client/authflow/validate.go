package authflow

import (
	"strings"
	"unicode"
)

const minPasswordLen = 8

// validatePassword enforces the identity provider's minimum-entropy policy
// locally: length >= 8 with upper, lower, digit, and symbol. Catching this
// before the network keeps the failure inline and cheap.
func validatePassword(password, confirm string) error {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if len(password) < minPasswordLen || !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return &ValidationError{
			Field:  "password",
			Reason: "must include upper, lower, number, and symbol (min 8)",
		}
	}
	if password != confirm {
		return &ValidationError{Field: "confirm", Reason: "passwords do not match"}
	}
	return nil
}

// normalizeEmail lowercases and trims, matching what the service expects.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
