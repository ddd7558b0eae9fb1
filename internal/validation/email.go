package validation

import (
	"errors"
	"net/mail"
	"strings"
)

// NormalizeEmail lowercases and trims an email address. Storage and
// lookups always operate on the normalized form; the operation is
// idempotent.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail validates email format and length.
// Uses Go's built-in net/mail parser which follows RFC 5322.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}

	// RFC 5321: 254 character total cap
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email address format")
	}

	return nil
}
