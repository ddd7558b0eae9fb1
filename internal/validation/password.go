package validation

import (
	"errors"
)

// ValidatePassword enforces the password rules applied by the page
// layer before any hash is written.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	// bcrypt silently truncates beyond 72 bytes
	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	return nil
}
