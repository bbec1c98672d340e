package validation

import (
	"errors"
	"net/mail"
)

const maxEmailLength = 254

// ValidateEmail accepts a bare address as used for account login.
// Display-name forms like "Jane <jane@example.com>" are rejected because the
// stored email must match what the user types at login.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}
	if len(email) > maxEmailLength {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return errors.New("invalid email address format")
	}

	return nil
}
