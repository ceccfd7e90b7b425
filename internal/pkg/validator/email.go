package validator

import (
	"errors"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Normalize lower-cases and trims an address so uniqueness checks and
// invitation lookups compare like with like.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(Normalize(email)) {
		return errors.New("ungültige E-Mail-Adresse")
	}
	return nil
}
