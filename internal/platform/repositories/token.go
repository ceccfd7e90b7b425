package repositories

import (
	"crypto/rand"
	"encoding/base64"
)

// NewInvitationToken returns a 256-bit random token in URL-safe form. The
// token is the only secret protecting an invitation, so it must be
// unguessable and carry no trace of who or when it was issued.
func NewInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
