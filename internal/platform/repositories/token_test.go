package repositories

import (
	"encoding/base64"
	"testing"
)

func TestNewInvitationToken(t *testing.T) {
	token, err := NewInvitationToken()
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("Token is not valid base64url: %v", err)
	}
	if len(raw) != 32 {
		t.Errorf("Expected 32 bytes of entropy, got %d", len(raw))
	}
}

func TestNewInvitationToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token, err := NewInvitationToken()
		if err != nil {
			t.Fatalf("Failed to generate token: %v", err)
		}
		if seen[token] {
			t.Fatal("Duplicate token generated")
		}
		seen[token] = true
	}
}
