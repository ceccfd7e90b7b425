package identity

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "bauflow/internal/pkg/errors"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	query := `
	CREATE TABLE identities (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		email_confirmed INTEGER NOT NULL DEFAULT 0,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE confirmation_codes (
		code TEXT PRIMARY KEY,
		identity_id TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		consumed_at INTEGER
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return db
}

func TestStore_CreateAndAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewStore(db)

	ident, err := store.Create("Hans@Example.DE", "geheim123", Metadata{FirstName: "Hans", LastName: "Müller"})
	if err != nil {
		t.Fatalf("Failed to create identity: %v", err)
	}
	if ident.Email != "hans@example.de" {
		t.Errorf("Expected lower-cased email, got %s", ident.Email)
	}

	authed, err := store.Authenticate("hans@example.de", "geheim123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if authed == nil || authed.ID != ident.ID {
		t.Error("Expected matching identity from Authenticate")
	}

	wrong, err := store.Authenticate("hans@example.de", "falsch")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if wrong != nil {
		t.Error("Expected nil identity for wrong password")
	}

	unknown, err := store.Authenticate("nobody@example.de", "geheim123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if unknown != nil {
		t.Error("Expected nil identity for unknown email")
	}
}

func TestStore_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewStore(db)

	if _, err := store.Create("hans@example.de", "geheim123", Metadata{}); err != nil {
		t.Fatalf("Failed to create identity: %v", err)
	}

	// Same address with different casing must hit the unique constraint.
	_, err := store.Create("HANS@example.de", "anders456", Metadata{})
	if err != apperrors.ErrEmailTaken {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestStore_ConfirmationCodeSingleUse(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewStore(db)

	ident, err := store.Create("hans@example.de", "geheim123", Metadata{})
	if err != nil {
		t.Fatalf("Failed to create identity: %v", err)
	}

	code, err := store.IssueConfirmationCode(ident.ID, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue code: %v", err)
	}
	if len(code) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(code))
	}

	confirmed, err := store.ExchangeCode(code)
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}
	if confirmed == nil || !confirmed.EmailConfirmed {
		t.Error("Expected confirmed identity")
	}

	// Replay loses.
	replayed, err := store.ExchangeCode(code)
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}
	if replayed != nil {
		t.Error("Expected nil identity for replayed code")
	}
}

func TestStore_ConfirmationCodeExpiry(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewStore(db)

	ident, err := store.Create("hans@example.de", "geheim123", Metadata{})
	if err != nil {
		t.Fatalf("Failed to create identity: %v", err)
	}

	code, err := store.IssueConfirmationCode(ident.ID, -time.Minute)
	if err != nil {
		t.Fatalf("Failed to issue code: %v", err)
	}

	exchanged, err := store.ExchangeCode(code)
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}
	if exchanged != nil {
		t.Error("Expected nil identity for expired code")
	}
}

func TestStore_UnknownCode(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewStore(db)

	exchanged, err := store.ExchangeCode("deadbeef")
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}
	if exchanged != nil {
		t.Error("Expected nil identity for unknown code")
	}
}
