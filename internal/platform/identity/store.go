// Package identity is the application's account store. It plays the part a
// hosted auth service played in earlier iterations: credentials, the
// email-confirmed flag and the metadata blob that stashes registration data
// until the confirmation link is clicked.
package identity

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	apperrors "bauflow/internal/pkg/errors"
	"bauflow/internal/pkg/validator"
)

type Identity struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	PasswordHash   string   `json:"-"`
	EmailConfirmed bool     `json:"email_confirmed"`
	Metadata       Metadata `json:"metadata"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
}

// PendingCompany holds the company fields captured at registration. It lives
// in identity metadata until confirmation so an unconfirmed signup never
// leaves an orphaned company row behind.
type PendingCompany struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

type Metadata struct {
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	PendingCompany *PendingCompany `json:"pending_company,omitempty"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new unconfirmed identity. Duplicate emails are rejected by
// the store's unique constraint, not by a pre-scan, so concurrent
// registrations for the same address cannot both succeed.
func (s *Store) Create(email, password string, meta Metadata) (*Identity, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	ident := &Identity{
		ID:           "usr_" + uuid.NewString(),
		Email:        validator.Normalize(email),
		PasswordHash: string(hashed),
		Metadata:     meta,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.Exec(`
		INSERT INTO identities (id, email, password_hash, email_confirmed, metadata, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?, ?)
	`, ident.ID, ident.Email, ident.PasswordHash, string(metaJSON), ident.CreatedAt, ident.UpdatedAt)
	if err != nil {
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, err
	}

	return ident, nil
}

func (s *Store) scanOne(row *sql.Row) (*Identity, error) {
	ident := &Identity{}
	var metaJSON string
	err := row.Scan(&ident.ID, &ident.Email, &ident.PasswordHash, &ident.EmailConfirmed, &metaJSON, &ident.CreatedAt, &ident.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &ident.Metadata); err != nil {
		return nil, err
	}
	return ident, nil
}

func (s *Store) GetByID(id string) (*Identity, error) {
	return s.scanOne(s.db.QueryRow(`
		SELECT id, email, password_hash, email_confirmed, metadata, created_at, updated_at
		FROM identities WHERE id = ?
	`, id))
}

func (s *Store) GetByEmail(email string) (*Identity, error) {
	return s.scanOne(s.db.QueryRow(`
		SELECT id, email, password_hash, email_confirmed, metadata, created_at, updated_at
		FROM identities WHERE email = ?
	`, validator.Normalize(email)))
}

// Authenticate returns (nil, nil) for unknown emails and wrong passwords
// alike, so callers cannot tell the two apart.
func (s *Store) Authenticate(email, password string) (*Identity, error) {
	ident, err := s.GetByEmail(email)
	if err != nil || ident == nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}
	return ident, nil
}

func (s *Store) UpdateMetadata(id string, meta Metadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE identities SET metadata = ?, updated_at = ? WHERE id = ?`,
		string(metaJSON), time.Now().Unix(), id)
	return err
}

// IssueConfirmationCode creates a fresh one-time code for the identity. The
// code doubles as the thing the confirmation email links to.
func (s *Store) IssueConfirmationCode(identityID string, ttl time.Duration) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := hex.EncodeToString(buf)

	_, err := s.db.Exec(`
		INSERT INTO confirmation_codes (code, identity_id, expires_at)
		VALUES (?, ?, ?)
	`, code, identityID, time.Now().Add(ttl).Unix())
	if err != nil {
		return "", err
	}
	return code, nil
}

// ExchangeCode consumes a confirmation code and returns the confirmed
// identity. The consume is a conditional update, so a replayed code loses the
// race and gets (nil, nil) like any other invalid code.
func (s *Store) ExchangeCode(code string) (*Identity, error) {
	now := time.Now().Unix()
	res, err := s.db.Exec(`
		UPDATE confirmation_codes SET consumed_at = ?
		WHERE code = ? AND consumed_at IS NULL AND expires_at > ?
	`, now, code, now)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	var identityID string
	if err := s.db.QueryRow(`SELECT identity_id FROM confirmation_codes WHERE code = ?`, code).Scan(&identityID); err != nil {
		return nil, err
	}

	if _, err := s.db.Exec(`UPDATE identities SET email_confirmed = 1, updated_at = ? WHERE id = ?`, now, identityID); err != nil {
		return nil, err
	}

	return s.GetByID(identityID)
}

// Delete removes an identity, used by the tenant teardown cascade.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM confirmation_codes WHERE identity_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM identities WHERE id = ?`, id)
	return err
}
