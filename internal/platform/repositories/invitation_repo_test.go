package repositories

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "bauflow/internal/pkg/errors"
	"bauflow/internal/platform/models"
)

func setupInvitationDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	query := `
	CREATE TABLE companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		logo_url TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE invitations (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		email TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'employee',
		invitation_token TEXT NOT NULL UNIQUE,
		invited_by TEXT NOT NULL DEFAULT '',
		expires_at INTEGER NOT NULL,
		accepted_at INTEGER,
		email_sent_at INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX idx_invitations_live
		ON invitations(company_id, email) WHERE accepted_at IS NULL;
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}

	now := time.Now().Unix()
	if _, err := db.Exec(`INSERT INTO companies (id, name, address, created_at, updated_at) VALUES ('comp_1', 'Müller Bau', 'Hauptstraße 1', ?, ?)`, now, now); err != nil {
		t.Fatalf("Failed to seed company: %v", err)
	}
	return db
}

func newInvitation(id, email, token string, expiresAt int64) *models.Invitation {
	return &models.Invitation{
		ID:              id,
		CompanyID:       "comp_1",
		Email:           email,
		FirstName:       "Lisa",
		LastName:        "Schmidt",
		Role:            models.RoleEmployee,
		InvitationToken: token,
		InvitedBy:       "usr_1",
		ExpiresAt:       expiresAt,
		CreatedAt:       time.Now().Unix(),
	}
}

func TestInvitationRepository_LiveUniqueness(t *testing.T) {
	db := setupInvitationDB(t)
	defer db.Close()

	repo := NewInvitationRepository(db)
	expires := time.Now().Add(7 * 24 * time.Hour).Unix()

	if err := repo.Create(newInvitation("inv_1", "lisa@example.de", "tok-1", expires)); err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	// Second live invitation for the same email must conflict.
	err := repo.Create(newInvitation("inv_2", "lisa@example.de", "tok-2", expires))
	if err != apperrors.ErrConflict {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	// Once accepted, the partial index frees the slot for a new invitation.
	if err := repo.MarkAccepted("inv_1", time.Now().Unix()); err != nil {
		t.Fatalf("Failed to mark accepted: %v", err)
	}
	if err := repo.Create(newInvitation("inv_3", "lisa@example.de", "tok-3", expires)); err != nil {
		t.Errorf("Expected re-invite after acceptance to succeed, got %v", err)
	}
}

func TestInvitationRepository_GetLiveByToken(t *testing.T) {
	db := setupInvitationDB(t)
	defer db.Close()

	repo := NewInvitationRepository(db)
	now := time.Now().Unix()

	if err := repo.Create(newInvitation("inv_live", "live@example.de", "tok-live", now+3600)); err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}
	if err := repo.Create(newInvitation("inv_expired", "expired@example.de", "tok-expired", now-1)); err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}
	if err := repo.Create(newInvitation("inv_accepted", "accepted@example.de", "tok-accepted", now+3600)); err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}
	if err := repo.MarkAccepted("inv_accepted", now); err != nil {
		t.Fatalf("Failed to mark accepted: %v", err)
	}

	t.Run("live token resolves with company", func(t *testing.T) {
		inv, err := repo.GetLiveByToken("tok-live", now)
		if err != nil {
			t.Fatalf("GetLiveByToken failed: %v", err)
		}
		if inv == nil {
			t.Fatal("Expected invitation, got nil")
		}
		if inv.Company == nil || inv.Company.Name != "Müller Bau" {
			t.Error("Expected joined company data")
		}
	})

	t.Run("expired token misses", func(t *testing.T) {
		inv, err := repo.GetLiveByToken("tok-expired", now)
		if err != nil {
			t.Fatalf("GetLiveByToken failed: %v", err)
		}
		if inv != nil {
			t.Error("Expected nil for expired token")
		}
	})

	t.Run("accepted token misses", func(t *testing.T) {
		inv, err := repo.GetLiveByToken("tok-accepted", now)
		if err != nil {
			t.Fatalf("GetLiveByToken failed: %v", err)
		}
		if inv != nil {
			t.Error("Expected nil for accepted token")
		}
	})

	t.Run("unknown token misses", func(t *testing.T) {
		inv, err := repo.GetLiveByToken("tok-nope", now)
		if err != nil {
			t.Fatalf("GetLiveByToken failed: %v", err)
		}
		if inv != nil {
			t.Error("Expected nil for unknown token")
		}
	})
}

func TestInvitationRepository_ListUnsent(t *testing.T) {
	db := setupInvitationDB(t)
	defer db.Close()

	repo := NewInvitationRepository(db)
	now := time.Now().Unix()

	if err := repo.Create(newInvitation("inv_unsent", "a@example.de", "tok-a", now+3600)); err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}
	if err := repo.Create(newInvitation("inv_sent", "b@example.de", "tok-b", now+3600)); err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}
	if err := repo.MarkEmailSent("inv_sent", now); err != nil {
		t.Fatalf("Failed to mark sent: %v", err)
	}

	unsent, err := repo.ListUnsent(now)
	if err != nil {
		t.Fatalf("ListUnsent failed: %v", err)
	}
	if len(unsent) != 1 || unsent[0].ID != "inv_unsent" {
		t.Errorf("Expected only the unsent invitation, got %d entries", len(unsent))
	}
}
