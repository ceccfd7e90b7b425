package repositories

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"

	apperrors "bauflow/internal/pkg/errors"
	"bauflow/internal/platform/models"
)

type InvitationRepository struct {
	db *sql.DB
}

func NewInvitationRepository(db *sql.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create persists an invitation. Liveness uniqueness ("at most one unaccepted
// invitation per email and company") is the store's partial unique index, so
// two concurrent invites cannot both land; the loser gets ErrConflict.
func (r *InvitationRepository) Create(inv *models.Invitation) error {
	_, err := r.db.Exec(`
		INSERT INTO invitations (id, company_id, email, first_name, last_name, role, invitation_token, invited_by, expires_at, accepted_at, email_sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?)
	`, inv.ID, inv.CompanyID, inv.Email, inv.FirstName, inv.LastName, inv.Role, inv.InvitationToken, inv.InvitedBy, inv.ExpiresAt, inv.CreatedAt)
	if err != nil {
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return apperrors.ErrConflict
		}
		return err
	}
	return nil
}

func scanInvitation(scan func(dest ...interface{}) error) (*models.Invitation, error) {
	inv := &models.Invitation{}
	var acceptedAt, emailSentAt sql.NullInt64
	err := scan(&inv.ID, &inv.CompanyID, &inv.Email, &inv.FirstName, &inv.LastName, &inv.Role, &inv.InvitationToken, &inv.InvitedBy, &inv.ExpiresAt, &acceptedAt, &emailSentAt, &inv.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if acceptedAt.Valid {
		inv.AcceptedAt = &acceptedAt.Int64
	}
	if emailSentAt.Valid {
		inv.EmailSentAt = &emailSentAt.Int64
	}
	return inv, nil
}

func (r *InvitationRepository) GetByID(companyID, id string) (*models.Invitation, error) {
	row := r.db.QueryRow(`
		SELECT id, company_id, email, first_name, last_name, role, invitation_token, invited_by, expires_at, accepted_at, email_sent_at, created_at
		FROM invitations WHERE id = ? AND company_id = ?
	`, id, companyID)
	return scanInvitation(row.Scan)
}

// GetLiveByToken resolves a token that is neither accepted nor expired, and
// joins the company so the acceptance page can show who is inviting. Wrong
// token, consumed token and expired token all come back as a plain miss;
// callers must not be able to tell which it was.
func (r *InvitationRepository) GetLiveByToken(token string, now int64) (*models.Invitation, error) {
	row := r.db.QueryRow(`
		SELECT i.id, i.company_id, i.email, i.first_name, i.last_name, i.role, i.invitation_token, i.invited_by, i.expires_at, i.accepted_at, i.email_sent_at, i.created_at,
		       c.id, c.name, c.address
		FROM invitations i
		JOIN companies c ON c.id = i.company_id
		WHERE i.invitation_token = ? AND i.accepted_at IS NULL AND i.expires_at > ?
	`, token, now)

	inv := &models.Invitation{}
	company := &models.Company{}
	var acceptedAt, emailSentAt sql.NullInt64
	err := row.Scan(&inv.ID, &inv.CompanyID, &inv.Email, &inv.FirstName, &inv.LastName, &inv.Role, &inv.InvitationToken, &inv.InvitedBy, &inv.ExpiresAt, &acceptedAt, &emailSentAt, &inv.CreatedAt,
		&company.ID, &company.Name, &company.Address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if acceptedAt.Valid {
		inv.AcceptedAt = &acceptedAt.Int64
	}
	if emailSentAt.Valid {
		inv.EmailSentAt = &emailSentAt.Int64
	}
	inv.Company = company
	return inv, nil
}

func (r *InvitationRepository) ListByCompany(companyID string) ([]*models.Invitation, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, email, first_name, last_name, role, invitation_token, invited_by, expires_at, accepted_at, email_sent_at, created_at
		FROM invitations WHERE company_id = ? ORDER BY created_at DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// ListUnsent returns live invitations whose email never went out; the worker
// retries these.
func (r *InvitationRepository) ListUnsent(now int64) ([]*models.Invitation, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, email, first_name, last_name, role, invitation_token, invited_by, expires_at, accepted_at, email_sent_at, created_at
		FROM invitations WHERE email_sent_at IS NULL AND accepted_at IS NULL AND expires_at > ?
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *InvitationRepository) MarkAccepted(id string, now int64) error {
	_, err := r.db.Exec(`UPDATE invitations SET accepted_at = ? WHERE id = ? AND accepted_at IS NULL`, now, id)
	return err
}

func (r *InvitationRepository) MarkEmailSent(id string, now int64) error {
	_, err := r.db.Exec(`UPDATE invitations SET email_sent_at = ? WHERE id = ?`, now, id)
	return err
}

func (r *InvitationRepository) Delete(companyID, id string) error {
	_, err := r.db.Exec(`DELETE FROM invitations WHERE id = ? AND company_id = ?`, id, companyID)
	return err
}

func (r *InvitationRepository) DeleteByCompany(companyID string) error {
	_, err := r.db.Exec(`DELETE FROM invitations WHERE company_id = ?`, companyID)
	return err
}
