package repositories

import (
	"database/sql"
	"time"

	"bauflow/internal/platform/models"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert writes the profile keyed by identity id. The confirmation and
// invitation flows both land here, and both may legitimately re-run for the
// same identity.
func (r *ProfileRepository) Upsert(profile *models.Profile) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`
		INSERT INTO profiles (id, company_id, first_name, last_name, email, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			first_name = excluded.first_name,
			last_name  = excluded.last_name,
			email      = excluded.email,
			role       = excluded.role,
			updated_at = excluded.updated_at
	`, profile.ID, profile.CompanyID, profile.FirstName, profile.LastName, profile.Email, profile.Role, now, now)
	return err
}

func (r *ProfileRepository) GetByID(id string) (*models.Profile, error) {
	profile := &models.Profile{}
	var companyID sql.NullString
	err := r.db.QueryRow(`
		SELECT id, company_id, first_name, last_name, email, role, created_at, updated_at
		FROM profiles WHERE id = ?
	`, id).Scan(&profile.ID, &companyID, &profile.FirstName, &profile.LastName, &profile.Email, &profile.Role, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if companyID.Valid {
		profile.CompanyID = &companyID.String
	}
	return profile, nil
}

func (r *ProfileRepository) ListByCompany(companyID string) ([]*models.Profile, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, first_name, last_name, email, role, created_at, updated_at
		FROM profiles WHERE company_id = ? ORDER BY last_name, first_name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		profile := &models.Profile{}
		var cid sql.NullString
		if err := rows.Scan(&profile.ID, &cid, &profile.FirstName, &profile.LastName, &profile.Email, &profile.Role, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
			return nil, err
		}
		if cid.Valid {
			profile.CompanyID = &cid.String
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *ProfileRepository) DeleteByCompany(companyID string) error {
	_, err := r.db.Exec(`DELETE FROM profiles WHERE company_id = ?`, companyID)
	return err
}
