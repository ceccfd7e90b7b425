package repositories

import (
	"database/sql"
	"time"

	"bauflow/internal/platform/models"
)

type CompanyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(company *models.Company) error {
	_, err := r.db.Exec(`
		INSERT INTO companies (id, name, address, phone, email, website, logo_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, company.ID, company.Name, company.Address, company.Phone, company.Email, company.Website, company.LogoURL, company.CreatedAt, company.UpdatedAt)
	return err
}

func (r *CompanyRepository) GetByID(id string) (*models.Company, error) {
	company := &models.Company{}
	err := r.db.QueryRow(`
		SELECT id, name, address, phone, email, website, logo_url, created_at, updated_at
		FROM companies WHERE id = ?
	`, id).Scan(&company.ID, &company.Name, &company.Address, &company.Phone, &company.Email, &company.Website, &company.LogoURL, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return company, nil
}

func (r *CompanyRepository) Update(company *models.Company) error {
	_, err := r.db.Exec(`
		UPDATE companies SET name = ?, address = ?, phone = ?, email = ?, website = ?, logo_url = ?, updated_at = ?
		WHERE id = ?
	`, company.Name, company.Address, company.Phone, company.Email, company.Website, company.LogoURL, time.Now().Unix(), company.ID)
	return err
}

func (r *CompanyRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM companies WHERE id = ?`, id)
	return err
}
