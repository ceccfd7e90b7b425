package repositories

import (
	"database/sql"
	"time"

	apperrors "bauflow/internal/pkg/errors"
	"bauflow/internal/platform/models"
)

type MaterialRepository struct {
	db *sql.DB
}

func NewMaterialRepository(db *sql.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) Create(material *models.Material) error {
	_, err := r.db.Exec(`
		INSERT INTO materials (id, company_id, project_id, name, unit, quantity, min_stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, material.ID, material.CompanyID, material.ProjectID, material.Name, material.Unit, material.Quantity, material.MinStock, material.CreatedAt, material.UpdatedAt)
	return err
}

func (r *MaterialRepository) GetByID(companyID, id string) (*models.Material, error) {
	material := &models.Material{}
	err := r.db.QueryRow(`
		SELECT id, company_id, project_id, name, unit, quantity, min_stock, created_at, updated_at
		FROM materials WHERE id = ? AND company_id = ?
	`, id, companyID).Scan(&material.ID, &material.CompanyID, &material.ProjectID, &material.Name, &material.Unit, &material.Quantity, &material.MinStock, &material.CreatedAt, &material.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	material.LowStock = material.Quantity < material.MinStock
	return material, nil
}

func (r *MaterialRepository) ListByCompany(companyID string) ([]*models.Material, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, project_id, name, unit, quantity, min_stock, created_at, updated_at
		FROM materials WHERE company_id = ? ORDER BY name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []*models.Material
	for rows.Next() {
		material := &models.Material{}
		if err := rows.Scan(&material.ID, &material.CompanyID, &material.ProjectID, &material.Name, &material.Unit, &material.Quantity, &material.MinStock, &material.CreatedAt, &material.UpdatedAt); err != nil {
			return nil, err
		}
		material.LowStock = material.Quantity < material.MinStock
		materials = append(materials, material)
	}
	return materials, rows.Err()
}

func (r *MaterialRepository) Update(material *models.Material) error {
	_, err := r.db.Exec(`
		UPDATE materials SET project_id = ?, name = ?, unit = ?, min_stock = ?, updated_at = ?
		WHERE id = ? AND company_id = ?
	`, material.ProjectID, material.Name, material.Unit, material.MinStock, time.Now().Unix(), material.ID, material.CompanyID)
	return err
}

// AdjustQuantity applies a signed delta. The guard in the WHERE clause keeps
// stock from going negative under concurrent bookings.
func (r *MaterialRepository) AdjustQuantity(companyID, id string, delta float64) error {
	res, err := r.db.Exec(`
		UPDATE materials SET quantity = quantity + ?, updated_at = ?
		WHERE id = ? AND company_id = ? AND quantity + ? >= 0
	`, delta, time.Now().Unix(), id, companyID, delta)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (r *MaterialRepository) Delete(companyID, id string) error {
	_, err := r.db.Exec(`DELETE FROM materials WHERE id = ? AND company_id = ?`, id, companyID)
	return err
}

func (r *MaterialRepository) DeleteByCompany(companyID string) error {
	_, err := r.db.Exec(`DELETE FROM materials WHERE company_id = ?`, companyID)
	return err
}
