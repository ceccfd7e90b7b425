package repositories

import (
	"database/sql"
	"time"

	"bauflow/internal/platform/models"
)

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(project *models.Project) error {
	_, err := r.db.Exec(`
		INSERT INTO projects (id, company_id, customer_id, name, address, status, start_date, end_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, project.ID, project.CompanyID, project.CustomerID, project.Name, project.Address, project.Status, project.StartDate, project.EndDate, project.Notes, project.CreatedAt, project.UpdatedAt)
	return err
}

func (r *ProjectRepository) GetByID(companyID, id string) (*models.Project, error) {
	project := &models.Project{}
	err := r.db.QueryRow(`
		SELECT id, company_id, customer_id, name, address, status, start_date, end_date, notes, created_at, updated_at
		FROM projects WHERE id = ? AND company_id = ?
	`, id, companyID).Scan(&project.ID, &project.CompanyID, &project.CustomerID, &project.Name, &project.Address, &project.Status, &project.StartDate, &project.EndDate, &project.Notes, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return project, nil
}

func (r *ProjectRepository) ListByCompany(companyID string) ([]*models.Project, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, customer_id, name, address, status, start_date, end_date, notes, created_at, updated_at
		FROM projects WHERE company_id = ? ORDER BY created_at DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		if err := rows.Scan(&project.ID, &project.CompanyID, &project.CustomerID, &project.Name, &project.Address, &project.Status, &project.StartDate, &project.EndDate, &project.Notes, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Update(project *models.Project) error {
	_, err := r.db.Exec(`
		UPDATE projects SET customer_id = ?, name = ?, address = ?, status = ?, start_date = ?, end_date = ?, notes = ?, updated_at = ?
		WHERE id = ? AND company_id = ?
	`, project.CustomerID, project.Name, project.Address, project.Status, project.StartDate, project.EndDate, project.Notes, time.Now().Unix(), project.ID, project.CompanyID)
	return err
}

func (r *ProjectRepository) Delete(companyID, id string) error {
	_, err := r.db.Exec(`DELETE FROM projects WHERE id = ? AND company_id = ?`, id, companyID)
	return err
}

func (r *ProjectRepository) DeleteByCompany(companyID string) error {
	_, err := r.db.Exec(`DELETE FROM projects WHERE company_id = ?`, companyID)
	return err
}
