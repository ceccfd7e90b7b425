package repositories

import (
	"database/sql"
	"time"

	"bauflow/internal/platform/models"
)

type EmployeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(employee *models.Employee) error {
	_, err := r.db.Exec(`
		INSERT INTO employees (id, company_id, user_id, first_name, last_name, email, role, hourly_rate, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, employee.ID, employee.CompanyID, employee.UserID, employee.FirstName, employee.LastName, employee.Email, employee.Role, employee.HourlyRate, employee.Active, employee.CreatedAt, employee.UpdatedAt)
	return err
}

func (r *EmployeeRepository) GetByID(companyID, id string) (*models.Employee, error) {
	employee := &models.Employee{}
	err := r.db.QueryRow(`
		SELECT id, company_id, user_id, first_name, last_name, email, role, hourly_rate, active, created_at, updated_at
		FROM employees WHERE id = ? AND company_id = ?
	`, id, companyID).Scan(&employee.ID, &employee.CompanyID, &employee.UserID, &employee.FirstName, &employee.LastName, &employee.Email, &employee.Role, &employee.HourlyRate, &employee.Active, &employee.CreatedAt, &employee.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return employee, nil
}

func (r *EmployeeRepository) GetByUserID(companyID, userID string) (*models.Employee, error) {
	employee := &models.Employee{}
	err := r.db.QueryRow(`
		SELECT id, company_id, user_id, first_name, last_name, email, role, hourly_rate, active, created_at, updated_at
		FROM employees WHERE user_id = ? AND company_id = ?
	`, userID, companyID).Scan(&employee.ID, &employee.CompanyID, &employee.UserID, &employee.FirstName, &employee.LastName, &employee.Email, &employee.Role, &employee.HourlyRate, &employee.Active, &employee.CreatedAt, &employee.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return employee, nil
}

func (r *EmployeeRepository) ListByCompany(companyID string) ([]*models.Employee, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, user_id, first_name, last_name, email, role, hourly_rate, active, created_at, updated_at
		FROM employees WHERE company_id = ? ORDER BY last_name, first_name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*models.Employee
	for rows.Next() {
		employee := &models.Employee{}
		if err := rows.Scan(&employee.ID, &employee.CompanyID, &employee.UserID, &employee.FirstName, &employee.LastName, &employee.Email, &employee.Role, &employee.HourlyRate, &employee.Active, &employee.CreatedAt, &employee.UpdatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

func (r *EmployeeRepository) Update(employee *models.Employee) error {
	_, err := r.db.Exec(`
		UPDATE employees SET first_name = ?, last_name = ?, email = ?, role = ?, hourly_rate = ?, active = ?, updated_at = ?
		WHERE id = ? AND company_id = ?
	`, employee.FirstName, employee.LastName, employee.Email, employee.Role, employee.HourlyRate, employee.Active, time.Now().Unix(), employee.ID, employee.CompanyID)
	return err
}

func (r *EmployeeRepository) Delete(companyID, id string) error {
	_, err := r.db.Exec(`DELETE FROM employees WHERE id = ? AND company_id = ?`, id, companyID)
	return err
}

func (r *EmployeeRepository) DeleteByCompany(companyID string) error {
	_, err := r.db.Exec(`DELETE FROM employees WHERE company_id = ?`, companyID)
	return err
}
