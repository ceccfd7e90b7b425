package repositories

import (
	"database/sql"
	"time"

	"bauflow/internal/platform/models"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(task *models.Task) error {
	_, err := r.db.Exec(`
		INSERT INTO tasks (id, company_id, project_id, employee_id, title, description, status, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.CompanyID, task.ProjectID, task.EmployeeID, task.Title, task.Description, task.Status, task.DueDate, task.CreatedAt, task.UpdatedAt)
	return err
}

func (r *TaskRepository) GetByID(companyID, id string) (*models.Task, error) {
	task := &models.Task{}
	err := r.db.QueryRow(`
		SELECT id, company_id, project_id, employee_id, title, description, status, due_date, created_at, updated_at
		FROM tasks WHERE id = ? AND company_id = ?
	`, id, companyID).Scan(&task.ID, &task.CompanyID, &task.ProjectID, &task.EmployeeID, &task.Title, &task.Description, &task.Status, &task.DueDate, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) ListByCompany(companyID string) ([]*models.Task, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, project_id, employee_id, title, description, status, due_date, created_at, updated_at
		FROM tasks WHERE company_id = ? ORDER BY created_at DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		if err := rows.Scan(&task.ID, &task.CompanyID, &task.ProjectID, &task.EmployeeID, &task.Title, &task.Description, &task.Status, &task.DueDate, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(task *models.Task) error {
	_, err := r.db.Exec(`
		UPDATE tasks SET project_id = ?, employee_id = ?, title = ?, description = ?, status = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND company_id = ?
	`, task.ProjectID, task.EmployeeID, task.Title, task.Description, task.Status, task.DueDate, time.Now().Unix(), task.ID, task.CompanyID)
	return err
}

func (r *TaskRepository) Delete(companyID, id string) error {
	_, err := r.db.Exec(`DELETE FROM tasks WHERE id = ? AND company_id = ?`, id, companyID)
	return err
}

func (r *TaskRepository) DeleteByCompany(companyID string) error {
	_, err := r.db.Exec(`DELETE FROM tasks WHERE company_id = ?`, companyID)
	return err
}
