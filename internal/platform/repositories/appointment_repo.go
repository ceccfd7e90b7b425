package repositories

import (
	"database/sql"
	"time"

	"bauflow/internal/platform/models"
)

type AppointmentRepository struct {
	db *sql.DB
}

func NewAppointmentRepository(db *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(appt *models.Appointment) error {
	_, err := r.db.Exec(`
		INSERT INTO appointments (id, company_id, project_id, employee_id, title, location, starts_at, ends_at, reminder_sent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, appt.ID, appt.CompanyID, appt.ProjectID, appt.EmployeeID, appt.Title, appt.Location, appt.StartsAt, appt.EndsAt, appt.CreatedAt, appt.UpdatedAt)
	return err
}

func (r *AppointmentRepository) GetByID(companyID, id string) (*models.Appointment, error) {
	appt := &models.Appointment{}
	err := r.db.QueryRow(`
		SELECT id, company_id, project_id, employee_id, title, location, starts_at, ends_at, reminder_sent, created_at, updated_at
		FROM appointments WHERE id = ? AND company_id = ?
	`, id, companyID).Scan(&appt.ID, &appt.CompanyID, &appt.ProjectID, &appt.EmployeeID, &appt.Title, &appt.Location, &appt.StartsAt, &appt.EndsAt, &appt.ReminderSent, &appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return appt, nil
}

func (r *AppointmentRepository) ListByCompany(companyID string) ([]*models.Appointment, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, project_id, employee_id, title, location, starts_at, ends_at, reminder_sent, created_at, updated_at
		FROM appointments WHERE company_id = ? ORDER BY starts_at
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		appt := &models.Appointment{}
		if err := rows.Scan(&appt.ID, &appt.CompanyID, &appt.ProjectID, &appt.EmployeeID, &appt.Title, &appt.Location, &appt.StartsAt, &appt.EndsAt, &appt.ReminderSent, &appt.CreatedAt, &appt.UpdatedAt); err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	return appointments, rows.Err()
}

// ListUpcomingUnreminded finds appointments starting inside the window that
// have not had their reminder sent yet.
func (r *AppointmentRepository) ListUpcomingUnreminded(from, until int64) ([]*models.Appointment, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, project_id, employee_id, title, location, starts_at, ends_at, reminder_sent, created_at, updated_at
		FROM appointments WHERE reminder_sent = 0 AND starts_at > ? AND starts_at <= ?
	`, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		appt := &models.Appointment{}
		if err := rows.Scan(&appt.ID, &appt.CompanyID, &appt.ProjectID, &appt.EmployeeID, &appt.Title, &appt.Location, &appt.StartsAt, &appt.EndsAt, &appt.ReminderSent, &appt.CreatedAt, &appt.UpdatedAt); err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	return appointments, rows.Err()
}

func (r *AppointmentRepository) MarkReminded(id string) error {
	_, err := r.db.Exec(`UPDATE appointments SET reminder_sent = 1, updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

func (r *AppointmentRepository) Update(appt *models.Appointment) error {
	_, err := r.db.Exec(`
		UPDATE appointments SET project_id = ?, employee_id = ?, title = ?, location = ?, starts_at = ?, ends_at = ?, updated_at = ?
		WHERE id = ? AND company_id = ?
	`, appt.ProjectID, appt.EmployeeID, appt.Title, appt.Location, appt.StartsAt, appt.EndsAt, time.Now().Unix(), appt.ID, appt.CompanyID)
	return err
}

func (r *AppointmentRepository) Delete(companyID, id string) error {
	_, err := r.db.Exec(`DELETE FROM appointments WHERE id = ? AND company_id = ?`, id, companyID)
	return err
}

func (r *AppointmentRepository) DeleteByCompany(companyID string) error {
	_, err := r.db.Exec(`DELETE FROM appointments WHERE company_id = ?`, companyID)
	return err
}
