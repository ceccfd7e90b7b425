package repositories

import (
	"database/sql"
	"time"

	apperrors "bauflow/internal/pkg/errors"
	"bauflow/internal/platform/models"
)

type TimesheetRepository struct {
	db *sql.DB
}

func NewTimesheetRepository(db *sql.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

func (r *TimesheetRepository) Create(entry *models.TimeEntry) error {
	_, err := r.db.Exec(`
		INSERT INTO time_entries (id, company_id, employee_id, project_id, clock_in, clock_out, break_minutes, note, approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?, ?, 0, ?, ?)
	`, entry.ID, entry.CompanyID, entry.EmployeeID, entry.ProjectID, entry.ClockIn, entry.BreakMinutes, entry.Note, entry.CreatedAt, entry.UpdatedAt)
	return err
}

func scanTimeEntry(scan func(dest ...interface{}) error) (*models.TimeEntry, error) {
	entry := &models.TimeEntry{}
	var clockOut sql.NullInt64
	err := scan(&entry.ID, &entry.CompanyID, &entry.EmployeeID, &entry.ProjectID, &entry.ClockIn, &clockOut, &entry.BreakMinutes, &entry.Note, &entry.Approved, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if clockOut.Valid {
		entry.ClockOut = &clockOut.Int64
	}
	return entry, nil
}

func (r *TimesheetRepository) GetByID(companyID, id string) (*models.TimeEntry, error) {
	row := r.db.QueryRow(`
		SELECT id, company_id, employee_id, project_id, clock_in, clock_out, break_minutes, note, approved, created_at, updated_at
		FROM time_entries WHERE id = ? AND company_id = ?
	`, id, companyID)
	return scanTimeEntry(row.Scan)
}

// GetOpenByEmployee returns the running entry (no clock-out yet), if any.
func (r *TimesheetRepository) GetOpenByEmployee(companyID, employeeID string) (*models.TimeEntry, error) {
	row := r.db.QueryRow(`
		SELECT id, company_id, employee_id, project_id, clock_in, clock_out, break_minutes, note, approved, created_at, updated_at
		FROM time_entries WHERE company_id = ? AND employee_id = ? AND clock_out IS NULL
		ORDER BY clock_in DESC LIMIT 1
	`, companyID, employeeID)
	return scanTimeEntry(row.Scan)
}

func (r *TimesheetRepository) ListByCompany(companyID string) ([]*models.TimeEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, employee_id, project_id, clock_in, clock_out, break_minutes, note, approved, created_at, updated_at
		FROM time_entries WHERE company_id = ? ORDER BY clock_in DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ClockOut closes a running entry; closing an already closed entry is a
// conflict so double clock-outs surface instead of silently rewriting times.
func (r *TimesheetRepository) ClockOut(companyID, id string, clockOut int64, breakMinutes int) error {
	res, err := r.db.Exec(`
		UPDATE time_entries SET clock_out = ?, break_minutes = ?, updated_at = ?
		WHERE id = ? AND company_id = ? AND clock_out IS NULL
	`, clockOut, breakMinutes, time.Now().Unix(), id, companyID)
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

func (r *TimesheetRepository) SetApproval(companyID, id string, approved bool) error {
	res, err := r.db.Exec(`
		UPDATE time_entries SET approved = ?, updated_at = ? WHERE id = ? AND company_id = ?
	`, approved, time.Now().Unix(), id, companyID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TimesheetRepository) Delete(companyID, id string) error {
	_, err := r.db.Exec(`DELETE FROM time_entries WHERE id = ? AND company_id = ?`, id, companyID)
	return err
}

func (r *TimesheetRepository) DeleteByCompany(companyID string) error {
	_, err := r.db.Exec(`DELETE FROM time_entries WHERE company_id = ?`, companyID)
	return err
}
