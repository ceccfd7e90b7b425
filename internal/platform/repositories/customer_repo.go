package repositories

import (
	"database/sql"
	"time"

	"bauflow/internal/platform/models"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(customer *models.Customer) error {
	_, err := r.db.Exec(`
		INSERT INTO customers (id, company_id, name, contact_name, email, phone, address, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, customer.ID, customer.CompanyID, customer.Name, customer.ContactName, customer.Email, customer.Phone, customer.Address, customer.Notes, customer.CreatedAt, customer.UpdatedAt)
	return err
}

func (r *CustomerRepository) GetByID(companyID, id string) (*models.Customer, error) {
	customer := &models.Customer{}
	err := r.db.QueryRow(`
		SELECT id, company_id, name, contact_name, email, phone, address, notes, created_at, updated_at
		FROM customers WHERE id = ? AND company_id = ?
	`, id, companyID).Scan(&customer.ID, &customer.CompanyID, &customer.Name, &customer.ContactName, &customer.Email, &customer.Phone, &customer.Address, &customer.Notes, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return customer, nil
}

func (r *CustomerRepository) ListByCompany(companyID string) ([]*models.Customer, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, name, contact_name, email, phone, address, notes, created_at, updated_at
		FROM customers WHERE company_id = ? ORDER BY name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer := &models.Customer{}
		if err := rows.Scan(&customer.ID, &customer.CompanyID, &customer.Name, &customer.ContactName, &customer.Email, &customer.Phone, &customer.Address, &customer.Notes, &customer.CreatedAt, &customer.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) Update(customer *models.Customer) error {
	_, err := r.db.Exec(`
		UPDATE customers SET name = ?, contact_name = ?, email = ?, phone = ?, address = ?, notes = ?, updated_at = ?
		WHERE id = ? AND company_id = ?
	`, customer.Name, customer.ContactName, customer.Email, customer.Phone, customer.Address, customer.Notes, time.Now().Unix(), customer.ID, customer.CompanyID)
	return err
}

func (r *CustomerRepository) Delete(companyID, id string) error {
	_, err := r.db.Exec(`DELETE FROM customers WHERE id = ? AND company_id = ?`, id, companyID)
	return err
}

func (r *CustomerRepository) DeleteByCompany(companyID string) error {
	_, err := r.db.Exec(`DELETE FROM customers WHERE company_id = ?`, companyID)
	return err
}
