package models

// Project is a Baustelle: a construction site the company works on.
type Project struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	CustomerID string `json:"customer_id,omitempty"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	Status     string `json:"status"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

type Customer struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	Name        string `json:"name"`
	ContactName string `json:"contact_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type Material struct {
	ID        string  `json:"id"`
	CompanyID string  `json:"company_id"`
	ProjectID string  `json:"project_id,omitempty"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	MinStock  float64 `json:"min_stock"`
	LowStock  bool    `json:"low_stock"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

type Task struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	ProjectID   string `json:"project_id,omitempty"`
	EmployeeID  string `json:"employee_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type Appointment struct {
	ID           string `json:"id"`
	CompanyID    string `json:"company_id"`
	ProjectID    string `json:"project_id,omitempty"`
	EmployeeID   string `json:"employee_id,omitempty"`
	Title        string `json:"title"`
	Location     string `json:"location,omitempty"`
	StartsAt     int64  `json:"starts_at"`
	EndsAt       int64  `json:"ends_at,omitempty"`
	ReminderSent bool   `json:"reminder_sent"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// TimeEntry is a single clock-in/clock-out span. ClockOut stays nil while
// the employee is on the clock. Approved is toggled by admins/managers.
type TimeEntry struct {
	ID           string `json:"id"`
	CompanyID    string `json:"company_id"`
	EmployeeID   string `json:"employee_id"`
	ProjectID    string `json:"project_id,omitempty"`
	ClockIn      int64  `json:"clock_in"`
	ClockOut     *int64 `json:"clock_out,omitempty"`
	BreakMinutes int    `json:"break_minutes"`
	Note         string `json:"note,omitempty"`
	Approved     bool   `json:"approved"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}
