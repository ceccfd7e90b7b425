package models

// Profile roles. A Profile is a login-capable person inside a company;
// an Employee is a schedulable worker record, which may or may not have a login.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// Employee roles use the German labels the rest of the app displays.
const (
	EmployeeRoleGeschaeftsfuehrer = "geschäftsführer"
	EmployeeRoleMitarbeiter       = "mitarbeiter"
)

type Company struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Website   string `json:"website,omitempty"`
	LogoURL   string `json:"logo_url,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Profile is keyed by the identity id (1:1, no surrogate key). A nil
// CompanyID marks an identity that confirmed its email but has not finished
// onboarding; the authorization gate treats it as not yet part of any tenant.
type Profile struct {
	ID        string  `json:"id"`
	CompanyID *string `json:"company_id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

type Employee struct {
	ID         string  `json:"id"`
	CompanyID  string  `json:"company_id"`
	UserID     string  `json:"user_id,omitempty"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email,omitempty"`
	Role       string  `json:"role"`
	HourlyRate float64 `json:"hourly_rate"`
	Active     bool    `json:"active"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

// Invitation offers someone a Profile+Employee within a company. Terminal
// states are accepted (AcceptedAt set) or expired; expired rows are never
// cleaned up, lookups just skip them. EmailSentAt stays nil until the
// invitation email went out, the worker retries nil ones.
type Invitation struct {
	ID              string `json:"id"`
	CompanyID       string `json:"company_id"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Role            string `json:"role"`
	InvitationToken string `json:"-"`
	InvitedBy       string `json:"invited_by,omitempty"`
	ExpiresAt       int64  `json:"expires_at"`
	AcceptedAt      *int64 `json:"accepted_at,omitempty"`
	EmailSentAt     *int64 `json:"email_sent_at,omitempty"`
	CreatedAt       int64  `json:"created_at"`

	Company *Company `json:"company,omitempty"`
}
