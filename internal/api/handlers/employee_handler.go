package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	apiContext "bauflow/internal/api/context"
	"bauflow/internal/api/middleware"
	"bauflow/internal/pkg/errors"
	"bauflow/internal/pkg/validator"
	"bauflow/internal/platform/models"
	"bauflow/internal/platform/repositories"
)

type EmployeeHandler struct {
	employeeRepo *repositories.EmployeeRepository
}

func NewEmployeeHandler(employeeRepo *repositories.EmployeeRepository) *EmployeeHandler {
	return &EmployeeHandler{employeeRepo: employeeRepo}
}

type EmployeeRequest struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	HourlyRate float64 `json:"hourly_rate"`
	Active     *bool   `json:"active"`
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	employees, err := h.employeeRepo.ListByCompany(tenant.CompanyID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if employees == nil {
		employees = []*models.Employee{}
	}
	errors.WriteJSON(w, http.StatusOK, employees)
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	employee, err := h.employeeRepo.GetByID(tenant.CompanyID, ps.ByName("employee_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if employee == nil {
		errors.WriteError(w, http.StatusNotFound, "Mitarbeiter nicht gefunden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, employee)
}

// Create adds a worker record without a login. Employees who should log in
// come through the invitation flow instead.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		errors.WriteError(w, http.StatusBadRequest, "Vorname und Nachname sind erforderlich")
		return
	}
	if req.Email != "" {
		if err := validator.ValidateEmail(req.Email); err != nil {
			errors.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	role := req.Role
	if role == "" {
		role = models.EmployeeRoleMitarbeiter
	}

	now := time.Now().Unix()
	employee := &models.Employee{
		ID:         "emp_" + uuid.NewString(),
		CompanyID:  tenant.CompanyID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      validator.Normalize(req.Email),
		Role:       role,
		HourlyRate: req.HourlyRate,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Active != nil {
		employee.Active = *req.Active
	}

	if err := h.employeeRepo.Create(employee); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Mitarbeiter konnte nicht erstellt werden")
		return
	}
	errors.WriteJSON(w, http.StatusCreated, employee)
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	employee, err := h.employeeRepo.GetByID(tenant.CompanyID, ps.ByName("employee_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if employee == nil {
		errors.WriteError(w, http.StatusNotFound, "Mitarbeiter nicht gefunden")
		return
	}

	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	if req.FirstName != "" {
		employee.FirstName = req.FirstName
	}
	if req.LastName != "" {
		employee.LastName = req.LastName
	}
	if req.Email != "" {
		if err := validator.ValidateEmail(req.Email); err != nil {
			errors.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		employee.Email = validator.Normalize(req.Email)
	}
	if req.Role != "" {
		employee.Role = req.Role
	}
	if req.HourlyRate > 0 {
		employee.HourlyRate = req.HourlyRate
	}
	if req.Active != nil {
		employee.Active = *req.Active
	}

	if err := h.employeeRepo.Update(employee); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Mitarbeiter konnte nicht aktualisiert werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	employee, err := h.employeeRepo.GetByID(tenant.CompanyID, ps.ByName("employee_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if employee == nil {
		errors.WriteError(w, http.StatusNotFound, "Mitarbeiter nicht gefunden")
		return
	}

	if err := h.employeeRepo.Delete(tenant.CompanyID, employee.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Mitarbeiter konnte nicht gelöscht werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Mitarbeiter wurde gelöscht"})
}
