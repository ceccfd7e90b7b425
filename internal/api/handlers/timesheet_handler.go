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
	"bauflow/internal/platform/models"
	"bauflow/internal/platform/repositories"
)

type TimesheetHandler struct {
	timesheetRepo *repositories.TimesheetRepository
	employeeRepo  *repositories.EmployeeRepository
}

func NewTimesheetHandler(timesheetRepo *repositories.TimesheetRepository, employeeRepo *repositories.EmployeeRepository) *TimesheetHandler {
	return &TimesheetHandler{timesheetRepo: timesheetRepo, employeeRepo: employeeRepo}
}

// callerEmployee maps the authenticated profile to its employee record.
// Clocking in and out only makes sense for people who are schedulable
// workers, admins without an employee record get a 404.
func (h *TimesheetHandler) callerEmployee(w http.ResponseWriter, tenant *middleware.TenantContext) *models.Employee {
	employee, err := h.employeeRepo.GetByUserID(tenant.CompanyID, tenant.ProfileID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return nil
	}
	if employee == nil {
		errors.WriteError(w, http.StatusNotFound, "Kein Mitarbeiterprofil für dieses Konto gefunden")
		return nil
	}
	return employee
}

type ClockInRequest struct {
	ProjectID string `json:"project_id"`
	Note      string `json:"note"`
}

func (h *TimesheetHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	employee := h.callerEmployee(w, tenant)
	if employee == nil {
		return
	}

	var req ClockInRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	open, err := h.timesheetRepo.GetOpenByEmployee(tenant.CompanyID, employee.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if open != nil {
		errors.WriteError(w, http.StatusBadRequest, "Sie sind bereits eingestempelt")
		return
	}

	now := time.Now().Unix()
	entry := &models.TimeEntry{
		ID:         "time_" + uuid.NewString(),
		CompanyID:  tenant.CompanyID,
		EmployeeID: employee.ID,
		ProjectID:  req.ProjectID,
		ClockIn:    now,
		Note:       req.Note,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.timesheetRepo.Create(entry); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Einstempeln fehlgeschlagen")
		return
	}
	errors.WriteJSON(w, http.StatusCreated, entry)
}

type ClockOutRequest struct {
	BreakMinutes int `json:"break_minutes"`
}

func (h *TimesheetHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	employee := h.callerEmployee(w, tenant)
	if employee == nil {
		return
	}

	var req ClockOutRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.BreakMinutes < 0 {
		errors.WriteError(w, http.StatusBadRequest, "Pausenzeit darf nicht negativ sein")
		return
	}

	open, err := h.timesheetRepo.GetOpenByEmployee(tenant.CompanyID, employee.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if open == nil {
		errors.WriteError(w, http.StatusBadRequest, "Sie sind nicht eingestempelt")
		return
	}

	now := time.Now().Unix()
	if err := h.timesheetRepo.ClockOut(tenant.CompanyID, open.ID, now, req.BreakMinutes); err != nil {
		if err == errors.ErrConflict {
			errors.WriteError(w, http.StatusBadRequest, "Sie sind nicht eingestempelt")
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, "Ausstempeln fehlgeschlagen")
		return
	}

	entry, err := h.timesheetRepo.GetByID(tenant.CompanyID, open.ID)
	if err != nil || entry == nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	errors.WriteJSON(w, http.StatusOK, entry)
}

func (h *TimesheetHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	entries, err := h.timesheetRepo.ListByCompany(tenant.CompanyID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if entries == nil {
		entries = []*models.TimeEntry{}
	}
	errors.WriteJSON(w, http.StatusOK, entries)
}

type ApprovalRequest struct {
	Approved bool `json:"approved"`
}

func (h *TimesheetHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	id := ps.ByName("entry_id")
	if err := h.timesheetRepo.SetApproval(tenant.CompanyID, id, req.Approved); err != nil {
		if err == errors.ErrNotFound {
			errors.WriteError(w, http.StatusNotFound, "Zeiteintrag nicht gefunden")
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}

	entry, err := h.timesheetRepo.GetByID(tenant.CompanyID, id)
	if err != nil || entry == nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	errors.WriteJSON(w, http.StatusOK, entry)
}
