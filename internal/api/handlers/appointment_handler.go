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

type AppointmentHandler struct {
	appointmentRepo *repositories.AppointmentRepository
}

func NewAppointmentHandler(appointmentRepo *repositories.AppointmentRepository) *AppointmentHandler {
	return &AppointmentHandler{appointmentRepo: appointmentRepo}
}

type AppointmentRequest struct {
	ProjectID  string `json:"project_id"`
	EmployeeID string `json:"employee_id"`
	Title      string `json:"title"`
	Location   string `json:"location"`
	StartsAt   int64  `json:"starts_at"`
	EndsAt     int64  `json:"ends_at"`
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	appointments, err := h.appointmentRepo.ListByCompany(tenant.CompanyID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if appointments == nil {
		appointments = []*models.Appointment{}
	}
	errors.WriteJSON(w, http.StatusOK, appointments)
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}
	if req.Title == "" {
		errors.WriteError(w, http.StatusBadRequest, "Titel ist erforderlich")
		return
	}
	if req.StartsAt <= 0 {
		errors.WriteError(w, http.StatusBadRequest, "Beginn ist erforderlich")
		return
	}
	if req.EndsAt != 0 && req.EndsAt < req.StartsAt {
		errors.WriteError(w, http.StatusBadRequest, "Ende darf nicht vor dem Beginn liegen")
		return
	}

	now := time.Now().Unix()
	appt := &models.Appointment{
		ID:         "appt_" + uuid.NewString(),
		CompanyID:  tenant.CompanyID,
		ProjectID:  req.ProjectID,
		EmployeeID: req.EmployeeID,
		Title:      req.Title,
		Location:   req.Location,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.appointmentRepo.Create(appt); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Termin konnte nicht erstellt werden")
		return
	}
	errors.WriteJSON(w, http.StatusCreated, appt)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	appt, err := h.appointmentRepo.GetByID(tenant.CompanyID, ps.ByName("appointment_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if appt == nil {
		errors.WriteError(w, http.StatusNotFound, "Termin nicht gefunden")
		return
	}

	var req AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	if req.Title != "" {
		appt.Title = req.Title
	}
	if req.Location != "" {
		appt.Location = req.Location
	}
	if req.ProjectID != "" {
		appt.ProjectID = req.ProjectID
	}
	if req.EmployeeID != "" {
		appt.EmployeeID = req.EmployeeID
	}
	if req.StartsAt > 0 {
		appt.StartsAt = req.StartsAt
	}
	if req.EndsAt > 0 {
		appt.EndsAt = req.EndsAt
	}
	if appt.EndsAt != 0 && appt.EndsAt < appt.StartsAt {
		errors.WriteError(w, http.StatusBadRequest, "Ende darf nicht vor dem Beginn liegen")
		return
	}

	if err := h.appointmentRepo.Update(appt); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Termin konnte nicht aktualisiert werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	appt, err := h.appointmentRepo.GetByID(tenant.CompanyID, ps.ByName("appointment_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if appt == nil {
		errors.WriteError(w, http.StatusNotFound, "Termin nicht gefunden")
		return
	}

	if err := h.appointmentRepo.Delete(tenant.CompanyID, appt.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Termin konnte nicht gelöscht werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Termin wurde gelöscht"})
}
