package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apiContext "bauflow/internal/api/context"
	"bauflow/internal/api/middleware"
	"bauflow/internal/pkg/errors"
	"bauflow/internal/platform/audit"
	"bauflow/internal/platform/auth"
	"bauflow/internal/platform/identity"
	"bauflow/internal/platform/models"
	"bauflow/internal/platform/repositories"
)

type CompanyHandler struct {
	companyRepo     *repositories.CompanyRepository
	profileRepo     *repositories.ProfileRepository
	employeeRepo    *repositories.EmployeeRepository
	invitationRepo  *repositories.InvitationRepository
	projectRepo     *repositories.ProjectRepository
	customerRepo    *repositories.CustomerRepository
	materialRepo    *repositories.MaterialRepository
	taskRepo        *repositories.TaskRepository
	appointmentRepo *repositories.AppointmentRepository
	timesheetRepo   *repositories.TimesheetRepository
	identities      *identity.Store
	audit           *audit.Logger
}

func NewCompanyHandler(
	companyRepo *repositories.CompanyRepository,
	profileRepo *repositories.ProfileRepository,
	employeeRepo *repositories.EmployeeRepository,
	invitationRepo *repositories.InvitationRepository,
	projectRepo *repositories.ProjectRepository,
	customerRepo *repositories.CustomerRepository,
	materialRepo *repositories.MaterialRepository,
	taskRepo *repositories.TaskRepository,
	appointmentRepo *repositories.AppointmentRepository,
	timesheetRepo *repositories.TimesheetRepository,
	identities *identity.Store,
	auditLog *audit.Logger,
) *CompanyHandler {
	return &CompanyHandler{
		companyRepo:     companyRepo,
		profileRepo:     profileRepo,
		employeeRepo:    employeeRepo,
		invitationRepo:  invitationRepo,
		projectRepo:     projectRepo,
		customerRepo:    customerRepo,
		materialRepo:    materialRepo,
		taskRepo:        taskRepo,
		appointmentRepo: appointmentRepo,
		timesheetRepo:   timesheetRepo,
		identities:      identities,
		audit:           auditLog,
	}
}

type CreateCompanyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// Create is the provisioning fallback for a confirmed identity whose
// confirmation redirect never finished the company setup. The identity read
// is retried briefly because the account may have been written by the
// confirmation flow only moments ago.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, "Firmenname ist erforderlich")
		return
	}

	var ident *identity.Identity
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		ident, err = h.identities.GetByID(claims.UserID)
		if err == nil && ident != nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if ident == nil {
		errors.WriteError(w, http.StatusNotFound, "Konto nicht gefunden")
		return
	}

	existing, err := h.profileRepo.GetByID(ident.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if existing != nil && existing.CompanyID != nil {
		errors.WriteError(w, http.StatusBadRequest, "Sie gehören bereits zu einer Firma")
		return
	}

	now := time.Now().Unix()
	company := &models.Company{
		ID:        "comp_" + uuid.NewString(),
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		Website:   req.Website,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.companyRepo.Create(company); err != nil {
		log.Error().Err(err).Str("user", ident.ID).Msg("company creation failed")
		errors.WriteError(w, http.StatusInternalServerError, "Firma konnte nicht erstellt werden")
		return
	}

	profile := &models.Profile{
		ID:        ident.ID,
		CompanyID: &company.ID,
		FirstName: ident.Metadata.FirstName,
		LastName:  ident.Metadata.LastName,
		Email:     ident.Email,
		Role:      models.RoleAdmin,
	}
	if err := h.profileRepo.Upsert(profile); err != nil {
		// Roll the company back so the identity can retry cleanly.
		if delErr := h.companyRepo.Delete(company.ID); delErr != nil {
			log.Error().Err(delErr).Str("company", company.ID).Msg("compensating company delete failed")
		}
		log.Error().Err(err).Str("user", ident.ID).Msg("profile creation failed")
		errors.WriteError(w, http.StatusInternalServerError, "Profil konnte nicht erstellt werden")
		return
	}

	if ident.Metadata.PendingCompany != nil {
		meta := ident.Metadata
		meta.PendingCompany = nil
		if err := h.identities.UpdateMetadata(ident.ID, meta); err != nil {
			log.Warn().Err(err).Str("user", ident.ID).Msg("clearing pending company metadata failed")
		}
	}

	h.audit.Record(company.ID, ident.ID, audit.ActionCompanyCreated, "company", company.ID, map[string]interface{}{"name": company.Name})

	errors.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Firma wurde erstellt",
		"company": company,
		"profile": profile,
	})
}

func (h *CompanyHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	company, err := h.companyRepo.GetByID(tenant.CompanyID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if company == nil {
		errors.WriteError(w, http.StatusNotFound, "Firma nicht gefunden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, company)
}

type UpdateCompanyRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Website *string `json:"website"`
	LogoURL *string `json:"logo_url"`
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req UpdateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	company, err := h.companyRepo.GetByID(tenant.CompanyID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if company == nil {
		errors.WriteError(w, http.StatusNotFound, "Firma nicht gefunden")
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			errors.WriteError(w, http.StatusBadRequest, "Firmenname darf nicht leer sein")
			return
		}
		company.Name = *req.Name
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.Phone != nil {
		company.Phone = *req.Phone
	}
	if req.Email != nil {
		company.Email = *req.Email
	}
	if req.Website != nil {
		company.Website = *req.Website
	}
	if req.LogoURL != nil {
		company.LogoURL = *req.LogoURL
	}

	if err := h.companyRepo.Update(company); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Firma konnte nicht aktualisiert werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, company)
}

// Delete tears the tenant down. Child tables go first so a failure midway
// never leaves rows pointing at a missing company; each step is best-effort
// and logged, the company row itself decides success.
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	steps := []struct {
		what string
		fn   func(companyID string) error
	}{
		{"invitations", h.invitationRepo.DeleteByCompany},
		{"time entries", h.timesheetRepo.DeleteByCompany},
		{"tasks", h.taskRepo.DeleteByCompany},
		{"appointments", h.appointmentRepo.DeleteByCompany},
		{"materials", h.materialRepo.DeleteByCompany},
		{"projects", h.projectRepo.DeleteByCompany},
		{"customers", h.customerRepo.DeleteByCompany},
		{"employees", h.employeeRepo.DeleteByCompany},
		{"profiles", h.profileRepo.DeleteByCompany},
	}
	for _, step := range steps {
		if err := step.fn(tenant.CompanyID); err != nil {
			log.Error().Err(err).Str("company", tenant.CompanyID).Str("step", step.what).Msg("tenant teardown step failed")
		}
	}

	if err := h.companyRepo.Delete(tenant.CompanyID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Firma konnte nicht gelöscht werden")
		return
	}

	h.audit.Record(tenant.CompanyID, tenant.ProfileID, audit.ActionCompanyDeleted, "company", tenant.CompanyID, nil)
	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Firma und alle zugehörigen Daten wurden gelöscht",
	})
}
