package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "bauflow/internal/api/context"
	"bauflow/internal/api/middleware"
	"bauflow/internal/pkg/errors"
	"bauflow/internal/pkg/validator"
	"bauflow/internal/platform/audit"
	"bauflow/internal/platform/config"
	"bauflow/internal/platform/identity"
	"bauflow/internal/platform/mailer"
	"bauflow/internal/platform/models"
	"bauflow/internal/platform/repositories"
)

const invitationMissMessage = "Einladung nicht gefunden oder abgelaufen"

type InvitationHandler struct {
	invitationRepo *repositories.InvitationRepository
	companyRepo    *repositories.CompanyRepository
	profileRepo    *repositories.ProfileRepository
	employeeRepo   *repositories.EmployeeRepository
	identities     *identity.Store
	mailer         *mailer.Mailer
	audit          *audit.Logger
	authCfg        config.AuthConfig
}

func NewInvitationHandler(invitationRepo *repositories.InvitationRepository, companyRepo *repositories.CompanyRepository, profileRepo *repositories.ProfileRepository, employeeRepo *repositories.EmployeeRepository, identities *identity.Store, m *mailer.Mailer, auditLog *audit.Logger, authCfg config.AuthConfig) *InvitationHandler {
	return &InvitationHandler{
		invitationRepo: invitationRepo,
		companyRepo:    companyRepo,
		profileRepo:    profileRepo,
		employeeRepo:   employeeRepo,
		identities:     identities,
		mailer:         m,
		audit:          auditLog,
		authCfg:        authCfg,
	}
}

type InviteRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	CompanyID string `json:"companyId"`
}

// Invite creates a time-boxed, single-use invitation for the caller's
// company and mails the token. The mail is fire-and-forget: a delivery
// failure leaves the row in place for the worker and the resend endpoint.
func (h *InvitationHandler) Invite(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	if req.Email == "" {
		errors.WriteError(w, http.StatusBadRequest, "E-Mail-Adresse ist erforderlich")
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Invitations are always scoped to the caller's own company.
	if req.CompanyID != "" && req.CompanyID != tenant.CompanyID {
		errors.WriteError(w, http.StatusForbidden, "Keine Berechtigung")
		return
	}

	role := req.Role
	switch role {
	case "":
		role = models.RoleEmployee
	case models.RoleAdmin, models.RoleManager, models.RoleEmployee:
	default:
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Rolle")
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

	existing, err := h.identities.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ein Konto mit dieser E-Mail-Adresse existiert bereits")
		return
	}

	token, err := repositories.NewInvitationToken()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}

	inv := &models.Invitation{
		ID:              "inv_" + uuid.NewString(),
		CompanyID:       tenant.CompanyID,
		Email:           validator.Normalize(req.Email),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Role:            role,
		InvitationToken: token,
		InvitedBy:       tenant.ProfileID,
		ExpiresAt:       time.Now().Add(h.authCfg.InvitationTTL).Unix(),
		CreatedAt:       time.Now().Unix(),
	}

	if err := h.invitationRepo.Create(inv); err != nil {
		if err == errors.ErrConflict {
			errors.WriteError(w, http.StatusBadRequest, "Für diese E-Mail-Adresse existiert bereits eine offene Einladung")
			return
		}
		log.Error().Err(err).Msg("invitation insert failed")
		errors.WriteError(w, http.StatusInternalServerError, "Einladung konnte nicht erstellt werden")
		return
	}

	h.dispatchInvitationMail(inv, company.Name)
	h.audit.Record(tenant.CompanyID, tenant.ProfileID, audit.ActionInvitationCreated, "invitation", inv.ID, map[string]interface{}{"email": inv.Email, "role": inv.Role})

	errors.WriteJSON(w, http.StatusCreated, map[string]string{
		"message":      "Einladung wurde erstellt und versendet",
		"invitationId": inv.ID,
	})
}

func (h *InvitationHandler) dispatchInvitationMail(inv *models.Invitation, companyName string) {
	h.mailer.Dispatch("invitation", func(ctx context.Context) error {
		if err := h.mailer.SendInvitation(ctx, inv.Email, companyName, inv.InvitationToken); err != nil {
			return err
		}
		if err := h.invitationRepo.MarkEmailSent(inv.ID, time.Now().Unix()); err != nil {
			log.Warn().Err(err).Str("invitation", inv.ID).Msg("marking invitation email sent failed")
		}
		return nil
	})
}

func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	invitations, err := h.invitationRepo.ListByCompany(tenant.CompanyID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if invitations == nil {
		invitations = []*models.Invitation{}
	}
	errors.WriteJSON(w, http.StatusOK, invitations)
}

func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	inv, err := h.invitationRepo.GetByID(tenant.CompanyID, ps.ByName("invitation_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if inv == nil || inv.AcceptedAt != nil || inv.ExpiresAt <= time.Now().Unix() {
		errors.WriteError(w, http.StatusNotFound, invitationMissMessage)
		return
	}

	company, err := h.companyRepo.GetByID(tenant.CompanyID)
	if err != nil || company == nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}

	h.dispatchInvitationMail(inv, company.Name)
	errors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Einladung wurde erneut versendet"})
}

func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	inv, err := h.invitationRepo.GetByID(tenant.CompanyID, ps.ByName("invitation_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if inv == nil || inv.AcceptedAt != nil {
		errors.WriteError(w, http.StatusNotFound, invitationMissMessage)
		return
	}

	if err := h.invitationRepo.Delete(tenant.CompanyID, inv.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}

	h.audit.Record(tenant.CompanyID, tenant.ProfileID, audit.ActionInvitationRevoked, "invitation", inv.ID, nil)
	errors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Einladung wurde zurückgezogen"})
}

// Lookup resolves a live token for the public acceptance page. Unknown,
// consumed and expired tokens all yield the same 404 so the response does not
// leak which case applies.
func (h *InvitationHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	inv, err := h.invitationRepo.GetLiveByToken(ps.ByName("token"), time.Now().Unix())
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if inv == nil {
		errors.WriteError(w, http.StatusNotFound, invitationMissMessage)
		return
	}

	errors.WriteJSON(w, http.StatusOK, inv)
}

type AcceptRequest struct {
	UserID string `json:"user_id"`
}

// Accept provisions the invited identity: a profile in the inviting company
// plus an employee record, then the token is consumed. The caller signs the
// identity up first; its email must match the invitation.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req AcceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}
	if req.UserID == "" {
		errors.WriteError(w, http.StatusBadRequest, "Benutzer-ID ist erforderlich")
		return
	}

	inv, err := h.invitationRepo.GetLiveByToken(ps.ByName("token"), time.Now().Unix())
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if inv == nil {
		errors.WriteError(w, http.StatusNotFound, invitationMissMessage)
		return
	}

	ident, err := h.identities.GetByID(req.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if ident == nil {
		errors.WriteError(w, http.StatusNotFound, "Konto nicht gefunden")
		return
	}
	if ident.Email != inv.Email {
		errors.WriteError(w, http.StatusForbidden, "Die E-Mail-Adresse des Kontos stimmt nicht mit der Einladung überein")
		return
	}

	profile := &models.Profile{
		ID:        ident.ID,
		CompanyID: &inv.CompanyID,
		FirstName: inv.FirstName,
		LastName:  inv.LastName,
		Email:     inv.Email,
		Role:      inv.Role,
	}
	if err := h.profileRepo.Upsert(profile); err != nil {
		log.Error().Err(err).Str("invitation", inv.ID).Msg("profile creation failed during accept")
		errors.WriteError(w, http.StatusInternalServerError, "Profil konnte nicht erstellt werden")
		return
	}

	employeeRole := models.EmployeeRoleMitarbeiter
	if inv.Role == models.RoleAdmin {
		employeeRole = models.EmployeeRoleGeschaeftsfuehrer
	}

	now := time.Now().Unix()
	employee := &models.Employee{
		ID:        "emp_" + uuid.NewString(),
		CompanyID: inv.CompanyID,
		UserID:    ident.ID,
		FirstName: inv.FirstName,
		LastName:  inv.LastName,
		Email:     inv.Email,
		Role:      employeeRole,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.employeeRepo.Create(employee); err != nil {
		log.Error().Err(err).Str("invitation", inv.ID).Msg("employee creation failed during accept")
		errors.WriteError(w, http.StatusInternalServerError, "Mitarbeiter konnte nicht erstellt werden")
		return
	}

	// The accept has materially succeeded at this point; a failed accepted_at
	// update is logged, not returned.
	if err := h.invitationRepo.MarkAccepted(inv.ID, now); err != nil {
		log.Error().Err(err).Str("invitation", inv.ID).Msg("marking invitation accepted failed")
	}

	h.audit.Record(inv.CompanyID, ident.ID, audit.ActionInvitationAccepted, "invitation", inv.ID, nil)

	errors.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Einladung wurde angenommen",
		"employee": employee,
	})
}
