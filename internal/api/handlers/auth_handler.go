package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bauflow/internal/pkg/errors"
	"bauflow/internal/pkg/validator"
	"bauflow/internal/platform/audit"
	"bauflow/internal/platform/auth"
	"bauflow/internal/platform/config"
	"bauflow/internal/platform/identity"
	"bauflow/internal/platform/mailer"
	"bauflow/internal/platform/models"
	"bauflow/internal/platform/repositories"
)

type AuthHandler struct {
	identities  *identity.Store
	companyRepo *repositories.CompanyRepository
	profileRepo *repositories.ProfileRepository
	tokenSvc    *auth.TokenService
	mailer      *mailer.Mailer
	audit       *audit.Logger
	authCfg     config.AuthConfig
}

func NewAuthHandler(identities *identity.Store, companyRepo *repositories.CompanyRepository, profileRepo *repositories.ProfileRepository, tokenSvc *auth.TokenService, m *mailer.Mailer, auditLog *audit.Logger, authCfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		identities:  identities,
		companyRepo: companyRepo,
		profileRepo: profileRepo,
		tokenSvc:    tokenSvc,
		mailer:      m,
		audit:       auditLog,
		authCfg:     authCfg,
	}
}

type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	CompanyName    string `json:"company_name"`
	CompanyAddress string `json:"company_address"`
	CompanyPhone   string `json:"company_phone"`
	CompanyEmail   string `json:"company_email"`
	CompanyWebsite string `json:"company_website"`
}

type RegisterResponse struct {
	Success                   bool   `json:"success"`
	Message                   string `json:"message"`
	RequiresEmailConfirmation bool   `json:"requiresEmailConfirmation"`
	User                      struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Register creates an unconfirmed identity and stashes the company data in
// its metadata. No company or profile row exists until the confirmation link
// is clicked, so an abandoned signup leaves nothing behind.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" || strings.TrimSpace(req.CompanyName) == "" {
		errors.WriteError(w, http.StatusBadRequest, "E-Mail, Passwort, Vorname, Nachname und Firmenname sind erforderlich")
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	meta := identity.Metadata{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		PendingCompany: &identity.PendingCompany{
			Name:    strings.TrimSpace(req.CompanyName),
			Address: req.CompanyAddress,
			Phone:   req.CompanyPhone,
			Email:   req.CompanyEmail,
			Website: req.CompanyWebsite,
		},
	}

	ident, err := h.identities.Create(req.Email, req.Password, meta)
	if err != nil {
		if err == errors.ErrEmailTaken {
			errors.WriteError(w, http.StatusBadRequest, "Ein Konto mit dieser E-Mail-Adresse existiert bereits")
			return
		}
		log.Error().Err(err).Msg("identity creation failed")
		errors.WriteError(w, http.StatusInternalServerError, "Registrierung fehlgeschlagen – bitte versuchen Sie es später erneut")
		return
	}

	code, err := h.identities.IssueConfirmationCode(ident.ID, h.authCfg.ConfirmationCodeTTL)
	if err != nil {
		log.Error().Err(err).Str("identity", ident.ID).Msg("confirmation code issue failed")
		errors.WriteError(w, http.StatusInternalServerError, "Registrierung fehlgeschlagen – bitte versuchen Sie es später erneut")
		return
	}

	h.mailer.Dispatch("confirmation", func(ctx context.Context) error {
		return h.mailer.SendConfirmation(ctx, ident.Email, req.FirstName, code)
	})

	h.audit.Record("", ident.ID, audit.ActionUserRegistered, "identity", ident.ID, map[string]interface{}{"email": ident.Email})

	resp := RegisterResponse{
		Success:                   true,
		Message:                   "Registrierung erfolgreich. Bitte bestätigen Sie Ihre E-Mail-Adresse.",
		RequiresEmailConfirmation: true,
	}
	resp.User.ID = ident.ID
	resp.User.Email = ident.Email
	errors.WriteJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, kind string) {
	http.Redirect(w, r, h.authCfg.AppBaseURL+"/auth/login?error="+url.QueryEscape(kind), http.StatusSeeOther)
}

// Callback is the confirmation-link target. It exchanges the one-time code,
// then materializes the company and admin profile that registration deferred.
// Profile creation failure rolls the fresh company back; a second click on
// the same link short-circuits on the existing profile.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectError(w, r, "no_code")
		return
	}

	ident, err := h.identities.ExchangeCode(code)
	if err != nil {
		log.Error().Err(err).Msg("code exchange failed")
		h.redirectError(w, r, "auth_callback_error")
		return
	}
	if ident == nil {
		h.redirectError(w, r, "no_user")
		return
	}

	profile, err := h.profileRepo.GetByID(ident.ID)
	if err != nil {
		log.Error().Err(err).Str("identity", ident.ID).Msg("profile lookup failed during confirmation")
		h.redirectError(w, r, "callback_error")
		return
	}
	if profile != nil && profile.CompanyID != nil {
		// Replayed confirmation: everything is already provisioned.
		h.redirectSuccess(w, r, ident, *profile.CompanyID, profile.Role)
		return
	}

	pending := ident.Metadata.PendingCompany
	if pending == nil {
		h.redirectError(w, r, "no_company_data")
		return
	}

	now := time.Now().Unix()
	company := &models.Company{
		ID:        "com_" + uuid.NewString(),
		Name:      pending.Name,
		Address:   pending.Address,
		Phone:     pending.Phone,
		Email:     pending.Email,
		Website:   pending.Website,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.companyRepo.Create(company); err != nil {
		log.Error().Err(err).Str("identity", ident.ID).Msg("company creation failed")
		h.redirectError(w, r, "company_creation_failed")
		return
	}

	newProfile := &models.Profile{
		ID:        ident.ID,
		CompanyID: &company.ID,
		FirstName: ident.Metadata.FirstName,
		LastName:  ident.Metadata.LastName,
		Email:     ident.Email,
		Role:      models.RoleAdmin,
	}
	if err := h.profileRepo.Upsert(newProfile); err != nil {
		log.Error().Err(err).Str("identity", ident.ID).Str("company", company.ID).Msg("profile creation failed, rolling company back")
		if delErr := h.companyRepo.Delete(company.ID); delErr != nil {
			log.Error().Err(delErr).Str("company", company.ID).Msg("compensating company delete failed, manual cleanup needed")
		}
		h.redirectError(w, r, "profile_creation_failed")
		return
	}

	// Drop the stash so a future replay cannot provision twice. Names stay.
	meta := ident.Metadata
	meta.PendingCompany = nil
	if err := h.identities.UpdateMetadata(ident.ID, meta); err != nil {
		log.Warn().Err(err).Str("identity", ident.ID).Msg("clearing pending company failed")
	}

	h.audit.Record(company.ID, ident.ID, audit.ActionUserConfirmed, "identity", ident.ID, nil)
	h.audit.Record(company.ID, ident.ID, audit.ActionCompanyCreated, "company", company.ID, map[string]interface{}{"name": company.Name})

	h.redirectSuccess(w, r, ident, company.ID, models.RoleAdmin)
}

func (h *AuthHandler) redirectSuccess(w http.ResponseWriter, r *http.Request, ident *identity.Identity, companyID, role string) {
	accessToken, err := h.tokenSvc.GenerateAccessToken(ident.ID, companyID, role, ident.Email)
	if err != nil {
		log.Error().Err(err).Msg("access token generation failed")
		h.redirectError(w, r, "callback_error")
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(ident.ID)
	if err != nil {
		log.Error().Err(err).Msg("refresh token generation failed")
		h.redirectError(w, r, "callback_error")
		return
	}

	q := url.Values{}
	q.Set("access_token", accessToken)
	q.Set("refresh_token", refreshToken)
	http.Redirect(w, r, h.authCfg.AppBaseURL+"/auth/confirmed?"+q.Encode(), http.StatusSeeOther)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Profile      *models.Profile `json:"profile,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	ident, err := h.identities.Authenticate(req.Email, req.Password)
	if err != nil {
		log.Error().Err(err).Msg("login lookup failed")
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if ident == nil {
		errors.WriteError(w, http.StatusUnauthorized, "E-Mail oder Passwort ist falsch")
		return
	}
	if !ident.EmailConfirmed {
		errors.WriteError(w, http.StatusUnauthorized, "Bitte bestätigen Sie zuerst Ihre E-Mail-Adresse")
		return
	}

	profile, err := h.profileRepo.GetByID(ident.ID)
	if err != nil {
		log.Error().Err(err).Msg("profile lookup failed during login")
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}

	companyID, role := "", ""
	if profile != nil {
		role = profile.Role
		if profile.CompanyID != nil {
			companyID = *profile.CompanyID
		}
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(ident.ID, companyID, role, ident.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(ident.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}

	errors.WriteJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      profile,
	})
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	claims, err := h.tokenSvc.ValidateToken(req.RefreshToken)
	if err != nil {
		errors.WriteError(w, http.StatusUnauthorized, "Sitzung ungültig oder abgelaufen")
		return
	}

	ident, err := h.identities.GetByID(claims.Subject)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if ident == nil {
		errors.WriteError(w, http.StatusUnauthorized, "Konto nicht gefunden")
		return
	}

	profile, err := h.profileRepo.GetByID(ident.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}

	companyID, role := "", ""
	if profile != nil {
		role = profile.Role
		if profile.CompanyID != nil {
			companyID = *profile.CompanyID
		}
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(ident.ID, companyID, role, ident.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}

	errors.WriteJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// Logout exists for API symmetry; tokens are stateless and simply expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
