package middleware

import (
	"context"
	"net/http"

	apiContext "bauflow/internal/api/context"
	"bauflow/internal/pkg/errors"
	"bauflow/internal/platform/auth"
	"bauflow/internal/platform/repositories"
)

// TenantContext is the caller's resolved place in a company. Role comes from
// the profile row, not the token, so a role change takes effect on the next
// request rather than at token expiry.
type TenantContext struct {
	CompanyID string
	ProfileID string
	Role      string
}

type TenantMiddleware struct {
	profileRepo *repositories.ProfileRepository
}

func NewTenantMiddleware(profileRepo *repositories.ProfileRepository) *TenantMiddleware {
	return &TenantMiddleware{profileRepo: profileRepo}
}

// Handle gates every tenant-scoped route. A profile lookup failure is
// fail-closed: with the caller's company unknown there is no safe way to
// scope anything.
func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
			return
		}

		profile, err := m.profileRepo.GetByID(claims.UserID)
		if err != nil {
			errors.WriteError(w, http.StatusServiceUnavailable, "Berechtigungsprüfung derzeit nicht möglich")
			return
		}
		if profile == nil || profile.CompanyID == nil {
			// Confirmed identity without a company: onboarding never finished.
			errors.WriteError(w, http.StatusForbidden, "Registrierung nicht abgeschlossen – bitte schließen Sie die Firmeneinrichtung ab")
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &TenantContext{
			CompanyID: *profile.CompanyID,
			ProfileID: profile.ID,
			Role:      profile.Role,
		})

		next(w, r.WithContext(ctx))
	}
}
