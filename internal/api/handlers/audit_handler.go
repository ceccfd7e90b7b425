package handlers

import (
	"net/http"
	"strconv"

	apiContext "bauflow/internal/api/context"
	"bauflow/internal/api/middleware"
	"bauflow/internal/pkg/errors"
	"bauflow/internal/platform/audit"
)

type AuditHandler struct {
	audit *audit.Logger
}

func NewAuditHandler(auditLog *audit.Logger) *AuditHandler {
	return &AuditHandler{audit: auditLog}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			errors.WriteError(w, http.StatusBadRequest, "Ungültiges Limit")
			return
		}
		limit = parsed
	}

	entries, err := h.audit.ListByCompany(tenant.CompanyID, limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	errors.WriteJSON(w, http.StatusOK, entries)
}
