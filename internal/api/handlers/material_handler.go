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

type MaterialHandler struct {
	materialRepo *repositories.MaterialRepository
}

func NewMaterialHandler(materialRepo *repositories.MaterialRepository) *MaterialHandler {
	return &MaterialHandler{materialRepo: materialRepo}
}

type MaterialRequest struct {
	ProjectID string  `json:"project_id"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	MinStock  float64 `json:"min_stock"`
}

func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	materials, err := h.materialRepo.ListByCompany(tenant.CompanyID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if materials == nil {
		materials = []*models.Material{}
	}
	errors.WriteJSON(w, http.StatusOK, materials)
}

func (h *MaterialHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req MaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, "Materialname ist erforderlich")
		return
	}
	if req.Quantity < 0 || req.MinStock < 0 {
		errors.WriteError(w, http.StatusBadRequest, "Bestand darf nicht negativ sein")
		return
	}

	unit := req.Unit
	if unit == "" {
		unit = "Stück"
	}

	now := time.Now().Unix()
	material := &models.Material{
		ID:        "mat_" + uuid.NewString(),
		CompanyID: tenant.CompanyID,
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Unit:      unit,
		Quantity:  req.Quantity,
		MinStock:  req.MinStock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	material.LowStock = material.Quantity < material.MinStock

	if err := h.materialRepo.Create(material); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Material konnte nicht erstellt werden")
		return
	}
	errors.WriteJSON(w, http.StatusCreated, material)
}

func (h *MaterialHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	material, err := h.materialRepo.GetByID(tenant.CompanyID, ps.ByName("material_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if material == nil {
		errors.WriteError(w, http.StatusNotFound, "Material nicht gefunden")
		return
	}

	var req MaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	if req.Name != "" {
		material.Name = req.Name
	}
	if req.Unit != "" {
		material.Unit = req.Unit
	}
	if req.ProjectID != "" {
		material.ProjectID = req.ProjectID
	}
	if req.MinStock >= 0 {
		material.MinStock = req.MinStock
	}

	if err := h.materialRepo.Update(material); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Material konnte nicht aktualisiert werden")
		return
	}

	material, err = h.materialRepo.GetByID(tenant.CompanyID, material.ID)
	if err != nil || material == nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	errors.WriteJSON(w, http.StatusOK, material)
}

type AdjustStockRequest struct {
	Delta float64 `json:"delta"`
}

// AdjustStock books material in or out with a signed delta. Going below zero
// is rejected rather than clamped.
func (h *MaterialHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}
	if req.Delta == 0 {
		errors.WriteError(w, http.StatusBadRequest, "Delta darf nicht null sein")
		return
	}

	id := ps.ByName("material_id")
	material, err := h.materialRepo.GetByID(tenant.CompanyID, id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if material == nil {
		errors.WriteError(w, http.StatusNotFound, "Material nicht gefunden")
		return
	}

	if err := h.materialRepo.AdjustQuantity(tenant.CompanyID, id, req.Delta); err != nil {
		if err == errors.ErrConflict {
			errors.WriteError(w, http.StatusBadRequest, "Bestand darf nicht negativ werden")
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, "Bestand konnte nicht angepasst werden")
		return
	}

	material, err = h.materialRepo.GetByID(tenant.CompanyID, id)
	if err != nil || material == nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	errors.WriteJSON(w, http.StatusOK, material)
}

func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	material, err := h.materialRepo.GetByID(tenant.CompanyID, ps.ByName("material_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if material == nil {
		errors.WriteError(w, http.StatusNotFound, "Material nicht gefunden")
		return
	}

	if err := h.materialRepo.Delete(tenant.CompanyID, material.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Material konnte nicht gelöscht werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Material wurde gelöscht"})
}
