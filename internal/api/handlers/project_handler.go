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

// Project statuses move planned -> active -> done; paused can happen anywhere
// in between.
var projectStatuses = map[string]bool{
	"planned": true,
	"active":  true,
	"paused":  true,
	"done":    true,
}

type ProjectHandler struct {
	projectRepo *repositories.ProjectRepository
}

func NewProjectHandler(projectRepo *repositories.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{projectRepo: projectRepo}
}

type ProjectRequest struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Status     string `json:"status"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Notes      string `json:"notes"`
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	projects, err := h.projectRepo.ListByCompany(tenant.CompanyID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	errors.WriteJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	project, err := h.projectRepo.GetByID(tenant.CompanyID, ps.ByName("project_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if project == nil {
		errors.WriteError(w, http.StatusNotFound, "Baustelle nicht gefunden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, "Name der Baustelle ist erforderlich")
		return
	}

	status := req.Status
	if status == "" {
		status = "planned"
	}
	if !projectStatuses[status] {
		errors.WriteError(w, http.StatusBadRequest, "Ungültiger Status")
		return
	}

	now := time.Now().Unix()
	project := &models.Project{
		ID:         "proj_" + uuid.NewString(),
		CompanyID:  tenant.CompanyID,
		CustomerID: req.CustomerID,
		Name:       req.Name,
		Address:    req.Address,
		Status:     status,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.projectRepo.Create(project); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Baustelle konnte nicht erstellt werden")
		return
	}
	errors.WriteJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	project, err := h.projectRepo.GetByID(tenant.CompanyID, ps.ByName("project_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if project == nil {
		errors.WriteError(w, http.StatusNotFound, "Baustelle nicht gefunden")
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Status != "" {
		if !projectStatuses[req.Status] {
			errors.WriteError(w, http.StatusBadRequest, "Ungültiger Status")
			return
		}
		project.Status = req.Status
	}
	if req.CustomerID != "" {
		project.CustomerID = req.CustomerID
	}
	if req.Address != "" {
		project.Address = req.Address
	}
	if req.StartDate != "" {
		project.StartDate = req.StartDate
	}
	if req.EndDate != "" {
		project.EndDate = req.EndDate
	}
	if req.Notes != "" {
		project.Notes = req.Notes
	}

	if err := h.projectRepo.Update(project); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Baustelle konnte nicht aktualisiert werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	project, err := h.projectRepo.GetByID(tenant.CompanyID, ps.ByName("project_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if project == nil {
		errors.WriteError(w, http.StatusNotFound, "Baustelle nicht gefunden")
		return
	}

	if err := h.projectRepo.Delete(tenant.CompanyID, project.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Baustelle konnte nicht gelöscht werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Baustelle wurde gelöscht"})
}
