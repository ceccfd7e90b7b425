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

var taskStatuses = map[string]bool{
	"open":        true,
	"in_progress": true,
	"done":        true,
}

type TaskHandler struct {
	taskRepo *repositories.TaskRepository
}

func NewTaskHandler(taskRepo *repositories.TaskRepository) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo}
}

type TaskRequest struct {
	ProjectID   string `json:"project_id"`
	EmployeeID  string `json:"employee_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	tasks, err := h.taskRepo.ListByCompany(tenant.CompanyID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	errors.WriteJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}
	if req.Title == "" {
		errors.WriteError(w, http.StatusBadRequest, "Titel ist erforderlich")
		return
	}

	status := req.Status
	if status == "" {
		status = "open"
	}
	if !taskStatuses[status] {
		errors.WriteError(w, http.StatusBadRequest, "Ungültiger Status")
		return
	}

	now := time.Now().Unix()
	task := &models.Task{
		ID:          "task_" + uuid.NewString(),
		CompanyID:   tenant.CompanyID,
		ProjectID:   req.ProjectID,
		EmployeeID:  req.EmployeeID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.taskRepo.Create(task); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Aufgabe konnte nicht erstellt werden")
		return
	}
	errors.WriteJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	task, err := h.taskRepo.GetByID(tenant.CompanyID, ps.ByName("task_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if task == nil {
		errors.WriteError(w, http.StatusNotFound, "Aufgabe nicht gefunden")
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Status != "" {
		if !taskStatuses[req.Status] {
			errors.WriteError(w, http.StatusBadRequest, "Ungültiger Status")
			return
		}
		task.Status = req.Status
	}
	if req.ProjectID != "" {
		task.ProjectID = req.ProjectID
	}
	if req.EmployeeID != "" {
		task.EmployeeID = req.EmployeeID
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.DueDate != "" {
		task.DueDate = req.DueDate
	}

	if err := h.taskRepo.Update(task); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Aufgabe konnte nicht aktualisiert werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	task, err := h.taskRepo.GetByID(tenant.CompanyID, ps.ByName("task_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if task == nil {
		errors.WriteError(w, http.StatusNotFound, "Aufgabe nicht gefunden")
		return
	}

	if err := h.taskRepo.Delete(tenant.CompanyID, task.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Aufgabe konnte nicht gelöscht werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Aufgabe wurde gelöscht"})
}
