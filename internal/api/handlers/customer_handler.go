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
	"bauflow/internal/pkg/validator"
	"bauflow/internal/platform/models"
	"bauflow/internal/platform/repositories"
)

type CustomerHandler struct {
	customerRepo *repositories.CustomerRepository
}

func NewCustomerHandler(customerRepo *repositories.CustomerRepository) *CustomerHandler {
	return &CustomerHandler{customerRepo: customerRepo}
}

type CustomerRequest struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	customers, err := h.customerRepo.ListByCompany(tenant.CompanyID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if customers == nil {
		customers = []*models.Customer{}
	}
	errors.WriteJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	customer, err := h.customerRepo.GetByID(tenant.CompanyID, ps.ByName("customer_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if customer == nil {
		errors.WriteError(w, http.StatusNotFound, "Kunde nicht gefunden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, "Kundenname ist erforderlich")
		return
	}
	if req.Email != "" {
		if err := validator.ValidateEmail(req.Email); err != nil {
			errors.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	now := time.Now().Unix()
	customer := &models.Customer{
		ID:          "cust_" + uuid.NewString(),
		CompanyID:   tenant.CompanyID,
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       validator.Normalize(req.Email),
		Phone:       req.Phone,
		Address:     req.Address,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.customerRepo.Create(customer); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Kunde konnte nicht erstellt werden")
		return
	}
	errors.WriteJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	customer, err := h.customerRepo.GetByID(tenant.CompanyID, ps.ByName("customer_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if customer == nil {
		errors.WriteError(w, http.StatusNotFound, "Kunde nicht gefunden")
		return
	}

	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, "Ungültige Anfrage")
		return
	}

	if req.Name != "" {
		customer.Name = req.Name
	}
	if req.ContactName != "" {
		customer.ContactName = req.ContactName
	}
	if req.Email != "" {
		if err := validator.ValidateEmail(req.Email); err != nil {
			errors.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		customer.Email = validator.Normalize(req.Email)
	}
	if req.Phone != "" {
		customer.Phone = req.Phone
	}
	if req.Address != "" {
		customer.Address = req.Address
	}
	if req.Notes != "" {
		customer.Notes = req.Notes
	}

	if err := h.customerRepo.Update(customer); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Kunde konnte nicht aktualisiert werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	ps := r.Context().Value(apiContext.Params).(httprouter.Params)

	customer, err := h.customerRepo.GetByID(tenant.CompanyID, ps.ByName("customer_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Interner Serverfehler")
		return
	}
	if customer == nil {
		errors.WriteError(w, http.StatusNotFound, "Kunde nicht gefunden")
		return
	}

	if err := h.customerRepo.Delete(tenant.CompanyID, customer.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, "Kunde konnte nicht gelöscht werden")
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Kunde wurde gelöscht"})
}
