package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"bauflow/internal/api/middleware"
	"bauflow/internal/platform/models"
)

// seedCompanyWithAdmin provisions a company plus an admin profile directly
// and returns the tenant context an authenticated admin request would carry.
func seedCompanyWithAdmin(t *testing.T, env *testEnv) *middleware.TenantContext {
	now := time.Now().Unix()
	company := &models.Company{ID: "com_test", Name: "Müller Bau", CreatedAt: now, UpdatedAt: now}
	if err := env.companyRepo.Create(company); err != nil {
		t.Fatalf("Failed to seed company: %v", err)
	}

	ident, err := env.identities.Create("chef@mueller-bau.de", "geheim123", identityMetadataWithoutCompany())
	if err != nil {
		t.Fatalf("Failed to seed identity: %v", err)
	}
	profile := &models.Profile{ID: ident.ID, CompanyID: &company.ID, FirstName: "Hans", LastName: "Müller", Email: ident.Email, Role: models.RoleAdmin}
	if err := env.profileRepo.Upsert(profile); err != nil {
		t.Fatalf("Failed to seed profile: %v", err)
	}

	return &middleware.TenantContext{CompanyID: company.ID, ProfileID: ident.ID, Role: models.RoleAdmin}
}

func inviteLisa(t *testing.T, env *testEnv, tenant *middleware.TenantContext) string {
	body := `{"email":"lisa@example.de","firstName":"Lisa","lastName":"Schmidt","role":"employee"}`
	req := tenantRequest("POST", "/api/v1/employees/invite", strings.NewReader(body), tenant, nil)
	rr := httptest.NewRecorder()
	env.invHandler.Invite(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Invite returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		InvitationID string `json:"invitationId"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode invite response: %v", err)
	}
	if resp.InvitationID == "" {
		t.Fatal("Expected invitation id")
	}
	return resp.InvitationID
}

func TestInviteConflicts(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()
	tenant := seedCompanyWithAdmin(t, env)

	inviteLisa(t, env, tenant)

	t.Run("second live invitation conflicts", func(t *testing.T) {
		body := `{"email":"lisa@example.de"}`
		req := tenantRequest("POST", "/api/v1/employees/invite", strings.NewReader(body), tenant, nil)
		rr := httptest.NewRecorder()
		env.invHandler.Invite(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for duplicate live invitation, got %d", rr.Code)
		}
	})

	t.Run("existing account conflicts", func(t *testing.T) {
		body := `{"email":"chef@mueller-bau.de"}`
		req := tenantRequest("POST", "/api/v1/employees/invite", strings.NewReader(body), tenant, nil)
		rr := httptest.NewRecorder()
		env.invHandler.Invite(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for existing account, got %d", rr.Code)
		}
	})

	t.Run("foreign company id is rejected", func(t *testing.T) {
		body := `{"email":"neu@example.de","companyId":"com_other"}`
		req := tenantRequest("POST", "/api/v1/employees/invite", strings.NewReader(body), tenant, nil)
		rr := httptest.NewRecorder()
		env.invHandler.Invite(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403 for foreign company id, got %d", rr.Code)
		}
	})
}

func TestInvitationLookup(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()
	tenant := seedCompanyWithAdmin(t, env)

	invID := inviteLisa(t, env, tenant)
	token := env.invitationTokenFor(t, invID)

	t.Run("live token resolves", func(t *testing.T) {
		req := paramsRequest("GET", "/api/v1/invitations/"+token, nil, httprouter.Params{{Key: "token", Value: token}})
		rr := httptest.NewRecorder()
		env.invHandler.Lookup(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Müller Bau") {
			t.Error("Expected joined company name in lookup response")
		}
		if strings.Contains(rr.Body.String(), token) {
			t.Error("Token must not be echoed in the response body")
		}
	})

	t.Run("unknown token is 404", func(t *testing.T) {
		req := paramsRequest("GET", "/api/v1/invitations/nope", nil, httprouter.Params{{Key: "token", Value: "nope"}})
		rr := httptest.NewRecorder()
		env.invHandler.Lookup(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rr.Code)
		}
	})

	t.Run("expired token is 404", func(t *testing.T) {
		if _, err := env.db.Exec(`UPDATE invitations SET expires_at = ? WHERE id = ?`, time.Now().Add(-time.Hour).Unix(), invID); err != nil {
			t.Fatalf("Failed to expire invitation: %v", err)
		}
		req := paramsRequest("GET", "/api/v1/invitations/"+token, nil, httprouter.Params{{Key: "token", Value: token}})
		rr := httptest.NewRecorder()
		env.invHandler.Lookup(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for expired token, got %d", rr.Code)
		}
	})
}

func TestInvitationAccept(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()
	tenant := seedCompanyWithAdmin(t, env)

	invID := inviteLisa(t, env, tenant)
	token := env.invitationTokenFor(t, invID)

	lisa, err := env.identities.Create("lisa@example.de", "geheim123", identityMetadataWithoutCompany())
	if err != nil {
		t.Fatalf("Failed to create invited identity: %v", err)
	}

	t.Run("email mismatch is forbidden", func(t *testing.T) {
		other, err := env.identities.Create("andere@example.de", "geheim123", identityMetadataWithoutCompany())
		if err != nil {
			t.Fatalf("Failed to create identity: %v", err)
		}
		req := paramsRequest("POST", "/api/v1/invitations/"+token+"/accept",
			strings.NewReader(`{"user_id":"`+other.ID+`"}`), httprouter.Params{{Key: "token", Value: token}})
		rr := httptest.NewRecorder()
		env.invHandler.Accept(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403 for email mismatch, got %d", rr.Code)
		}
	})

	t.Run("matching identity is provisioned", func(t *testing.T) {
		req := paramsRequest("POST", "/api/v1/invitations/"+token+"/accept",
			strings.NewReader(`{"user_id":"`+lisa.ID+`"}`), httprouter.Params{{Key: "token", Value: token}})
		rr := httptest.NewRecorder()
		env.invHandler.Accept(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("Accept returned %d: %s", rr.Code, rr.Body.String())
		}

		profile, err := env.profileRepo.GetByID(lisa.ID)
		if err != nil || profile == nil {
			t.Fatalf("Expected profile after accept: %v", err)
		}
		if profile.CompanyID == nil || *profile.CompanyID != tenant.CompanyID {
			t.Error("Expected profile attached to inviting company")
		}

		employee, err := env.employeeRepo.GetByUserID(tenant.CompanyID, lisa.ID)
		if err != nil || employee == nil {
			t.Fatalf("Expected employee after accept: %v", err)
		}
		if employee.Role != models.EmployeeRoleMitarbeiter {
			t.Errorf("Expected mitarbeiter role, got %s", employee.Role)
		}

		inv, err := env.invitationRepo.GetByID(tenant.CompanyID, invID)
		if err != nil || inv == nil {
			t.Fatalf("Failed to reload invitation: %v", err)
		}
		if inv.AcceptedAt == nil {
			t.Error("Expected invitation to be marked accepted")
		}
	})

	t.Run("consumed token is 404", func(t *testing.T) {
		req := paramsRequest("POST", "/api/v1/invitations/"+token+"/accept",
			strings.NewReader(`{"user_id":"`+lisa.ID+`"}`), httprouter.Params{{Key: "token", Value: token}})
		rr := httptest.NewRecorder()
		env.invHandler.Accept(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for consumed token, got %d", rr.Code)
		}
	})
}

func TestInvitationAcceptAdminRoleMapping(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()
	tenant := seedCompanyWithAdmin(t, env)

	body := `{"email":"prokurist@example.de","firstName":"Peter","lastName":"Weber","role":"admin"}`
	req := tenantRequest("POST", "/api/v1/employees/invite", strings.NewReader(body), tenant, nil)
	rr := httptest.NewRecorder()
	env.invHandler.Invite(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Invite returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		InvitationID string `json:"invitationId"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	token := env.invitationTokenFor(t, resp.InvitationID)

	peter, err := env.identities.Create("prokurist@example.de", "geheim123", identityMetadataWithoutCompany())
	if err != nil {
		t.Fatalf("Failed to create identity: %v", err)
	}

	acceptReq := paramsRequest("POST", "/api/v1/invitations/"+token+"/accept",
		strings.NewReader(`{"user_id":"`+peter.ID+`"}`), httprouter.Params{{Key: "token", Value: token}})
	acceptRR := httptest.NewRecorder()
	env.invHandler.Accept(acceptRR, acceptReq)
	if acceptRR.Code != http.StatusOK {
		t.Fatalf("Accept returned %d: %s", acceptRR.Code, acceptRR.Body.String())
	}

	employee, err := env.employeeRepo.GetByUserID(tenant.CompanyID, peter.ID)
	if err != nil || employee == nil {
		t.Fatalf("Expected employee: %v", err)
	}
	if employee.Role != models.EmployeeRoleGeschaeftsfuehrer {
		t.Errorf("Expected geschäftsführer for admin invitation, got %s", employee.Role)
	}
}

func TestInvitationRevoke(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()
	tenant := seedCompanyWithAdmin(t, env)

	invID := inviteLisa(t, env, tenant)
	token := env.invitationTokenFor(t, invID)

	req := tenantRequest("DELETE", "/api/v1/employees/invitations/"+invID, nil, tenant,
		httprouter.Params{{Key: "invitation_id", Value: invID}})
	rr := httptest.NewRecorder()
	env.invHandler.Revoke(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Revoke returned %d: %s", rr.Code, rr.Body.String())
	}

	lookupReq := paramsRequest("GET", "/api/v1/invitations/"+token, nil, httprouter.Params{{Key: "token", Value: token}})
	lookupRR := httptest.NewRecorder()
	env.invHandler.Lookup(lookupRR, lookupReq)
	if lookupRR.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after revoke, got %d", lookupRR.Code)
	}
}
