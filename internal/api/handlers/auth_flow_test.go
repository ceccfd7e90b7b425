package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func registerMueller(t *testing.T, env *testEnv) string {
	body := `{
		"email": "hans@mueller-bau.de",
		"password": "geheim123",
		"first_name": "Hans",
		"last_name": "Müller",
		"company_name": "Müller Bau",
		"company_address": "Hauptstraße 1"
	}`
	req := httptest.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	env.authHandler.Register(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Register returned %d: %s", rr.Code, rr.Body.String())
	}

	var resp RegisterResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode register response: %v", err)
	}
	if !resp.RequiresEmailConfirmation {
		t.Error("Expected requiresEmailConfirmation to be true")
	}
	if resp.User.ID == "" {
		t.Fatal("Expected user id in register response")
	}
	return resp.User.ID
}

func (env *testEnv) callback(code string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/v1/auth/callback?code="+url.QueryEscape(code), nil)
	rr := httptest.NewRecorder()
	env.authHandler.Callback(rr, req)
	return rr
}

func redirectErrorKind(t *testing.T, rr *httptest.ResponseRecorder) string {
	loc, err := url.Parse(rr.Header().Get("Location"))
	if err != nil {
		t.Fatalf("Invalid redirect location: %v", err)
	}
	return loc.Query().Get("error")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()

	t.Run("missing fields", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(`{"email":"a@b.de"}`))
		rr := httptest.NewRecorder()
		env.authHandler.Register(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rr.Code)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		registerMueller(t, env)

		body := `{"email":"hans@mueller-bau.de","password":"x12345","first_name":"H","last_name":"M","company_name":"Andere Firma"}`
		req := httptest.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(body))
		rr := httptest.NewRecorder()
		env.authHandler.Register(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for duplicate email, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "existiert bereits") {
			t.Errorf("Expected duplicate message, got %s", rr.Body.String())
		}
	})
}

func TestConfirmationProvisionsCompanyAndProfile(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()

	userID := registerMueller(t, env)

	// Registration must not provision anything yet.
	var companies int
	env.db.QueryRow(`SELECT COUNT(*) FROM companies`).Scan(&companies)
	if companies != 0 {
		t.Fatalf("Expected no companies before confirmation, got %d", companies)
	}

	code := env.confirmationCodeFor(t, userID)
	rr := env.callback(code)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("Expected 303 redirect, got %d", rr.Code)
	}
	loc := rr.Header().Get("Location")
	if !strings.Contains(loc, "/auth/confirmed") {
		t.Fatalf("Expected success redirect, got %s", loc)
	}
	parsed, _ := url.Parse(loc)
	if parsed.Query().Get("access_token") == "" || parsed.Query().Get("refresh_token") == "" {
		t.Error("Expected session token pair in redirect")
	}

	env.db.QueryRow(`SELECT COUNT(*) FROM companies WHERE name = 'Müller Bau'`).Scan(&companies)
	if companies != 1 {
		t.Errorf("Expected exactly one company, got %d", companies)
	}

	profile, err := env.profileRepo.GetByID(userID)
	if err != nil || profile == nil {
		t.Fatalf("Expected profile after confirmation, got %v / %v", profile, err)
	}
	if profile.Role != "admin" {
		t.Errorf("Expected admin role, got %s", profile.Role)
	}
	if profile.CompanyID == nil {
		t.Error("Expected profile to be attached to the company")
	}

	// The stash must be cleared, names kept.
	ident, err := env.identities.GetByID(userID)
	if err != nil || ident == nil {
		t.Fatalf("Failed to reload identity: %v", err)
	}
	if ident.Metadata.PendingCompany != nil {
		t.Error("Expected pending company metadata to be cleared")
	}
	if ident.Metadata.FirstName != "Hans" {
		t.Error("Expected first name to survive metadata update")
	}
}

func TestConfirmationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()

	userID := registerMueller(t, env)
	env.callback(env.confirmationCodeFor(t, userID))

	// A fresh code for an already provisioned identity short-circuits to
	// success without creating a second company.
	code, err := env.identities.IssueConfirmationCode(userID, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue second code: %v", err)
	}
	rr := env.callback(code)
	if rr.Code != http.StatusSeeOther || !strings.Contains(rr.Header().Get("Location"), "/auth/confirmed") {
		t.Fatalf("Expected success redirect on replay, got %d %s", rr.Code, rr.Header().Get("Location"))
	}

	var companies int
	env.db.QueryRow(`SELECT COUNT(*) FROM companies`).Scan(&companies)
	if companies != 1 {
		t.Errorf("Expected one company after replay, got %d", companies)
	}
}

func TestConfirmationErrorKinds(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()

	t.Run("missing code", func(t *testing.T) {
		rr := env.callback("")
		if kind := redirectErrorKind(t, rr); kind != "no_code" {
			t.Errorf("Expected no_code, got %s", kind)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		rr := env.callback("deadbeef")
		if kind := redirectErrorKind(t, rr); kind != "no_user" {
			t.Errorf("Expected no_user, got %s", kind)
		}
	})

	t.Run("identity without company data", func(t *testing.T) {
		ident, err := env.identities.Create("solo@example.de", "geheim123", identityMetadataWithoutCompany())
		if err != nil {
			t.Fatalf("Failed to create identity: %v", err)
		}
		code, err := env.identities.IssueConfirmationCode(ident.ID, time.Hour)
		if err != nil {
			t.Fatalf("Failed to issue code: %v", err)
		}
		rr := env.callback(code)
		if kind := redirectErrorKind(t, rr); kind != "no_company_data" {
			t.Errorf("Expected no_company_data, got %s", kind)
		}
	})
}

func TestConfirmationCompensatesFailedProfile(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()

	userID := registerMueller(t, env)

	// Force the profile write to fail so the fresh company must be rolled back.
	if _, err := env.db.Exec(`
		CREATE TRIGGER block_profiles BEFORE INSERT ON profiles
		BEGIN SELECT RAISE(ABORT, 'blocked'); END
	`); err != nil {
		t.Fatalf("Failed to create trigger: %v", err)
	}

	rr := env.callback(env.confirmationCodeFor(t, userID))
	if kind := redirectErrorKind(t, rr); kind != "profile_creation_failed" {
		t.Errorf("Expected profile_creation_failed, got %s", kind)
	}

	var companies int
	env.db.QueryRow(`SELECT COUNT(*) FROM companies`).Scan(&companies)
	if companies != 0 {
		t.Errorf("Expected compensating delete to remove the company, got %d rows", companies)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()

	userID := registerMueller(t, env)

	t.Run("unconfirmed email is rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"email":"hans@mueller-bau.de","password":"geheim123"}`))
		rr := httptest.NewRecorder()
		env.authHandler.Login(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for unconfirmed email, got %d", rr.Code)
		}
	})

	env.callback(env.confirmationCodeFor(t, userID))

	t.Run("valid credentials", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"email":"hans@mueller-bau.de","password":"geheim123"}`))
		rr := httptest.NewRecorder()
		env.authHandler.Login(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp LoginResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode login response: %v", err)
		}
		if resp.AccessToken == "" || resp.RefreshToken == "" {
			t.Error("Expected token pair")
		}
		if resp.Profile == nil || resp.Profile.Role != "admin" {
			t.Error("Expected admin profile in login response")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"email":"hans@mueller-bau.de","password":"falsch"}`))
		rr := httptest.NewRecorder()
		env.authHandler.Login(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for wrong password, got %d", rr.Code)
		}
	})
}
