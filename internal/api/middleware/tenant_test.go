package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	apiContext "bauflow/internal/api/context"
	"bauflow/internal/platform/auth"
	"bauflow/internal/platform/repositories"
)

func requestWithClaims(userID string) *http.Request {
	req, _ := http.NewRequest("GET", "/", nil)
	claims := &auth.Claims{UserID: userID}
	ctx := context.WithValue(req.Context(), apiContext.Claims, claims)
	return req.WithContext(ctx)
}

func TestTenantMiddleware(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	profileRepo := repositories.NewProfileRepository(db)
	middleware := NewTenantMiddleware(profileRepo)

	t.Run("profile with company proceeds", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "company_id", "first_name", "last_name", "email", "role", "created_at", "updated_at"}).
			AddRow("usr_1", "comp_1", "Hans", "Müller", "hans@example.de", "admin", 1700000000, 1700000000)
		mock.ExpectQuery("SELECT (.+) FROM profiles WHERE id = ?").
			WithArgs("usr_1").
			WillReturnRows(rows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Context().Value(apiContext.Tenant).(*TenantContext)
			if tenant.CompanyID != "comp_1" {
				t.Errorf("Expected company comp_1, got %s", tenant.CompanyID)
			}
			if tenant.Role != "admin" {
				t.Errorf("Expected role admin, got %s", tenant.Role)
			}
			w.WriteHeader(http.StatusOK)
		})
		handler.ServeHTTP(rr, requestWithClaims("usr_1"))

		if rr.Code != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("missing profile is forbidden", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM profiles WHERE id = ?").
			WithArgs("usr_2").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})
		handler.ServeHTTP(rr, requestWithClaims("usr_2"))

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("profile without company is forbidden", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "company_id", "first_name", "last_name", "email", "role", "created_at", "updated_at"}).
			AddRow("usr_3", nil, "Lisa", "Schmidt", "lisa@example.de", "employee", 1700000000, 1700000000)
		mock.ExpectQuery("SELECT (.+) FROM profiles WHERE id = ?").
			WithArgs("usr_3").
			WillReturnRows(rows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})
		handler.ServeHTTP(rr, requestWithClaims("usr_3"))

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	// A store failure must not let the request through with an unknown tenant.
	t.Run("store error fails closed", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM profiles WHERE id = ?").
			WithArgs("usr_4").
			WillReturnError(errors.New("disk I/O error"))

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})
		handler.ServeHTTP(rr, requestWithClaims("usr_4"))

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("missing claims is unauthorized", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})
}
