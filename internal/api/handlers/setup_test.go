package handlers

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	_ "github.com/mattn/go-sqlite3"

	apiContext "bauflow/internal/api/context"
	"bauflow/internal/api/middleware"
	"bauflow/internal/platform/audit"
	"bauflow/internal/platform/auth"
	"bauflow/internal/platform/config"
	"bauflow/internal/platform/identity"
	"bauflow/internal/platform/mailer"
	"bauflow/internal/platform/repositories"
)

const testSchema = `
CREATE TABLE identities (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	email_confirmed INTEGER NOT NULL DEFAULT 0,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE confirmation_codes (
	code TEXT PRIMARY KEY,
	identity_id TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	consumed_at INTEGER
);
CREATE TABLE companies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	website TEXT NOT NULL DEFAULT '',
	logo_url TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE profiles (
	id TEXT PRIMARY KEY,
	company_id TEXT,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'employee',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE employees (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'mitarbeiter',
	hourly_rate REAL NOT NULL DEFAULT 0,
	active INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE invitations (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	email TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'employee',
	invitation_token TEXT NOT NULL UNIQUE,
	invited_by TEXT NOT NULL DEFAULT '',
	expires_at INTEGER NOT NULL,
	accepted_at INTEGER,
	email_sent_at INTEGER,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX idx_invitations_live
	ON invitations(company_id, email) WHERE accepted_at IS NULL;
CREATE TABLE audit_logs (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	action TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);
`

type testEnv struct {
	db             *sql.DB
	identities     *identity.Store
	companyRepo    *repositories.CompanyRepository
	profileRepo    *repositories.ProfileRepository
	employeeRepo   *repositories.EmployeeRepository
	invitationRepo *repositories.InvitationRepository
	authHandler    *AuthHandler
	invHandler     *InvitationHandler
	authCfg        config.AuthConfig
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	// One connection, or every pooled conn would get its own empty memory DB.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	authCfg := config.AuthConfig{
		AppBaseURL:          "http://app.test",
		APIBaseURL:          "http://api.test",
		ConfirmationCodeTTL: 24 * time.Hour,
		InvitationTTL:       7 * 24 * time.Hour,
	}
	emailCfg := config.EmailConfig{FromAddress: "noreply@bauflow.test", FromName: "Bauflow"}

	identities := identity.NewStore(db)
	companyRepo := repositories.NewCompanyRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	invitationRepo := repositories.NewInvitationRepository(db)
	tokenSvc := auth.NewTokenService(config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour})
	mail := mailer.NewWithClient(mailer.LogClient{}, emailCfg, authCfg)
	auditLog := audit.NewLogger(db)

	return &testEnv{
		db:             db,
		identities:     identities,
		companyRepo:    companyRepo,
		profileRepo:    profileRepo,
		employeeRepo:   employeeRepo,
		invitationRepo: invitationRepo,
		authHandler:    NewAuthHandler(identities, companyRepo, profileRepo, tokenSvc, mail, auditLog, authCfg),
		invHandler:     NewInvitationHandler(invitationRepo, companyRepo, profileRepo, employeeRepo, identities, mail, auditLog, authCfg),
		authCfg:        authCfg,
	}
}

func (env *testEnv) close() {
	env.db.Close()
}

// tenantRequest builds a request carrying the context values the middleware
// chain would normally inject.
func tenantRequest(method, path string, body io.Reader, tenant *middleware.TenantContext, params httprouter.Params) *http.Request {
	req := httptest.NewRequest(method, path, body)
	ctx := req.Context()
	if tenant != nil {
		ctx = context.WithValue(ctx, apiContext.Tenant, tenant)
	}
	if params != nil {
		ctx = context.WithValue(ctx, apiContext.Params, params)
	}
	return req.WithContext(ctx)
}

func paramsRequest(method, path string, body io.Reader, params httprouter.Params) *http.Request {
	return tenantRequest(method, path, body, nil, params)
}

func identityMetadataWithoutCompany() identity.Metadata {
	return identity.Metadata{FirstName: "Solo", LastName: "Person"}
}

func (env *testEnv) confirmationCodeFor(t *testing.T, identityID string) string {
	var code string
	err := env.db.QueryRow(`SELECT code FROM confirmation_codes WHERE identity_id = ? AND consumed_at IS NULL`, identityID).Scan(&code)
	if err != nil {
		t.Fatalf("Failed to fetch confirmation code: %v", err)
	}
	return code
}

func (env *testEnv) invitationTokenFor(t *testing.T, invitationID string) string {
	var token string
	err := env.db.QueryRow(`SELECT invitation_token FROM invitations WHERE id = ?`, invitationID).Scan(&token)
	if err != nil {
		t.Fatalf("Failed to fetch invitation token: %v", err)
	}
	return token
}
