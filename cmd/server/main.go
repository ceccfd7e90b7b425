package main

import (
	"fmt"
	"log"
	"net/http"

	"bauflow/internal/api"
	"bauflow/internal/api/handlers"
	"bauflow/internal/api/middleware"
	"bauflow/internal/pkg/logger"
	"bauflow/internal/platform/audit"
	"bauflow/internal/platform/auth"
	"bauflow/internal/platform/config"
	"bauflow/internal/platform/database"
	"bauflow/internal/platform/identity"
	"bauflow/internal/platform/mailer"
	"bauflow/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories
	companyRepo := repositories.NewCompanyRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	invitationRepo := repositories.NewInvitationRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	materialRepo := repositories.NewMaterialRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	appointmentRepo := repositories.NewAppointmentRepository(db)
	timesheetRepo := repositories.NewTimesheetRepository(db)

	// Services
	identities := identity.NewStore(db)
	tokenSvc := auth.NewTokenService(cfg.JWT)
	mail := mailer.New(cfg.Email, cfg.Auth)
	auditLog := audit.NewLogger(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(identities, companyRepo, profileRepo, tokenSvc, mail, auditLog, cfg.Auth)
	companyHandler := handlers.NewCompanyHandler(companyRepo, profileRepo, employeeRepo, invitationRepo, projectRepo, customerRepo, materialRepo, taskRepo, appointmentRepo, timesheetRepo, identities, auditLog)
	employeeHandler := handlers.NewEmployeeHandler(employeeRepo)
	invitationHandler := handlers.NewInvitationHandler(invitationRepo, companyRepo, profileRepo, employeeRepo, identities, mail, auditLog, cfg.Auth)
	projectHandler := handlers.NewProjectHandler(projectRepo)
	customerHandler := handlers.NewCustomerHandler(customerRepo)
	materialHandler := handlers.NewMaterialHandler(materialRepo)
	taskHandler := handlers.NewTaskHandler(taskRepo)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentRepo)
	timesheetHandler := handlers.NewTimesheetHandler(timesheetRepo, employeeRepo)
	auditHandler := handlers.NewAuditHandler(auditLog)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	tenantMiddleware := middleware.NewTenantMiddleware(profileRepo)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	metrics := middleware.NewMetrics()

	deps := &api.Dependencies{
		AuthHandler:        authHandler,
		CompanyHandler:     companyHandler,
		EmployeeHandler:    employeeHandler,
		InvitationHandler:  invitationHandler,
		ProjectHandler:     projectHandler,
		CustomerHandler:    customerHandler,
		MaterialHandler:    materialHandler,
		TaskHandler:        taskHandler,
		AppointmentHandler: appointmentHandler,
		TimesheetHandler:   timesheetHandler,
		AuditHandler:       auditHandler,
		HealthHandler:      healthHandler,
		AuthMiddleware:     authMiddleware,
		TenantMiddleware:   tenantMiddleware,
		RateLimiter:        rateLimiter,
		Metrics:            metrics,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := http.ListenAndServe(addr, metrics.Wrap(router)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
