package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "bauflow/internal/api/context"
	"bauflow/internal/api/handlers"
	"bauflow/internal/api/middleware"
	"bauflow/internal/pkg/errors"
)

type Dependencies struct {
	AuthHandler        *handlers.AuthHandler
	CompanyHandler     *handlers.CompanyHandler
	EmployeeHandler    *handlers.EmployeeHandler
	InvitationHandler  *handlers.InvitationHandler
	ProjectHandler     *handlers.ProjectHandler
	CustomerHandler    *handlers.CustomerHandler
	MaterialHandler    *handlers.MaterialHandler
	TaskHandler        *handlers.TaskHandler
	AppointmentHandler *handlers.AppointmentHandler
	TimesheetHandler   *handlers.TimesheetHandler
	AuditHandler       *handlers.AuditHandler
	HealthHandler      *handlers.HealthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	TenantMiddleware   *middleware.TenantMiddleware
	RateLimiter        *middleware.RateLimiter
	Metrics            *middleware.Metrics
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware
	limit := deps.RateLimiter.Limit

	// Probes
	router.GET("/health", wrap(deps.HealthHandler.Handle))
	router.GET("/metrics", wrap(deps.Metrics.Handler))

	// Authentication
	router.POST("/api/v1/auth/register", chain(deps.AuthHandler.Register, limit("auth")))
	router.GET("/api/v1/auth/callback", wrap(deps.AuthHandler.Callback))
	router.POST("/api/v1/auth/login", chain(deps.AuthHandler.Login, limit("auth")))
	router.POST("/api/v1/auth/refresh", wrap(deps.AuthHandler.Refresh))
	router.POST("/api/v1/auth/logout", wrap(deps.AuthHandler.Logout))

	// Company lifecycle. Create has no tenant gate: it exists precisely for
	// identities that are not part of a company yet.
	router.POST("/api/v1/company/create",
		chain(deps.CompanyHandler.Create, authMid.Handle))
	router.GET("/api/v1/company/current",
		chain(deps.CompanyHandler.GetCurrent, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/company/current",
		chain(deps.CompanyHandler.Update, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))
	router.DELETE("/api/v1/company/delete",
		chain(deps.CompanyHandler.Delete, authMid.Handle, tenantMid.Handle, requireRole("admin")))

	// Employees. Worker records live under /company/employees so the static
	// invite routes below cannot collide with the id wildcard.
	router.GET("/api/v1/company/employees",
		chain(deps.EmployeeHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/company/employees",
		chain(deps.EmployeeHandler.Create, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))
	router.GET("/api/v1/company/employees/:employee_id",
		chain(deps.EmployeeHandler.Get, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/company/employees/:employee_id",
		chain(deps.EmployeeHandler.Update, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))
	router.DELETE("/api/v1/company/employees/:employee_id",
		chain(deps.EmployeeHandler.Delete, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))

	// Invitations (tenant side)
	router.POST("/api/v1/employees/invite",
		chain(deps.InvitationHandler.Invite, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager"), limit("api_write")))
	router.GET("/api/v1/employees/invitations",
		chain(deps.InvitationHandler.List, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))
	router.POST("/api/v1/employees/invitations/:invitation_id/resend",
		chain(deps.InvitationHandler.Resend, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))
	router.DELETE("/api/v1/employees/invitations/:invitation_id",
		chain(deps.InvitationHandler.Revoke, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))

	// Invitations (public acceptance side)
	router.GET("/api/v1/invitations/:token", wrap(deps.InvitationHandler.Lookup))
	router.POST("/api/v1/invitations/:token/accept",
		chain(deps.InvitationHandler.Accept, limit("auth")))

	// Projects (Baustellen)
	router.GET("/api/v1/projects",
		chain(deps.ProjectHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/projects",
		chain(deps.ProjectHandler.Create, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))
	router.GET("/api/v1/projects/:project_id",
		chain(deps.ProjectHandler.Get, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/projects/:project_id",
		chain(deps.ProjectHandler.Update, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))
	router.DELETE("/api/v1/projects/:project_id",
		chain(deps.ProjectHandler.Delete, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))

	// Customers
	router.GET("/api/v1/customers",
		chain(deps.CustomerHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/customers",
		chain(deps.CustomerHandler.Create, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/customers/:customer_id",
		chain(deps.CustomerHandler.Get, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/customers/:customer_id",
		chain(deps.CustomerHandler.Update, authMid.Handle, tenantMid.Handle))
	router.DELETE("/api/v1/customers/:customer_id",
		chain(deps.CustomerHandler.Delete, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))

	// Materials
	router.GET("/api/v1/materials",
		chain(deps.MaterialHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/materials",
		chain(deps.MaterialHandler.Create, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/materials/:material_id",
		chain(deps.MaterialHandler.Update, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/materials/:material_id/stock",
		chain(deps.MaterialHandler.AdjustStock, authMid.Handle, tenantMid.Handle))
	router.DELETE("/api/v1/materials/:material_id",
		chain(deps.MaterialHandler.Delete, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))

	// Tasks
	router.GET("/api/v1/tasks",
		chain(deps.TaskHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/tasks",
		chain(deps.TaskHandler.Create, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/tasks/:task_id",
		chain(deps.TaskHandler.Update, authMid.Handle, tenantMid.Handle))
	router.DELETE("/api/v1/tasks/:task_id",
		chain(deps.TaskHandler.Delete, authMid.Handle, tenantMid.Handle))

	// Appointments
	router.GET("/api/v1/appointments",
		chain(deps.AppointmentHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/appointments",
		chain(deps.AppointmentHandler.Create, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/appointments/:appointment_id",
		chain(deps.AppointmentHandler.Update, authMid.Handle, tenantMid.Handle))
	router.DELETE("/api/v1/appointments/:appointment_id",
		chain(deps.AppointmentHandler.Delete, authMid.Handle, tenantMid.Handle))

	// Time tracking. Clock-in/out live under /timeclock so the entry id
	// wildcard below stays conflict-free.
	router.POST("/api/v1/timeclock/in",
		chain(deps.TimesheetHandler.ClockIn, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/timeclock/out",
		chain(deps.TimesheetHandler.ClockOut, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/timesheets",
		chain(deps.TimesheetHandler.List, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/timesheets/:entry_id/approval",
		chain(deps.TimesheetHandler.SetApproval, authMid.Handle, tenantMid.Handle, requireRole("admin", "manager")))

	// Audit trail
	router.GET("/api/v1/audit",
		chain(deps.AuditHandler.List, authMid.Handle, tenantMid.Handle, requireRole("admin")))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

// requireRole reads the role off the tenant context, not the token, so a
// demotion takes effect immediately. It must therefore run after the tenant
// middleware.
func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tenant, ok := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
			if !ok {
				errors.WriteError(w, http.StatusForbidden, "Keine Berechtigung")
				return
			}

			for _, role := range roles {
				if tenant.Role == role {
					next(w, r)
					return
				}
			}

			errors.WriteError(w, http.StatusForbidden, "Keine Berechtigung für diese Aktion")
		}
	}
}
