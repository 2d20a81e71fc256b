package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/complaint-service/internal/api/http/handlers"
	"github.com/campusdesk/complaint-service/internal/auth"
	"github.com/campusdesk/complaint-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Complaints     *handlers.ComplaintsHandler
	Escalations    *handlers.EscalationsHandler
	Assignments    *handlers.AssignmentHandler
	Categories     *handlers.CategoriesHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	app.Get("/categories", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Categories.ListActive)

	complaints := app.Group("/complaints", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	complaints.Post("", cfg.Complaints.Create)
	complaints.Get("", cfg.Complaints.ListMine)
	complaints.Get("/ref/:ref", cfg.Complaints.GetByTicketRef)
	complaints.Get("/:id", cfg.Complaints.Get)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Get("/complaints", cfg.Complaints.ListStaff)
	staff.Post("/complaints/:id/status", cfg.Complaints.TransitionStatus)
	staff.Post("/complaints/:id/priority", cfg.Complaints.UpdatePriority)
	staff.Post("/complaints/:id/reopen", cfg.Complaints.Reopen)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())

	admin.Get("/escalations/pending", cfg.Escalations.Pending)
	admin.Get("/escalations/at-risk", cfg.Escalations.AtRisk)
	admin.Post("/escalations/sweep", cfg.Escalations.Sweep)
	admin.Post("/complaints/:id/escalate", cfg.Escalations.Escalate)

	admin.Get("/scheduler", cfg.Escalations.SchedulerStatus)
	admin.Put("/scheduler/interval", cfg.Escalations.UpdateInterval)
	admin.Post("/scheduler/start", cfg.Escalations.StartScheduler)
	admin.Post("/scheduler/stop", cfg.Escalations.StopScheduler)
	admin.Post("/scheduler/restart", cfg.Escalations.RestartScheduler)

	admin.Get("/complaints/:id/recommendations", cfg.Assignments.Recommendations)
	admin.Post("/complaints/:id/auto-assign", cfg.Assignments.AutoAssign)
	admin.Post("/complaints/:id/assign", cfg.Assignments.Assign)
	admin.Post("/complaints/:id/unassign", cfg.Assignments.Unassign)

	admin.Get("/categories", cfg.Categories.List)
	admin.Post("/categories", cfg.Categories.Create)
	admin.Put("/categories/:id", cfg.Categories.Update)
	admin.Delete("/categories/:id", cfg.Categories.Delete)

	reports := admin.Group("/reports")
	reports.Get("/overview", cfg.Reports.Overview)
	reports.Get("/status", cfg.Reports.Status)
	reports.Get("/priority", cfg.Reports.Priority)
	reports.Get("/categories", cfg.Reports.Categories)
	reports.Get("/staff", cfg.Reports.Staff)
	reports.Get("/trends", cfg.Reports.Trends)
	reports.Get("/sla", cfg.Reports.SLA)
}
