package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixflow/repair-service/internal/api/http/handlers"
	"github.com/fixflow/repair-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Requests       *handlers.RequestsHandler
	Assignments    *handlers.AssignmentsHandler
	Notifications  *handlers.NotificationsHandler
	Payments       *handlers.PaymentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)

	customer := app.Group("/requests", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	customer.Post("", cfg.Requests.CreateRequest)
	customer.Get("", cfg.Requests.ListRequests)
	customer.Get("/:id", cfg.Requests.GetRequest)

	employee := app.Group("/employee", cfg.AuthMiddleware.Handle, auth.RequireEmployee())
	employee.Get("/requests", cfg.Requests.ListAssignedRequests)
	employee.Post("/assignments/:id/confirmation", cfg.Assignments.Confirmation)
	employee.Post("/assignments/:id/status", cfg.Assignments.UpdateStatus)
	employee.Post("/assignments/:id/issue", cfg.Assignments.ReportIssue)
	employee.Post("/assignments/:id/completion", cfg.Payments.RecordCompletion)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/requests", cfg.Requests.ListAllRequests)
	admin.Post("/requests/:id/assign", cfg.Assignments.AssignEmployee)
	admin.Post("/requests/:id/cancel", cfg.Assignments.AdminCancel)
	admin.Post("/assignments/sweep", cfg.Assignments.Sweep)

	inbox := app.Group("/notifications", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	inbox.Get("", cfg.Notifications.List)
	inbox.Post("/:id/read", cfg.Notifications.MarkRead)
	inbox.Delete("/:id", cfg.Notifications.Dismiss)
}
