package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civita-labs/civic-report/internal/api/http/handlers"
	"github.com/civita-labs/civic-report/internal/auth"
	"github.com/civita-labs/civic-report/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Users        *handlers.UsersHandler
	Issues       *handlers.IssuesHandler
	Staff        *handlers.StaffHandler
	Admin        *handlers.AdminHandler
	Payments     *handlers.PaymentsHandler
	IdentityGate *auth.IdentityGate
}

// RegisterRoutes wires HTTP routes. Two gates compose in sequence on every
// mutating route: the identity gate resolves the caller, then a role-exact
// capability gate checks the stored role.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	app.Get("/users/me", cfg.IdentityGate.Handle, cfg.Users.Me)

	issues := app.Group("/issues")
	issues.Get("/", cfg.Issues.List)
	issues.Get("/mine", cfg.IdentityGate.Handle, auth.RequireRole(domain.RoleCitizen), cfg.Issues.ListMine)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Get("/:id/timeline", cfg.Issues.Timeline)
	issues.Post("/", cfg.IdentityGate.Handle, auth.RequireRole(domain.RoleCitizen), auth.RequireNotBlocked(), cfg.Issues.Create)
	issues.Put("/:id", cfg.IdentityGate.Handle, auth.RequireRole(domain.RoleCitizen), auth.RequireNotBlocked(), cfg.Issues.Update)
	issues.Post("/:id/upvote", cfg.IdentityGate.Handle, auth.RequireRole(domain.RoleCitizen), auth.RequireNotBlocked(), cfg.Issues.Upvote)
	issues.Delete("/:id", cfg.IdentityGate.Handle, auth.RequireRole(domain.RoleCitizen), cfg.Issues.Delete)

	staff := app.Group("/staff", cfg.IdentityGate.Handle, auth.RequireRole(domain.RoleStaff))
	staff.Get("/issues", cfg.Staff.ListAssigned)
	staff.Put("/issues/:id/status", cfg.Staff.UpdateStatus)

	admin := app.Group("/admin", cfg.IdentityGate.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Put("/users/:id/role", cfg.Admin.UpdateRole)
	admin.Put("/users/:id/block", cfg.Admin.UpdateBlock)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
	admin.Put("/issues/:id/assign", cfg.Admin.AssignIssue)
	admin.Put("/issues/:id/reject", cfg.Admin.RejectIssue)
	admin.Delete("/issues/:id", cfg.Admin.DeleteIssue)
	admin.Get("/payments", cfg.Admin.ListPayments)

	payments := app.Group("/payments")
	payments.Post("/checkout", cfg.IdentityGate.Handle, auth.RequireRole(domain.RoleCitizen), auth.RequireNotBlocked(), cfg.Payments.Checkout)
	payments.Get("/settle", cfg.Payments.Settle)
	payments.Get("/mine", cfg.IdentityGate.Handle, auth.RequireRole(domain.RoleCitizen), cfg.Payments.ListMine)
	payments.Get("/:id/invoice", cfg.IdentityGate.Handle, cfg.Payments.Invoice)
}
