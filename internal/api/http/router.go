package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kozzy/chamados/internal/api/http/handlers"
	"github.com/kozzy/chamados/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireActor(), cfg.Auth.Me)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireActor(), cfg.Auth.ChangePassword)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireActor())
	api.Get("/areas", cfg.Users.ListAreas)

	users := api.Group("/users", auth.RequireSupervisor())
	users.Get("", cfg.Users.ListUsers)
	users.Post("", cfg.Users.CreateUser)
	users.Patch("/:id", cfg.Users.UpdateUser)
	users.Put("/:id/areas", cfg.Users.AssignAreas)

	tickets := api.Group("/tickets")
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Delete("", auth.RequireSupervisor(), cfg.Tickets.PurgeTickets)
	tickets.Get("/protocol/:protocol", cfg.Tickets.GetByProtocol)
	tickets.Get("/protocols/:protocol", cfg.Tickets.ProtocolAvailability)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	api.Get("/reports/tickets", cfg.Reports.TicketReport)
}
