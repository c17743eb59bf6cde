package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/http/handlers"
	"github.com/spec-kit/booking-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Resources      *handlers.ResourcesHandler
	Reservations   *handlers.ReservationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	resources := app.Group("/resources", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	resources.Get("/", cfg.Resources.List)
	resources.Get("/:id", cfg.Resources.Get)
	resources.Post("/", auth.RequireAdmin(), cfg.Resources.Create)
	resources.Put("/:id", auth.RequireAdmin(), cfg.Resources.Update)
	resources.Delete("/:id", auth.RequireAdmin(), cfg.Resources.Delete)

	reservations := app.Group("/reservations", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	reservations.Post("/", cfg.Reservations.Create)
	reservations.Get("/", cfg.Reservations.List)
	reservations.Get("/:id", cfg.Reservations.Get)
	reservations.Put("/:id", cfg.Reservations.Update)
	reservations.Delete("/:id", cfg.Reservations.Delete)
}
