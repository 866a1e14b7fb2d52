package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/techdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/techdesk-service/internal/auth"
	"github.com/spec-kit/techdesk-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Companies      *handlers.CompanyHandler
	Employees      *handlers.EmployeeHandler
	Admins         *handlers.AdminHandler
	Assets         *handlers.AssetHandler
	Tickets        *handlers.TicketHandler
	Uploads        *handlers.UploadHandler
	Provisioning   *handlers.ProvisioningHandler
	Live           *handlers.LiveHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	UploadDir      string
	UploadPrefix   string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}
	if cfg.UploadDir != "" {
		app.Static(cfg.UploadPrefix, cfg.UploadDir, fiber.Static{Browse: false})
	}

	authn := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	signedIn := authGroup.Group("", authn, auth.RequireAnyRole())
	signedIn.Post("/logout", cfg.Auth.Logout)
	signedIn.Get("/session", cfg.Auth.Session)
	signedIn.Post("/password/change", cfg.Auth.ChangePassword)
	signedIn.Post("/company", auth.RequireAdmin(), cfg.Auth.SetCompany)

	app.Get("/lookups", authn, auth.RequireAnyRole(), cfg.Companies.Lookups)

	// Employee routes share the root prefix, so guards are attached per route
	// instead of through a group.
	anyRole := guarded(authn, auth.RequireAnyRole())
	app.Post(cfg.UploadPrefix, anyRole(cfg.Uploads.Upload)...)
	app.Delete(cfg.UploadPrefix+"/:filename", guarded(authn, auth.RequireAdmin())(cfg.Uploads.Delete)...)

	employee := guarded(authn, auth.RequireEmployee())
	app.Get("/me", employee(cfg.Employees.Me)...)
	app.Get("/me/assets", employee(cfg.Assets.Mine)...)
	app.Get("/me/assets/:id", employee(cfg.Assets.Get)...)
	app.Post("/tickets", employee(cfg.Tickets.Create)...)
	app.Get("/tickets", employee(cfg.Tickets.ListMine)...)
	app.Get("/tickets/:id", employee(cfg.Tickets.Get)...)
	app.Post("/tickets/:id/comments", employee(cfg.Tickets.Comment)...)

	admin := app.Group("/admin", authn, auth.RequireAdmin())
	admin.Get("/companies", cfg.Companies.List)
	admin.Post("/companies", cfg.Companies.Create)
	admin.Get("/companies/:id", cfg.Companies.Get)
	admin.Put("/companies/:id", cfg.Companies.Update)
	admin.Delete("/companies/:id", cfg.Companies.Delete)

	admin.Get("/employees", cfg.Employees.List)
	admin.Post("/employees", cfg.Employees.Create)
	admin.Get("/employees/:id", cfg.Employees.Get)
	admin.Put("/employees/:id", cfg.Employees.Update)
	admin.Delete("/employees/:id", cfg.Employees.Delete)

	admin.Get("/admins", cfg.Admins.List)
	admin.Post("/admins", cfg.Admins.Create)
	admin.Put("/admins/:uid", cfg.Admins.Update)
	admin.Delete("/admins/:uid", cfg.Admins.Delete)

	admin.Get("/assets", cfg.Assets.List)
	admin.Get("/assets/export", cfg.Assets.Export)
	admin.Post("/assets", cfg.Assets.Create)
	admin.Get("/assets/:id", cfg.Assets.Get)
	admin.Put("/assets/:id", cfg.Assets.Update)
	admin.Post("/assets/:id/history", cfg.Assets.AddHistory)
	admin.Delete("/assets/:id", cfg.Assets.Delete)

	admin.Get("/tickets", cfg.Tickets.List)
	admin.Get("/tickets/stats", cfg.Tickets.Stats)
	admin.Get("/tickets/:id", cfg.Tickets.Get)
	admin.Patch("/tickets/:id", cfg.Tickets.Update)
	admin.Delete("/tickets/:id", cfg.Tickets.Delete)

	provisioning := app.Group("/provisioning", authn, auth.RequireAdmin())
	provisioning.Post("/register-user", cfg.Provisioning.RegisterUser)
	provisioning.Post("/delete-user", cfg.Provisioning.DeleteUser)

	ws := app.Group("/ws/admin", authn, auth.RequireAdmin(), cfg.Live.Upgrade)
	ws.Get("/tickets", cfg.Live.Tickets())
	ws.Get("/assets", cfg.Live.Assets())
}

func guarded(guards ...fiber.Handler) func(fiber.Handler) []fiber.Handler {
	return func(h fiber.Handler) []fiber.Handler {
		out := make([]fiber.Handler, 0, len(guards)+1)
		out = append(out, guards...)
		return append(out, h)
	}
}
