package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kiosk-service/internal/api/http/handlers"
	"github.com/spec-kit/kiosk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Kiosk      *handlers.KioskHandler
	Visitor    *handlers.VisitorHandler
	Admin      *handlers.AdminHandler
	LinkSigner *auth.LinkSigner
	// UploadsPrefix and UploadsDir serve locally stored attachments. Left
	// empty when blobs live in object storage.
	UploadsPrefix string
	UploadsDir    string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	if cfg.UploadsPrefix != "" && cfg.UploadsDir != "" {
		app.Static(cfg.UploadsPrefix, cfg.UploadsDir)
	}

	app.Post("/checkin", cfg.Kiosk.Checkin)

	visitor := app.Group("/status/:id", auth.RequireStatusLink(cfg.LinkSigner))
	visitor.Get("", cfg.Visitor.Status)
	visitor.Post("/followups", cfg.Visitor.FollowUp)

	admin := app.Group("/admin")
	admin.Get("/decline-reasons", cfg.Admin.DeclineReasons)
	admin.Get("/tickets", cfg.Admin.ListTickets)
	admin.Get("/tickets/:id", cfg.Admin.GetTicket)
	admin.Post("/tickets/:id/respond", cfg.Admin.Respond)
}
