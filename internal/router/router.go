package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cobach/sia-alumnos-api/internal/config"
	"github.com/cobach/sia-alumnos-api/internal/handler"
	"github.com/cobach/sia-alumnos-api/internal/middleware"
	"github.com/cobach/sia-alumnos-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CatalogHandler *handler.CatalogHandler
	StudentHandler *handler.StudentHandler
	DB             handler.Pinger
	// WriteLimiter overrides the rate limiter placed in front of student writes.
	WriteLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	}, handler.HealthCheck(cfg, deps.DB))
	app.Get("/metrics", observability.MetricsHandler())

	if deps.CatalogHandler != nil {
		deps.CatalogHandler.Register(app)
	}

	if deps.StudentHandler != nil {
		limiter := deps.WriteLimiter
		if limiter == nil {
			limiter = middleware.RateLimit("alumnos-write", cfg.WriteRateLimit, cfg.WriteRateWindow)
		}
		deps.StudentHandler.Register(app, limiter)
	}
}
