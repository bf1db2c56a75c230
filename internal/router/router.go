package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/handler"
	"github.com/noah-isme/gema-study-api/internal/middleware"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentTaskHandler  *handler.StudentTaskHandler
	TeacherHandler      *handler.TeacherHandler
	NotificationHandler *handler.NotificationHandler
	DeviceHandler       *handler.DeviceHandler
	SeedHandler         *handler.SeedHandler
	JWTMiddleware       fiber.Handler
	// CompletionLimiter guards the routes that complete assignments.
	CompletionLimiter fiber.Handler
	HealthProbes      map[string]handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.StudentTaskHandler != nil {
		student := api.Group("/student", jwtMiddleware, middleware.RequireRole(models.RoleStudent))
		var guards []fiber.Handler
		if deps.CompletionLimiter != nil {
			guards = append(guards, deps.CompletionLimiter)
		}
		deps.StudentTaskHandler.Register(student, guards...)
	}

	if deps.TeacherHandler != nil || deps.NotificationHandler != nil {
		teacher := api.Group("/teacher", jwtMiddleware, middleware.RequireRole(models.RoleTeacher, models.RoleAdmin))
		if deps.TeacherHandler != nil {
			deps.TeacherHandler.Register(teacher)
		}
		if deps.NotificationHandler != nil {
			deps.NotificationHandler.Register(teacher.Group("/notifications"))
		}
	}

	if deps.DeviceHandler != nil {
		devices := api.Group("/devices", jwtMiddleware)
		deps.DeviceHandler.Register(devices)
	}

	// Seeding is guarded by its own token rather than a JWT
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/tools/seed"))
	}
}
