package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/aula-go-api/internal/config"
	"github.com/noah-isme/aula-go-api/internal/handler"
	"github.com/noah-isme/aula-go-api/internal/middleware"
	"github.com/noah-isme/aula-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler     *handler.StudentHandler
	GradeHandler       *handler.GradeHandler
	CourseHandler      *handler.CourseHandler
	DiaryHandler       *handler.DiaryHandler
	ObservationHandler *handler.ObservationHandler
	AgendaHandler      *handler.AgendaHandler
	ReportHandler      *handler.ReportHandler
	JWTMiddleware      fiber.Handler
	HealthProbes       map[string]handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group(middleware.APIPrefix, func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	staff := []fiber.Handler{jwtMiddleware, middleware.RequireStaff()}

	if deps.StudentHandler != nil || deps.GradeHandler != nil {
		students := api.Group("/students", staff...)
		if deps.GradeHandler != nil {
			deps.GradeHandler.Register(students, middleware.RateLimit("grades", cfg.GradeWriteRateLimit, time.Minute))
		}
		if deps.StudentHandler != nil {
			deps.StudentHandler.Register(students)
		}
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/courses", staff...))
	}

	if deps.DiaryHandler != nil {
		deps.DiaryHandler.Register(api.Group("/diary", staff...))
	}

	if deps.ObservationHandler != nil {
		deps.ObservationHandler.Register(api.Group("/observations", staff...))
	}

	if deps.AgendaHandler != nil {
		deps.AgendaHandler.Register(api.Group("/agenda", staff...))
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(api.Group("/reports", staff...))
	}
}
