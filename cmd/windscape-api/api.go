// Package main provides the Windscape API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/windscape/windscape/pkg/services"
	"github.com/windscape/windscape/pkg/web"
)

type API struct {
	logger         *slog.Logger
	sessionService *services.Session
	validate       *validator.Validate
}

func NewAPI(logger *slog.Logger, sessionService *services.Session) *API {
	return &API{
		logger:         logger,
		sessionService: sessionService,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.sessionService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Windscape API")
	})

	app.Get("/catalog", handlers.GetCatalog)

	s := app.Group("/sessions")
	s.Get("/", handlers.GetSessions)
	s.Post("/", handlers.CreateSession)
	s.Get("/:id", handlers.GetSession)
	s.Delete("/:id", handlers.DeleteSession)
	s.Post("/:id/steps/:stepId/start", handlers.StartStep)
	s.Post("/:id/steps/:stepId/complete", handlers.CompleteStep)
	s.Post("/:id/steps/:stepId/advance", handlers.AdvanceTo)
	s.Post("/:id/complexity/accept", handlers.AcceptUpgrade)
	s.Get("/:id/evaluation", handlers.GetEvaluation)
	s.Get("/:id/events", handlers.GetEvents)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
