package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/windscape/windscape/pkg/catalog"
	"github.com/windscape/windscape/pkg/cmd"
	"github.com/windscape/windscape/pkg/disclosure"
	"github.com/windscape/windscape/pkg/log"
	"github.com/windscape/windscape/pkg/otelhelper"
	"github.com/windscape/windscape/pkg/services"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "windscape-api",
		Usage:                 "Serve the guided site-analysis workflow API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Session store URL (file://, redis:// or postgres://)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "Path to a YAML step catalog; the built-in catalog is used when empty",
				Sources: cli.EnvVars("CATALOG_PATH"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.DurationFlag{
				Name:    "session-max-idle",
				Usage:   "Idle duration after which sessions are swept",
				Value:   24 * time.Hour,
				Sources: cli.EnvVars("SESSION_MAX_IDLE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing (needs an OTLP endpoint configured)",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Windscape API")

			cat := catalog.Default()

			if path := command.String("catalog"); path != "" {
				loaded, err := catalog.Load(path)
				if err != nil {
					return err
				}

				cat = loaded
			}

			store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "windscape-api", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			opts := []services.SessionOption{
				services.WithEventPublisher(eventBus),
				services.WithServiceLogger(logger),
			}

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "windscape-api")
				if err != nil {
					return err
				}

				opts = append(opts, services.WithTracer(tracer))
			}

			sessionService := services.NewSession(store, cat, disclosure.NewDefaultEngine(cat), opts...)

			janitor := services.NewJanitor(sessionService, command.Duration("session-max-idle"), "", logger)
			if err := janitor.Start(ctx); err != nil {
				return err
			}
			defer janitor.Stop()

			api := NewAPI(logger, sessionService)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
