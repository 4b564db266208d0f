// Package main provides the Windscape analytics exporter: it consumes
// session events from the bus and emits them as structured analytics logs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/windscape/windscape/pkg/cmd"
	"github.com/windscape/windscape/pkg/log"
)

func main() {
	logger := log.WithModule("exporter")

	command := &cli.Command{
		Name:                  "windscape-exporter",
		Usage:                 "Export session workflow events for analytics",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS"),
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

			logger.InfoContext(ctx, "Initializing Windscape exporter")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "windscape-exporter", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			exporter := NewExporter(logger, eventBus)

			if err := exporter.Run(ctx); err != nil {
				return err
			}

			<-ctx.Done()

			logger.InfoContext(ctx, "Shutting down exporter")

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
