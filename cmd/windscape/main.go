// Package main provides the windscape CLI for catalog management.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/windscape/windscape/pkg/catalog"
	"github.com/windscape/windscape/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "windscape",
		Usage:                 "Windscape workflow tooling",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "catalog",
				Usage: "Inspect and validate step catalogs",
				Commands: []*cli.Command{
					{
						Name:      "validate",
						Usage:     "Validate a YAML step catalog file",
						ArgsUsage: "<catalog.yaml>",
						Action: func(ctx context.Context, command *cli.Command) error {
							log.Setup(command.String("log-level"))

							path := command.Args().First()
							if path == "" {
								return fmt.Errorf("catalog path is required")
							}

							cat, err := catalog.Load(path)
							if err != nil {
								return err
							}

							fmt.Printf("catalog is valid: %d steps, %d required\n",
								cat.Len(), len(cat.RequiredStepIDs()))

							return nil
						},
					},
					{
						Name:  "show",
						Usage: "Print the built-in analysis catalog",
						Action: func(ctx context.Context, command *cli.Command) error {
							for _, step := range catalog.Default().Steps() {
								optional := ""
								if step.Optional {
									optional = " (optional)"
								}

								fmt.Printf("%-22s %-14s %-12s prereqs=%v%s\n",
									step.ID, step.Category, step.Complexity, step.Prerequisites, optional)
							}

							return nil
						},
					},
				},
			},
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
