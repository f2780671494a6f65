package main

import (
	"context"
	"os"

	"github.com/labstack/gommon/log"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "shipping",
		Usage: "Multi-carrier rating, fulfilment and tracking service",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP API and the scheduled jobs",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "migrate",
						Value: true,
						Usage: "Apply pending migrations before serving",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runServer(ctx, cmd.Bool("migrate"))
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "down",
						Usage: "Roll back this many migrations instead of applying",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runMigrations(cmd.Int("down"))
				},
			},
			{
				Name:  "sync-tracking",
				Usage: "Pull carrier tracking for every trackable shipment once",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 500,
						Usage: "Maximum shipments to process",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runSyncTracking(ctx, cmd.Int("limit"))
				},
			},
			{
				Name:  "retry-bookings",
				Usage: "Re-attempt carrier booking for paid shipments flagged for support",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 100,
						Usage: "Maximum shipments to process",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runRetryBookings(ctx, cmd.Int("limit"))
				},
			},
			{
				Name:  "activate-rate-table",
				Usage: "Make one stored rate table version the active one",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "carrier",
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "Carrier code, e.g. fedex",
					},
					&cli.IntFlag{
						Name:     "version",
						Required: true,
						Usage:    "Table version to activate",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runActivateRateTable(ctx, cmd.String("carrier"), cmd.Int("version"))
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("shipping: %v", err)
	}
}
