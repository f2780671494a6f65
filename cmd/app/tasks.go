package main

import (
	"context"
	"fmt"
	"log/slog"

	"shipping/cmd"
	"shipping/internal/adapters/out/postgres"
	"shipping/internal/core/application/usecases/commands"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newApp opens the database and builds the composition root. The returned
// func releases both.
func newApp(cfg cmd.Config, logger *slog.Logger) (*cmd.CompositionRoot, func(), error) {
	db, err := gorm.Open(pgdriver.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	app, err := cmd.NewCompositionRoot(cfg, db, logger)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}

	return app, func() {
		if err := app.Close(context.Background()); err != nil {
			logger.Error("close adapters", "error", err)
		}
		_ = sqlDB.Close()
	}, nil
}

func runMigrations(down int) error {
	cfg := cmd.LoadConfig()
	logger := cfg.NewLogger()

	if down > 0 {
		return postgres.MigrateDown(cfg.DSN(), down, logger)
	}
	return postgres.Migrate(cfg.DSN(), logger)
}

func runSyncTracking(ctx context.Context, limit int) error {
	cfg := cmd.LoadConfig()
	logger := cfg.NewLogger()

	app, closeApp, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer closeApp()

	command, err := commands.NewSyncAllTrackingCommand(limit)
	if err != nil {
		return err
	}
	handler := app.CreateSyncAllTrackingCommandHandler()
	res, err := handler.Handle(ctx, command)
	if err != nil {
		return err
	}

	logger.Info("tracking sync finished",
		"processed", res.Processed,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"changed", res.Changed,
	)
	return nil
}

func runRetryBookings(ctx context.Context, limit int) error {
	cfg := cmd.LoadConfig()
	logger := cfg.NewLogger()

	app, closeApp, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer closeApp()

	command, err := commands.NewRetryBookingCommand(limit)
	if err != nil {
		return err
	}
	handler := app.CreateRetryBookingCommandHandler()
	res, err := handler.Handle(ctx, command)
	if err != nil {
		return err
	}

	logger.Info("booking retry finished", "processed", res.Processed, "booked", res.Booked, "failed", res.Failed)
	return nil
}

func runActivateRateTable(ctx context.Context, carrier string, version int) error {
	cfg := cmd.LoadConfig()
	logger := cfg.NewLogger()

	app, closeApp, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer closeApp()

	command, err := commands.NewActivateRateTableCommand(carrier, version)
	if err != nil {
		return err
	}
	handler := app.CreateActivateRateTableCommandHandler()
	table, err := handler.Handle(ctx, command)
	if err != nil {
		return err
	}

	logger.Info("rate table activated",
		"carrier", table.Carrier(),
		"version", table.Version(),
		"effectiveFrom", table.EffectiveFrom(),
	)
	return nil
}
