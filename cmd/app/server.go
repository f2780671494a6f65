package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"shipping/cmd"
	apihttp "shipping/internal/adapters/in/http"
	"shipping/internal/adapters/out/postgres"
	"shipping/internal/jobs"
)

func runServer(ctx context.Context, migrate bool) error {
	cfg := cmd.LoadConfig()
	logger := cfg.NewLogger()

	if migrate {
		if err := postgres.Migrate(cfg.DSN(), logger); err != nil {
			return err
		}
	}

	app, closeApp, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer closeApp()

	createDraft, err := app.CreateCreateDraftCommandHandler()
	if err != nil {
		return err
	}
	selectCarrier := app.CreateSelectCarrierCommandHandler()
	processPayment := app.CreateProcessPaymentCommandHandler()
	syncTracking := app.CreateSyncTrackingCommandHandler()
	syncAll := app.CreateSyncAllTrackingCommandHandler()
	retryBooking := app.CreateRetryBookingCommandHandler()
	activate := app.CreateActivateRateTableCommandHandler()

	server := apihttp.NewServer(apihttp.Handlers{
		GetQuote:          app.CreateGetQuoteQueryHandler(),
		GetShipment:       app.CreateGetShipmentQueryHandler(),
		CreateDraft:       &createDraft,
		SelectCarrier:     &selectCarrier,
		ProcessPayment:    &processPayment,
		SyncTracking:      &syncTracking,
		SyncAllTracking:   &syncAll,
		RetryBooking:      &retryBooking,
		ActivateRateTable: &activate,
	}, cfg.Currency, logger.With("component", "http"))

	e, err := apihttp.NewRouter(ctx, server, apihttp.RouterConfig{
		Logger:         logger.With("component", "http"),
		MeterProvider:  app.Metrics().MeterProvider(),
		MetricsHandler: app.Metrics().Handler(),
		Namespace:      cfg.MetricsNamespace,
	})
	if err != nil {
		return err
	}

	if cfg.JobsEnabled {
		jobManager := jobs.NewJobManager(&syncAll, &retryBooking, jobs.Config{
			TrackingSyncSchedule: cfg.TrackingSyncSchedule,
			TrackingSyncLimit:    cfg.TrackingSyncLimit,
			BookingRetrySchedule: cfg.BookingRetrySchedule,
			BookingRetryLimit:    cfg.BookingRetryLimit,
		}, logger)
		if err = jobManager.StartAll(); err != nil {
			return err
		}
		defer jobManager.StopAll()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", cfg.HTTPPort)
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err = <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
