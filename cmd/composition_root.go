package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"shipping/internal/adapters/out/badger/quotecache"
	"shipping/internal/adapters/out/carrier"
	"shipping/internal/adapters/out/carrier/fedex"
	"shipping/internal/adapters/out/carrier/ups"
	"shipping/internal/adapters/out/notify"
	"shipping/internal/adapters/out/postgres"
	"shipping/internal/adapters/out/stripe"
	"shipping/internal/core/application/rates"
	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/application/usecases/queries"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/domain/services"
	"shipping/internal/core/ports"
	"shipping/internal/metrics"
	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/keylock"

	"gorm.io/gorm"
)

// CompositionRoot builds every adapter once per process and hands out use case handlers.
type CompositionRoot struct {
	cfg        Config
	logger     *slog.Logger
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory

	metrics  *metrics.Provider
	business metrics.BusinessMetrics
	registry *carrier.Registry
	engine   *rates.Engine
	quotes   *quotecache.Cache
	payments ports.PaymentGateway
	notifier ports.Notifier
	locker   *keylock.KeyedMutex

	closers []io.Closer
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:        cfg,
		logger:     logger,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		locker:     keylock.New(),
	}

	if err := c.build(); err != nil {
		_ = c.Close(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *CompositionRoot) build() error {
	provider, err := metrics.NewProvider()
	if err != nil {
		return fmt.Errorf("metrics provider: %w", err)
	}
	c.metrics = provider

	if c.business, err = metrics.NewBusinessMetrics(provider.MeterProvider(), c.cfg.MetricsNamespace); err != nil {
		return fmt.Errorf("business metrics: %w", err)
	}

	fallback := carrier.NewFallbackRater(
		carrier.RateTablesFunc(c.listRateTables),
		services.NewFallbackPricer(c.cfg.RemoteDistanceKm),
	)

	if c.registry, err = c.buildRegistry(fallback); err != nil {
		return err
	}

	markups, err := c.cfg.Markups()
	if err != nil {
		return err
	}
	if c.engine, err = rates.NewEngine(c.registry, fallback, markups, c.cfg.CarrierTimeout, c.business, c.logger); err != nil {
		return fmt.Errorf("rate engine: %w", err)
	}

	if c.quotes, err = quotecache.Open(c.cfg.QuoteCacheDir, c.logger); err != nil {
		return fmt.Errorf("quote cache: %w", err)
	}
	c.closers = append(c.closers, c.quotes)

	if c.payments, err = c.buildPayments(); err != nil {
		return err
	}

	if c.notifier, err = c.buildNotifier(); err != nil {
		return err
	}
	return nil
}

func (c *CompositionRoot) buildRegistry(fallback ports.FallbackRateSource) (*carrier.Registry, error) {
	var gateways []ports.CarrierGateway

	if c.cfg.FedExClientID != "" {
		gw, err := fedex.NewGateway(fedex.Config{
			BaseURL:       c.cfg.FedExBaseURL,
			ClientID:      c.cfg.FedExClientID,
			ClientSecret:  c.cfg.FedExClientSecret,
			AccountNumber: c.cfg.FedExAccountNumber,
			Timeout:       c.cfg.CarrierTimeout,
			RatePerSecond: c.cfg.FedExRatePerSecond,
		}, fallback, c.logger)
		if err != nil {
			return nil, fmt.Errorf("fedex gateway: %w", err)
		}
		gateways = append(gateways, gw)
	} else {
		c.logger.Warn("fedex credentials missing, carrier disabled")
	}

	if c.cfg.UPSClientID != "" {
		gw, err := ups.NewGateway(ups.Config{
			BaseURL:       c.cfg.UPSBaseURL,
			ClientID:      c.cfg.UPSClientID,
			ClientSecret:  c.cfg.UPSClientSecret,
			AccountNumber: c.cfg.UPSAccountNumber,
			Timeout:       c.cfg.CarrierTimeout,
			RatePerSecond: c.cfg.UPSRatePerSecond,
		}, fallback, c.logger)
		if err != nil {
			return nil, fmt.Errorf("ups gateway: %w", err)
		}
		gateways = append(gateways, gw)
	} else {
		c.logger.Warn("ups credentials missing, carrier disabled")
	}

	return carrier.NewRegistry(gateways...)
}

func (c *CompositionRoot) buildPayments() (ports.PaymentGateway, error) {
	if c.cfg.StripeSecretKey == "" {
		c.logger.Warn("stripe secret key missing, payments disabled")
		return unavailablePayments{}, nil
	}
	gw, err := stripe.NewGateway(stripe.Config{
		SecretKey:         c.cfg.StripeSecretKey,
		BaseURL:           c.cfg.StripeBaseURL,
		MaxNetworkRetries: int64(c.cfg.StripeMaxNetworkRetries),
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("stripe gateway: %w", err)
	}
	return gw, nil
}

// buildNotifier always logs; the configured driver is added next to it.
func (c *CompositionRoot) buildNotifier() (ports.Notifier, error) {
	logNotifier := notify.NewLogNotifier(c.logger)

	switch c.cfg.NotifyDriver {
	case NotifyDriverLog, "":
		return logNotifier, nil
	case NotifyDriverKafka:
		kafka := notify.NewKafkaNotifier(c.cfg.Brokers(), c.cfg.KafkaTopic)
		c.closers = append(c.closers, kafka)
		return notify.Multi{logNotifier, kafka}, nil
	case NotifyDriverRabbitMQ:
		rabbit, err := notify.DialRabbitNotifier(c.cfg.RabbitMQURL, c.cfg.RabbitMQQueue)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq notifier: %w", err)
		}
		c.closers = append(c.closers, rabbit)
		return notify.Multi{logNotifier, rabbit}, nil
	default:
		return nil, fmt.Errorf("unknown NOTIFY_DRIVER %q", c.cfg.NotifyDriver)
	}
}

func (c *CompositionRoot) listRateTables(ctx context.Context, carrierCode string) ([]*rate.Table, error) {
	return c.uowFactory.Create().RateTableRepository().ListByCarrier(ctx, carrierCode)
}

func (c *CompositionRoot) Logger() *slog.Logger         { return c.logger }
func (c *CompositionRoot) Metrics() *metrics.Provider   { return c.metrics }
func (c *CompositionRoot) Registry() *carrier.Registry  { return c.registry }
func (c *CompositionRoot) Notifier() ports.Notifier     { return c.notifier }
func (c *CompositionRoot) QuoteCache() ports.QuoteCache { return c.quotes }

// Close releases the quote cache, notifier connections and metrics provider.
func (c *CompositionRoot) Close(ctx context.Context) error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errList = append(errList, c.closers[i].Close())
	}
	if c.metrics != nil {
		errList = append(errList, c.metrics.Shutdown(ctx))
	}
	return errors.Join(errList...)
}

func (c *CompositionRoot) shipmentUoWFactory() commands.ShipmentUoWFactory {
	return FuncShipmentUoWFactory(func() commands.ShipmentUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateDraftCommandHandler() (commands.CreateDraftCommandHandler, error) {
	defaultPrice, err := kernel.NewMoneyFromString(c.cfg.DefaultDraftPrice, c.cfg.Currency)
	if err != nil {
		return commands.CreateDraftCommandHandler{}, fmt.Errorf("DEFAULT_DRAFT_PRICE: %w", err)
	}
	return commands.NewCreateDraftCommandHandler(c.shipmentUoWFactory(), c.locker, defaultPrice, nil), nil
}

func (c *CompositionRoot) CreateSelectCarrierCommandHandler() commands.SelectCarrierCommandHandler {
	return commands.NewSelectCarrierCommandHandler(c.shipmentUoWFactory(), c.quotes, c.registry, c.locker)
}

func (c *CompositionRoot) CreateProcessPaymentCommandHandler() commands.ProcessPaymentCommandHandler {
	var f commands.PaymentUoWFactory = FuncPaymentUoWFactory(func() commands.PaymentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewProcessPaymentCommandHandler(
		f, c.payments, c.registry, c.notifier, c.locker, c.cfg.BookingMaxAttempts, c.logger,
	)
}

func (c *CompositionRoot) CreateRetryBookingCommandHandler() commands.RetryBookingCommandHandler {
	return commands.NewRetryBookingCommandHandler(
		c.shipmentUoWFactory(), c.registry, c.notifier, c.locker, c.cfg.BookingMaxAttempts, c.logger,
	)
}

func (c *CompositionRoot) CreateSyncTrackingCommandHandler() commands.SyncTrackingCommandHandler {
	return commands.NewSyncTrackingCommandHandler(c.shipmentUoWFactory(), c.registry, c.notifier, c.locker, c.logger)
}

func (c *CompositionRoot) CreateSyncAllTrackingCommandHandler() commands.SyncAllTrackingCommandHandler {
	syncOne := c.CreateSyncTrackingCommandHandler()
	return commands.NewSyncAllTrackingCommandHandler(
		c.shipmentUoWFactory(), c.registry, &syncOne, c.cfg.TrackingConcurrency, c.logger,
	)
}

func (c *CompositionRoot) CreateActivateRateTableCommandHandler() commands.ActivateRateTableCommandHandler {
	var f commands.RateTableUoWFactory = FuncRateTableUoWFactory(func() commands.RateTableUoW {
		return c.uowFactory.Create()
	})
	return commands.NewActivateRateTableCommandHandler(f)
}

func (c *CompositionRoot) CreateGetShipmentQueryHandler() queries.GetShipmentQueryHandler {
	return queries.NewGetShipmentQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetQuoteQueryHandler() queries.GetQuoteQueryHandler {
	return queries.NewGetQuoteQueryHandler(c.engine, c.quotes, c.logger)
}

type FuncShipmentUoWFactory func() commands.ShipmentUoW

func (f FuncShipmentUoWFactory) Create() commands.ShipmentUoW {
	return f()
}

type FuncPaymentUoWFactory func() commands.PaymentUoW

func (f FuncPaymentUoWFactory) Create() commands.PaymentUoW {
	return f()
}

type FuncRateTableUoWFactory func() commands.RateTableUoW

func (f FuncRateTableUoWFactory) Create() commands.RateTableUoW {
	return f()
}

// unavailablePayments stands in when no payment provider is configured.
type unavailablePayments struct{}

func (unavailablePayments) Provider() string { return "none" }

func (unavailablePayments) Capture(context.Context, ports.CaptureRequest) (ports.CaptureResult, error) {
	return ports.CaptureResult{}, fmt.Errorf("no payment provider configured: %w", errs.ErrPaymentProviderDown)
}
