package commands

import (
	"context"
	"errors"
	"log/slog"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"
)

type RetryBookingResult struct {
	Processed int
	Booked    int
	Failed    int
}

// RetryBookingCommandHandler re-attempts carrier booking for paid shipments
// flagged for support. It never calls the payment provider.
type RetryBookingCommandHandler struct {
	uowFactory  ShipmentUoWFactory
	locker      ShipmentLocker
	booker      booker
	maxAttempts int
	logger      *slog.Logger
}

func NewRetryBookingCommandHandler(
	uowFactory ShipmentUoWFactory,
	registry ports.CarrierRegistry,
	notifier ports.Notifier,
	locker ShipmentLocker,
	maxAttempts int,
	logger *slog.Logger,
) RetryBookingCommandHandler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultBookingMaxAttempts
	}
	logger = logger.With("component", "RetryBooking")
	return RetryBookingCommandHandler{
		uowFactory: uowFactory,
		locker:     locker,
		booker: booker{
			registry:    registry,
			notifier:    notifier,
			maxAttempts: maxAttempts,
			logger:      logger,
		},
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (h *RetryBookingCommandHandler) Handle(ctx context.Context, cmd RetryBookingCommand) (RetryBookingResult, error) {
	if err := cmd.Validate(); err != nil {
		return RetryBookingResult{}, err
	}

	pending, err := h.uowFactory.Create().ShipmentRepository().ListAwaitingBooking(ctx, h.maxAttempts, cmd.Limit())
	if err != nil {
		return RetryBookingResult{}, err
	}

	var res RetryBookingResult
	for _, candidate := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		booked, err := h.retryOne(ctx, candidate.ID())
		if err != nil && !errors.Is(err, errs.ErrBookingFailedAfterPayment) {
			h.logger.ErrorContext(ctx, "booking retry aborted", "shipment", candidate.ID(), "error", err)
		}
		if !booked && err == nil {
			continue
		}

		res.Processed++
		if booked {
			res.Booked++
		} else {
			res.Failed++
		}
	}

	return res, nil
}

// retryOne re-reads the shipment under its lock so a concurrent booking is never repeated.
func (h *RetryBookingCommandHandler) retryOne(ctx context.Context, id kernel.UUID) (bool, error) {
	unlock := h.locker.Lock(id.String())
	defer unlock()

	s, err := h.uowFactory.Create().ShipmentRepository().Get(ctx, id)
	if err != nil {
		return false, err
	}
	if s.IsBooked() || !s.NeedsSupport() || s.BookingAttempts() >= h.maxAttempts {
		return false, nil
	}

	err = h.booker.book(ctx, s, func(ctx context.Context, s *shipment.Shipment) error {
		return saveShipment(ctx, h.uowFactory.Create(), s)
	})
	return err == nil, err
}
