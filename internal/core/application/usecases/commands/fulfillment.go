package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"
)

const storeAttempts = 3

var storeBackoff = 50 * time.Millisecond

// storeWithRetry runs a write that follows a successful capture. It ignores
// caller cancellation and retries everything except optimistic-lock conflicts.
func storeWithRetry(ctx context.Context, logger *slog.Logger, what string, store func(context.Context) error) error {
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= storeAttempts; attempt++ {
		if err = store(ctx); err == nil || errors.Is(err, errs.ErrConcurrentModification) {
			return err
		}
		logger.WarnContext(ctx, "post-capture write failed", "write", what, "attempt", attempt, "error", err)
		if attempt < storeAttempts {
			time.Sleep(time.Duration(attempt) * storeBackoff)
		}
	}
	return err
}

// saveShipment writes one shipment in its own transaction.
func saveShipment(ctx context.Context, uow ShipmentUoW, s *shipment.Shipment) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.ShipmentRepository().Update(ctx, s); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// notify delivers a notification and logs instead of failing.
func notify(ctx context.Context, n ports.Notifier, logger *slog.Logger, userID string, kind ports.NotificationKind, payload map[string]any) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, userID, kind, payload); err != nil {
		logger.WarnContext(ctx, "notification dropped", "kind", kind, "user", userID, "error", err)
	}
}

func shipmentPayload(s *shipment.Shipment) map[string]any {
	return map[string]any{
		"shipmentId":   s.ID().String(),
		"trackingCode": s.TrackingCode().String(),
		"status":       s.Status().String(),
		"carrier":      s.Carrier(),
	}
}

// booker books a paid shipment with its carrier. A failure never touches
// payment: the shipment keeps paid/processing and is flagged for support.
type booker struct {
	registry    ports.CarrierRegistry
	notifier    ports.Notifier
	maxAttempts int
	logger      *slog.Logger
}

// book returns errs.ErrBookingFailedAfterPayment when the carrier did not
// confirm or the outcome could not be stored. save persists the shipment
// after either outcome; staff hear about every outcome that was not stored.
func (b booker) book(
	ctx context.Context,
	s *shipment.Shipment,
	save func(context.Context, *shipment.Shipment) error,
) error {
	booking, bookErr := b.callCarrier(ctx, s)
	now := time.Now().UTC()

	if bookErr == nil {
		if err := s.MarkBooked(booking.CarrierTrackingID, booking.LabelURL, now); err != nil {
			return err
		}
		err := storeWithRetry(ctx, b.logger, "booking", func(ctx context.Context) error { return save(ctx, s) })
		if err != nil {
			b.logger.ErrorContext(ctx, "booking confirmed but not stored",
				"shipment", s.ID(), "carrierTrackingId", booking.CarrierTrackingID, "error", err)
			payload := b.staffPayload(s, err)
			payload["carrierTrackingId"] = booking.CarrierTrackingID
			payload["labelUrl"] = booking.LabelURL
			notify(ctx, b.notifier, b.logger, ports.StaffRecipient, ports.NotifyNeedsSupport, payload)
			return fmt.Errorf("%w: booking %s not stored: %w", errs.ErrBookingFailedAfterPayment, booking.CarrierTrackingID, err)
		}
		b.logger.InfoContext(ctx, "shipment booked", "shipment", s.ID(), "carrier", s.Carrier())
		return nil
	}

	b.logger.WarnContext(ctx, "booking failed after payment", "shipment", s.ID(), "carrier", s.Carrier(), "error", bookErr)

	note := fmt.Sprintf("booking attempt %d failed: %v", s.BookingAttempts()+1, bookErr)
	if err := s.FlagBookingFailure(note, now); err != nil {
		return err
	}

	err := storeWithRetry(ctx, b.logger, "support flag", func(ctx context.Context) error { return save(ctx, s) })
	if err != nil {
		b.logger.ErrorContext(ctx, "support flag not stored", "shipment", s.ID(), "error", err)
		payload := b.staffPayload(s, bookErr)
		payload["storeError"] = err.Error()
		notify(ctx, b.notifier, b.logger, ports.StaffRecipient, ports.NotifyNeedsSupport, payload)
		return fmt.Errorf("%w: %w", errs.ErrBookingFailedAfterPayment, errors.Join(bookErr, err))
	}

	if s.BookingAttempts() == 1 || s.BookingAttempts() >= b.maxAttempts {
		notify(ctx, b.notifier, b.logger, ports.StaffRecipient, ports.NotifyBookingFailed, b.staffPayload(s, bookErr))
	}

	return fmt.Errorf("%w: %w", errs.ErrBookingFailedAfterPayment, bookErr)
}

func (b booker) staffPayload(s *shipment.Shipment, cause error) map[string]any {
	payload := shipmentPayload(s)
	payload["attempts"] = s.BookingAttempts()
	payload["error"] = cause.Error()
	payload["paymentReference"] = s.PaymentReference()
	return payload
}

func (b booker) callCarrier(ctx context.Context, s *shipment.Shipment) (ports.Booking, error) {
	gw, err := b.registry.Get(s.Carrier())
	if err != nil {
		return ports.Booking{}, err
	}
	return gw.BookShipment(ctx, s)
}
