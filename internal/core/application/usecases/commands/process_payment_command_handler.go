package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/payment"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"
)

const DefaultBookingMaxAttempts = 5

type ProcessPaymentResult struct {
	ShipmentID        kernel.UUID
	Status            shipment.Status
	PaymentStatus     shipment.PaymentStatus
	PaymentReference  string
	CarrierTrackingID string
	LabelURL          string
	NeedsSupport      bool
	// Reason is ReasonNone on a clean run, ReasonAlreadyPaid for a repeat call and
	// ReasonBookingFailedAfterPayment when money was taken but the carrier did not
	// confirm or the outcome could not be stored. Once capture succeeds Handle
	// never returns an error.
	Reason errs.ReasonCode
}

// ProcessPaymentCommandHandler captures payment for a shipment and then books
// it. Capture always happens before booking and a booking failure never
// reverses the capture.
//
// Example:
//
//	res, err := handler.Handle(ctx, cmd)
//	switch {
//	case err != nil:
//	    // errs.ReasonOf(err) is payment_amount_mismatch, payment_failed, ...
//	case res.Reason == errs.ReasonBookingFailedAfterPayment:
//	    // paid, staff notified, booking retried by the scheduler
//	}
type ProcessPaymentCommandHandler struct {
	uowFactory PaymentUoWFactory
	payments   ports.PaymentGateway
	notifier   ports.Notifier
	locker     ShipmentLocker
	booker     booker
	logger     *slog.Logger
}

func NewProcessPaymentCommandHandler(
	uowFactory PaymentUoWFactory,
	payments ports.PaymentGateway,
	registry ports.CarrierRegistry,
	notifier ports.Notifier,
	locker ShipmentLocker,
	bookingMaxAttempts int,
	logger *slog.Logger,
) ProcessPaymentCommandHandler {
	if bookingMaxAttempts <= 0 {
		bookingMaxAttempts = DefaultBookingMaxAttempts
	}
	logger = logger.With("component", "ProcessPayment")
	return ProcessPaymentCommandHandler{
		uowFactory: uowFactory,
		payments:   payments,
		notifier:   notifier,
		locker:     locker,
		booker: booker{
			registry:    registry,
			notifier:    notifier,
			maxAttempts: bookingMaxAttempts,
			logger:      logger,
		},
		logger: logger,
	}
}

func (h *ProcessPaymentCommandHandler) Handle(ctx context.Context, cmd ProcessPaymentCommand) (ProcessPaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return ProcessPaymentResult{}, err
	}

	unlock := h.locker.Lock(cmd.ShipmentID().String())
	defer unlock()

	s, record, err := h.startAttempt(ctx, cmd)
	if err != nil {
		return ProcessPaymentResult{}, err
	}
	if record == nil {
		return resultOf(s, errs.ReasonAlreadyPaid), nil
	}

	capture, captureErr := h.payments.Capture(ctx, ports.CaptureRequest{
		Amount:         record.Amount(),
		Method:         cmd.Method(),
		IdempotencyKey: record.IdempotencyKey(),
		Description:    "Shipment " + s.TrackingCode().String(),
		Metadata: map[string]string{
			"shipmentId":   s.ID().String(),
			"trackingCode": s.TrackingCode().String(),
		},
	})
	if captureErr == nil && !capture.Success {
		captureErr = fmt.Errorf("%w: %s", errs.ErrPaymentFailed, capture.FailureReason)
	}
	if captureErr != nil {
		return h.fail(ctx, s, record, capture.TransactionID, captureErr)
	}

	if err = h.completeAttempt(ctx, s, record, capture.TransactionID); err != nil {
		return h.captureNotStored(ctx, s, capture.TransactionID, err), nil
	}

	notify(ctx, h.notifier, h.logger, s.RequesterID(), ports.NotifyPaymentSucceeded, shipmentPayload(s))

	err = h.booker.book(ctx, s, func(ctx context.Context, s *shipment.Shipment) error {
		return saveShipment(ctx, h.uowFactory.Create(), s)
	})
	if err == nil {
		return resultOf(s, errs.ReasonNone), nil
	}
	if !errors.Is(err, errs.ErrBookingFailedAfterPayment) {
		h.logger.ErrorContext(ctx, "booking aborted after payment", "shipment", s.ID(), "error", err)
	}
	res := resultOf(s, errs.ReasonBookingFailedAfterPayment)
	res.NeedsSupport = true
	return res, nil
}

// captureNotStored answers a request whose money was taken but whose paid
// state could not be written. Staff get the transaction id; booking waits for them.
func (h *ProcessPaymentCommandHandler) captureNotStored(
	ctx context.Context,
	s *shipment.Shipment,
	transactionID string,
	cause error,
) ProcessPaymentResult {
	h.logger.ErrorContext(ctx, "payment captured but not stored",
		"shipment", s.ID(), "transaction", transactionID, "error", cause)

	payload := shipmentPayload(s)
	payload["paymentReference"] = transactionID
	payload["error"] = cause.Error()
	notify(ctx, h.notifier, h.logger, ports.StaffRecipient, ports.NotifyNeedsSupport, payload)

	res := resultOf(s, errs.ReasonBookingFailedAfterPayment)
	res.PaymentStatus = shipment.Paid
	res.PaymentReference = transactionID
	res.NeedsSupport = true
	return res
}

// startAttempt validates the amount and stores a pending record together with
// the bumped attempt counter. A nil record means the shipment is already paid.
func (h *ProcessPaymentCommandHandler) startAttempt(ctx context.Context, cmd ProcessPaymentCommand) (*shipment.Shipment, *payment.Record, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	s, err := uow.ShipmentRepository().Get(ctx, cmd.ShipmentID())
	if err != nil {
		return nil, nil, err
	}
	if s.IsPaid() {
		return s, nil, nil
	}
	if !s.HasCarrier() {
		return nil, nil, fmt.Errorf("%w: shipment %s has no carrier selected", errs.ErrInvalidState, s.ID())
	}
	if err = payment.CheckAmount(cmd.Amount(), s.Price()); err != nil {
		return nil, nil, err
	}

	attempt, err := s.NextPaymentAttempt()
	if err != nil {
		return nil, nil, err
	}

	metadata := map[string]any{"submittedAmount": cmd.Amount().String()}
	for k, v := range cmd.Metadata() {
		metadata[k] = v
	}

	record, err := payment.NewRecord(
		kernel.NewUUID(),
		s.ID(),
		s.Price(),
		cmd.Method(),
		h.payments.Provider(),
		payment.IdempotencyKey(s.ID(), attempt),
		metadata,
		time.Now(),
	)
	if err != nil {
		return nil, nil, err
	}

	if err = uow.PaymentRepository().Add(ctx, record); err != nil {
		return nil, nil, err
	}
	if err = uow.ShipmentRepository().Update(ctx, s); err != nil {
		return nil, nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return s, record, nil
}

func (h *ProcessPaymentCommandHandler) completeAttempt(ctx context.Context, s *shipment.Shipment, record *payment.Record, transactionID string) error {
	now := time.Now()
	if err := errors.Join(record.Complete(transactionID, now), s.MarkPaid(transactionID, now)); err != nil {
		return err
	}
	return storeWithRetry(ctx, h.logger, "completed payment", func(ctx context.Context) error {
		return h.persist(ctx, s, record)
	})
}

func (h *ProcessPaymentCommandHandler) fail(
	ctx context.Context,
	s *shipment.Shipment,
	record *payment.Record,
	transactionID string,
	cause error,
) (ProcessPaymentResult, error) {
	h.logger.WarnContext(ctx, "payment failed", "shipment", s.ID(), "attempt", s.PaymentAttempts(), "error", cause)

	now := time.Now()
	if err := errors.Join(record.Fail(transactionID, cause.Error(), now), s.RecordPaymentFailure(cause.Error(), now)); err != nil {
		return ProcessPaymentResult{}, err
	}
	if err := h.persist(ctx, s, record); err != nil {
		return ProcessPaymentResult{}, err
	}

	payload := shipmentPayload(s)
	payload["reason"] = cause.Error()
	notify(ctx, h.notifier, h.logger, s.RequesterID(), ports.NotifyPaymentFailed, payload)

	if !errors.Is(cause, errs.ErrPaymentFailed) {
		cause = fmt.Errorf("%w: %w", errs.ErrPaymentFailed, cause)
	}
	return resultOf(s, errs.ReasonPaymentFailed), cause
}

func (h *ProcessPaymentCommandHandler) persist(ctx context.Context, s *shipment.Shipment, record *payment.Record) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.PaymentRepository().Update(ctx, record); err != nil {
		return err
	}
	if err := uow.ShipmentRepository().Update(ctx, s); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func resultOf(s *shipment.Shipment, reason errs.ReasonCode) ProcessPaymentResult {
	return ProcessPaymentResult{
		ShipmentID:        s.ID(),
		Status:            s.Status(),
		PaymentStatus:     s.PaymentStatus(),
		PaymentReference:  s.PaymentReference(),
		CarrierTrackingID: s.CarrierTrackingID(),
		LabelURL:          s.LabelURL(),
		NeedsSupport:      s.NeedsSupport(),
		Reason:            reason,
	}
}
