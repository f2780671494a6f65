package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"
)

type SyncTrackingResult struct {
	ShipmentID kernel.UUID
	Status     shipment.Status
	Changed    bool
	// History is newest-first.
	History []shipment.TrackingEntry
}

// SyncTrackingCommandHandler pulls the carrier's view of one shipment. The
// stored history is replaced only when the carrier reports a new status.
type SyncTrackingCommandHandler struct {
	uowFactory ShipmentUoWFactory
	registry   ports.CarrierRegistry
	notifier   ports.Notifier
	locker     ShipmentLocker
	logger     *slog.Logger
}

func NewSyncTrackingCommandHandler(
	uowFactory ShipmentUoWFactory,
	registry ports.CarrierRegistry,
	notifier ports.Notifier,
	locker ShipmentLocker,
	logger *slog.Logger,
) SyncTrackingCommandHandler {
	return SyncTrackingCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		notifier:   notifier,
		locker:     locker,
		logger:     logger.With("component", "SyncTracking"),
	}
}

func (h *SyncTrackingCommandHandler) Handle(ctx context.Context, cmd SyncTrackingCommand) (SyncTrackingResult, error) {
	if err := cmd.Validate(); err != nil {
		return SyncTrackingResult{}, err
	}

	unlock := h.locker.Lock(cmd.ShipmentID().String())
	defer unlock()

	s, err := h.uowFactory.Create().ShipmentRepository().Get(ctx, cmd.ShipmentID())
	if err != nil {
		return SyncTrackingResult{}, err
	}

	gw, err := h.eligibleGateway(s)
	if err != nil {
		return SyncTrackingResult{}, err
	}

	report, err := gw.PollTracking(ctx, s.CarrierTrackingID())
	if err != nil {
		return SyncTrackingResult{}, err
	}

	changed, err := s.ApplyTrackingReport(report.Status, report.Events, time.Now())
	if err != nil {
		return SyncTrackingResult{}, err
	}

	if changed {
		if err = saveShipment(ctx, h.uowFactory.Create(), s); err != nil {
			return SyncTrackingResult{}, err
		}
		h.logger.InfoContext(ctx, "tracking status changed", "shipment", s.ID(), "status", s.Status())

		payload := shipmentPayload(s)
		payload["carrierTrackingId"] = s.CarrierTrackingID()
		notify(ctx, h.notifier, h.logger, s.RequesterID(), ports.NotifyTrackingUpdated, payload)
	}

	return SyncTrackingResult{
		ShipmentID: s.ID(),
		Status:     s.Status(),
		Changed:    changed,
		History:    s.History(),
	}, nil
}

func (h *SyncTrackingCommandHandler) eligibleGateway(s *shipment.Shipment) (ports.CarrierGateway, error) {
	if !s.CanSyncTracking() {
		return nil, fmt.Errorf("%w: shipment %s is %s and cannot be tracked", errs.ErrInvalidState, s.ID(), s.Status())
	}
	gw, err := h.registry.Get(s.Carrier())
	if err != nil {
		return nil, err
	}
	if !gw.SupportsTracking() {
		return nil, fmt.Errorf("%w: carrier %s does not support tracking", errs.ErrInvalidState, s.Carrier())
	}
	return gw, nil
}
