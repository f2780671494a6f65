package commands

import (
	"context"
	"log/slog"
	"sync/atomic"

	"shipping/internal/core/ports"

	"golang.org/x/sync/errgroup"
)

type SyncAllTrackingResult struct {
	Processed int
	Succeeded int
	Failed    int
	Changed   int
}

// SyncAllTrackingCommandHandler runs SyncTracking over every trackable
// shipment. One failing shipment is counted and skipped.
type SyncAllTrackingCommandHandler struct {
	uowFactory  ShipmentUoWFactory
	registry    ports.CarrierRegistry
	syncOne     *SyncTrackingCommandHandler
	concurrency int
	logger      *slog.Logger
}

// NewSyncAllTrackingCommandHandler runs shipments one at a time unless concurrency is above 1.
func NewSyncAllTrackingCommandHandler(
	uowFactory ShipmentUoWFactory,
	registry ports.CarrierRegistry,
	syncOne *SyncTrackingCommandHandler,
	concurrency int,
	logger *slog.Logger,
) SyncAllTrackingCommandHandler {
	if concurrency < 1 {
		concurrency = 1
	}
	return SyncAllTrackingCommandHandler{
		uowFactory:  uowFactory,
		registry:    registry,
		syncOne:     syncOne,
		concurrency: concurrency,
		logger:      logger.With("component", "SyncAllTracking"),
	}
}

func (h *SyncAllTrackingCommandHandler) Handle(ctx context.Context, cmd SyncAllTrackingCommand) (SyncAllTrackingResult, error) {
	if err := cmd.Validate(); err != nil {
		return SyncAllTrackingResult{}, err
	}

	carriers := h.trackingCarriers()
	if len(carriers) == 0 {
		return SyncAllTrackingResult{}, nil
	}

	shipments, err := h.uowFactory.Create().ShipmentRepository().ListTrackable(ctx, carriers, cmd.Limit())
	if err != nil {
		return SyncAllTrackingResult{}, err
	}

	var processed, succeeded, failed, changed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for _, s := range shipments {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			processed.Add(1)

			one, err := NewSyncTrackingCommand(s.ID())
			if err == nil {
				var res SyncTrackingResult
				res, err = h.syncOne.Handle(gctx, one)
				if err == nil && res.Changed {
					changed.Add(1)
				}
			}
			if err != nil {
				failed.Add(1)
				h.logger.WarnContext(gctx, "tracking sync failed", "shipment", s.ID(), "carrier", s.Carrier(), "error", err)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := SyncAllTrackingResult{
		Processed: int(processed.Load()),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Changed:   int(changed.Load()),
	}
	h.logger.InfoContext(ctx, "tracking sync finished",
		"processed", res.Processed, "succeeded", res.Succeeded, "failed", res.Failed, "changed", res.Changed)

	return res, ctx.Err()
}

func (h *SyncAllTrackingCommandHandler) trackingCarriers() []string {
	var carriers []string
	for _, code := range h.registry.Enabled() {
		gw, err := h.registry.Get(code)
		if err == nil && gw.SupportsTracking() {
			carriers = append(carriers, code)
		}
	}
	return carriers
}
