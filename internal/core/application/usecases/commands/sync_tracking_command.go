package commands

import (
	"errors"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/guard"
)

var ErrSyncTrackingCommandIsNotConstructed = errors.New(
	"SyncTrackingCommand must be created via NewSyncTrackingCommand constructor",
)

// SyncTrackingCommand polls the carrier for one shipment.
type SyncTrackingCommand struct { //nolint:recvcheck //using for validation
	shipmentID kernel.UUID

	guard guard.ConstructorGuard
}

func NewSyncTrackingCommand(shipmentID kernel.UUID) (SyncTrackingCommand, error) {
	if err := shipmentID.Validate(); err != nil {
		return SyncTrackingCommand{}, err
	}
	return SyncTrackingCommand{shipmentID: shipmentID, guard: guard.NewConstructorGuard()}, nil
}

func (c SyncTrackingCommand) Validate() error {
	return c.guard.Validate(ErrSyncTrackingCommandIsNotConstructed)
}

func (c SyncTrackingCommand) ShipmentID() kernel.UUID { return c.shipmentID }
