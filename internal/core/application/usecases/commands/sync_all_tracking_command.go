package commands

import (
	"errors"

	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

var ErrSyncAllTrackingCommandIsNotConstructed = errors.New(
	"SyncAllTrackingCommand must be created via NewSyncAllTrackingCommand constructor",
)

// SyncAllTrackingCommand syncs up to limit eligible shipments.
type SyncAllTrackingCommand struct { //nolint:recvcheck //using for validation
	limit int

	guard guard.ConstructorGuard
}

func NewSyncAllTrackingCommand(limit int) (SyncAllTrackingCommand, error) {
	if limit <= 0 {
		return SyncAllTrackingCommand{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}
	return SyncAllTrackingCommand{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (c SyncAllTrackingCommand) Validate() error {
	return c.guard.Validate(ErrSyncAllTrackingCommandIsNotConstructed)
}

func (c SyncAllTrackingCommand) Limit() int { return c.limit }
