package commands

import (
	"errors"

	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

var ErrRetryBookingCommandIsNotConstructed = errors.New(
	"RetryBookingCommand must be created via NewRetryBookingCommand constructor",
)

// RetryBookingCommand asks to re-book up to limit paid shipments whose booking failed.
type RetryBookingCommand struct { //nolint:recvcheck //using for validation
	limit int

	guard guard.ConstructorGuard
}

func NewRetryBookingCommand(limit int) (RetryBookingCommand, error) {
	if limit <= 0 {
		return RetryBookingCommand{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}
	return RetryBookingCommand{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (c RetryBookingCommand) Validate() error {
	return c.guard.Validate(ErrRetryBookingCommandIsNotConstructed)
}

func (c RetryBookingCommand) Limit() int { return c.limit }
