package commands

import (
	"errors"
	"strings"

	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

var ErrActivateRateTableCommandIsNotConstructed = errors.New(
	"ActivateRateTableCommand must be created via NewActivateRateTableCommand constructor",
)

type ActivateRateTableCommand struct { //nolint:recvcheck //using for validation
	carrier string
	version int

	guard guard.ConstructorGuard
}

func NewActivateRateTableCommand(carrier string, version int) (ActivateRateTableCommand, error) {
	cmd := ActivateRateTableCommand{
		carrier: strings.ToLower(strings.TrimSpace(carrier)),
		version: version,
		guard:   guard.NewConstructorGuard(),
	}

	var carrierErr, versionErr error
	if cmd.carrier == "" {
		carrierErr = errs.NewValueIsRequiredError("carrier")
	}
	if version < 1 {
		versionErr = errs.NewValueIsOutOfRangeError("version", version, 1, "unbounded")
	}
	if err := errors.Join(carrierErr, versionErr); err != nil {
		return ActivateRateTableCommand{}, err
	}

	return cmd, nil
}

func (c ActivateRateTableCommand) Validate() error {
	return c.guard.Validate(ErrActivateRateTableCommandIsNotConstructed)
}

func (c ActivateRateTableCommand) Carrier() string { return c.carrier }
func (c ActivateRateTableCommand) Version() int    { return c.version }
