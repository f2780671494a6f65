package commands

import (
	"errors"
	"maps"
	"strings"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

var ErrProcessPaymentCommandIsNotConstructed = errors.New(
	"ProcessPaymentCommand must be created via NewProcessPaymentCommand constructor",
)

// ProcessPaymentCommand asks to charge a shipment and then book it with its carrier.
type ProcessPaymentCommand struct { //nolint:recvcheck //using for validation
	shipmentID kernel.UUID
	amount     kernel.Money
	method     string
	metadata   map[string]string

	guard guard.ConstructorGuard
}

func NewProcessPaymentCommand(
	shipmentID kernel.UUID,
	amount kernel.Money,
	method string,
	metadata map[string]string,
) (ProcessPaymentCommand, error) {
	cmd := ProcessPaymentCommand{
		metadata: maps.Clone(metadata),
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setShipmentID(shipmentID),
		cmd.setAmount(amount),
		cmd.setMethod(method),
	); err != nil {
		return ProcessPaymentCommand{}, err
	}

	return cmd, nil
}

func (c ProcessPaymentCommand) Validate() error {
	return c.guard.Validate(ErrProcessPaymentCommandIsNotConstructed)
}

func (c ProcessPaymentCommand) ShipmentID() kernel.UUID     { return c.shipmentID }
func (c ProcessPaymentCommand) Amount() kernel.Money        { return c.amount }
func (c ProcessPaymentCommand) Method() string              { return c.method }
func (c ProcessPaymentCommand) Metadata() map[string]string { return maps.Clone(c.metadata) }

func (c *ProcessPaymentCommand) setShipmentID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.shipmentID = id
	return nil
}

func (c *ProcessPaymentCommand) setAmount(amount kernel.Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if amount.IsZero() {
		return errs.NewValueIsInvalidError("amount")
	}
	c.amount = amount
	return nil
}

func (c *ProcessPaymentCommand) setMethod(method string) error {
	method = strings.TrimSpace(method)
	if method == "" {
		return errs.NewValueIsRequiredError("method")
	}
	c.method = method
	return nil
}
