package commands

import (
	"errors"
	"strings"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

var ErrSelectCarrierCommandIsNotConstructed = errors.New(
	"SelectCarrierCommand must be created via NewSelectCarrierCommand constructor",
)

// SelectCarrierCommand attaches a carrier service to a draft. The price comes
// from the quote when quoteID is set, otherwise from price.
type SelectCarrierCommand struct { //nolint:recvcheck //using for validation
	shipmentID  kernel.UUID
	carrier     string
	serviceCode string
	quoteID     *kernel.UUID
	price       *kernel.Money

	guard guard.ConstructorGuard
}

func NewSelectCarrierCommand(
	shipmentID kernel.UUID,
	carrier, serviceCode string,
	quoteID *kernel.UUID,
	price *kernel.Money,
) (SelectCarrierCommand, error) {
	cmd := SelectCarrierCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setShipmentID(shipmentID),
		cmd.setService(carrier, serviceCode),
		cmd.setPricing(quoteID, price),
	); err != nil {
		return SelectCarrierCommand{}, err
	}

	return cmd, nil
}

func (c SelectCarrierCommand) Validate() error {
	return c.guard.Validate(ErrSelectCarrierCommandIsNotConstructed)
}

func (c SelectCarrierCommand) ShipmentID() kernel.UUID { return c.shipmentID }
func (c SelectCarrierCommand) Carrier() string         { return c.carrier }
func (c SelectCarrierCommand) ServiceCode() string     { return c.serviceCode }
func (c SelectCarrierCommand) QuoteID() *kernel.UUID   { return c.quoteID }
func (c SelectCarrierCommand) Price() *kernel.Money    { return c.price }

func (c *SelectCarrierCommand) setShipmentID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.shipmentID = id
	return nil
}

func (c *SelectCarrierCommand) setService(carrier, serviceCode string) error {
	carrier = strings.ToLower(strings.TrimSpace(carrier))
	serviceCode = strings.TrimSpace(serviceCode)

	var carrierErr, serviceErr error
	if carrier == "" {
		carrierErr = errs.NewValueIsRequiredError("carrier")
	}
	if serviceCode == "" {
		serviceErr = errs.NewValueIsRequiredError("serviceCode")
	}
	if err := errors.Join(carrierErr, serviceErr); err != nil {
		return err
	}

	c.carrier = carrier
	c.serviceCode = serviceCode
	return nil
}

func (c *SelectCarrierCommand) setPricing(quoteID *kernel.UUID, price *kernel.Money) error {
	switch {
	case quoteID != nil:
		if err := quoteID.Validate(); err != nil {
			return err
		}
		id := *quoteID
		c.quoteID = &id
	case price != nil:
		if err := price.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause("price", err)
		}
		p := *price
		c.price = &p
	default:
		return errs.NewValueIsRequiredError("quoteId or price")
	}
	return nil
}
