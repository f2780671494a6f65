package commands

import (
	"context"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/ports"
)

type SelectCarrierResult struct {
	ShipmentID  kernel.UUID
	Carrier     string
	ServiceCode string
	Price       kernel.Money
	// Option is set when the price came from a quote.
	Option *rate.Option
}

type SelectCarrierCommandHandler struct {
	uowFactory ShipmentUoWFactory
	quotes     ports.QuoteCache
	registry   ports.CarrierRegistry
	locker     ShipmentLocker
}

func NewSelectCarrierCommandHandler(
	uowFactory ShipmentUoWFactory,
	quotes ports.QuoteCache,
	registry ports.CarrierRegistry,
	locker ShipmentLocker,
) SelectCarrierCommandHandler {
	return SelectCarrierCommandHandler{
		uowFactory: uowFactory,
		quotes:     quotes,
		registry:   registry,
		locker:     locker,
	}
}

// Handle attaches the carrier without a status change. A quote-priced choice
// is also recorded on the cached quote.
func (h *SelectCarrierCommandHandler) Handle(ctx context.Context, cmd SelectCarrierCommand) (SelectCarrierResult, error) {
	if err := cmd.Validate(); err != nil {
		return SelectCarrierResult{}, err
	}

	if _, err := h.registry.Get(cmd.Carrier()); err != nil {
		return SelectCarrierResult{}, err
	}

	now := time.Now().UTC()
	res := SelectCarrierResult{Carrier: cmd.Carrier(), ServiceCode: cmd.ServiceCode()}

	var quote *rate.Quote
	if id := cmd.QuoteID(); id != nil {
		var err error
		if quote, err = h.quotes.Get(ctx, *id); err != nil {
			return SelectCarrierResult{}, err
		}
		option, err := quote.Select(cmd.Carrier(), cmd.ServiceCode(), now)
		if err != nil {
			return SelectCarrierResult{}, err
		}
		res.Price = option.Price
		res.Option = &option
	} else {
		res.Price = *cmd.Price()
	}

	unlock := h.locker.Lock(cmd.ShipmentID().String())
	defer unlock()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return SelectCarrierResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.ShipmentRepository()
	s, err := repo.Get(ctx, cmd.ShipmentID())
	if err != nil {
		return SelectCarrierResult{}, err
	}

	if err = s.SelectCarrier(cmd.Carrier(), cmd.ServiceCode(), res.Price, cmd.QuoteID(), now); err != nil {
		return SelectCarrierResult{}, err
	}
	if err = repo.Update(ctx, s); err != nil {
		return SelectCarrierResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return SelectCarrierResult{}, err
	}

	if quote != nil {
		// Best effort: the shipment already carries the price.
		_ = h.quotes.Save(ctx, quote)
	}

	res.ShipmentID = s.ID()
	return res, nil
}
