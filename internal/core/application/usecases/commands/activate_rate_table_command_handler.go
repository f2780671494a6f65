package commands

import (
	"context"

	"shipping/internal/core/domain/model/rate"
)

// ActivateRateTableCommandHandler makes one table version the only active one
// for its carrier.
type ActivateRateTableCommandHandler struct {
	uowFactory RateTableUoWFactory
}

func NewActivateRateTableCommandHandler(uowFactory RateTableUoWFactory) ActivateRateTableCommandHandler {
	return ActivateRateTableCommandHandler{uowFactory: uowFactory}
}

func (h *ActivateRateTableCommandHandler) Handle(ctx context.Context, cmd ActivateRateTableCommand) (*rate.Table, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	table, err := uow.RateTableRepository().Activate(ctx, cmd.Carrier(), cmd.Version())
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return table, nil
}
