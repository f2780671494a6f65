package commands_test

import (
	"errors"
	"testing"

	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivateRateTableCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	table, err := rate.RestoreTable(kernel.NewUUID(), "ups", 2, fixedNow, true, "GBP",
		[]rate.ServiceRate{{ServiceCode: "11", DisplayName: "UPS Standard", Base: decimal.NewFromInt(5), PerKg: decimal.NewFromInt(1), EstimatedDays: 2}},
		rate.Surcharges{}, 0)
	require.NoError(t, err)

	uow := newMockUoW()
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.rateTables.On("Activate", ctx, "ups", 2).Return(table, nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	h := commands.NewActivateRateTableCommandHandler(rateTableUoWFactory{uow})
	cmd, err := commands.NewActivateRateTableCommand(" UPS ", 2)
	require.NoError(t, err)

	got, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.True(t, got.IsActive())
	uow.AssertExpectations(t)
	uow.rateTables.AssertExpectations(t)
}

func TestActivateRateTableCommandHandler_Handle_UnknownVersion(t *testing.T) {
	ctx := t.Context()
	uow := newMockUoW()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.rateTables.On("Activate", ctx, "ups", 9).Return(nil, errs.NewObjectNotFoundError("rateTable", "ups/9")).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	h := commands.NewActivateRateTableCommandHandler(rateTableUoWFactory{uow})
	cmd, err := commands.NewActivateRateTableCommand("ups", 9)
	require.NoError(t, err)

	_, err = h.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestActivateRateTableCommandHandler_Handle_CommitError(t *testing.T) {
	ctx := t.Context()
	uow := newMockUoW()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.rateTables.On("Activate", ctx, "fedex", 1).Return(&rate.Table{}, nil).Once()
	uow.On("Commit", ctx).Return(errors.New("commit error")).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	h := commands.NewActivateRateTableCommandHandler(rateTableUoWFactory{uow})
	cmd, err := commands.NewActivateRateTableCommand("fedex", 1)
	require.NoError(t, err)

	_, err = h.Handle(ctx, cmd)

	require.EqualError(t, err, "commit error")
}

func TestNewActivateRateTableCommand_Validation(t *testing.T) {
	_, err := commands.NewActivateRateTableCommand("", 0)

	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)

	var cmd commands.ActivateRateTableCommand
	assert.ErrorIs(t, cmd.Validate(), commands.ErrActivateRateTableCommandIsNotConstructed)
}
