package http_test

import (
	"context"

	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/application/usecases/queries"
	"shipping/internal/core/domain/model/rate"

	"github.com/stretchr/testify/mock"
)

type MockQuoteHandler struct{ mock.Mock }

func (m *MockQuoteHandler) Handle(ctx context.Context, query queries.GetQuoteQuery) (queries.GetQuoteQueryResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(queries.GetQuoteQueryResponse), args.Error(1)
}

type MockShipmentReader struct{ mock.Mock }

func (m *MockShipmentReader) Handle(ctx context.Context, query queries.GetShipmentQuery) (queries.GetShipmentQueryResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(queries.GetShipmentQueryResponse), args.Error(1)
}

type MockDraftCreator struct{ mock.Mock }

func (m *MockDraftCreator) Handle(ctx context.Context, cmd commands.CreateDraftCommand) (commands.CreateDraftResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.CreateDraftResult), args.Error(1)
}

type MockCarrierSelector struct{ mock.Mock }

func (m *MockCarrierSelector) Handle(ctx context.Context, cmd commands.SelectCarrierCommand) (commands.SelectCarrierResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.SelectCarrierResult), args.Error(1)
}

type MockPaymentProcessor struct{ mock.Mock }

func (m *MockPaymentProcessor) Handle(ctx context.Context, cmd commands.ProcessPaymentCommand) (commands.ProcessPaymentResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.ProcessPaymentResult), args.Error(1)
}

type MockTrackingSyncer struct{ mock.Mock }

func (m *MockTrackingSyncer) Handle(ctx context.Context, cmd commands.SyncTrackingCommand) (commands.SyncTrackingResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.SyncTrackingResult), args.Error(1)
}

type MockBulkTrackingSyncer struct{ mock.Mock }

func (m *MockBulkTrackingSyncer) Handle(ctx context.Context, cmd commands.SyncAllTrackingCommand) (commands.SyncAllTrackingResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.SyncAllTrackingResult), args.Error(1)
}

type MockBookingRetrier struct{ mock.Mock }

func (m *MockBookingRetrier) Handle(ctx context.Context, cmd commands.RetryBookingCommand) (commands.RetryBookingResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.RetryBookingResult), args.Error(1)
}

type MockRateTableActivator struct{ mock.Mock }

func (m *MockRateTableActivator) Handle(ctx context.Context, cmd commands.ActivateRateTableCommand) (*rate.Table, error) {
	args := m.Called(ctx, cmd)
	table, _ := args.Get(0).(*rate.Table)
	return table, args.Error(1)
}
