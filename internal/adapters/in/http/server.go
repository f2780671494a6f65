package http

import (
	"context"
	"log/slog"
	"net/http"

	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/application/usecases/queries"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const defaultBatchLimit = 500

type (
	QuoteHandler interface {
		Handle(ctx context.Context, query queries.GetQuoteQuery) (queries.GetQuoteQueryResponse, error)
	}
	ShipmentReader interface {
		Handle(ctx context.Context, query queries.GetShipmentQuery) (queries.GetShipmentQueryResponse, error)
	}
	DraftCreator interface {
		Handle(ctx context.Context, cmd commands.CreateDraftCommand) (commands.CreateDraftResult, error)
	}
	CarrierSelector interface {
		Handle(ctx context.Context, cmd commands.SelectCarrierCommand) (commands.SelectCarrierResult, error)
	}
	PaymentProcessor interface {
		Handle(ctx context.Context, cmd commands.ProcessPaymentCommand) (commands.ProcessPaymentResult, error)
	}
	TrackingSyncer interface {
		Handle(ctx context.Context, cmd commands.SyncTrackingCommand) (commands.SyncTrackingResult, error)
	}
	BulkTrackingSyncer interface {
		Handle(ctx context.Context, cmd commands.SyncAllTrackingCommand) (commands.SyncAllTrackingResult, error)
	}
	BookingRetrier interface {
		Handle(ctx context.Context, cmd commands.RetryBookingCommand) (commands.RetryBookingResult, error)
	}
	RateTableActivator interface {
		Handle(ctx context.Context, cmd commands.ActivateRateTableCommand) (*rate.Table, error)
	}
)

// Handlers groups the use cases the API exposes.
type Handlers struct {
	GetQuote          QuoteHandler
	GetShipment       ShipmentReader
	CreateDraft       DraftCreator
	SelectCarrier     CarrierSelector
	ProcessPayment    PaymentProcessor
	SyncTracking      TrackingSyncer
	SyncAllTracking   BulkTrackingSyncer
	RetryBooking      BookingRetrier
	ActivateRateTable RateTableActivator
}

// Server implements ServerInterface on top of the application use cases.
type Server struct {
	handlers Handlers
	currency string
	logger   *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// NewServer builds the API. currency is used when a request omits one.
func NewServer(handlers Handlers, currency string, logger *slog.Logger) *Server {
	return &Server{
		handlers: handlers,
		currency: currency,
		logger:   logger,
	}
}

func (s *Server) GetQuote(ctx echo.Context) error {
	var req QuoteRequest
	if err := s.bind(ctx, &req); err != nil {
		return fail(ctx, s.logger, err)
	}

	query, err := req.toQuery(s.currency)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	res, err := s.handlers.GetQuote.Handle(ctx.Request().Context(), query)
	if err != nil {
		return fail(ctx, s.logger, err)
	}
	return respond(ctx, http.StatusOK, toQuoteResponse(res))
}

func (s *Server) CreateDraft(ctx echo.Context, params CreateDraftParams) error {
	var req DraftRequest
	if err := s.bind(ctx, &req); err != nil {
		return fail(ctx, s.logger, err)
	}

	cmd, err := req.toCommand(params.XUserID, s.currency)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	res, err := s.handlers.CreateDraft.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	body := DraftResponse{
		ShipmentID:   res.ShipmentID.String(),
		TrackingCode: res.TrackingCode.String(),
		Price:        toMoneyResponse(res.Price),
		Merged:       res.Merged,
	}
	if res.Merged {
		return respondWithReason(ctx, http.StatusOK, res.Reason, body)
	}
	return respond(ctx, http.StatusCreated, body)
}

func (s *Server) GetShipment(ctx echo.Context, shipmentID openapi_types.UUID) error {
	id, err := toKernelUUID(shipmentID)
	if err != nil {
		return fail(ctx, s.logger, err)
	}
	query, err := queries.NewGetShipmentQueryByID(id)
	if err != nil {
		return fail(ctx, s.logger, err)
	}
	return s.readShipment(ctx, query)
}

func (s *Server) GetShipmentByTrackingCode(ctx echo.Context, trackingCode string) error {
	query, err := queries.NewGetShipmentQueryByTrackingCode(trackingCode)
	if err != nil {
		return fail(ctx, s.logger, err)
	}
	return s.readShipment(ctx, query)
}

func (s *Server) readShipment(ctx echo.Context, query queries.GetShipmentQuery) error {
	res, err := s.handlers.GetShipment.Handle(ctx.Request().Context(), query)
	if err != nil {
		return fail(ctx, s.logger, err)
	}
	return respond(ctx, http.StatusOK, toShipmentResponse(res))
}

func (s *Server) SelectCarrier(ctx echo.Context, shipmentID openapi_types.UUID) error {
	id, err := toKernelUUID(shipmentID)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	var req SelectCarrierRequest
	if err = s.bind(ctx, &req); err != nil {
		return fail(ctx, s.logger, err)
	}

	cmd, err := req.toCommand(id, s.currency)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	res, err := s.handlers.SelectCarrier.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	body := SelectCarrierResponse{
		ShipmentID:  res.ShipmentID.String(),
		Carrier:     res.Carrier,
		ServiceCode: res.ServiceCode,
		Price:       toMoneyResponse(res.Price),
	}
	if res.Option != nil {
		option := toOptionResponse(*res.Option)
		body.Option = &option
	}
	return respond(ctx, http.StatusOK, body)
}

// ProcessPayment answers 200 for a clean run or a repeat call and 202 when the
// payment was captured but booking is still outstanding.
func (s *Server) ProcessPayment(ctx echo.Context, shipmentID openapi_types.UUID) error {
	id, err := toKernelUUID(shipmentID)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	var req PaymentRequest
	if err = s.bind(ctx, &req); err != nil {
		return fail(ctx, s.logger, err)
	}

	cmd, err := req.toCommand(id)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	res, err := s.handlers.ProcessPayment.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	body := PaymentResponse{
		ShipmentID:        res.ShipmentID.String(),
		Status:            res.Status.String(),
		PaymentStatus:     res.PaymentStatus.String(),
		PaymentReference:  res.PaymentReference,
		CarrierTrackingID: res.CarrierTrackingID,
		LabelURL:          res.LabelURL,
		NeedsSupport:      res.NeedsSupport,
	}

	switch res.Reason {
	case errs.ReasonNone:
		return respond(ctx, http.StatusOK, body)
	case errs.ReasonBookingFailedAfterPayment:
		return respondWithReason(ctx, http.StatusAccepted, res.Reason, body)
	default:
		return respondWithReason(ctx, http.StatusOK, res.Reason, body)
	}
}

func (s *Server) TrackLive(ctx echo.Context, shipmentID openapi_types.UUID) error {
	id, err := toKernelUUID(shipmentID)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	cmd, err := commands.NewSyncTrackingCommand(id)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	res, err := s.handlers.SyncTracking.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return fail(ctx, s.logger, err)
	}
	return respond(ctx, http.StatusOK, toTrackingResponse(res))
}

func (s *Server) SyncAllTracking(ctx echo.Context, params LimitParams) error {
	cmd, err := commands.NewSyncAllTrackingCommand(limitOrDefault(params))
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	res, err := s.handlers.SyncAllTracking.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return fail(ctx, s.logger, err)
	}
	return respond(ctx, http.StatusOK, SyncAllResponse{
		Processed: res.Processed,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Changed:   res.Changed,
	})
}

func (s *Server) RetryBookings(ctx echo.Context, params LimitParams) error {
	cmd, err := commands.NewRetryBookingCommand(limitOrDefault(params))
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	res, err := s.handlers.RetryBooking.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return fail(ctx, s.logger, err)
	}
	return respond(ctx, http.StatusOK, RetryBookingsResponse{
		Processed: res.Processed,
		Booked:    res.Booked,
		Failed:    res.Failed,
	})
}

func (s *Server) ActivateRateTable(ctx echo.Context, carrier string, version int) error {
	cmd, err := commands.NewActivateRateTableCommand(carrier, version)
	if err != nil {
		return fail(ctx, s.logger, err)
	}

	table, err := s.handlers.ActivateRateTable.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return fail(ctx, s.logger, err)
	}
	return respond(ctx, http.StatusOK, toRateTableResponse(table))
}

type validatable interface {
	Validate() error
}

func (s *Server) bind(ctx echo.Context, req validatable) error {
	if err := ctx.Bind(req); err != nil {
		return validationError(err)
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}
	return nil
}

func toKernelUUID(id openapi_types.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromString(id.String())
}

func limitOrDefault(params LimitParams) int {
	if params.Limit == nil {
		return defaultBatchLimit
	}
	return *params.Limit
}
