package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// CreateDraftParams defines parameters for CreateDraft.
type CreateDraftParams struct {
	XUserID string
}

// LimitParams defines the optional batch limit of the admin operations.
type LimitParams struct {
	Limit *int
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Price a parcel across carriers
	// (POST /api/v1/quotes)
	GetQuote(ctx echo.Context) error
	// Create or merge a draft shipment
	// (POST /api/v1/shipments)
	CreateDraft(ctx echo.Context, params CreateDraftParams) error
	// Shipment with newest-first history
	// (GET /api/v1/shipments/{shipmentId})
	GetShipment(ctx echo.Context, shipmentID openapi_types.UUID) error
	// Attach carrier service and price
	// (PUT /api/v1/shipments/{shipmentId}/carrier)
	SelectCarrier(ctx echo.Context, shipmentID openapi_types.UUID) error
	// Capture payment and book with the carrier
	// (POST /api/v1/shipments/{shipmentId}/payments)
	ProcessPayment(ctx echo.Context, shipmentID openapi_types.UUID) error
	// Pull the carrier's tracking for one shipment
	// (POST /api/v1/shipments/{shipmentId}/tracking)
	TrackLive(ctx echo.Context, shipmentID openapi_types.UUID) error
	// Public lookup by tracking code
	// (GET /api/v1/tracking/{trackingCode})
	GetShipmentByTrackingCode(ctx echo.Context, trackingCode string) error
	// Sync every trackable shipment
	// (POST /api/v1/admin/tracking/sync)
	SyncAllTracking(ctx echo.Context, params LimitParams) error
	// Re-attempt booking for paid shipments flagged for support
	// (POST /api/v1/admin/bookings/retry)
	RetryBookings(ctx echo.Context, params LimitParams) error
	// Make one rate table version the active one
	// (POST /api/v1/admin/rate-tables/{carrier}/versions/{version}/activate)
	ActivateRateTable(ctx echo.Context, carrier string, version int) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) GetQuote(ctx echo.Context) error {
	return w.Handler.GetQuote(ctx)
}

func (w *ServerInterfaceWrapper) CreateDraft(ctx echo.Context) error {
	var params CreateDraftParams

	values := ctx.Request().Header.Values("X-User-ID")
	if len(values) != 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "Header parameter X-User-ID is required, and exactly one value is expected")
	}
	var userID string
	err := runtime.BindStyledParameterWithOptions("simple", "X-User-ID", values[0], &userID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter X-User-ID: %s", err))
	}
	params.XUserID = userID

	return w.Handler.CreateDraft(ctx, params)
}

func (w *ServerInterfaceWrapper) GetShipment(ctx echo.Context) error {
	shipmentID, err := bindShipmentID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetShipment(ctx, shipmentID)
}

func (w *ServerInterfaceWrapper) SelectCarrier(ctx echo.Context) error {
	shipmentID, err := bindShipmentID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.SelectCarrier(ctx, shipmentID)
}

func (w *ServerInterfaceWrapper) ProcessPayment(ctx echo.Context) error {
	shipmentID, err := bindShipmentID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ProcessPayment(ctx, shipmentID)
}

func (w *ServerInterfaceWrapper) TrackLive(ctx echo.Context) error {
	shipmentID, err := bindShipmentID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.TrackLive(ctx, shipmentID)
}

func (w *ServerInterfaceWrapper) GetShipmentByTrackingCode(ctx echo.Context) error {
	var trackingCode string
	err := runtime.BindStyledParameterWithOptions("simple", "trackingCode", ctx.Param("trackingCode"), &trackingCode,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter trackingCode: %s", err))
	}
	return w.Handler.GetShipmentByTrackingCode(ctx, trackingCode)
}

func (w *ServerInterfaceWrapper) SyncAllTracking(ctx echo.Context) error {
	params, err := bindLimit(ctx)
	if err != nil {
		return err
	}
	return w.Handler.SyncAllTracking(ctx, params)
}

func (w *ServerInterfaceWrapper) RetryBookings(ctx echo.Context) error {
	params, err := bindLimit(ctx)
	if err != nil {
		return err
	}
	return w.Handler.RetryBookings(ctx, params)
}

func (w *ServerInterfaceWrapper) ActivateRateTable(ctx echo.Context) error {
	var carrier string
	err := runtime.BindStyledParameterWithOptions("simple", "carrier", ctx.Param("carrier"), &carrier,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter carrier: %s", err))
	}

	var version int
	err = runtime.BindStyledParameterWithOptions("simple", "version", ctx.Param("version"), &version,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter version: %s", err))
	}

	return w.Handler.ActivateRateTable(ctx, carrier, version)
}

func bindShipmentID(ctx echo.Context) (openapi_types.UUID, error) {
	var shipmentID openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "shipmentId", ctx.Param("shipmentId"), &shipmentID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return shipmentID, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter shipmentId: %s", err))
	}
	return shipmentID, nil
}

func bindLimit(ctx echo.Context) (LimitParams, error) {
	var params LimitParams
	err := runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit)
	if err != nil {
		return params, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter limit: %s", err))
	}
	return params, nil
}

// EchoRouter is the part of *echo.Echo and *echo.Group the routes need.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.POST(baseURL+"/api/v1/quotes", wrapper.GetQuote)
	router.POST(baseURL+"/api/v1/shipments", wrapper.CreateDraft)
	router.GET(baseURL+"/api/v1/shipments/:shipmentId", wrapper.GetShipment)
	router.PUT(baseURL+"/api/v1/shipments/:shipmentId/carrier", wrapper.SelectCarrier)
	router.POST(baseURL+"/api/v1/shipments/:shipmentId/payments", wrapper.ProcessPayment)
	router.POST(baseURL+"/api/v1/shipments/:shipmentId/tracking", wrapper.TrackLive)
	router.GET(baseURL+"/api/v1/tracking/:trackingCode", wrapper.GetShipmentByTrackingCode)
	router.POST(baseURL+"/api/v1/admin/tracking/sync", wrapper.SyncAllTracking)
	router.POST(baseURL+"/api/v1/admin/bookings/retry", wrapper.RetryBookings)
	router.POST(baseURL+"/api/v1/admin/rate-tables/:carrier/versions/:version/activate", wrapper.ActivateRateTable)
}
