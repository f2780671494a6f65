package http

import (
	"errors"
	"log/slog"
	"net/http"

	"shipping/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var reasonStatus = map[errs.ReasonCode]int{
	errs.ReasonValidationFailed:          http.StatusBadRequest,
	errs.ReasonUnknownCarrier:            http.StatusBadRequest,
	errs.ReasonNotFound:                  http.StatusNotFound,
	errs.ReasonInvalidState:              http.StatusConflict,
	errs.ReasonConcurrentModification:    http.StatusConflict,
	errs.ReasonQuoteExpired:              http.StatusConflict,
	errs.ReasonAlreadyPaid:               http.StatusConflict,
	errs.ReasonPaymentAmountMismatch:     http.StatusUnprocessableEntity,
	errs.ReasonCarrierRejected:           http.StatusUnprocessableEntity,
	errs.ReasonPaymentFailed:             http.StatusPaymentRequired,
	errs.ReasonCarrierUnavailable:        http.StatusServiceUnavailable,
	errs.ReasonNoRatesAvailable:          http.StatusServiceUnavailable,
	errs.ReasonAuthenticationFailed:      http.StatusBadGateway,
	errs.ReasonBookingFailedAfterPayment: http.StatusAccepted,
	errs.ReasonTimeout:                   http.StatusGatewayTimeout,
	errs.ReasonInternal:                  http.StatusInternalServerError,
}

// StatusFor returns the HTTP status a failure reason is rendered with.
func StatusFor(reason errs.ReasonCode) int {
	if status, ok := reasonStatus[reason]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respond(ctx echo.Context, status int, data any) error {
	return ctx.JSON(status, Envelope{Success: true, Data: data})
}

func respondWithReason(ctx echo.Context, status int, reason errs.ReasonCode, data any) error {
	return ctx.JSON(status, Envelope{Success: true, Reason: string(reason), Data: data})
}

// fail renders err with its reason code. Internal errors are logged and
// their message is not exposed.
func fail(ctx echo.Context, logger *slog.Logger, err error) error {
	reason := errs.ReasonOf(err)
	message := err.Error()
	if reason == errs.ReasonInternal {
		logger.ErrorContext(ctx.Request().Context(), "request failed",
			"method", ctx.Request().Method,
			"path", ctx.Path(),
			"error", err,
		)
		message = http.StatusText(http.StatusInternalServerError)
	}
	return ctx.JSON(StatusFor(reason), Envelope{
		Success: false,
		Reason:  string(reason),
		Message: message,
	})
}

// ErrorHandler renders errors that escape the handlers, such as binding
// failures and unknown routes, in the same envelope.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) {
			_ = fail(ctx, logger, err)
			return
		}

		reason := errs.ReasonInternal
		switch {
		case httpErr.Code == http.StatusNotFound:
			reason = errs.ReasonNotFound
		case httpErr.Code >= 400 && httpErr.Code < 500:
			reason = errs.ReasonValidationFailed
		}

		message, isString := httpErr.Message.(string)
		if !isString {
			message = http.StatusText(httpErr.Code)
		}
		_ = ctx.JSON(httpErr.Code, Envelope{
			Success: false,
			Reason:  string(reason),
			Message: message,
		})
	}
}
