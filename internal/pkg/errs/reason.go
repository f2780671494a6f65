package errs

import (
	"context"
	"errors"
)

// Orchestration failures that callers branch on.
var (
	ErrPaymentAmountMismatch     = errors.New("payment amount does not match the quoted price")
	ErrPaymentFailed             = errors.New("payment was not captured")
	ErrPaymentProviderDown       = errors.New("payment provider is unavailable")
	ErrInvalidState              = errors.New("operation is not allowed in the current state")
	ErrQuoteExpired              = errors.New("rate quote has expired")
	ErrNoRatesAvailable          = errors.New("no rates available")
	ErrConcurrentModification    = errors.New("record was modified concurrently")
	ErrBookingFailedAfterPayment = errors.New("payment captured but carrier booking failed")
)

// ReasonCode is the machine-readable discriminator attached to every
// operation result.
type ReasonCode string

const (
	ReasonNone                      ReasonCode = ""
	ReasonValidationFailed          ReasonCode = "validation_failed"
	ReasonNotFound                  ReasonCode = "not_found"
	ReasonInvalidState              ReasonCode = "invalid_state"
	ReasonUnknownCarrier            ReasonCode = "unknown_carrier"
	ReasonCarrierUnavailable        ReasonCode = "carrier_unavailable"
	ReasonCarrierRejected           ReasonCode = "carrier_rejected"
	ReasonAuthenticationFailed      ReasonCode = "authentication_failed"
	ReasonPaymentAmountMismatch     ReasonCode = "payment_amount_mismatch"
	ReasonPaymentFailed             ReasonCode = "payment_failed"
	ReasonAlreadyPaid               ReasonCode = "already_paid"
	ReasonBookingFailedAfterPayment ReasonCode = "booking_failed_after_payment"
	ReasonDuplicateDraft            ReasonCode = "duplicate_draft"
	ReasonQuoteExpired              ReasonCode = "quote_expired"
	ReasonNoRatesAvailable          ReasonCode = "no_rates_available"
	ReasonConcurrentModification    ReasonCode = "concurrent_modification"
	ReasonTimeout                   ReasonCode = "timeout"
	ReasonInternal                  ReasonCode = "internal"
)

// ReasonOf maps an error to its reason code. nil maps to ReasonNone.
func ReasonOf(err error) ReasonCode {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrPaymentAmountMismatch):
		return ReasonPaymentAmountMismatch
	case errors.Is(err, ErrPaymentFailed), errors.Is(err, ErrPaymentProviderDown):
		return ReasonPaymentFailed
	case errors.Is(err, ErrBookingFailedAfterPayment):
		return ReasonBookingFailedAfterPayment
	case errors.Is(err, ErrQuoteExpired):
		return ReasonQuoteExpired
	case errors.Is(err, ErrNoRatesAvailable):
		return ReasonNoRatesAvailable
	case errors.Is(err, ErrConcurrentModification), errors.Is(err, ErrVersionIsInvalid):
		return ReasonConcurrentModification
	case errors.Is(err, ErrUnknownCarrier):
		return ReasonUnknownCarrier
	case errors.Is(err, ErrCarrierAuthentication):
		return ReasonAuthenticationFailed
	case errors.Is(err, ErrCarrierRejected):
		return ReasonCarrierRejected
	case errors.Is(err, ErrCarrierTransient), errors.Is(err, ErrCarrierBooking):
		return ReasonCarrierUnavailable
	case errors.Is(err, ErrInvalidState):
		return ReasonInvalidState
	case errors.Is(err, ErrObjectNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrValueIsRequired),
		errors.Is(err, ErrValueIsInvalid),
		errors.Is(err, ErrValueIsOutOfRange):
		return ReasonValidationFailed
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonInternal
	}
}
