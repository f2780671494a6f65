package errs

import (
	"errors"
	"fmt"
)

// Carrier failure sentinels. A CarrierError unwraps to exactly one of them,
// so callers branch with errors.Is without knowing the concrete carrier.
var (
	ErrCarrierTransient      = errors.New("carrier temporarily unavailable")
	ErrCarrierRejected       = errors.New("carrier rejected the request")
	ErrCarrierAuthentication = errors.New("carrier authentication failed")
	ErrCarrierBooking        = errors.New("carrier booking failed")
	ErrUnknownCarrier        = errors.New("unknown carrier")
)

// CarrierErrorKind classifies a failed carrier call.
type CarrierErrorKind int

const (
	CarrierTransient CarrierErrorKind = iota + 1
	CarrierRejected
	CarrierAuthentication
	CarrierBooking
)

func (k CarrierErrorKind) sentinel() error {
	switch k {
	case CarrierRejected:
		return ErrCarrierRejected
	case CarrierAuthentication:
		return ErrCarrierAuthentication
	case CarrierBooking:
		return ErrCarrierBooking
	default:
		return ErrCarrierTransient
	}
}

// CarrierError is returned by carrier gateway adapters.
type CarrierError struct {
	Carrier    string
	Operation  string
	Kind       CarrierErrorKind
	StatusCode int
	Cause      error
}

// NewCarrierError creates a CarrierError of the given kind.
func NewCarrierError(carrier, operation string, kind CarrierErrorKind, statusCode int, cause error) *CarrierError {
	return &CarrierError{
		Carrier:    carrier,
		Operation:  operation,
		Kind:       kind,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

func (e *CarrierError) Error() string {
	msg := fmt.Sprintf("%s: %s %s", e.Kind.sentinel(), e.Carrier, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *CarrierError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Cause}
}
