package shipment

import (
	"fmt"
	"strings"

	"shipping/internal/pkg/errs"
)

// Status is the fulfilment state of a shipment.
//
//	Draft ──┬──> Processing ──> InTransit ──> Delivered
//	        │        │              │
//	        │        └──────────────┴──> Cancelled
//	        └──> PaymentFailed ──> Processing
type Status int

const (
	Unknown Status = iota
	Draft
	Processing
	InTransit
	Delivered
	Cancelled
	PaymentFailed
)

var statusNames = map[Status]string{
	Draft:         "draft",
	Processing:    "processing",
	InTransit:     "in_transit",
	Delivered:     "delivered",
	Cancelled:     "cancelled",
	PaymentFailed: "payment_failed",
}

// ParseStatus accepts the persisted lower-case names.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether tracking sync has nothing left to do.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// IsEditable reports whether draft data, carrier choice and payment may still change.
func (s Status) IsEditable() bool {
	return s == Draft || s == PaymentFailed
}

// IsCarrierReported reports whether a carrier may move a shipment into s.
func (s Status) IsCarrierReported() bool {
	switch s {
	case Processing, InTransit, Delivered, Cancelled:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks money movement independently of fulfilment.
type PaymentStatus int

const (
	PaymentUnknown PaymentStatus = iota
	Unpaid
	Paid
	Refunded
)

var paymentStatusNames = map[PaymentStatus]string{
	Unpaid:   "unpaid",
	Paid:     "paid",
	Refunded: "refunded",
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for st, name := range paymentStatusNames {
		if name == s {
			return st, nil
		}
	}
	return PaymentUnknown, errs.NewValueIsInvalidErrorWithCause("paymentStatus", fmt.Errorf("%q is not a valid payment status", s))
}

func (p PaymentStatus) Validate() error {
	if _, ok := paymentStatusNames[p]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("paymentStatus", fmt.Errorf("%d is not a valid payment status", p))
	}
	return nil
}

func (p PaymentStatus) String() string {
	if name, ok := paymentStatusNames[p]; ok {
		return name
	}
	return "unknown"
}
