package ports

import (
	"context"

	"shipping/internal/core/domain/model/kernel"
)

type CaptureRequest struct {
	Amount         kernel.Money
	Method         string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

// CaptureResult reports a completed provider call. Success false means the
// provider declined; FailureReason says why.
type CaptureResult struct {
	Success       bool
	TransactionID string
	FailureReason string
}

// PaymentGateway captures money. An error means the outcome is unknown or the
// provider was unreachable; it wraps errs.ErrPaymentProviderDown.
type PaymentGateway interface {
	Provider() string
	Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error)
}
