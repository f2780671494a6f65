package ports

import (
	"context"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/payment"
)

type PaymentRepository interface {
	Add(ctx context.Context, record *payment.Record) error
	Update(ctx context.Context, record *payment.Record) error
	Get(ctx context.Context, id kernel.UUID) (*payment.Record, error)
	// ListByShipment returns attempts oldest-first.
	ListByShipment(ctx context.Context, shipmentID kernel.UUID) ([]*payment.Record, error)
}
