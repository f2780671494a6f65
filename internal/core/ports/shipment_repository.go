package ports

import (
	"context"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/shipment"
)

// ShipmentRepository persists the Shipment aggregate.
type ShipmentRepository interface {
	// Add stores a new shipment. The shipment must already carry its tracking code.
	Add(ctx context.Context, aggregate *shipment.Shipment) error

	// Update writes the shipment if its stored version still matches and bumps
	// the version. A stale version yields errs.ErrConcurrentModification.
	Update(ctx context.Context, aggregate *shipment.Shipment) error

	Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error)
	GetByTrackingCode(ctx context.Context, code shipment.TrackingCode) (*shipment.Shipment, error)
	TrackingCodeExists(ctx context.Context, code shipment.TrackingCode) (bool, error)

	// LockDraftSubmission blocks until no other transaction holds dedupKey and
	// keeps it held until the current transaction ends.
	LockDraftSubmission(ctx context.Context, dedupKey string) error

	// FindRecentDraft returns the newest unpaid draft with the given dedup key
	// created at or after since, or errs.ErrObjectNotFound.
	FindRecentDraft(ctx context.Context, dedupKey string, since time.Time) (*shipment.Shipment, error)

	// ListTrackable returns paid, booked, non-terminal shipments of the given carriers.
	ListTrackable(ctx context.Context, carriers []string, limit int) ([]*shipment.Shipment, error)

	// ListAwaitingBooking returns paid, unbooked, processing shipments flagged
	// for support with fewer than maxAttempts booking attempts.
	ListAwaitingBooking(ctx context.Context, maxAttempts, limit int) ([]*shipment.Shipment, error)
}
