package shipmentrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormShipmentRepository implements ports.ShipmentRepository using GORM.
type GormShipmentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormShipmentRepository(db *gorm.DB, tracker aggregateTracker) *GormShipmentRepository {
	return &GormShipmentRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts a new shipment at version 1.
func (r *GormShipmentRepository) Add(ctx context.Context, aggregate *shipment.Shipment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if aggregate.TrackingCode() == "" {
		return errs.NewValueIsRequiredError("trackingCode")
	}

	dto := fromDomain(aggregate)
	dto.Version = 1
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	aggregate.SetVersion(dto.Version)
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes every column guarded by the version the aggregate was loaded with.
func (r *GormShipmentRepository) Update(ctx context.Context, aggregate *shipment.Shipment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	expected := dto.Version
	dto.Version = expected + 1

	result := r.db.WithContext(ctx).
		Model(&ShipmentDTO{}).
		Where("id = ? AND version = ?", dto.ID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		exists, err := r.exists(ctx, "id = ?", dto.ID)
		if err != nil {
			return err
		}
		if !exists {
			return errs.NewObjectNotFoundError("shipment", aggregate.ID().String())
		}
		return fmt.Errorf("%w: shipment %s at version %d", errs.ErrConcurrentModification, aggregate.ID(), expected)
	}

	aggregate.SetVersion(dto.Version)
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormShipmentRepository) Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ShipmentDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("shipment", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormShipmentRepository) GetByTrackingCode(ctx context.Context, code shipment.TrackingCode) (*shipment.Shipment, error) {
	if err := code.Validate(); err != nil {
		return nil, err
	}

	var dto ShipmentDTO
	if err := r.db.WithContext(ctx).First(&dto, "tracking_code = ?", code.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("trackingCode", code.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormShipmentRepository) TrackingCodeExists(ctx context.Context, code shipment.TrackingCode) (bool, error) {
	return r.exists(ctx, "tracking_code = ?", code.String())
}

// LockDraftSubmission takes a transaction-scoped advisory lock on dedupKey.
// Outside a transaction the lock is released as soon as the statement ends.
func (r *GormShipmentRepository) LockDraftSubmission(ctx context.Context, dedupKey string) error {
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", dedupKey).Error
}

// FindRecentDraft returns the newest unpaid draft sharing dedupKey.
func (r *GormShipmentRepository) FindRecentDraft(ctx context.Context, dedupKey string, since time.Time) (*shipment.Shipment, error) {
	var dto ShipmentDTO
	err := r.db.WithContext(ctx).
		Where("dedup_key = ? AND payment_status = ? AND status IN ? AND created_at >= ?",
			dedupKey,
			shipment.Unpaid.String(),
			[]string{shipment.Draft.String(), shipment.PaymentFailed.String()},
			since.UTC(),
		).
		Order("created_at DESC").
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("dedupKey", dedupKey)
		}
		return nil, err
	}

	return toDomain(dto)
}

// ListTrackable returns paid, booked, non-terminal shipments, least recently updated first.
func (r *GormShipmentRepository) ListTrackable(ctx context.Context, carriers []string, limit int) ([]*shipment.Shipment, error) {
	if len(carriers) == 0 {
		return []*shipment.Shipment{}, nil
	}

	var dtos []ShipmentDTO
	err := r.db.WithContext(ctx).
		Where("carrier IN ? AND payment_status = ? AND carrier_tracking_id <> '' AND status NOT IN ?",
			carriers,
			shipment.Paid.String(),
			[]string{shipment.Delivered.String(), shipment.Cancelled.String()},
		).
		Order("updated_at ASC").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainList(dtos)
}

// ListAwaitingBooking returns paid shipments whose carrier booking failed and may be retried.
func (r *GormShipmentRepository) ListAwaitingBooking(ctx context.Context, maxAttempts, limit int) ([]*shipment.Shipment, error) {
	var dtos []ShipmentDTO
	err := r.db.WithContext(ctx).
		Where("needs_support AND payment_status = ? AND status = ? AND carrier_tracking_id = '' AND booking_attempts < ?",
			shipment.Paid.String(),
			shipment.Processing.String(),
			maxAttempts,
		).
		Order("updated_at ASC").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainList(dtos)
}

func (r *GormShipmentRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ShipmentDTO{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func toDomainList(dtos []ShipmentDTO) ([]*shipment.Shipment, error) {
	shipments := make([]*shipment.Shipment, 0, len(dtos))
	for _, dto := range dtos {
		s, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, s)
	}
	return shipments, nil
}
