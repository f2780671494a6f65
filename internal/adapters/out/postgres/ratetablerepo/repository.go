package ratetablerepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormRateTableRepository implements ports.RateTableRepository using GORM.
type GormRateTableRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormRateTableRepository(db *gorm.DB, tracker aggregateTracker) *GormRateTableRepository {
	return &GormRateTableRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormRateTableRepository) Add(ctx context.Context, table *rate.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}

	dto := fromDomain(table)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(table.ID(), table)
	return nil
}

func (r *GormRateTableRepository) Get(ctx context.Context, id kernel.UUID) (*rate.Table, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto RateTableDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("rateTable", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormRateTableRepository) ListByCarrier(ctx context.Context, carrier string) ([]*rate.Table, error) {
	var dtos []RateTableDTO
	if err := r.db.WithContext(ctx).
		Where("carrier = ?", normalizeCarrier(carrier)).
		Order("version ASC").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	tables := make([]*rate.Table, 0, len(dtos))
	for _, dto := range dtos {
		t, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return tables, nil
}

// Activate must run inside a transaction: siblings are cleared before the
// target is set so the one-active-per-carrier index never sees two rows.
func (r *GormRateTableRepository) Activate(ctx context.Context, carrier string, version int) (*rate.Table, error) {
	carrier = normalizeCarrier(carrier)
	db := r.db.WithContext(ctx)

	var dto RateTableDTO
	if err := db.First(&dto, "carrier = ? AND version = ?", carrier, version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("rateTable", fmt.Sprintf("%s v%d", carrier, version))
		}
		return nil, err
	}

	if err := db.Model(&RateTableDTO{}).
		Where("carrier = ? AND version <> ? AND active", carrier, version).
		Update("active", false).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&RateTableDTO{}).
		Where("id = ?", dto.ID).
		Update("active", true).Error; err != nil {
		return nil, err
	}

	dto.Active = true
	table, err := toDomain(dto)
	if err != nil {
		return nil, err
	}

	r.tracker.TrackAggregate(table.ID(), table)
	return table, nil
}

func normalizeCarrier(carrier string) string {
	return strings.ToLower(strings.TrimSpace(carrier))
}
