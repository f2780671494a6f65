package ratetablerepo

import (
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type RateTableDTO struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Carrier         string    `gorm:"uniqueIndex:uq_rate_tables_carrier_version"`
	Version         int       `gorm:"uniqueIndex:uq_rate_tables_carrier_version"`
	EffectiveFrom   time.Time
	Active          bool
	Currency        string                              `gorm:"type:char(3)"`
	Services        datatypes.JSONSlice[ServiceRateDTO] `gorm:"type:jsonb"`
	FuelPct         decimal.Decimal                     `gorm:"type:numeric(6,3)"`
	DeliveryAreaPct decimal.Decimal                     `gorm:"type:numeric(6,3)"`
	ResidentialPct  decimal.Decimal                     `gorm:"type:numeric(6,3)"`
	Divisor         decimal.Decimal                     `gorm:"type:numeric(10,2)"`
	CreatedAt       time.Time
}

func (RateTableDTO) TableName() string {
	return "rate_tables"
}

type ServiceRateDTO struct {
	ServiceCode   string          `json:"serviceCode"`
	DisplayName   string          `json:"displayName"`
	Base          decimal.Decimal `json:"base"`
	PerKg         decimal.Decimal `json:"perKg"`
	EstimatedDays int             `json:"estimatedDays"`
}

func fromDomain(t *rate.Table) RateTableDTO {
	services := make(datatypes.JSONSlice[ServiceRateDTO], 0, len(t.Services()))
	for _, s := range t.Services() {
		services = append(services, ServiceRateDTO(s))
	}

	surcharges := t.Surcharges()
	return RateTableDTO{
		ID:              t.ID().Bytes(),
		Carrier:         t.Carrier(),
		Version:         t.Version(),
		EffectiveFrom:   t.EffectiveFrom(),
		Active:          t.IsActive(),
		Currency:        t.Currency(),
		Services:        services,
		FuelPct:         surcharges.FuelPct,
		DeliveryAreaPct: surcharges.DeliveryAreaPct,
		ResidentialPct:  surcharges.ResidentialPct,
		Divisor:         decimal.NewFromFloat(t.Divisor()),
	}
}

func toDomain(dto RateTableDTO) (*rate.Table, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	services := make([]rate.ServiceRate, 0, len(dto.Services))
	for _, s := range dto.Services {
		services = append(services, rate.ServiceRate(s))
	}

	return rate.RestoreTable(
		id,
		dto.Carrier,
		dto.Version,
		dto.EffectiveFrom,
		dto.Active,
		dto.Currency,
		services,
		rate.Surcharges{
			FuelPct:         dto.FuelPct,
			DeliveryAreaPct: dto.DeliveryAreaPct,
			ResidentialPct:  dto.ResidentialPct,
		},
		dto.Divisor.InexactFloat64(),
	)
}
