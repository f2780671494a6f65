package paymentrepo

import (
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentDTO struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ShipmentID            uuid.UUID       `gorm:"type:uuid;index"`
	Amount                decimal.Decimal `gorm:"type:numeric(12,2)"`
	Currency              string          `gorm:"type:char(3)"`
	Method                string
	Provider              string
	ProviderTransactionID string
	IdempotencyKey        string `gorm:"uniqueIndex:uq_payments_idempotency_key"`
	Status                string
	FailureReason         string
	Metadata              datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (PaymentDTO) TableName() string {
	return "payments"
}

func fromDomain(r *payment.Record) PaymentDTO {
	metadata := datatypes.JSONMap(r.Metadata())
	if metadata == nil {
		metadata = datatypes.JSONMap{}
	}
	return PaymentDTO{
		ID:                    r.ID().Bytes(),
		ShipmentID:            r.ShipmentID().Bytes(),
		Amount:                r.Amount().Amount(),
		Currency:              r.Amount().Currency(),
		Method:                r.Method(),
		Provider:              r.Provider(),
		ProviderTransactionID: r.ProviderTransactionID(),
		IdempotencyKey:        r.IdempotencyKey(),
		Status:                string(r.Status()),
		FailureReason:         r.FailureReason(),
		Metadata:              metadata,
		CreatedAt:             r.CreatedAt(),
		UpdatedAt:             r.UpdatedAt(),
	}
}

func toDomain(dto PaymentDTO) (*payment.Record, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	shipmentID, err := kernel.UUIDFromBytes(dto.ShipmentID[:])
	if err != nil {
		return nil, err
	}
	amount, err := kernel.NewMoney(dto.Amount, dto.Currency)
	if err != nil {
		return nil, err
	}

	return payment.RestoreRecord(payment.RestoreParams{
		ID:                    id,
		ShipmentID:            shipmentID,
		Amount:                amount,
		Method:                dto.Method,
		Provider:              dto.Provider,
		ProviderTransactionID: dto.ProviderTransactionID,
		IdempotencyKey:        dto.IdempotencyKey,
		Status:                payment.Status(dto.Status),
		FailureReason:         dto.FailureReason,
		Metadata:              dto.Metadata,
		CreatedAt:             dto.CreatedAt,
		UpdatedAt:             dto.UpdatedAt,
	})
}
