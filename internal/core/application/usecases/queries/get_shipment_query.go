// Package queries holds the read side: shipment lookups straight from SQL and
// rate quotes computed by the rate engine.
package queries

import (
	"errors"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

var ErrGetShipmentQueryIsNotConstructed = errors.New(
	"GetShipmentQuery must be created via NewGetShipmentQueryByID or NewGetShipmentQueryByTrackingCode",
)

// GetShipmentQuery looks a shipment up by internal id or by customer tracking code.
type GetShipmentQuery struct {
	id           *kernel.UUID
	trackingCode shipment.TrackingCode
	guard        guard.ConstructorGuard
}

func NewGetShipmentQueryByID(id kernel.UUID) (GetShipmentQuery, error) {
	if err := id.Validate(); err != nil {
		return GetShipmentQuery{}, err
	}
	return GetShipmentQuery{id: &id, guard: guard.NewConstructorGuard()}, nil
}

func NewGetShipmentQueryByTrackingCode(code string) (GetShipmentQuery, error) {
	trackingCode, err := shipment.ParseTrackingCode(code)
	if err != nil {
		return GetShipmentQuery{}, errs.NewValueIsInvalidErrorWithCause("trackingCode", err)
	}
	return GetShipmentQuery{trackingCode: trackingCode, guard: guard.NewConstructorGuard()}, nil
}

func (q GetShipmentQuery) Validate() error {
	return q.guard.Validate(ErrGetShipmentQueryIsNotConstructed)
}

// GetShipmentQueryResponse is the customer-facing view of a shipment.
// History is newest-first.
type GetShipmentQueryResponse struct {
	ID                kernel.UUID
	TrackingCode      string
	Status            string
	PaymentStatus     string
	Carrier           string
	ServiceCode       string
	Price             kernel.Money
	CarrierTrackingID string
	LabelURL          string
	NeedsSupport      bool
	SenderPostcode    string
	RecipientPostcode string
	WeightKg          float64
	History           []HistoryEntry
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type HistoryEntry struct {
	Status    string    `json:"status"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}
