package queries

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const getShipmentSQL = `
	SELECT
		id,
		tracking_code,
		status,
		payment_status,
		carrier,
		service_code,
		price,
		currency,
		carrier_tracking_id,
		label_url,
		needs_support,
		sender_postal_code,
		recipient_postal_code,
		weight_kg,
		tracking_history,
		created_at,
		updated_at
	FROM shipments
`

// GetShipmentQueryHandler reads shipments with plain SQL, bypassing the aggregate.
type GetShipmentQueryHandler struct {
	db *gorm.DB
}

func NewGetShipmentQueryHandler(db *gorm.DB) GetShipmentQueryHandler {
	return GetShipmentQueryHandler{db: db}
}

func (h GetShipmentQueryHandler) Handle(ctx context.Context, query GetShipmentQuery) (GetShipmentQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetShipmentQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)
	var row *sql.Row
	if query.id != nil {
		row = db.Raw(getShipmentSQL+"WHERE id = ?", query.id.Bytes()).Row()
	} else {
		row = db.Raw(getShipmentSQL+"WHERE tracking_code = ?", query.trackingCode.String()).Row()
	}

	var (
		res        GetShipmentQueryResponse
		id         uuid.UUID
		price      decimal.Decimal
		currency   string
		weight     decimal.Decimal
		rawHistory datatypes.JSONSlice[HistoryEntry]
	)
	err := row.Scan(
		&id,
		&res.TrackingCode,
		&res.Status,
		&res.PaymentStatus,
		&res.Carrier,
		&res.ServiceCode,
		&price,
		&currency,
		&res.CarrierTrackingID,
		&res.LabelURL,
		&res.NeedsSupport,
		&res.SenderPostcode,
		&res.RecipientPostcode,
		&weight,
		&rawHistory,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GetShipmentQueryResponse{}, notFound(query)
		}
		return GetShipmentQueryResponse{}, err
	}

	if res.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return GetShipmentQueryResponse{}, err
	}
	if res.Price, err = kernel.NewMoney(price, currency); err != nil {
		return GetShipmentQueryResponse{}, err
	}
	res.WeightKg = weight.InexactFloat64()

	res.History = []HistoryEntry(rawHistory)
	slices.Reverse(res.History)
	if res.History == nil {
		res.History = []HistoryEntry{}
	}

	return res, nil
}

func notFound(query GetShipmentQuery) error {
	if query.id != nil {
		return errs.NewObjectNotFoundError("shipmentId", query.id.String())
	}
	return errs.NewObjectNotFoundError("trackingCode", query.trackingCode.String())
}
