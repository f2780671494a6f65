package shipmentrepo

import (
	"errors"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/shipment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ShipmentDTO struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TrackingCode string    `gorm:"type:varchar(13);uniqueIndex:uq_shipments_tracking_code"`
	RequesterID  string

	Sender    PartyDTO  `gorm:"embedded;embeddedPrefix:sender_"`
	Recipient PartyDTO  `gorm:"embedded;embeddedPrefix:recipient_"`
	Parcel    ParcelDTO `gorm:"embedded"`

	Carrier     string
	ServiceCode string
	Price       decimal.Decimal `gorm:"type:numeric(12,2)"`
	Currency    string          `gorm:"type:char(3)"`
	QuoteID     *uuid.UUID      `gorm:"type:uuid"`

	Status            string
	PaymentStatus     string
	PaymentReference  string
	PaymentAttempts   int
	CarrierTrackingID string
	LabelURL          string
	BookingAttempts   int
	NeedsSupport      bool
	SupportNote       string
	TrackingHistory   datatypes.JSONSlice[TrackingEntryDTO] `gorm:"type:jsonb"`

	DedupKey  string `gorm:"index"`
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ShipmentDTO) TableName() string {
	return "shipments"
}

type PartyDTO struct {
	Name       string
	Email      string
	Phone      string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string `gorm:"type:char(2)"`
}

type ParcelDTO struct {
	WeightKg         decimal.Decimal `gorm:"type:numeric(10,3)"`
	LengthCm         decimal.Decimal `gorm:"type:numeric(10,2)"`
	WidthCm          decimal.Decimal `gorm:"type:numeric(10,2)"`
	HeightCm         decimal.Decimal `gorm:"type:numeric(10,2)"`
	DeclaredValue    decimal.Decimal `gorm:"type:numeric(12,2)"`
	DeclaredCurrency string          `gorm:"type:char(3)"`
	PackageType      string
}

// TrackingEntryDTO is one element of the tracking_history JSON array, oldest first.
type TrackingEntryDTO struct {
	Status    string    `json:"status"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

func fromDomain(s *shipment.Shipment) ShipmentDTO {
	var quoteID *uuid.UUID
	if id := s.QuoteID(); id != nil {
		raw := id.Bytes()
		quoteID = &raw
	}

	history := make(datatypes.JSONSlice[TrackingEntryDTO], 0, len(s.HistoryOldestFirst()))
	for _, e := range s.HistoryOldestFirst() {
		history = append(history, TrackingEntryDTO{
			Status:    e.Status,
			Location:  e.Location,
			Timestamp: e.Timestamp.UTC(),
			Note:      e.Note,
		})
	}

	parcel := s.Parcel()
	return ShipmentDTO{
		ID:           s.ID().Bytes(),
		TrackingCode: s.TrackingCode().String(),
		RequesterID:  s.RequesterID(),
		Sender:       partyFromDomain(s.Sender()),
		Recipient:    partyFromDomain(s.Recipient()),
		Parcel: ParcelDTO{
			WeightKg:         decimal.NewFromFloat(parcel.WeightKg()),
			LengthCm:         decimal.NewFromFloat(parcel.LengthCm()),
			WidthCm:          decimal.NewFromFloat(parcel.WidthCm()),
			HeightCm:         decimal.NewFromFloat(parcel.HeightCm()),
			DeclaredValue:    parcel.DeclaredValue().Amount(),
			DeclaredCurrency: parcel.DeclaredValue().Currency(),
			PackageType:      parcel.PackageType().String(),
		},
		Carrier:           s.Carrier(),
		ServiceCode:       s.ServiceCode(),
		Price:             s.Price().Amount(),
		Currency:          s.Price().Currency(),
		QuoteID:           quoteID,
		Status:            s.Status().String(),
		PaymentStatus:     s.PaymentStatus().String(),
		PaymentReference:  s.PaymentReference(),
		PaymentAttempts:   s.PaymentAttempts(),
		CarrierTrackingID: s.CarrierTrackingID(),
		LabelURL:          s.LabelURL(),
		BookingAttempts:   s.BookingAttempts(),
		NeedsSupport:      s.NeedsSupport(),
		SupportNote:       s.SupportNote(),
		TrackingHistory:   history,
		DedupKey:          s.DedupKey(),
		Version:           s.Version(),
		CreatedAt:         s.CreatedAt(),
		UpdatedAt:         s.UpdatedAt(),
	}
}

func partyFromDomain(p kernel.Party) PartyDTO {
	return PartyDTO{
		Name:       p.Contact.Name(),
		Email:      p.Contact.Email(),
		Phone:      p.Contact.Phone(),
		Street:     p.Address.Street(),
		City:       p.Address.City(),
		State:      p.Address.State(),
		PostalCode: p.Address.PostalCode(),
		Country:    p.Address.Country(),
	}
}

func toDomain(dto ShipmentDTO) (*shipment.Shipment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var quoteID *kernel.UUID
	if dto.QuoteID != nil {
		qID, quoteErr := kernel.UUIDFromBytes((*dto.QuoteID)[:])
		if quoteErr != nil {
			return nil, quoteErr
		}
		quoteID = &qID
	}

	sender, senderErr := partyToDomain(dto.Sender)
	recipient, recipientErr := partyToDomain(dto.Recipient)
	parcel, parcelErr := parcelToDomain(dto.Parcel)
	price, priceErr := kernel.NewMoney(dto.Price, dto.Currency)
	status, statusErr := shipment.ParseStatus(dto.Status)
	paymentStatus, paymentErr := shipment.ParsePaymentStatus(dto.PaymentStatus)
	if err = errors.Join(senderErr, recipientErr, parcelErr, priceErr, statusErr, paymentErr); err != nil {
		return nil, err
	}

	history := make([]shipment.TrackingEntry, 0, len(dto.TrackingHistory))
	for _, e := range dto.TrackingHistory {
		history = append(history, shipment.TrackingEntry{
			Status:    e.Status,
			Location:  e.Location,
			Timestamp: e.Timestamp,
			Note:      e.Note,
		})
	}

	return shipment.Restore(shipment.RestoreParams{
		ID:                id,
		TrackingCode:      shipment.TrackingCode(dto.TrackingCode),
		RequesterID:       dto.RequesterID,
		Sender:            sender,
		Recipient:         recipient,
		Parcel:            parcel,
		Carrier:           dto.Carrier,
		ServiceCode:       dto.ServiceCode,
		Price:             price,
		QuoteID:           quoteID,
		Status:            status,
		PaymentStatus:     paymentStatus,
		PaymentReference:  dto.PaymentReference,
		PaymentAttempts:   dto.PaymentAttempts,
		CarrierTrackingID: dto.CarrierTrackingID,
		LabelURL:          dto.LabelURL,
		BookingAttempts:   dto.BookingAttempts,
		NeedsSupport:      dto.NeedsSupport,
		SupportNote:       dto.SupportNote,
		History:           history,
		Version:           dto.Version,
		CreatedAt:         dto.CreatedAt,
		UpdatedAt:         dto.UpdatedAt,
	})
}

func partyToDomain(dto PartyDTO) (kernel.Party, error) {
	addr, err := kernel.NewAddress(dto.Street, dto.City, dto.State, dto.PostalCode, dto.Country)
	if err != nil {
		return kernel.Party{}, err
	}
	contact, err := kernel.NewContact(dto.Name, dto.Email, dto.Phone)
	if err != nil {
		return kernel.Party{}, err
	}
	return kernel.NewParty(addr, contact)
}

func parcelToDomain(dto ParcelDTO) (kernel.Parcel, error) {
	declared, err := kernel.NewMoney(dto.DeclaredValue, dto.DeclaredCurrency)
	if err != nil {
		return kernel.Parcel{}, err
	}
	packageType, err := kernel.ParsePackageType(dto.PackageType)
	if err != nil {
		return kernel.Parcel{}, err
	}
	return kernel.NewParcel(
		dto.WeightKg.InexactFloat64(),
		dto.LengthCm.InexactFloat64(),
		dto.WidthCm.InexactFloat64(),
		dto.HeightCm.InexactFloat64(),
		declared,
		packageType,
	)
}
