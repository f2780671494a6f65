package quotecache

import (
	"errors"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"

	"github.com/shopspring/decimal"
)

type AddressDTO struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type ParcelDTO struct {
	WeightKg         float64         `json:"weightKg"`
	LengthCm         float64         `json:"lengthCm"`
	WidthCm          float64         `json:"widthCm"`
	HeightCm         float64         `json:"heightCm"`
	DeclaredValue    decimal.Decimal `json:"declaredValue"`
	DeclaredCurrency string          `json:"declaredCurrency"`
	PackageType      string          `json:"packageType"`
}

type OptionDTO struct {
	Carrier       string          `json:"carrier"`
	ServiceCode   string          `json:"serviceCode"`
	DisplayName   string          `json:"displayName"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	EstimatedDays int             `json:"estimatedDays"`
	Source        string          `json:"source"`
}

type QuoteDTO struct {
	ID          string      `json:"id"`
	Origin      AddressDTO  `json:"origin"`
	Destination AddressDTO  `json:"destination"`
	Parcel      ParcelDTO   `json:"parcel"`
	Options     []OptionDTO `json:"options"`
	Selected    *OptionDTO  `json:"selected,omitempty"`
	NoLiveRate  bool        `json:"noLiveRate"`
	CreatedAt   time.Time   `json:"createdAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

func fromDomain(q *rate.Quote) QuoteDTO {
	dto := QuoteDTO{
		ID:          q.ID().String(),
		Origin:      addressFromDomain(q.Origin()),
		Destination: addressFromDomain(q.Destination()),
		Parcel:      parcelFromDomain(q.Parcel()),
		NoLiveRate:  q.NoLiveRate(),
		CreatedAt:   q.CreatedAt(),
		ExpiresAt:   q.ExpiresAt(),
	}
	for _, o := range q.Options() {
		dto.Options = append(dto.Options, optionFromDomain(o))
	}
	if selected, ok := q.Selected(); ok {
		s := optionFromDomain(selected)
		dto.Selected = &s
	}
	return dto
}

func toDomain(dto QuoteDTO) (*rate.Quote, error) {
	id, idErr := kernel.UUIDFromString(dto.ID)
	origin, originErr := dto.Origin.toDomain()
	destination, destinationErr := dto.Destination.toDomain()
	parcel, parcelErr := dto.Parcel.toDomain()
	if err := errors.Join(idErr, originErr, destinationErr, parcelErr); err != nil {
		return nil, err
	}

	options := make([]rate.Option, 0, len(dto.Options))
	for _, o := range dto.Options {
		option, err := o.toDomain()
		if err != nil {
			return nil, err
		}
		options = append(options, option)
	}

	var selected *rate.Option
	if dto.Selected != nil {
		option, err := dto.Selected.toDomain()
		if err != nil {
			return nil, err
		}
		selected = &option
	}

	return rate.RestoreQuote(id, origin, destination, parcel, options, selected, dto.NoLiveRate, dto.CreatedAt, dto.ExpiresAt)
}

func addressFromDomain(a kernel.Address) AddressDTO {
	return AddressDTO{
		Street:     a.Street(),
		City:       a.City(),
		State:      a.State(),
		PostalCode: a.PostalCode(),
		Country:    a.Country(),
	}
}

func (a AddressDTO) toDomain() (kernel.Address, error) {
	return kernel.NewAddress(a.Street, a.City, a.State, a.PostalCode, a.Country)
}

func parcelFromDomain(p kernel.Parcel) ParcelDTO {
	return ParcelDTO{
		WeightKg:         p.WeightKg(),
		LengthCm:         p.LengthCm(),
		WidthCm:          p.WidthCm(),
		HeightCm:         p.HeightCm(),
		DeclaredValue:    p.DeclaredValue().Amount(),
		DeclaredCurrency: p.DeclaredValue().Currency(),
		PackageType:      p.PackageType().String(),
	}
}

func (p ParcelDTO) toDomain() (kernel.Parcel, error) {
	declared, err := kernel.NewMoney(p.DeclaredValue, p.DeclaredCurrency)
	if err != nil {
		return kernel.Parcel{}, err
	}
	packageType, err := kernel.ParsePackageType(p.PackageType)
	if err != nil {
		return kernel.Parcel{}, err
	}
	return kernel.NewParcel(p.WeightKg, p.LengthCm, p.WidthCm, p.HeightCm, declared, packageType)
}

func optionFromDomain(o rate.Option) OptionDTO {
	return OptionDTO{
		Carrier:       o.Carrier,
		ServiceCode:   o.ServiceCode,
		DisplayName:   o.DisplayName,
		Price:         o.Price.Amount(),
		Currency:      o.Price.Currency(),
		EstimatedDays: o.EstimatedDays,
		Source:        string(o.Source),
	}
}

func (o OptionDTO) toDomain() (rate.Option, error) {
	price, err := kernel.NewMoney(o.Price, o.Currency)
	if err != nil {
		return rate.Option{}, err
	}
	return rate.Option{
		Carrier:       o.Carrier,
		ServiceCode:   o.ServiceCode,
		DisplayName:   o.DisplayName,
		Price:         price,
		EstimatedDays: o.EstimatedDays,
		Source:        rate.Source(o.Source),
	}, nil
}
