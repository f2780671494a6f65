package services

import (
	"errors"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"

	"github.com/shopspring/decimal"
)

// DefaultRemoteDistanceKm is the centroid distance above which the delivery-area surcharge applies.
const DefaultRemoteDistanceKm = 300.0

var hundred = decimal.NewFromInt(100)

// FallbackPricer prices a parcel from a carrier rate table with no external calls:
//
//	price = (base + perKg × billableWeight) × (1 + fuel% + residential% [+ deliveryArea%])
//
// rounded to two places. Billable weight is max(actual, L×W×H / divisor).
// Delivery-area applies across borders or beyond the remote distance; residential
// applies when the destination is residential or its classification is unknown.
type FallbackPricer struct {
	remoteDistanceKm float64
}

func NewFallbackPricer(remoteDistanceKm float64) FallbackPricer {
	if remoteDistanceKm <= 0 {
		remoteDistanceKm = DefaultRemoteDistanceKm
	}
	return FallbackPricer{remoteDistanceKm: remoteDistanceKm}
}

// PricingInput is everything the pricer needs besides the table.
type PricingInput struct {
	Origin      kernel.Address
	Destination kernel.Address
	Parcel      kernel.Parcel
	Residential bool
	Source      rate.Source
}

// Price returns one option per table service, in table order.
func (p FallbackPricer) Price(table *rate.Table, in PricingInput) ([]rate.Option, error) {
	if err := errors.Join(table.Validate(), in.Origin.Validate(), in.Destination.Validate(), in.Parcel.Validate()); err != nil {
		return nil, err
	}

	source := in.Source
	if source == "" {
		source = rate.SourceFallback
	}

	billable := decimal.NewFromFloat(in.Parcel.BillableWeightKg(table.Divisor()))
	multiplier := p.multiplier(table.Surcharges(), in)

	services := table.Services()
	options := make([]rate.Option, 0, len(services))
	for _, svc := range services {
		amount := svc.Base.Add(svc.PerKg.Mul(billable)).Mul(multiplier)
		price, err := kernel.NewMoney(amount, table.Currency())
		if err != nil {
			return nil, err
		}
		options = append(options, rate.Option{
			Carrier:       table.Carrier(),
			ServiceCode:   svc.ServiceCode,
			DisplayName:   svc.DisplayName,
			Price:         price,
			EstimatedDays: svc.EstimatedDays,
			Source:        source,
		})
	}

	return options, nil
}

// IsRemote reports whether the delivery-area surcharge applies to the route.
func (p FallbackPricer) IsRemote(origin, destination kernel.Address) bool {
	if origin.Country() != destination.Country() {
		return true
	}
	d, ok := EstimateDistanceKm(origin, destination)
	return ok && d > p.remoteDistanceKm
}

func (p FallbackPricer) multiplier(s rate.Surcharges, in PricingInput) decimal.Decimal {
	pct := s.FuelPct
	if in.Residential {
		pct = pct.Add(s.ResidentialPct)
	}
	if p.IsRemote(in.Origin, in.Destination) {
		pct = pct.Add(s.DeliveryAreaPct)
	}
	return decimal.NewFromInt(1).Add(pct.Div(hundred))
}
