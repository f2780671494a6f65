package carrier

import (
	"context"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/domain/services"
	"shipping/internal/core/ports"
)

// Fallback prices one carrier from its effective table. Adapters embed it to
// implement ComputeFallbackRates.
type Fallback struct {
	carrier string
	source  ports.FallbackRateSource
}

func NewFallback(carrier string, source ports.FallbackRateSource) Fallback {
	return Fallback{carrier: carrier, source: source}
}

// ComputeFallbackRates treats an unclassified destination as residential.
func (f Fallback) ComputeFallbackRates(ctx context.Context, origin, destination kernel.Address, parcel kernel.Parcel) ([]rate.Option, error) {
	return f.Price(ctx, origin, destination, parcel, ports.ClassificationUnknown)
}

// Price uses the destination classification for the residential surcharge.
func (f Fallback) Price(
	ctx context.Context,
	origin, destination kernel.Address,
	parcel kernel.Parcel,
	classification ports.AddressClassification,
) ([]rate.Option, error) {
	return f.source.Effective(ctx, f.carrier, services.PricingInput{
		Origin:      origin,
		Destination: destination,
		Parcel:      parcel,
		Residential: classification.IsResidential(),
		Source:      rate.SourceFallback,
	})
}
