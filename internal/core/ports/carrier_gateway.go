package ports

import (
	"context"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/domain/services"
)

// Token is a carrier bearer credential.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

type AddressClassification string

const (
	ClassificationResidential AddressClassification = "RESIDENTIAL"
	ClassificationCommercial  AddressClassification = "COMMERCIAL"
	ClassificationMixed       AddressClassification = "MIXED"
	ClassificationUnknown     AddressClassification = "UNKNOWN"
)

// IsResidential treats UNKNOWN as residential for surcharge purposes.
func (c AddressClassification) IsResidential() bool {
	return c != ClassificationCommercial
}

type AddressValidation struct {
	Address        kernel.Address
	Classification AddressClassification
	Confidence     services.Confidence
}

type Booking struct {
	CarrierTrackingID string
	LabelURL          string
}

// TrackingReport is everything a carrier knows about a shipment, in carrier order.
type TrackingReport struct {
	Status shipment.Status
	Events []shipment.TrackingEntry
}

// CarrierGateway is one carrier integration. Each adapter owns its token cache.
type CarrierGateway interface {
	Code() string
	SupportsTracking() bool

	Authenticate(ctx context.Context) (Token, error)

	// ValidateAddress never fails; on any error it returns the input with ClassificationUnknown.
	ValidateAddress(ctx context.Context, address kernel.Address) AddressValidation

	// QuoteRates returns live options. Authentication failures are hard errors;
	// request-validation rejections return fallback options instead.
	QuoteRates(ctx context.Context, origin, destination kernel.Address, parcel kernel.Parcel) ([]rate.Option, error)

	// ComputeFallbackRates prices from the carrier's effective rate table without calling the carrier.
	ComputeFallbackRates(ctx context.Context, origin, destination kernel.Address, parcel kernel.Parcel) ([]rate.Option, error)

	BookShipment(ctx context.Context, s *shipment.Shipment) (Booking, error)
	PollTracking(ctx context.Context, carrierTrackingID string) (TrackingReport, error)
}

// CarrierRegistry resolves carrier codes to gateways.
type CarrierRegistry interface {
	// Get returns errs.ErrUnknownCarrier for codes that are not enabled.
	Get(code string) (CarrierGateway, error)
	// Enabled lists carrier codes in ascending order.
	Enabled() []string
}

// FallbackRateSource prices a carrier's services from stored tables.
type FallbackRateSource interface {
	// Effective prices from the table in effect now.
	Effective(ctx context.Context, carrier string, in services.PricingInput) ([]rate.Option, error)
	// LowestVersion prices from the effective table, or from the lowest version when none is effective.
	LowestVersion(ctx context.Context, carrier string, in services.PricingInput) ([]rate.Option, error)
}
