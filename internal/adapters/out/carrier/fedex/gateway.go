// Package fedex implements ports.CarrierGateway against the FedEx REST APIs
// (OAuth, address resolution, rate quotes, ship and track).
package fedex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shipping/internal/adapters/out/carrier"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/domain/services"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"
)

const Code = "fedex"

type Config struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	AccountNumber string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

type Gateway struct {
	carrier.Fallback

	client *carrier.Client
	tokens *carrier.TokenCache
	cfg    Config
	logger *slog.Logger
}

var _ ports.CarrierGateway = (*Gateway)(nil)

func NewGateway(cfg Config, fallback ports.FallbackRateSource, logger *slog.Logger) (*Gateway, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errs.NewValueIsRequiredError("fedex client credentials")
	}

	client, err := carrier.NewClient(carrier.ClientConfig{
		Carrier:       Code,
		BaseURL:       cfg.BaseURL,
		Timeout:       cfg.Timeout,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
		HTTPClient:    cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		Fallback: carrier.NewFallback(Code, fallback),
		client:   client,
		cfg:      cfg,
		logger:   logger.With("carrier", Code),
	}
	g.tokens = carrier.NewTokenCache(g.fetchToken)
	return g, nil
}

func (g *Gateway) Code() string           { return Code }
func (g *Gateway) SupportsTracking() bool { return true }

func (g *Gateway) Authenticate(ctx context.Context) (ports.Token, error) {
	return g.tokens.Get(ctx)
}

func (g *Gateway) fetchToken(ctx context.Context) (string, time.Duration, error) {
	var resp tokenResponse
	err := g.client.Do(ctx, carrier.Request{
		Operation: "authenticate",
		Path:      "/oauth/token",
		Form: url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {g.cfg.ClientID},
			"client_secret": {g.cfg.ClientSecret},
		},
	}, &resp)
	if err != nil {
		return "", 0, asAuthentication(err)
	}
	if resp.AccessToken == "" {
		return "", 0, errs.NewCarrierError(Code, "authenticate", errs.CarrierAuthentication, 0, errors.New("empty access token"))
	}
	return resp.AccessToken, time.Duration(resp.ExpiresIn) * time.Second, nil
}

// call sends an authorized request; a 401 drops the cached token so the next call re-authenticates.
func (g *Gateway) call(ctx context.Context, req carrier.Request, out any) error {
	token, err := g.Authenticate(ctx)
	if err != nil {
		return err
	}
	req.Header = carrier.BearerHeader(token.AccessToken)

	err = g.client.Do(ctx, req, out)
	if carrier.IsAuthFailure(err) {
		g.tokens.Invalidate()
	}
	return err
}

// ValidateAddress resolves the address through FedEx and repairs city/state
// defects in the answer. Any failure yields the input with UNKNOWN classification.
func (g *Gateway) ValidateAddress(ctx context.Context, addr kernel.Address) ports.AddressValidation {
	unknown := ports.AddressValidation{
		Address:        addr,
		Classification: ports.ClassificationUnknown,
		Confidence:     services.ConfidenceNone,
	}

	var resp addressValidationResponse
	err := g.call(ctx, carrier.Request{
		Operation: "validate address",
		Path:      "/address/v1/addresses/resolve",
		JSON: addressValidationRequest{
			AddressesToValidate: []addressToValidate{{Address: toAddress(addr, false)}},
		},
	}, &resp)
	if err != nil {
		g.logger.WarnContext(ctx, "address validation failed", "error", err)
		return unknown
	}
	if len(resp.Output.ResolvedAddresses) == 0 {
		return unknown
	}

	resolved := resp.Output.ResolvedAddresses[0]
	cleaned := services.CleanupAddress(services.RawAddress{
		Street:     strings.Join(resolved.StreetLinesToken, " "),
		City:       resolved.City,
		State:      resolved.StateOrProvinceCode,
		PostalCode: resolved.PostalCode,
		Country:    resolved.CountryCode,
	}, addr, addr.Country())

	return ports.AddressValidation{
		Address:        cleaned.Address,
		Classification: classify(resolved.Classification),
		Confidence:     cleaned.Confidence,
	}
}

// QuoteRates asks FedEx for live rates. A request FedEx rejects is priced
// from the rate table instead; authentication and transport failures are returned.
func (g *Gateway) QuoteRates(ctx context.Context, origin, destination kernel.Address, parcel kernel.Parcel) ([]rate.Option, error) {
	from := g.ValidateAddress(ctx, origin)
	to := g.ValidateAddress(ctx, destination)

	var req rateRequest
	req.AccountNumber = accountNumber{Value: g.cfg.AccountNumber}
	req.RequestedShipment.Shipper = party{Address: toAddress(from.Address, false)}
	req.RequestedShipment.Recipient = party{Address: toAddress(to.Address, to.Classification.IsResidential())}
	req.RequestedShipment.PickupType = "DROPOFF_AT_FEDEX_LOCATION"
	req.RequestedShipment.RateRequestType = []string{"ACCOUNT"}
	req.RequestedShipment.RequestedPackageLineItems = []packageLineItem{toLineItem(parcel)}

	var resp rateResponse
	err := g.call(ctx, carrier.Request{Operation: "quote", Path: "/rate/v1/rates/quotes", JSON: req}, &resp)
	if errors.Is(err, errs.ErrCarrierRejected) {
		g.logger.InfoContext(ctx, "rate request rejected, pricing from table", "error", err)
		return g.Price(ctx, origin, destination, parcel, to.Classification)
	}
	if err != nil {
		return nil, err
	}

	options := make([]rate.Option, 0, len(resp.Output.RateReplyDetails))
	for _, detail := range resp.Output.RateReplyDetails {
		if len(detail.RatedShipmentDetails) == 0 {
			continue
		}
		charge := detail.RatedShipmentDetails[0]
		price, priceErr := kernel.NewMoney(charge.TotalNetCharge, charge.Currency)
		if priceErr != nil {
			g.logger.WarnContext(ctx, "skipping unpriced service", "service", detail.ServiceType, "error", priceErr)
			continue
		}
		options = append(options, rate.Option{
			Carrier:       Code,
			ServiceCode:   detail.ServiceType,
			DisplayName:   displayName(detail.ServiceType, detail.ServiceName),
			Price:         price,
			EstimatedDays: transitDays(detail.ServiceType, detail.OperationalDetail.TransitTime),
			Source:        rate.SourceLive,
		})
	}

	if len(options) == 0 {
		return g.Price(ctx, origin, destination, parcel, to.Classification)
	}
	return options, nil
}

// BookShipment creates the FedEx shipment and label. Every failure is a booking error.
func (g *Gateway) BookShipment(ctx context.Context, s *shipment.Shipment) (ports.Booking, error) {
	if !s.HasCarrier() {
		return ports.Booking{}, bookingError(fmt.Errorf("%w: no service selected", errs.ErrInvalidState))
	}

	var req shipRequest
	req.LabelResponseOptions = "URL_ONLY"
	req.AccountNumber = accountNumber{Value: g.cfg.AccountNumber}
	req.RequestedShipment.Shipper = toParty(s.Sender())
	req.RequestedShipment.Recipients = []party{toParty(s.Recipient())}
	req.RequestedShipment.ServiceType = s.ServiceCode()
	req.RequestedShipment.PackagingType = "YOUR_PACKAGING"
	req.RequestedShipment.PickupType = "DROPOFF_AT_FEDEX_LOCATION"
	req.RequestedShipment.ShippingChargesPayment = chargesPayment{PaymentType: "SENDER"}
	req.RequestedShipment.LabelSpecification = labelSpec{ImageType: "PDF", LabelStockType: "PAPER_85X11_TOP_HALF_LABEL"}
	req.RequestedShipment.RequestedPackageLineItems = []packageLineItem{toLineItem(s.Parcel())}

	var resp shipResponse
	if err := g.call(ctx, carrier.Request{Operation: "book", Path: "/ship/v1/shipments", JSON: req}, &resp); err != nil {
		return ports.Booking{}, bookingError(err)
	}
	if len(resp.Output.TransactionShipments) == 0 || resp.Output.TransactionShipments[0].MasterTrackingNumber == "" {
		return ports.Booking{}, bookingError(errors.New("response has no tracking number"))
	}

	created := resp.Output.TransactionShipments[0]
	booking := ports.Booking{CarrierTrackingID: created.MasterTrackingNumber}
	if len(created.PieceResponses) > 0 && len(created.PieceResponses[0].PackageDocuments) > 0 {
		booking.LabelURL = created.PieceResponses[0].PackageDocuments[0].URL
	}
	return booking, nil
}

func (g *Gateway) PollTracking(ctx context.Context, carrierTrackingID string) (ports.TrackingReport, error) {
	req := trackRequest{
		IncludeDetailedScans: true,
		TrackingInfo:         []trackingInfo{{TrackingNumberInfo: trackingNumberInfo{TrackingNumber: carrierTrackingID}}},
	}

	var resp trackResponse
	if err := g.call(ctx, carrier.Request{Operation: "track", Path: "/track/v1/trackingnumbers", JSON: req}, &resp); err != nil {
		return ports.TrackingReport{}, err
	}
	if len(resp.Output.CompleteTrackResults) == 0 || len(resp.Output.CompleteTrackResults[0].TrackResults) == 0 {
		return ports.TrackingReport{}, errs.NewCarrierError(Code, "track", errs.CarrierRejected, 0, errors.New("no track results"))
	}

	result := resp.Output.CompleteTrackResults[0].TrackResults[0]
	if result.Error != nil {
		return ports.TrackingReport{}, errs.NewCarrierError(Code, "track", errs.CarrierRejected, 0,
			fmt.Errorf("%s: %s", result.Error.Code, result.Error.Message))
	}

	return toTrackingReport(result, g.logger), nil
}

func asAuthentication(err error) error {
	var ce *errs.CarrierError
	if errors.As(err, &ce) && ce.Kind == errs.CarrierRejected {
		return errs.NewCarrierError(ce.Carrier, ce.Operation, errs.CarrierAuthentication, ce.StatusCode, ce.Cause)
	}
	return err
}

func bookingError(cause error) error {
	return errs.NewCarrierError(Code, "book", errs.CarrierBooking, 0, cause)
}

func toAddress(a kernel.Address, residential bool) address {
	return address{
		StreetLines:         []string{a.Street()},
		City:                a.City(),
		StateOrProvinceCode: a.State(),
		PostalCode:          a.PostalCode(),
		CountryCode:         a.Country(),
		Residential:         residential,
	}
}

func toParty(p kernel.Party) party {
	return party{
		Contact: &contact{
			PersonName:   p.Contact.Name(),
			EmailAddress: p.Contact.Email(),
			PhoneNumber:  p.Contact.Phone(),
		},
		Address: toAddress(p.Address, false),
	}
}

func toLineItem(p kernel.Parcel) packageLineItem {
	return packageLineItem{
		Weight: weight{Units: "KG", Value: p.WeightKg()},
		Dimensions: dimensions{
			Length: p.LengthCm(),
			Width:  p.WidthCm(),
			Height: p.HeightCm(),
			Units:  "CM",
		},
		DeclaredValue: money{Amount: p.DeclaredValue().Amount(), Currency: p.DeclaredValue().Currency()},
	}
}

func classify(c string) ports.AddressClassification {
	switch strings.ToUpper(c) {
	case "RESIDENTIAL":
		return ports.ClassificationResidential
	case "BUSINESS", "COMMERCIAL":
		return ports.ClassificationCommercial
	case "MIXED":
		return ports.ClassificationMixed
	default:
		return ports.ClassificationUnknown
	}
}
