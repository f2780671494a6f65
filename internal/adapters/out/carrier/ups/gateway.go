// Package ups implements ports.CarrierGateway against the UPS JSON APIs.
package ups

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
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

const Code = "ups"

const transactionSource = "shipping"

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
		return nil, errs.NewValueIsRequiredError("ups client credentials")
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
	credentials := base64.StdEncoding.EncodeToString([]byte(g.cfg.ClientID + ":" + g.cfg.ClientSecret))
	header := http.Header{}
	header.Set("Authorization", "Basic "+credentials)

	var resp tokenResponse
	err := g.client.Do(ctx, carrier.Request{
		Operation: "authenticate",
		Path:      "/security/v1/oauth/token",
		Header:    header,
		Form:      url.Values{"grant_type": {"client_credentials"}},
	}, &resp)
	if err != nil {
		var ce *errs.CarrierError
		if errors.As(err, &ce) && ce.Kind == errs.CarrierRejected {
			return "", 0, errs.NewCarrierError(Code, ce.Operation, errs.CarrierAuthentication, ce.StatusCode, ce.Cause)
		}
		return "", 0, err
	}

	seconds, convErr := strconv.ParseInt(strings.TrimSpace(resp.ExpiresIn), 10, 64)
	if resp.AccessToken == "" || convErr != nil {
		return "", 0, errs.NewCarrierError(Code, "authenticate", errs.CarrierAuthentication, 0,
			fmt.Errorf("malformed token response (expires_in %q)", resp.ExpiresIn))
	}
	return resp.AccessToken, time.Duration(seconds) * time.Second, nil
}

func (g *Gateway) call(ctx context.Context, req carrier.Request, out any) error {
	token, err := g.Authenticate(ctx)
	if err != nil {
		return err
	}
	req.Header = carrier.BearerHeader(token.AccessToken)
	req.Header.Set("transId", kernel.NewUUID().String())
	req.Header.Set("transactionSrc", transactionSource)

	err = g.client.Do(ctx, req, out)
	if carrier.IsAuthFailure(err) {
		g.tokens.Invalidate()
	}
	return err
}

func (g *Gateway) ValidateAddress(ctx context.Context, addr kernel.Address) ports.AddressValidation {
	unknown := ports.AddressValidation{Address: addr, Classification: ports.ClassificationUnknown}

	var req addressValidationRequest
	req.XAVRequest.AddressKeyFormat = keyFormat{
		AddressLine:        []string{addr.Street()},
		PoliticalDivision2: addr.City(),
		PoliticalDivision1: addr.State(),
		PostcodePrimaryLow: addr.PostalCode(),
		CountryCode:        addr.Country(),
	}

	var resp addressValidationResponse
	// requestoption 3: validation and classification
	if err := g.call(ctx, carrier.Request{
		Operation: "validate address",
		Path:      "/api/addressvalidation/v2/3",
		JSON:      req,
	}, &resp); err != nil {
		g.logger.WarnContext(ctx, "address validation failed", "error", err)
		return unknown
	}

	classification := classify(resp.XAVResponse.AddressClassification.Code)
	if len(resp.XAVResponse.Candidate) == 0 {
		unknown.Classification = classification
		return unknown
	}

	candidate := resp.XAVResponse.Candidate[0]
	if c := classify(candidate.AddressClassification.Code); c != ports.ClassificationUnknown {
		classification = c
	}
	key := candidate.AddressKeyFormat
	cleaned := services.CleanupAddress(services.RawAddress{
		Street:     strings.Join(key.AddressLine, " "),
		City:       key.PoliticalDivision2,
		State:      key.PoliticalDivision1,
		PostalCode: key.PostcodePrimaryLow,
		Country:    key.CountryCode,
	}, addr, addr.Country())

	return ports.AddressValidation{
		Address:        cleaned.Address,
		Classification: classification,
		Confidence:     cleaned.Confidence,
	}
}

func (g *Gateway) QuoteRates(ctx context.Context, origin, destination kernel.Address, parcel kernel.Parcel) ([]rate.Option, error) {
	from := g.ValidateAddress(ctx, origin)
	to := g.ValidateAddress(ctx, destination)

	var req rateRequest
	req.RateRequest.Shipment.Shipper = party{ShipperNumber: g.cfg.AccountNumber, Address: toAddress(from.Address, false)}
	req.RateRequest.Shipment.ShipFrom = party{Address: toAddress(from.Address, false)}
	req.RateRequest.Shipment.ShipTo = party{Address: toAddress(to.Address, to.Classification.IsResidential())}
	req.RateRequest.Shipment.Package = []pkg{toPackage(parcel)}

	var resp rateResponse
	err := g.call(ctx, carrier.Request{Operation: "quote", Path: "/api/rating/v2403/Shop", JSON: req}, &resp)
	switch {
	case errors.Is(err, errs.ErrCarrierRejected):
		g.logger.InfoContext(ctx, "rate request rejected, pricing from table", "error", err)
		return g.Price(ctx, origin, destination, parcel, to.Classification)
	case err != nil:
		return nil, err
	}

	options := make([]rate.Option, 0, len(resp.RateResponse.RatedShipment))
	for _, rated := range resp.RateResponse.RatedShipment {
		price, priceErr := kernel.NewMoney(rated.TotalCharges.MonetaryValue, rated.TotalCharges.CurrencyCode)
		if priceErr != nil {
			g.logger.WarnContext(ctx, "skipping unpriced service", "service", rated.Service.Code, "error", priceErr)
			continue
		}
		options = append(options, rate.Option{
			Carrier:       Code,
			ServiceCode:   rated.Service.Code,
			DisplayName:   serviceName(rated.Service.Code),
			Price:         price,
			EstimatedDays: transitDays(rated.Service.Code, rated.GuaranteedDelivery.BusinessDaysInTransit),
			Source:        rate.SourceLive,
		})
	}
	if len(options) == 0 {
		return g.Price(ctx, origin, destination, parcel, to.Classification)
	}
	return options, nil
}

func (g *Gateway) BookShipment(ctx context.Context, s *shipment.Shipment) (ports.Booking, error) {
	if !s.HasCarrier() {
		return ports.Booking{}, bookingError(fmt.Errorf("%w: no service selected", errs.ErrInvalidState))
	}

	var req shipRequest
	sh := &req.ShipmentRequest.Shipment
	sh.Description = s.TrackingCode().String()
	sh.Shipper = toParty(s.Sender())
	sh.Shipper.ShipperNumber = g.cfg.AccountNumber
	sh.ShipFrom = toParty(s.Sender())
	sh.ShipTo = toParty(s.Recipient())
	sh.Service = code{Code: s.ServiceCode()}
	sh.Package = []pkg{toPackage(s.Parcel())}
	charge := shipmentCharge{Type: "01"}
	charge.BillShipper.AccountNumber = g.cfg.AccountNumber
	sh.PaymentInformation.ShipmentCharge = []shipmentCharge{charge}
	req.ShipmentRequest.LabelSpecification.LabelImageFormat = code{Code: "GIF"}

	var resp shipResponse
	if err := g.call(ctx, carrier.Request{Operation: "book", Path: "/api/shipments/v2403/ship", JSON: req}, &resp); err != nil {
		return ports.Booking{}, bookingError(err)
	}

	results := resp.ShipmentResponse.ShipmentResults
	trackingID := results.ShipmentIdentificationNumber
	if trackingID == "" && len(results.PackageResults) > 0 {
		trackingID = results.PackageResults[0].TrackingNumber
	}
	if trackingID == "" {
		return ports.Booking{}, bookingError(errors.New("response has no tracking number"))
	}
	return ports.Booking{CarrierTrackingID: trackingID, LabelURL: results.LabelURL.URL}, nil
}

func (g *Gateway) PollTracking(ctx context.Context, carrierTrackingID string) (ports.TrackingReport, error) {
	var resp trackResponse
	err := g.call(ctx, carrier.Request{
		Operation: "track",
		Method:    http.MethodGet,
		Path:      "/api/track/v1/details/" + url.PathEscape(carrierTrackingID),
	}, &resp)
	if err != nil {
		return ports.TrackingReport{}, err
	}

	shipments := resp.TrackResponse.Shipment
	if len(shipments) == 0 || len(shipments[0].Package) == 0 {
		reason := "no package in response"
		if len(shipments) > 0 && len(shipments[0].Warnings) > 0 {
			reason = shipments[0].Warnings[0].Code + ": " + shipments[0].Warnings[0].Message
		}
		return ports.TrackingReport{}, errs.NewCarrierError(Code, "track", errs.CarrierRejected, 0, errors.New(reason))
	}

	return toTrackingReport(shipments[0].Package[0].CurrentStatus, shipments[0].Package[0].Activity, g.logger), nil
}

func bookingError(cause error) error {
	return errs.NewCarrierError(Code, "book", errs.CarrierBooking, 0, cause)
}

func toAddress(a kernel.Address, residential bool) address {
	out := address{
		AddressLine:       []string{a.Street()},
		City:              a.City(),
		StateProvinceCode: a.State(),
		PostalCode:        a.PostalCode(),
		CountryCode:       a.Country(),
	}
	if residential {
		out.ResidentialIndicator = "Y"
	}
	return out
}

func toParty(p kernel.Party) party {
	return party{
		Name:          p.Contact.Name(),
		AttentionName: p.Contact.Name(),
		EMailAddress:  p.Contact.Email(),
		Phone:         &phone{Number: p.Contact.Phone()},
		Address:       toAddress(p.Address, false),
	}
}

func toPackage(p kernel.Parcel) pkg {
	return pkg{
		PackagingType: code{Code: "02"},
		Dimensions: dimensions{
			UnitOfMeasurement: code{Code: "CM"},
			Length:            formatFloat(p.LengthCm()),
			Width:             formatFloat(p.WidthCm()),
			Height:            formatFloat(p.HeightCm()),
		},
		PackageWeight: measurement{UnitOfMeasurement: code{Code: "KGS"}, Weight: formatFloat(p.WeightKg())},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func classify(c string) ports.AddressClassification {
	switch c {
	case "1":
		return ports.ClassificationCommercial
	case "2":
		return ports.ClassificationResidential
	default:
		return ports.ClassificationUnknown
	}
}
