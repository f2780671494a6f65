package http

import (
	"regexp"
	"strings"
	"time"

	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/application/usecases/queries"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/pkg/errs"

	validation "github.com/jellydator/validation"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (r AddressRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Street, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.State, validation.Length(0, 100)),
		validation.Field(&r.PostalCode, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.Country, validation.Required, validation.Length(2, 2)),
	)
}

func (r AddressRequest) toDomain() (kernel.Address, error) {
	return kernel.NewAddress(r.Street, r.City, r.State, r.PostalCode, strings.ToUpper(r.Country))
}

type PartyRequest struct {
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Phone   string         `json:"phone"`
	Address AddressRequest `json:"address"`
}

func (r PartyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Match(emailPattern)),
		validation.Field(&r.Phone, validation.Length(0, 40)),
		validation.Field(&r.Address),
	)
}

func (r PartyRequest) toDomain() (kernel.Party, error) {
	address, err := r.Address.toDomain()
	if err != nil {
		return kernel.Party{}, err
	}
	contact, err := kernel.NewContact(r.Name, r.Email, r.Phone)
	if err != nil {
		return kernel.Party{}, err
	}
	return kernel.NewParty(address, contact)
}

type ParcelRequest struct {
	WeightKg      float64 `json:"weightKg"`
	LengthCm      float64 `json:"lengthCm"`
	WidthCm       float64 `json:"widthCm"`
	HeightCm      float64 `json:"heightCm"`
	DeclaredValue string  `json:"declaredValue"`
	Currency      string  `json:"currency"`
	PackageType   string  `json:"packageType"`
}

func (r ParcelRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.WeightKg, validation.Required, validation.Max(kernel.MaxWeightKg)),
		validation.Field(&r.LengthCm, validation.Required, validation.Max(kernel.MaxDimensionCm)),
		validation.Field(&r.WidthCm, validation.Required, validation.Max(kernel.MaxDimensionCm)),
		validation.Field(&r.HeightCm, validation.Required, validation.Max(kernel.MaxDimensionCm)),
		validation.Field(&r.PackageType, validation.In(
			string(kernel.PackageDocument),
			string(kernel.PackageParcel),
			string(kernel.PackageFragile),
			string(kernel.PackageOversized),
		)),
	)
}

func (r ParcelRequest) toDomain(defaultCurrency string) (kernel.Parcel, error) {
	currency := orDefault(r.Currency, defaultCurrency)

	declared, err := kernel.ZeroMoney(currency)
	if err != nil {
		return kernel.Parcel{}, err
	}
	if r.DeclaredValue != "" {
		if declared, err = kernel.NewMoneyFromString(r.DeclaredValue, currency); err != nil {
			return kernel.Parcel{}, err
		}
	}

	packageType, err := kernel.ParsePackageType(r.PackageType)
	if err != nil {
		return kernel.Parcel{}, err
	}
	return kernel.NewParcel(r.WeightKg, r.LengthCm, r.WidthCm, r.HeightCm, declared, packageType)
}

type QuoteRequest struct {
	Origin      AddressRequest `json:"origin"`
	Destination AddressRequest `json:"destination"`
	Parcel      ParcelRequest  `json:"parcel"`
	Carriers    []string       `json:"carriers"`
}

func (r *QuoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Origin),
		validation.Field(&r.Destination),
		validation.Field(&r.Parcel),
		validation.Field(&r.Carriers, validation.Each(validation.Required, validation.Length(1, 20))),
	)
}

func (r *QuoteRequest) toQuery(defaultCurrency string) (queries.GetQuoteQuery, error) {
	origin, err := r.Origin.toDomain()
	if err != nil {
		return queries.GetQuoteQuery{}, err
	}
	destination, err := r.Destination.toDomain()
	if err != nil {
		return queries.GetQuoteQuery{}, err
	}
	parcel, err := r.Parcel.toDomain(defaultCurrency)
	if err != nil {
		return queries.GetQuoteQuery{}, err
	}
	return queries.NewGetQuoteQuery(origin, destination, parcel, r.Carriers)
}

type DraftRequest struct {
	Sender    PartyRequest  `json:"sender"`
	Recipient PartyRequest  `json:"recipient"`
	Parcel    ParcelRequest `json:"parcel"`
	Price     string        `json:"price"`
	Currency  string        `json:"currency"`
}

func (r *DraftRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Sender),
		validation.Field(&r.Recipient),
		validation.Field(&r.Parcel),
		validation.Field(&r.Currency, validation.Length(3, 3)),
	)
}

func (r *DraftRequest) toCommand(requesterID, defaultCurrency string) (commands.CreateDraftCommand, error) {
	sender, err := r.Sender.toDomain()
	if err != nil {
		return commands.CreateDraftCommand{}, err
	}
	recipient, err := r.Recipient.toDomain()
	if err != nil {
		return commands.CreateDraftCommand{}, err
	}
	parcel, err := r.Parcel.toDomain(defaultCurrency)
	if err != nil {
		return commands.CreateDraftCommand{}, err
	}
	price, err := optionalMoney(r.Price, orDefault(r.Currency, defaultCurrency))
	if err != nil {
		return commands.CreateDraftCommand{}, err
	}
	return commands.NewCreateDraftCommand(requesterID, sender, recipient, parcel, price)
}

type SelectCarrierRequest struct {
	Carrier     string              `json:"carrier"`
	ServiceCode string              `json:"serviceCode"`
	QuoteID     *openapi_types.UUID `json:"quoteId"`
	Price       string              `json:"price"`
	Currency    string              `json:"currency"`
}

func (r *SelectCarrierRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Carrier, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.ServiceCode, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Price, validation.When(r.QuoteID == nil, validation.Required)),
		validation.Field(&r.Currency, validation.Length(3, 3)),
	)
}

func (r *SelectCarrierRequest) toCommand(shipmentID kernel.UUID, defaultCurrency string) (commands.SelectCarrierCommand, error) {
	var quoteID *kernel.UUID
	if r.QuoteID != nil {
		id, err := kernel.UUIDFromString(r.QuoteID.String())
		if err != nil {
			return commands.SelectCarrierCommand{}, err
		}
		quoteID = &id
	}
	price, err := optionalMoney(r.Price, orDefault(r.Currency, defaultCurrency))
	if err != nil {
		return commands.SelectCarrierCommand{}, err
	}
	return commands.NewSelectCarrierCommand(shipmentID, r.Carrier, r.ServiceCode, quoteID, price)
}

type PaymentRequest struct {
	Amount   string            `json:"amount"`
	Currency string            `json:"currency"`
	Method   string            `json:"method"`
	Metadata map[string]string `json:"metadata"`
}

func (r *PaymentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required),
		validation.Field(&r.Currency, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.Method, validation.Required, validation.Length(1, 255)),
	)
}

func (r *PaymentRequest) toCommand(shipmentID kernel.UUID) (commands.ProcessPaymentCommand, error) {
	amount, err := kernel.NewMoneyFromString(r.Amount, strings.ToUpper(r.Currency))
	if err != nil {
		return commands.ProcessPaymentCommand{}, err
	}
	return commands.NewProcessPaymentCommand(shipmentID, amount, r.Method, r.Metadata)
}

// validationError turns a DTO validation failure into a validation_failed error.
func validationError(err error) error {
	return errs.NewValueIsInvalidErrorWithCause("request", err)
}

func optionalMoney(amount, currency string) (*kernel.Money, error) {
	if amount == "" {
		return nil, nil
	}
	m, err := kernel.NewMoneyFromString(amount, currency)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func orDefault(v, def string) string {
	if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
		return v
	}
	return def
}

type MoneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func toMoneyResponse(m kernel.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount().StringFixed(kernel.MoneyPlaces), Currency: m.Currency()}
}

type OptionResponse struct {
	Carrier       string        `json:"carrier"`
	ServiceCode   string        `json:"serviceCode"`
	DisplayName   string        `json:"displayName"`
	Price         MoneyResponse `json:"price"`
	EstimatedDays int           `json:"estimatedDays"`
	Source        string        `json:"source"`
}

func toOptionResponse(o rate.Option) OptionResponse {
	return OptionResponse{
		Carrier:       o.Carrier,
		ServiceCode:   o.ServiceCode,
		DisplayName:   o.DisplayName,
		Price:         toMoneyResponse(o.Price),
		EstimatedDays: o.EstimatedDays,
		Source:        string(o.Source),
	}
}

type CarrierOutcomeResponse struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

type QuoteResponse struct {
	QuoteID    string                            `json:"quoteId"`
	Options    []OptionResponse                  `json:"options"`
	NoLiveRate bool                              `json:"noLiveRate"`
	Carriers   map[string]CarrierOutcomeResponse `json:"carriers"`
	ExpiresAt  time.Time                         `json:"expiresAt"`
}

func toQuoteResponse(res queries.GetQuoteQueryResponse) QuoteResponse {
	out := QuoteResponse{
		QuoteID:    res.QuoteID.String(),
		Options:    make([]OptionResponse, 0, len(res.Options)),
		NoLiveRate: res.NoLiveRate,
		Carriers:   make(map[string]CarrierOutcomeResponse, len(res.Carriers)),
		ExpiresAt:  res.ExpiresAt,
	}
	for _, o := range res.Options {
		out.Options = append(out.Options, toOptionResponse(o))
	}
	for code, outcome := range res.Carriers {
		out.Carriers[code] = CarrierOutcomeResponse{Outcome: outcome.Outcome, Reason: string(outcome.Reason)}
	}
	return out
}

type DraftResponse struct {
	ShipmentID   string        `json:"shipmentId"`
	TrackingCode string        `json:"trackingCode"`
	Price        MoneyResponse `json:"price"`
	Merged       bool          `json:"merged"`
}

type ShipmentResponse struct {
	ID                string                 `json:"id"`
	TrackingCode      string                 `json:"trackingCode"`
	Status            string                 `json:"status"`
	PaymentStatus     string                 `json:"paymentStatus"`
	Carrier           string                 `json:"carrier,omitempty"`
	ServiceCode       string                 `json:"serviceCode,omitempty"`
	Price             MoneyResponse          `json:"price"`
	CarrierTrackingID string                 `json:"carrierTrackingId,omitempty"`
	LabelURL          string                 `json:"labelUrl,omitempty"`
	NeedsSupport      bool                   `json:"needsSupport"`
	SenderPostcode    string                 `json:"senderPostcode"`
	RecipientPostcode string                 `json:"recipientPostcode"`
	WeightKg          float64                `json:"weightKg"`
	History           []queries.HistoryEntry `json:"history"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

func toShipmentResponse(res queries.GetShipmentQueryResponse) ShipmentResponse {
	history := res.History
	if history == nil {
		history = []queries.HistoryEntry{}
	}
	return ShipmentResponse{
		ID:                res.ID.String(),
		TrackingCode:      res.TrackingCode,
		Status:            res.Status,
		PaymentStatus:     res.PaymentStatus,
		Carrier:           res.Carrier,
		ServiceCode:       res.ServiceCode,
		Price:             toMoneyResponse(res.Price),
		CarrierTrackingID: res.CarrierTrackingID,
		LabelURL:          res.LabelURL,
		NeedsSupport:      res.NeedsSupport,
		SenderPostcode:    res.SenderPostcode,
		RecipientPostcode: res.RecipientPostcode,
		WeightKg:          res.WeightKg,
		History:           history,
		CreatedAt:         res.CreatedAt,
		UpdatedAt:         res.UpdatedAt,
	}
}

type SelectCarrierResponse struct {
	ShipmentID  string          `json:"shipmentId"`
	Carrier     string          `json:"carrier"`
	ServiceCode string          `json:"serviceCode"`
	Price       MoneyResponse   `json:"price"`
	Option      *OptionResponse `json:"option,omitempty"`
}

type PaymentResponse struct {
	ShipmentID        string `json:"shipmentId"`
	Status            string `json:"status"`
	PaymentStatus     string `json:"paymentStatus"`
	PaymentReference  string `json:"paymentReference,omitempty"`
	CarrierTrackingID string `json:"carrierTrackingId,omitempty"`
	LabelURL          string `json:"labelUrl,omitempty"`
	NeedsSupport      bool   `json:"needsSupport"`
}

type TrackingResponse struct {
	ShipmentID string                 `json:"shipmentId"`
	Status     string                 `json:"status"`
	Changed    bool                   `json:"changed"`
	History    []queries.HistoryEntry `json:"history"`
}

func toTrackingResponse(res commands.SyncTrackingResult) TrackingResponse {
	history := make([]queries.HistoryEntry, 0, len(res.History))
	for _, e := range res.History {
		history = append(history, queries.HistoryEntry{
			Status:    e.Status,
			Location:  e.Location,
			Timestamp: e.Timestamp,
			Note:      e.Note,
		})
	}
	return TrackingResponse{
		ShipmentID: res.ShipmentID.String(),
		Status:     res.Status.String(),
		Changed:    res.Changed,
		History:    history,
	}
}

type SyncAllResponse struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Changed   int `json:"changed"`
}

type RetryBookingsResponse struct {
	Processed int `json:"processed"`
	Booked    int `json:"booked"`
	Failed    int `json:"failed"`
}

type RateTableResponse struct {
	ID            string    `json:"id"`
	Carrier       string    `json:"carrier"`
	Version       int       `json:"version"`
	EffectiveFrom time.Time `json:"effectiveFrom"`
	Active        bool      `json:"active"`
}

func toRateTableResponse(t *rate.Table) RateTableResponse {
	return RateTableResponse{
		ID:            t.ID().String(),
		Carrier:       t.Carrier(),
		Version:       t.Version(),
		EffectiveFrom: t.EffectiveFrom(),
		Active:        t.IsActive(),
	}
}
