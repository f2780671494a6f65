package shipment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"
)

var (
	ErrShipmentIsNotConstructed    = errors.New("shipment must be created via NewDraft or Restore")
	ErrTrackingCodeAlreadyAssigned = errors.New("tracking code is already assigned")
	ErrPaidWithoutReference        = errors.New("paid shipment has no payment reference")
	ErrStatusWithoutHistory        = errors.New("status has no matching tracking history entry")
)

// Shipment is the fulfilment aggregate: a package moving from sender to
// recipient through draft, payment, carrier booking and delivery.
//
// Invariants checked after every mutation and on Restore:
//   - a paid shipment carries a payment reference
//   - in_transit and delivered shipments have a history entry with the same status
//
// History is kept oldest-first; History returns it newest-first.
type Shipment struct {
	id           kernel.UUID
	trackingCode TrackingCode
	requesterID  string

	sender    kernel.Party
	recipient kernel.Party
	parcel    kernel.Parcel

	carrier     string
	serviceCode string
	price       kernel.Money
	quoteID     *kernel.UUID

	status           Status
	paymentStatus    PaymentStatus
	paymentReference string
	paymentAttempts  int

	carrierTrackingID string
	labelURL          string
	bookingAttempts   int
	needsSupport      bool
	supportNote       string

	history []TrackingEntry

	version   int
	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// NewDraft creates an unpaid draft. The tracking code is assigned later, on first persistence.
func NewDraft(
	id kernel.UUID,
	requesterID string,
	sender, recipient kernel.Party,
	parcel kernel.Parcel,
	price kernel.Money,
	now time.Time,
) (*Shipment, error) {
	s := &Shipment{
		status:        Draft,
		paymentStatus: Unpaid,
		createdAt:     now.UTC(),
		updatedAt:     now.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		s.setID(id),
		s.setRequester(requesterID),
		s.setDetails(sender, recipient, parcel, price),
	); err != nil {
		return nil, err
	}

	return s, nil
}

// RestoreParams carries persisted state back into the aggregate.
type RestoreParams struct {
	ID                kernel.UUID
	TrackingCode      TrackingCode
	RequesterID       string
	Sender            kernel.Party
	Recipient         kernel.Party
	Parcel            kernel.Parcel
	Carrier           string
	ServiceCode       string
	Price             kernel.Money
	QuoteID           *kernel.UUID
	Status            Status
	PaymentStatus     PaymentStatus
	PaymentReference  string
	PaymentAttempts   int
	CarrierTrackingID string
	LabelURL          string
	BookingAttempts   int
	NeedsSupport      bool
	SupportNote       string
	History           []TrackingEntry
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Restore rebuilds a shipment from storage and re-checks its invariants.
func Restore(p RestoreParams) (*Shipment, error) {
	s := &Shipment{
		carrier:           p.Carrier,
		serviceCode:       p.ServiceCode,
		quoteID:           p.QuoteID,
		paymentReference:  p.PaymentReference,
		paymentAttempts:   p.PaymentAttempts,
		carrierTrackingID: p.CarrierTrackingID,
		labelURL:          p.LabelURL,
		bookingAttempts:   p.BookingAttempts,
		needsSupport:      p.NeedsSupport,
		supportNote:       p.SupportNote,
		history:           sortOldestFirst(p.History),
		version:           p.Version,
		createdAt:         p.CreatedAt.UTC(),
		updatedAt:         p.UpdatedAt.UTC(),
		status:            p.Status,
		paymentStatus:     p.PaymentStatus,
		isConstructed:     true,
	}

	var codeErr error
	if p.TrackingCode != "" {
		codeErr = p.TrackingCode.Validate()
		s.trackingCode = p.TrackingCode
	}

	if err := errors.Join(
		s.setID(p.ID),
		s.setRequester(p.RequesterID),
		s.setDetails(p.Sender, p.Recipient, p.Parcel, p.Price),
		codeErr,
		p.Status.Validate(),
		p.PaymentStatus.Validate(),
	); err != nil {
		return nil, err
	}

	if err := s.checkInvariants(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Shipment) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrShipmentIsNotConstructed
	}
	return nil
}

func (s *Shipment) IsEqual(other *Shipment) bool {
	return other != nil && s.id.IsEqual(other.id)
}

func (s *Shipment) ID() kernel.UUID              { return s.id }
func (s *Shipment) TrackingCode() TrackingCode   { return s.trackingCode }
func (s *Shipment) RequesterID() string          { return s.requesterID }
func (s *Shipment) Sender() kernel.Party         { return s.sender }
func (s *Shipment) Recipient() kernel.Party      { return s.recipient }
func (s *Shipment) Parcel() kernel.Parcel        { return s.parcel }
func (s *Shipment) Carrier() string              { return s.carrier }
func (s *Shipment) ServiceCode() string          { return s.serviceCode }
func (s *Shipment) Price() kernel.Money          { return s.price }
func (s *Shipment) QuoteID() *kernel.UUID        { return s.quoteID }
func (s *Shipment) Status() Status               { return s.status }
func (s *Shipment) PaymentStatus() PaymentStatus { return s.paymentStatus }
func (s *Shipment) PaymentReference() string     { return s.paymentReference }
func (s *Shipment) PaymentAttempts() int         { return s.paymentAttempts }
func (s *Shipment) CarrierTrackingID() string    { return s.carrierTrackingID }
func (s *Shipment) LabelURL() string             { return s.labelURL }
func (s *Shipment) BookingAttempts() int         { return s.bookingAttempts }
func (s *Shipment) NeedsSupport() bool           { return s.needsSupport }
func (s *Shipment) SupportNote() string          { return s.supportNote }
func (s *Shipment) Version() int                 { return s.version }
func (s *Shipment) CreatedAt() time.Time         { return s.createdAt }
func (s *Shipment) UpdatedAt() time.Time         { return s.updatedAt }
func (s *Shipment) IsPaid() bool                 { return s.paymentStatus == Paid }
func (s *Shipment) HasCarrier() bool             { return s.carrier != "" && s.serviceCode != "" }
func (s *Shipment) IsBooked() bool               { return s.carrierTrackingID != "" }
func (s *Shipment) HistoryOldestFirst() []TrackingEntry {
	return append([]TrackingEntry(nil), s.history...)
}

// History returns the tracking history newest-first, for display.
func (s *Shipment) History() []TrackingEntry {
	out := make([]TrackingEntry, len(s.history))
	for i, e := range s.history {
		out[len(s.history)-1-i] = e
	}
	return out
}

// SetVersion is called by the repository after a successful optimistic write.
func (s *Shipment) SetVersion(version int) {
	s.version = version
}

// DedupKey identifies drafts that are the same submission: requester, both
// postcodes, sender email and weight.
func (s *Shipment) DedupKey() string {
	return DedupKey(s.requesterID, s.sender, s.recipient, s.parcel)
}

func DedupKey(requesterID string, sender, recipient kernel.Party, parcel kernel.Parcel) string {
	return strings.Join([]string{
		requesterID,
		sender.Address.PostalKey(),
		recipient.Address.PostalKey(),
		sender.Contact.Email(),
		strconv.FormatFloat(parcel.WeightKg(), 'f', 3, 64),
	}, "|")
}

// AssignTrackingCode sets the immutable customer reference exactly once.
func (s *Shipment) AssignTrackingCode(code TrackingCode) error {
	if s.trackingCode != "" {
		return ErrTrackingCodeAlreadyAssigned
	}
	if err := code.Validate(); err != nil {
		return err
	}
	s.trackingCode = code
	return nil
}

// UpdateDraft overwrites parties, parcel and provisional price of a resubmitted
// draft. Any carrier selection is dropped: its price belonged to the old
// details, so the carrier has to be chosen again.
func (s *Shipment) UpdateDraft(sender, recipient kernel.Party, parcel kernel.Parcel, price kernel.Money, now time.Time) error {
	if err := s.requireEditable("update draft"); err != nil {
		return err
	}
	if err := s.setDetails(sender, recipient, parcel, price); err != nil {
		return err
	}
	s.carrier = ""
	s.serviceCode = ""
	s.quoteID = nil
	s.touch(now)
	return nil
}

// SelectCarrier attaches the chosen carrier, service and price without changing status.
func (s *Shipment) SelectCarrier(carrier, serviceCode string, price kernel.Money, quoteID *kernel.UUID, now time.Time) error {
	if err := s.requireEditable("select carrier"); err != nil {
		return err
	}

	carrier = strings.ToLower(strings.TrimSpace(carrier))
	serviceCode = strings.TrimSpace(serviceCode)
	var carrierErr, serviceErr error
	if carrier == "" {
		carrierErr = errs.NewValueIsRequiredError("carrier")
	}
	if serviceCode == "" {
		serviceErr = errs.NewValueIsRequiredError("serviceCode")
	}
	if err := errors.Join(carrierErr, serviceErr, price.Validate()); err != nil {
		return err
	}

	s.carrier = carrier
	s.serviceCode = serviceCode
	s.price = price
	s.quoteID = quoteID
	s.touch(now)
	return nil
}

// NextPaymentAttempt increments and returns the payment attempt counter.
func (s *Shipment) NextPaymentAttempt() (int, error) {
	if err := s.requireEditable("start payment"); err != nil {
		return 0, err
	}
	s.paymentAttempts++
	return s.paymentAttempts, nil
}

// RecordPaymentFailure moves the shipment to payment_failed and logs an error entry.
// The shipment stays editable so payment can be retried.
func (s *Shipment) RecordPaymentFailure(reason string, now time.Time) error {
	if err := s.requireEditable("record payment failure"); err != nil {
		return err
	}
	s.status = PaymentFailed
	s.history = append(s.history, TrackingEntry{
		Status:    EntryError,
		Timestamp: now.UTC(),
		Note:      "payment failed: " + reason,
	})
	s.touch(now)
	return nil
}

// MarkPaid records a captured payment: paid, processing, with a processing entry.
func (s *Shipment) MarkPaid(paymentReference string, now time.Time) error {
	if err := s.requireEditable("mark paid"); err != nil {
		return err
	}
	if strings.TrimSpace(paymentReference) == "" {
		return errs.NewValueIsRequiredError("paymentReference")
	}
	if !s.HasCarrier() {
		return fmt.Errorf("%w: no carrier selected", errs.ErrInvalidState)
	}

	s.paymentStatus = Paid
	s.paymentReference = paymentReference
	s.status = Processing
	s.history = append(s.history, TrackingEntry{
		Status:    Processing.String(),
		Timestamp: now.UTC(),
		Note:      "payment received",
	})
	s.touch(now)
	return s.checkInvariants()
}

// MarkBooked stores the carrier booking and clears any support flag.
func (s *Shipment) MarkBooked(carrierTrackingID, labelURL string, now time.Time) error {
	if err := s.requireBookable(); err != nil {
		return err
	}
	if strings.TrimSpace(carrierTrackingID) == "" {
		return errs.NewValueIsRequiredError("carrierTrackingID")
	}

	s.bookingAttempts++
	s.carrierTrackingID = carrierTrackingID
	s.labelURL = labelURL
	s.needsSupport = false
	s.supportNote = ""
	s.touch(now)
	return nil
}

// FlagBookingFailure keeps payment untouched and marks the shipment for staff follow-up.
func (s *Shipment) FlagBookingFailure(note string, now time.Time) error {
	if err := s.requireBookable(); err != nil {
		return err
	}

	s.bookingAttempts++
	s.needsSupport = true
	s.supportNote = note
	s.touch(now)
	return nil
}

// CanSyncTracking reports whether a carrier poll could change this shipment.
func (s *Shipment) CanSyncTracking() bool {
	return s.IsPaid() && s.IsBooked() && !s.status.IsTerminal()
}

// ApplyTrackingReport replaces the history with the carrier's list when the
// reported status differs from the stored one. It returns false, leaving the
// shipment untouched, when the status is unchanged.
func (s *Shipment) ApplyTrackingReport(reported Status, entries []TrackingEntry, now time.Time) (bool, error) {
	if !s.CanSyncTracking() {
		return false, fmt.Errorf("%w: shipment %s is not eligible for tracking sync", errs.ErrInvalidState, s.id)
	}
	if !reported.IsCarrierReported() {
		return false, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%s cannot be reported by a carrier", reported))
	}
	if reported == s.status {
		return false, nil
	}

	history := sortOldestFirst(entries)
	if !hasEntryFor(history, reported) {
		history = append(history, TrackingEntry{
			Status:    reported.String(),
			Timestamp: now.UTC(),
			Note:      "status reported by " + s.carrier,
		})
	}

	s.history = history
	s.status = reported
	s.touch(now)
	return true, s.checkInvariants()
}

func (s *Shipment) requireEditable(op string) error {
	if s.paymentStatus != Unpaid || !s.status.IsEditable() {
		return fmt.Errorf("%w: cannot %s in status %s/%s", errs.ErrInvalidState, op, s.status, s.paymentStatus)
	}
	return nil
}

func (s *Shipment) requireBookable() error {
	if !s.IsPaid() || s.status != Processing {
		return fmt.Errorf("%w: cannot book in status %s/%s", errs.ErrInvalidState, s.status, s.paymentStatus)
	}
	if s.IsBooked() {
		return fmt.Errorf("%w: already booked as %s", errs.ErrInvalidState, s.carrierTrackingID)
	}
	return nil
}

func (s *Shipment) checkInvariants() error {
	if s.paymentStatus == Paid && s.paymentReference == "" {
		return ErrPaidWithoutReference
	}
	if (s.status == InTransit || s.status == Delivered) && !hasEntryFor(s.history, s.status) {
		return fmt.Errorf("%w: %s", ErrStatusWithoutHistory, s.status)
	}
	return nil
}

func (s *Shipment) touch(now time.Time) {
	s.updatedAt = now.UTC()
}

func (s *Shipment) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *Shipment) setRequester(requesterID string) error {
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return errs.NewValueIsRequiredError("requesterID")
	}
	s.requesterID = requesterID
	return nil
}

func (s *Shipment) setDetails(sender, recipient kernel.Party, parcel kernel.Parcel, price kernel.Money) error {
	if err := errors.Join(
		wrapParty("sender", sender.Validate()),
		wrapParty("recipient", recipient.Validate()),
		parcel.Validate(),
		price.Validate(),
	); err != nil {
		return err
	}
	s.sender = sender
	s.recipient = recipient
	s.parcel = parcel
	s.price = price
	return nil
}

func wrapParty(role string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", role, err)
}
