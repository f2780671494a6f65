package shipment_test

import (
	"testing"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func party(t *testing.T, street, city, postcode, email string) kernel.Party {
	t.Helper()
	addr, err := kernel.NewAddress(street, city, "", postcode, "GB")
	require.NoError(t, err)
	contact, err := kernel.NewContact("Test Person", email, "")
	require.NoError(t, err)
	p, err := kernel.NewParty(addr, contact)
	require.NoError(t, err)
	return p
}

func gbp(t *testing.T, amount string) kernel.Money {
	t.Helper()
	m, err := kernel.NewMoneyFromString(amount, "GBP")
	require.NoError(t, err)
	return m
}

func newDraft(t *testing.T) *shipment.Shipment {
	t.Helper()
	parcel, err := kernel.NewParcel(1, 10, 10, 10, gbp(t, "20"), kernel.PackageParcel)
	require.NoError(t, err)

	s, err := shipment.NewDraft(
		kernel.NewUUID(),
		"user-1",
		party(t, "10 Downing St", "London", "SW1A 1AA", "sender@example.com"),
		party(t, "1 Piccadilly", "Manchester", "M1 1AA", "recipient@example.com"),
		parcel,
		gbp(t, "9.99"),
		now,
	)
	require.NoError(t, err)
	return s
}

func paidShipment(t *testing.T) *shipment.Shipment {
	t.Helper()
	s := newDraft(t)
	require.NoError(t, s.SelectCarrier("fedex", "FEDEX_GROUND", gbp(t, "12.50"), nil, now))
	require.NoError(t, s.MarkPaid("pi_123", now))
	return s
}

func TestNewDraft(t *testing.T) {
	t.Run("should create unpaid draft", func(t *testing.T) {
		s := newDraft(t)

		require.NoError(t, s.Validate())
		assert.Equal(t, shipment.Draft, s.Status())
		assert.Equal(t, shipment.Unpaid, s.PaymentStatus())
		assert.Empty(t, s.TrackingCode())
		assert.Empty(t, s.History())
		assert.Equal(t, "9.99 GBP", s.Price().String())
	})

	t.Run("should join every validation error", func(t *testing.T) {
		s, err := shipment.NewDraft(kernel.UUID{}, " ", kernel.Party{}, kernel.Party{}, kernel.Parcel{}, kernel.Money{}, now)

		require.Error(t, err)
		assert.Nil(t, s)
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
		require.ErrorIs(t, err, kernel.ErrParcelIsNotConstructed)
		assert.Contains(t, err.Error(), "requesterID")
		assert.Contains(t, err.Error(), "sender")
		assert.Contains(t, err.Error(), "recipient")
	})

	t.Run("zero value fails validation", func(t *testing.T) {
		var s shipment.Shipment

		require.ErrorIs(t, s.Validate(), shipment.ErrShipmentIsNotConstructed)
	})
}

func TestShipment_AssignTrackingCode(t *testing.T) {
	s := newDraft(t)
	code, err := shipment.NewTrackingCode()
	require.NoError(t, err)

	require.NoError(t, s.AssignTrackingCode(code))
	assert.Equal(t, code, s.TrackingCode())

	other, _ := shipment.NewTrackingCode()
	require.ErrorIs(t, s.AssignTrackingCode(other), shipment.ErrTrackingCodeAlreadyAssigned)
	assert.Equal(t, code, s.TrackingCode())
}

func TestShipment_DedupKey(t *testing.T) {
	a := newDraft(t)
	b := newDraft(t)

	assert.Equal(t, a.DedupKey(), b.DedupKey())
	assert.Equal(t, "user-1|SW1A1AA|GB|M11AA|GB|sender@example.com|1.000", a.DedupKey())
}

func TestShipment_SelectCarrier(t *testing.T) {
	t.Run("keeps draft status", func(t *testing.T) {
		s := newDraft(t)
		quoteID := kernel.NewUUID()

		err := s.SelectCarrier("FedEx", "FEDEX_GROUND", gbp(t, "12.50"), &quoteID, now)

		require.NoError(t, err)
		assert.Equal(t, shipment.Draft, s.Status())
		assert.Equal(t, "fedex", s.Carrier())
		assert.Equal(t, "12.50 GBP", s.Price().String())
		assert.True(t, quoteID.IsEqual(*s.QuoteID()))
	})

	t.Run("requires carrier and service", func(t *testing.T) {
		s := newDraft(t)

		err := s.SelectCarrier("", "", gbp(t, "1"), nil, now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("rejected once paid", func(t *testing.T) {
		s := paidShipment(t)

		err := s.SelectCarrier("ups", "GROUND", gbp(t, "1"), nil, now)

		require.ErrorIs(t, err, errs.ErrInvalidState)
	})
}

func TestShipment_UpdateDraft(t *testing.T) {
	t.Run("drops carrier chosen for the old details", func(t *testing.T) {
		s := newDraft(t)
		quoteID := kernel.NewUUID()
		require.NoError(t, s.SelectCarrier("fedex", "FEDEX_GROUND", gbp(t, "12.50"), &quoteID, now))

		err := s.UpdateDraft(s.Sender(), s.Recipient(), s.Parcel(), gbp(t, "3.00"), now.Add(time.Minute))

		require.NoError(t, err)
		assert.Equal(t, "3.00 GBP", s.Price().String())
		assert.False(t, s.HasCarrier())
		assert.Empty(t, s.Carrier())
		assert.Empty(t, s.ServiceCode())
		assert.Nil(t, s.QuoteID())
		assert.Equal(t, shipment.Draft, s.Status())
	})

	t.Run("payment needs a new selection", func(t *testing.T) {
		s := newDraft(t)
		require.NoError(t, s.SelectCarrier("fedex", "FEDEX_GROUND", gbp(t, "12.50"), nil, now))
		require.NoError(t, s.UpdateDraft(s.Sender(), s.Recipient(), s.Parcel(), gbp(t, "3.00"), now))

		err := s.MarkPaid("pi_1", now)

		require.ErrorIs(t, err, errs.ErrInvalidState)
		assert.Equal(t, shipment.Unpaid, s.PaymentStatus())
	})

	t.Run("rejected once paid", func(t *testing.T) {
		s := paidShipment(t)

		err := s.UpdateDraft(s.Sender(), s.Recipient(), s.Parcel(), gbp(t, "3.00"), now)

		require.ErrorIs(t, err, errs.ErrInvalidState)
		assert.Equal(t, "fedex", s.Carrier())
	})
}

func TestShipment_PaymentLifecycle(t *testing.T) {
	t.Run("mark paid moves to processing with history", func(t *testing.T) {
		s := paidShipment(t)

		assert.Equal(t, shipment.Processing, s.Status())
		assert.Equal(t, shipment.Paid, s.PaymentStatus())
		assert.Equal(t, "pi_123", s.PaymentReference())
		require.Len(t, s.History(), 1)
		assert.Equal(t, "processing", s.History()[0].Status)
	})

	t.Run("mark paid requires a carrier", func(t *testing.T) {
		s := newDraft(t)

		require.ErrorIs(t, s.MarkPaid("pi_1", now), errs.ErrInvalidState)
	})

	t.Run("mark paid requires a reference", func(t *testing.T) {
		s := newDraft(t)
		require.NoError(t, s.SelectCarrier("fedex", "FEDEX_GROUND", gbp(t, "1"), nil, now))

		require.ErrorIs(t, s.MarkPaid("", now), errs.ErrValueIsRequired)
	})

	t.Run("failed payment is retryable", func(t *testing.T) {
		s := newDraft(t)
		require.NoError(t, s.SelectCarrier("fedex", "FEDEX_GROUND", gbp(t, "12.50"), nil, now))

		require.NoError(t, s.RecordPaymentFailure("card declined", now))
		assert.Equal(t, shipment.PaymentFailed, s.Status())
		assert.Equal(t, shipment.EntryError, s.History()[0].Status)

		require.NoError(t, s.SelectCarrier("ups", "GROUND", gbp(t, "11.00"), nil, now))
		require.NoError(t, s.MarkPaid("pi_2", now.Add(time.Minute)))
		assert.Equal(t, shipment.Processing, s.Status())
		assert.Equal(t, "processing", s.History()[0].Status)
		assert.Equal(t, shipment.EntryError, s.History()[1].Status)
	})

	t.Run("payment attempts are counted", func(t *testing.T) {
		s := newDraft(t)

		n1, err := s.NextPaymentAttempt()
		require.NoError(t, err)
		n2, _ := s.NextPaymentAttempt()

		assert.Equal(t, 1, n1)
		assert.Equal(t, 2, n2)
	})
}

func TestShipment_Booking(t *testing.T) {
	t.Run("failure flags support and keeps payment", func(t *testing.T) {
		s := paidShipment(t)

		require.NoError(t, s.FlagBookingFailure("carrier down", now))

		assert.True(t, s.NeedsSupport())
		assert.True(t, s.IsPaid())
		assert.Equal(t, shipment.Processing, s.Status())
		assert.Equal(t, 1, s.BookingAttempts())
	})

	t.Run("success clears support flag", func(t *testing.T) {
		s := paidShipment(t)
		require.NoError(t, s.FlagBookingFailure("carrier down", now))

		require.NoError(t, s.MarkBooked("794612345678", "https://labels.example/1.pdf", now))

		assert.False(t, s.NeedsSupport())
		assert.Empty(t, s.SupportNote())
		assert.Equal(t, 2, s.BookingAttempts())
		assert.True(t, s.IsBooked())
	})

	t.Run("cannot book twice", func(t *testing.T) {
		s := paidShipment(t)
		require.NoError(t, s.MarkBooked("794612345678", "", now))

		require.ErrorIs(t, s.MarkBooked("794699999999", "", now), errs.ErrInvalidState)
	})

	t.Run("cannot book unpaid draft", func(t *testing.T) {
		s := newDraft(t)

		require.ErrorIs(t, s.FlagBookingFailure("x", now), errs.ErrInvalidState)
	})
}

func TestShipment_ApplyTrackingReport(t *testing.T) {
	booked := func(t *testing.T) *shipment.Shipment {
		s := paidShipment(t)
		require.NoError(t, s.MarkBooked("794612345678", "", now))
		return s
	}
	events := []shipment.TrackingEntry{
		{Status: "in_transit", Location: "Manchester", Timestamp: now.Add(2 * time.Hour), Note: "Arrived at hub"},
		{Status: "processing", Location: "London", Timestamp: now.Add(time.Hour), Note: "Picked up"},
	}

	t.Run("replaces history on status change", func(t *testing.T) {
		s := booked(t)

		changed, err := s.ApplyTrackingReport(shipment.InTransit, events, now.Add(3*time.Hour))

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, shipment.InTransit, s.Status())
		oldest := s.HistoryOldestFirst()
		require.Len(t, oldest, 2)
		assert.Equal(t, "Picked up", oldest[0].Note)
		assert.Equal(t, "Arrived at hub", s.History()[0].Note)
	})

	t.Run("unchanged status leaves history identical", func(t *testing.T) {
		s := booked(t)
		_, err := s.ApplyTrackingReport(shipment.InTransit, events, now.Add(3*time.Hour))
		require.NoError(t, err)
		before := s.HistoryOldestFirst()
		updatedAt := s.UpdatedAt()

		for range 2 {
			changed, err := s.ApplyTrackingReport(shipment.InTransit, append(events, events...), now.Add(4*time.Hour))
			require.NoError(t, err)
			assert.False(t, changed)
		}

		assert.Equal(t, before, s.HistoryOldestFirst())
		assert.Equal(t, updatedAt, s.UpdatedAt())
	})

	t.Run("adds synthetic entry when carrier omits the status", func(t *testing.T) {
		s := booked(t)

		changed, err := s.ApplyTrackingReport(shipment.Delivered, events, now.Add(5*time.Hour))

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, "delivered", s.History()[0].Status)
		assert.Len(t, s.History(), 3)
	})

	t.Run("terminal shipments are not eligible", func(t *testing.T) {
		s := booked(t)
		_, err := s.ApplyTrackingReport(shipment.Delivered, nil, now)
		require.NoError(t, err)

		assert.False(t, s.CanSyncTracking())
		_, err = s.ApplyTrackingReport(shipment.InTransit, events, now)
		require.ErrorIs(t, err, errs.ErrInvalidState)
	})

	t.Run("rejects non carrier status", func(t *testing.T) {
		s := booked(t)

		_, err := s.ApplyTrackingReport(shipment.Draft, nil, now)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestRestore(t *testing.T) {
	base := newDraft(t)
	params := func() shipment.RestoreParams {
		return shipment.RestoreParams{
			ID:            base.ID(),
			RequesterID:   base.RequesterID(),
			Sender:        base.Sender(),
			Recipient:     base.Recipient(),
			Parcel:        base.Parcel(),
			Price:         base.Price(),
			Status:        shipment.Draft,
			PaymentStatus: shipment.Unpaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}

	t.Run("restores draft", func(t *testing.T) {
		s, err := shipment.Restore(params())

		require.NoError(t, err)
		assert.True(t, s.IsEqual(base))
	})

	t.Run("paid requires reference", func(t *testing.T) {
		p := params()
		p.Status = shipment.Processing
		p.PaymentStatus = shipment.Paid

		_, err := shipment.Restore(p)

		require.ErrorIs(t, err, shipment.ErrPaidWithoutReference)
	})

	t.Run("in transit requires matching history", func(t *testing.T) {
		p := params()
		p.Status = shipment.InTransit
		p.PaymentStatus = shipment.Paid
		p.PaymentReference = "pi_1"

		_, err := shipment.Restore(p)
		require.ErrorIs(t, err, shipment.ErrStatusWithoutHistory)

		p.History = []shipment.TrackingEntry{{Status: "in_transit", Timestamp: now}}
		_, err = shipment.Restore(p)
		require.NoError(t, err)
	})

	t.Run("rejects malformed tracking code", func(t *testing.T) {
		p := params()
		p.TrackingCode = "XYZ"

		_, err := shipment.Restore(p)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
