package errs_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"shipping/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrors_Messages(t *testing.T) {
	cause := errors.New("boom")

	testCases := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "object not found",
			err:      errs.NewObjectNotFoundError("shipmentId", "42"),
			sentinel: errs.ErrObjectNotFound,
			message:  "object not found: 42",
		},
		{
			name:     "object not found with cause",
			err:      errs.NewObjectNotFoundErrorWithCause("shipmentId", "42", cause),
			sentinel: errs.ErrObjectNotFound,
			message:  "object not found: param is: shipmentId, ID is: 42 (cause: boom)",
		},
		{
			name:     "value is invalid",
			err:      errs.NewValueIsInvalidError("email"),
			sentinel: errs.ErrValueIsInvalid,
			message:  "value is invalid: email",
		},
		{
			name:     "value is invalid with cause",
			err:      errs.NewValueIsInvalidErrorWithCause("email", cause),
			sentinel: errs.ErrValueIsInvalid,
			message:  "value is invalid: email (cause: boom)",
		},
		{
			name:     "value is out of range",
			err:      errs.NewValueIsOutOfRangeError("weight", 150, 0, 70),
			sentinel: errs.ErrValueIsOutOfRange,
			message:  "value is invalid: 150 is weight, min value is 0, max value is 70",
		},
		{
			name:     "value is required with cause",
			err:      errs.NewValueIsRequiredErrorWithCause("city", cause),
			sentinel: errs.ErrValueIsRequired,
			message:  "value is required: city (cause: boom)",
		},
		{
			name:     "version is invalid",
			err:      errs.NewVersionIsInvalidError("version", cause),
			sentinel: errs.ErrVersionIsInvalid,
			message:  "version is invalid: version (cause: boom)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.message, tc.err.Error())
			require.ErrorIs(t, tc.err, tc.sentinel)
		})
	}
}

func TestValueIsOutOfRangeError_SanitizesNewlines(t *testing.T) {
	err := errs.NewValueIsOutOfRangeError("city", "Leeds\nLS1", 1, 10)

	assert.Contains(t, err.Error(), "Leeds LS1")
	assert.NotContains(t, err.Error(), "\n")
}

func TestCarrierError(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("unwraps to kind sentinel and cause", func(t *testing.T) {
		err := errs.NewCarrierError("fedex", "quote", errs.CarrierTransient, 503, cause)

		require.ErrorIs(t, err, errs.ErrCarrierTransient)
		require.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, errs.ErrCarrierRejected)
		assert.Equal(t,
			"carrier temporarily unavailable: fedex quote (status 503) (cause: connection reset)",
			err.Error())
	})

	t.Run("kinds are distinguishable", func(t *testing.T) {
		booking := errs.NewCarrierError("ups", "book", errs.CarrierBooking, 0, nil)
		rejected := errs.NewCarrierError("ups", "book", errs.CarrierRejected, 400, nil)

		require.ErrorIs(t, booking, errs.ErrCarrierBooking)
		require.ErrorIs(t, rejected, errs.ErrCarrierRejected)
		assert.NotErrorIs(t, booking, errs.ErrUnknownCarrier)
		assert.Equal(t, "carrier booking failed: ups book", booking.Error())
	})
}

func TestReasonOf(t *testing.T) {
	testCases := []struct {
		err    error
		reason errs.ReasonCode
	}{
		{nil, errs.ReasonNone},
		{fmt.Errorf("wrap: %w", errs.ErrPaymentAmountMismatch), errs.ReasonPaymentAmountMismatch},
		{errs.ErrPaymentProviderDown, errs.ReasonPaymentFailed},
		{errs.NewObjectNotFoundError("shipment", "1"), errs.ReasonNotFound},
		{errs.NewValueIsRequiredError("city"), errs.ReasonValidationFailed},
		{errs.NewCarrierError("fedex", "auth", errs.CarrierAuthentication, 401, nil), errs.ReasonAuthenticationFailed},
		{errs.NewCarrierError("fedex", "quote", errs.CarrierRejected, 422, nil), errs.ReasonCarrierRejected},
		{errs.NewCarrierError("fedex", "quote", errs.CarrierTransient, 0, nil), errs.ReasonCarrierUnavailable},
		{fmt.Errorf("x: %w", errs.ErrUnknownCarrier), errs.ReasonUnknownCarrier},
		{errs.NewVersionIsInvalidErrorWithCause("version"), errs.ReasonConcurrentModification},
		{context.DeadlineExceeded, errs.ReasonTimeout},
		{errors.New("disk full"), errs.ReasonInternal},
	}

	for _, tc := range testCases {
		t.Run(string(tc.reason), func(t *testing.T) {
			assert.Equal(t, tc.reason, errs.ReasonOf(tc.err))
		})
	}
}
