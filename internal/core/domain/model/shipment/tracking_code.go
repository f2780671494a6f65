package shipment

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"

	"shipping/internal/pkg/errs"
)

const (
	trackingCodePrefix   = "SHP"
	trackingCodeLength   = 10
	trackingCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"
)

var trackingCodePattern = regexp.MustCompile(`^SHP[A-Z2-7]{10}$`)

// TrackingCode is the customer-facing shipment reference.
type TrackingCode string

// NewTrackingCode draws a random code from crypto/rand.
func NewTrackingCode() (TrackingCode, error) {
	return newTrackingCodeFrom(rand.Reader)
}

func newTrackingCodeFrom(r io.Reader) (TrackingCode, error) {
	buf := make([]byte, trackingCodeLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = trackingCodeAlphabet[int(b)%len(trackingCodeAlphabet)]
	}
	return TrackingCode(trackingCodePrefix + string(buf)), nil
}

func ParseTrackingCode(s string) (TrackingCode, error) {
	c := TrackingCode(s)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c TrackingCode) Validate() error {
	if c == "" {
		return errs.NewValueIsRequiredError("trackingCode")
	}
	if !trackingCodePattern.MatchString(string(c)) {
		return errs.NewValueIsInvalidErrorWithCause("trackingCode", fmt.Errorf("%q is malformed", string(c)))
	}
	return nil
}

func (c TrackingCode) String() string { return string(c) }
