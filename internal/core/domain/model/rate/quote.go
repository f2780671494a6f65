package rate

import (
	"errors"
	"fmt"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"
)

// QuoteTTL is how long a quote may be selected after creation.
const QuoteTTL = 24 * time.Hour

var ErrQuoteIsNotConstructed = errors.New("quote must be created via NewQuote or RestoreQuote")

// Quote is the set of options computed for one origin/destination/parcel,
// plus the option the customer picked.
type Quote struct {
	id          kernel.UUID
	origin      kernel.Address
	destination kernel.Address
	parcel      kernel.Parcel
	options     []Option
	selected    *Option
	noLiveRate  bool
	createdAt   time.Time
	expiresAt   time.Time

	isConstructed bool
}

func NewQuote(
	id kernel.UUID,
	origin, destination kernel.Address,
	parcel kernel.Parcel,
	options []Option,
	noLiveRate bool,
	now time.Time,
) (*Quote, error) {
	return RestoreQuote(id, origin, destination, parcel, options, nil, noLiveRate, now, now.Add(QuoteTTL))
}

func RestoreQuote(
	id kernel.UUID,
	origin, destination kernel.Address,
	parcel kernel.Parcel,
	options []Option,
	selected *Option,
	noLiveRate bool,
	createdAt, expiresAt time.Time,
) (*Quote, error) {
	var optionsErr error
	if len(options) == 0 {
		optionsErr = errs.NewValueIsRequiredError("options")
	}
	if err := errors.Join(
		id.Validate(),
		origin.Validate(),
		destination.Validate(),
		parcel.Validate(),
		optionsErr,
	); err != nil {
		return nil, err
	}

	return &Quote{
		id:            id,
		origin:        origin,
		destination:   destination,
		parcel:        parcel,
		options:       append([]Option(nil), options...),
		selected:      selected,
		noLiveRate:    noLiveRate,
		createdAt:     createdAt.UTC(),
		expiresAt:     expiresAt.UTC(),
		isConstructed: true,
	}, nil
}

func (q *Quote) Validate() error {
	if q == nil || !q.isConstructed {
		return ErrQuoteIsNotConstructed
	}
	return nil
}

func (q *Quote) ID() kernel.UUID             { return q.id }
func (q *Quote) Origin() kernel.Address      { return q.origin }
func (q *Quote) Destination() kernel.Address { return q.destination }
func (q *Quote) Parcel() kernel.Parcel       { return q.parcel }
func (q *Quote) NoLiveRate() bool            { return q.noLiveRate }
func (q *Quote) CreatedAt() time.Time        { return q.createdAt }
func (q *Quote) ExpiresAt() time.Time        { return q.expiresAt }
func (q *Quote) Options() []Option           { return append([]Option(nil), q.options...) }

// Selected returns the chosen option, if any.
func (q *Quote) Selected() (Option, bool) {
	if q.selected == nil {
		return Option{}, false
	}
	return *q.selected, true
}

func (q *Quote) IsExpired(now time.Time) bool {
	return !now.Before(q.expiresAt)
}

// Select marks the carrier service as chosen and returns it.
func (q *Quote) Select(carrier, serviceCode string, now time.Time) (Option, error) {
	if q.IsExpired(now) {
		return Option{}, fmt.Errorf("%w: quote %s expired at %s", errs.ErrQuoteExpired, q.id, q.expiresAt.Format(time.RFC3339))
	}
	for _, o := range q.options {
		if o.Matches(carrier, serviceCode) {
			chosen := o
			q.selected = &chosen
			return chosen, nil
		}
	}
	return Option{}, errs.NewObjectNotFoundError("rateOption", carrier+"/"+serviceCode)
}
