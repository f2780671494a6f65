package queries

import (
	"errors"
	"slices"
	"strings"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/guard"
)

var ErrGetQuoteQueryIsNotConstructed = errors.New(
	"GetQuoteQuery must be created via NewGetQuoteQuery constructor",
)

// GetQuoteQuery prices one parcel between two addresses. No carriers means every enabled carrier.
type GetQuoteQuery struct { //nolint:recvcheck //using for validation
	origin      kernel.Address
	destination kernel.Address
	parcel      kernel.Parcel
	carriers    []string

	guard guard.ConstructorGuard
}

func NewGetQuoteQuery(origin, destination kernel.Address, parcel kernel.Parcel, carriers []string) (GetQuoteQuery, error) {
	q := GetQuoteQuery{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		origin.Validate(),
		destination.Validate(),
		parcel.Validate(),
	); err != nil {
		return GetQuoteQuery{}, err
	}

	q.origin = origin
	q.destination = destination
	q.parcel = parcel
	q.setCarriers(carriers)
	return q, nil
}

func (q GetQuoteQuery) Validate() error {
	return q.guard.Validate(ErrGetQuoteQueryIsNotConstructed)
}

func (q GetQuoteQuery) Origin() kernel.Address      { return q.origin }
func (q GetQuoteQuery) Destination() kernel.Address { return q.destination }
func (q GetQuoteQuery) Parcel() kernel.Parcel       { return q.parcel }
func (q GetQuoteQuery) Carriers() []string          { return slices.Clone(q.carriers) }

func (q *GetQuoteQuery) setCarriers(carriers []string) {
	for _, c := range carriers {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			q.carriers = append(q.carriers, c)
		}
	}
}
