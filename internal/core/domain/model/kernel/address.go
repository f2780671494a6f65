package kernel

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

var (
	ErrAddressIsNotConstructed = errors.New("address must be created via NewAddress")
	ErrContactIsNotConstructed = errors.New("contact must be created via NewContact")

	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Address is a postal address. State is optional; Country is an ISO-3166
// alpha-2 code stored upper case.
type Address struct {
	street     string
	city       string
	state      string
	postalCode string
	country    string
	guard      guard.ConstructorGuard
}

func NewAddress(street, city, state, postalCode, country string) (Address, error) {
	a := Address{
		street:     strings.TrimSpace(street),
		city:       strings.TrimSpace(city),
		state:      strings.ToUpper(strings.TrimSpace(state)),
		postalCode: strings.ToUpper(strings.TrimSpace(postalCode)),
		country:    strings.ToUpper(strings.TrimSpace(country)),
	}

	if err := errors.Join(
		required("street", a.street),
		required("city", a.city),
		required("postalCode", a.postalCode),
		validateCountry(a.country),
	); err != nil {
		return Address{}, err
	}

	a.guard = guard.NewConstructorGuard()
	return a, nil
}

func (a Address) Street() string     { return a.street }
func (a Address) City() string       { return a.city }
func (a Address) State() string      { return a.state }
func (a Address) PostalCode() string { return a.postalCode }
func (a Address) Country() string    { return a.country }

func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

// Equal compares every field.
func (a Address) Equal(other Address) bool {
	return a.street == other.street &&
		a.city == other.city &&
		a.state == other.state &&
		a.postalCode == other.postalCode &&
		a.country == other.country
}

// PostalKey is the postcode and country joined, with inner spaces removed.
func (a Address) PostalKey() string {
	return strings.ReplaceAll(a.postalCode, " ", "") + "|" + a.country
}

func (a Address) String() string {
	parts := []string{a.street, a.city}
	if a.state != "" {
		parts = append(parts, a.state)
	}
	parts = append(parts, a.postalCode, a.country)
	return strings.Join(parts, ", ")
}

// Contact is the person reachable about a shipment. Phone is optional.
type Contact struct {
	name  string
	email string
	phone string
	guard guard.ConstructorGuard
}

func NewContact(name, email, phone string) (Contact, error) {
	c := Contact{
		name:  strings.TrimSpace(name),
		email: strings.ToLower(strings.TrimSpace(email)),
		phone: strings.TrimSpace(phone),
	}

	var emailErr error
	switch {
	case c.email == "":
		emailErr = errs.NewValueIsRequiredError("email")
	case !emailPattern.MatchString(c.email):
		emailErr = errs.NewValueIsInvalidErrorWithCause("email", fmt.Errorf("%q is not an email address", c.email))
	}

	if err := errors.Join(required("name", c.name), emailErr); err != nil {
		return Contact{}, err
	}

	c.guard = guard.NewConstructorGuard()
	return c, nil
}

func (c Contact) Name() string  { return c.name }
func (c Contact) Email() string { return c.email }
func (c Contact) Phone() string { return c.phone }

func (c Contact) Validate() error {
	return c.guard.Validate(ErrContactIsNotConstructed)
}

// Party is one end of a shipment.
type Party struct {
	Address Address
	Contact Contact
}

func NewParty(address Address, contact Contact) (Party, error) {
	if err := errors.Join(address.Validate(), contact.Validate()); err != nil {
		return Party{}, err
	}
	return Party{Address: address, Contact: contact}, nil
}

func (p Party) Validate() error {
	return errors.Join(p.Address.Validate(), p.Contact.Validate())
}

func required(param, v string) error {
	if v == "" {
		return errs.NewValueIsRequiredError(param)
	}
	return nil
}

func validateCountry(c string) error {
	if c == "" {
		return errs.NewValueIsRequiredError("country")
	}
	if len(c) != 2 || c[0] < 'A' || c[0] > 'Z' || c[1] < 'A' || c[1] > 'Z' {
		return errs.NewValueIsInvalidErrorWithCause("country", fmt.Errorf("%q is not an ISO-3166 alpha-2 code", c))
	}
	return nil
}
