package rate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var ErrTableIsNotConstructed = errors.New("rate table must be created via NewTable or RestoreTable")

// ServiceRate prices one service level: Base + PerKg × billable weight.
type ServiceRate struct {
	ServiceCode   string
	DisplayName   string
	Base          decimal.Decimal
	PerKg         decimal.Decimal
	EstimatedDays int
}

// Surcharges are percentages, e.g. 12.5 means 12.5%.
type Surcharges struct {
	FuelPct         decimal.Decimal
	DeliveryAreaPct decimal.Decimal
	ResidentialPct  decimal.Decimal
}

// Table is one version of a carrier's fallback pricing.
type Table struct {
	id            kernel.UUID
	carrier       string
	version       int
	effectiveFrom time.Time
	active        bool
	currency      string
	services      []ServiceRate
	surcharges    Surcharges
	divisor       float64

	isConstructed bool
}

// NewTable creates an inactive table version. A non-positive divisor uses kernel.DefaultDimensionalDivisor.
func NewTable(
	id kernel.UUID,
	carrier string,
	version int,
	effectiveFrom time.Time,
	currency string,
	services []ServiceRate,
	surcharges Surcharges,
	divisor float64,
) (*Table, error) {
	return RestoreTable(id, carrier, version, effectiveFrom, false, currency, services, surcharges, divisor)
}

func RestoreTable(
	id kernel.UUID,
	carrier string,
	version int,
	effectiveFrom time.Time,
	active bool,
	currency string,
	services []ServiceRate,
	surcharges Surcharges,
	divisor float64,
) (*Table, error) {
	if divisor <= 0 {
		divisor = kernel.DefaultDimensionalDivisor
	}
	t := &Table{
		id:            id,
		carrier:       strings.ToLower(strings.TrimSpace(carrier)),
		version:       version,
		effectiveFrom: effectiveFrom.UTC(),
		active:        active,
		currency:      strings.ToUpper(strings.TrimSpace(currency)),
		services:      append([]ServiceRate(nil), services...),
		surcharges:    surcharges,
		divisor:       divisor,
		isConstructed: true,
	}

	if err := errors.Join(
		id.Validate(),
		t.validateFields(),
		validateServices(t.services),
		validateSurcharges(surcharges),
	); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Table) Validate() error {
	if t == nil || !t.isConstructed {
		return ErrTableIsNotConstructed
	}
	return nil
}

func (t *Table) ID() kernel.UUID          { return t.id }
func (t *Table) Carrier() string          { return t.carrier }
func (t *Table) Version() int             { return t.version }
func (t *Table) EffectiveFrom() time.Time { return t.effectiveFrom }
func (t *Table) IsActive() bool           { return t.active }
func (t *Table) Currency() string         { return t.currency }
func (t *Table) Surcharges() Surcharges   { return t.surcharges }
func (t *Table) Divisor() float64         { return t.divisor }

func (t *Table) Services() []ServiceRate {
	return append([]ServiceRate(nil), t.services...)
}

// IsEffective reports whether the table may price shipments at the given time.
func (t *Table) IsEffective(at time.Time) bool {
	return !t.effectiveFrom.After(at)
}

func (t *Table) Activate()   { t.active = true }
func (t *Table) Deactivate() { t.active = false }

func (t *Table) validateFields() error {
	var result []error
	if t.carrier == "" {
		result = append(result, errs.NewValueIsRequiredError("carrier"))
	}
	if t.version < 1 {
		result = append(result, errs.NewValueIsOutOfRangeError("version", t.version, 1, "unbounded"))
	}
	if t.effectiveFrom.IsZero() {
		result = append(result, errs.NewValueIsRequiredError("effectiveFrom"))
	}
	if len(t.currency) != 3 {
		result = append(result, errs.NewValueIsInvalidErrorWithCause("currency", fmt.Errorf("%q is not a 3-letter code", t.currency)))
	}
	return errors.Join(result...)
}

func validateServices(services []ServiceRate) error {
	if len(services) == 0 {
		return errs.NewValueIsRequiredError("services")
	}
	seen := make(map[string]struct{}, len(services))
	var result []error
	for _, s := range services {
		if s.ServiceCode == "" {
			result = append(result, errs.NewValueIsRequiredError("serviceCode"))
			continue
		}
		if _, dup := seen[s.ServiceCode]; dup {
			result = append(result, errs.NewValueIsInvalidErrorWithCause("serviceCode", fmt.Errorf("%s is duplicated", s.ServiceCode)))
		}
		seen[s.ServiceCode] = struct{}{}
		if s.Base.IsNegative() || s.PerKg.IsNegative() {
			result = append(result, errs.NewValueIsInvalidErrorWithCause("rate", fmt.Errorf("%s has a negative rate", s.ServiceCode)))
		}
		if s.EstimatedDays < 0 {
			result = append(result, errs.NewValueIsOutOfRangeError("estimatedDays", s.EstimatedDays, 0, "unbounded"))
		}
	}
	return errors.Join(result...)
}

func validateSurcharges(s Surcharges) error {
	for name, pct := range map[string]decimal.Decimal{
		"fuelPct":         s.FuelPct,
		"deliveryAreaPct": s.DeliveryAreaPct,
		"residentialPct":  s.ResidentialPct,
	} {
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return errs.NewValueIsOutOfRangeError(name, pct.String(), 0, 100)
		}
	}
	return nil
}

// SelectEffective picks the table that prices shipments at the given time:
// the active version if it is already effective, otherwise the highest
// version that is. Future-dated tables are never chosen.
func SelectEffective(tables []*Table, at time.Time) (*Table, bool) {
	var best *Table
	for _, t := range tables {
		if !t.IsEffective(at) {
			continue
		}
		if t.active {
			return t, true
		}
		if best == nil || t.version > best.version {
			best = t
		}
	}
	return best, best != nil
}

// LowestVersion returns the oldest version, used when nothing is effective yet.
func LowestVersion(tables []*Table) (*Table, bool) {
	if len(tables) == 0 {
		return nil, false
	}
	sorted := append([]*Table(nil), tables...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].version < sorted[j].version })
	return sorted[0], true
}
