package carrier

import (
	"context"
	"time"

	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/domain/services"
	"shipping/internal/pkg/errs"
)

// RateTables lists every stored version of a carrier's rate table.
type RateTables interface {
	ListByCarrier(ctx context.Context, carrier string) ([]*rate.Table, error)
}

// RateTablesFunc adapts a function to RateTables.
type RateTablesFunc func(ctx context.Context, carrier string) ([]*rate.Table, error)

func (f RateTablesFunc) ListByCarrier(ctx context.Context, carrier string) ([]*rate.Table, error) {
	return f(ctx, carrier)
}

// FallbackRater prices carrier services from stored tables without calling the carrier.
type FallbackRater struct {
	tables RateTables
	pricer services.FallbackPricer
	now    func() time.Time
}

func NewFallbackRater(tables RateTables, pricer services.FallbackPricer) *FallbackRater {
	return &FallbackRater{tables: tables, pricer: pricer, now: time.Now}
}

// Effective prices from the table in effect now. Future-dated versions are ignored.
func (f *FallbackRater) Effective(ctx context.Context, carrier string, in services.PricingInput) ([]rate.Option, error) {
	tables, err := f.tables.ListByCarrier(ctx, carrier)
	if err != nil {
		return nil, err
	}

	table, ok := rate.SelectEffective(tables, f.now())
	if !ok {
		return nil, errs.NewObjectNotFoundError("effectiveRateTable", carrier)
	}
	return f.pricer.Price(table, in)
}

// LowestVersion prices from the effective table, or the lowest version when none is effective yet.
func (f *FallbackRater) LowestVersion(ctx context.Context, carrier string, in services.PricingInput) ([]rate.Option, error) {
	tables, err := f.tables.ListByCarrier(ctx, carrier)
	if err != nil {
		return nil, err
	}

	table, ok := rate.SelectEffective(tables, f.now())
	if !ok {
		if table, ok = rate.LowestVersion(tables); !ok {
			return nil, errs.NewObjectNotFoundError("rateTable", carrier)
		}
	}
	return f.pricer.Price(table, in)
}
