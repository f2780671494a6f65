package payment

import (
	"fmt"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	MinTolerance     = decimal.RequireFromString("0.10")
	TolerancePercent = decimal.RequireFromString("0.01")
)

// Tolerance is the largest accepted gap between a submitted amount and the
// quoted price: max(0.10, 1% of price).
func Tolerance(price kernel.Money) decimal.Decimal {
	return decimal.Max(MinTolerance, price.Amount().Mul(TolerancePercent))
}

// CheckAmount returns errs.ErrPaymentAmountMismatch when submitted is outside
// the tolerance band around price or in another currency.
func CheckAmount(submitted, price kernel.Money) error {
	diff, err := submitted.AbsDiff(price)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrPaymentAmountMismatch, err)
	}
	if diff.Amount().GreaterThan(Tolerance(price)) {
		return fmt.Errorf("%w: submitted %s, expected %s", errs.ErrPaymentAmountMismatch, submitted, price)
	}
	return nil
}
