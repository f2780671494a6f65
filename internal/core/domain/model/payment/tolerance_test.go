package payment_test

import (
	"testing"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/payment"
	"shipping/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAmount(t *testing.T) {
	money := func(amount, currency string) kernel.Money {
		m, err := kernel.NewMoneyFromString(amount, currency)
		require.NoError(t, err)
		return m
	}

	testCases := []struct {
		name      string
		submitted kernel.Money
		price     kernel.Money
		ok        bool
	}{
		{"exact", money("7.13", "GBP"), money("7.13", "GBP"), true},
		{"min band upper edge", money("7.23", "GBP"), money("7.13", "GBP"), true},
		{"min band lower edge", money("7.03", "GBP"), money("7.13", "GBP"), true},
		{"just outside min band", money("7.24", "GBP"), money("7.13", "GBP"), false},
		{"percent band on large price", money("251.50", "GBP"), money("250.00", "GBP"), true},
		{"outside percent band", money("252.51", "GBP"), money("250.00", "GBP"), false},
		{"currency mismatch", money("7.13", "USD"), money("7.13", "GBP"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := payment.CheckAmount(tc.submitted, tc.price)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, errs.ErrPaymentAmountMismatch)
		})
	}
}

func TestTolerance(t *testing.T) {
	small, _ := kernel.NewMoneyFromString("5.00", "GBP")
	large, _ := kernel.NewMoneyFromString("80.00", "GBP")

	assert.Equal(t, "0.10", payment.Tolerance(small).StringFixed(2))
	assert.Equal(t, "0.80", payment.Tolerance(large).StringFixed(2))
}
