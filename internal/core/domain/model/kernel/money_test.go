package kernel_test

import (
	"testing"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("rounds to two places", func(t *testing.T) {
		m, err := kernel.NewMoney(decimal.RequireFromString("12.345"), "gbp")

		require.NoError(t, err)
		assert.Equal(t, "12.35 GBP", m.String())
		assert.Equal(t, "GBP", m.Currency())
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := kernel.NewMoneyFromFloat(-0.01, "GBP")

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects bad currency", func(t *testing.T) {
		_, err := kernel.NewMoneyFromFloat(1, "POUND")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)

		_, err = kernel.NewMoneyFromFloat(1, "")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("parses strings", func(t *testing.T) {
		m, err := kernel.NewMoneyFromString("9.99", "GBP")
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("9.99")))

		_, err = kernel.NewMoneyFromString("nine", "GBP")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("zero value is invalid", func(t *testing.T) {
		var m kernel.Money

		require.ErrorIs(t, m.Validate(), kernel.ErrMoneyIsNotConstructed)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	a, _ := kernel.NewMoneyFromString("10.00", "GBP")
	b, _ := kernel.NewMoneyFromString("1.50", "GBP")
	usd, _ := kernel.NewMoneyFromString("1.50", "USD")

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)

		require.NoError(t, err)
		assert.Equal(t, "11.50 GBP", sum.String())
	})

	t.Run("abs diff is symmetric", func(t *testing.T) {
		d1, _ := a.AbsDiff(b)
		d2, _ := b.AbsDiff(a)

		assert.True(t, d1.Equal(d2))
		assert.Equal(t, "8.50 GBP", d1.String())
	})

	t.Run("cmp", func(t *testing.T) {
		c, err := a.Cmp(b)

		require.NoError(t, err)
		assert.Equal(t, 1, c)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := a.Add(usd)

		require.ErrorIs(t, err, kernel.ErrCurrencyMismatch)
	})
}
