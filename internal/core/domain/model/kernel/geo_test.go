package kernel_test

import (
	"testing"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	t.Run("accepts bounds", func(t *testing.T) {
		p, err := kernel.NewGeoPoint(-90, 180)

		require.NoError(t, err)
		require.NoError(t, p.Validate())
		assert.InDelta(t, -90.0, p.Lat(), 0)
		assert.InDelta(t, 180.0, p.Lon(), 0)
	})

	t.Run("rejects latitude out of range", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(91, 0)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		assert.Contains(t, err.Error(), "latitude")
	})

	t.Run("rejects longitude out of range", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(0, -181)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("zero value is invalid", func(t *testing.T) {
		var p kernel.GeoPoint

		require.ErrorIs(t, p.Validate(), kernel.ErrGeoPointIsNotConstructed)
	})
}

func TestGeoPoint_DistanceKm(t *testing.T) {
	london, _ := kernel.NewGeoPoint(51.5074, -0.1278)
	manchester, _ := kernel.NewGeoPoint(53.4808, -2.2426)

	t.Run("london to manchester", func(t *testing.T) {
		d, err := london.DistanceKm(manchester)

		require.NoError(t, err)
		assert.InDelta(t, 262, d, 5)
	})

	t.Run("is symmetric", func(t *testing.T) {
		ab, _ := london.DistanceKm(manchester)
		ba, _ := manchester.DistanceKm(london)

		assert.InDelta(t, ab, ba, 1e-9)
	})

	t.Run("same point is zero", func(t *testing.T) {
		d, err := london.DistanceKm(london)

		require.NoError(t, err)
		assert.InDelta(t, 0, d, 1e-9)
	})

	t.Run("rejects unconstructed target", func(t *testing.T) {
		_, err := london.DistanceKm(kernel.GeoPoint{})

		require.ErrorIs(t, err, kernel.ErrGeoPointIsNotConstructed)
	})
}
