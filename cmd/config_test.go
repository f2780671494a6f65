package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := LoadConfig()

		assert.Equal(t, "GBP", cfg.Currency)
		assert.Equal(t, 30*time.Second, cfg.CarrierTimeout)
		assert.Equal(t, NotifyDriverLog, cfg.NotifyDriver)
		assert.Equal(t, "@every 15m", cfg.TrackingSyncSchedule)
		assert.Equal(t, 5, cfg.BookingMaxAttempts)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("CARRIER_TIMEOUT_SECONDS", "5")
		t.Setenv("TRACKING_SYNC_SCHEDULE", "0 */5 * * * *")
		t.Setenv("DB_HOST", "db")
		t.Setenv("DB_PASSWORD", "secret")

		cfg := LoadConfig()

		assert.Equal(t, 5*time.Second, cfg.CarrierTimeout)
		assert.Equal(t, "0 */5 * * * *", cfg.TrackingSyncSchedule)
		assert.Contains(t, cfg.DSN(), "host=db")
		assert.Contains(t, cfg.DSN(), "password=secret")
	})
}

func TestConfig_Markups(t *testing.T) {
	t.Run("parses pairs", func(t *testing.T) {
		cfg := Config{CarrierMarkups: " FedEx=1.50, ups=2 ,"}

		markups, err := cfg.Markups()

		require.NoError(t, err)
		require.Len(t, markups, 2)
		assert.Equal(t, "1.5", markups["fedex"].String())
		assert.Equal(t, "2", markups["ups"].String())
	})

	t.Run("empty", func(t *testing.T) {
		markups, err := Config{}.Markups()

		require.NoError(t, err)
		assert.Empty(t, markups)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Config{CarrierMarkups: "fedex:1"}.Markups()
		require.Error(t, err)

		_, err = Config{CarrierMarkups: "fedex=abc"}.Markups()
		require.Error(t, err)
	})
}

func TestConfig_Brokers(t *testing.T) {
	cfg := Config{KafkaBrokers: "k1:9092, k2:9092,,"}

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
}
