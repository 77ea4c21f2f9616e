package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsToMemory(t *testing.T) {
	t.Setenv("STORAGE", "")
	t.Setenv("BROKER", "")
	t.Setenv("RETRY_BACKOFF", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, BrokerNone, cfg.Broker)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, int64(1000), cfg.PricingNightFee)
}

func TestLoadRequiresBackendSettings(t *testing.T) {
	t.Setenv("STORAGE", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	_, err := Load()
	assert.ErrorContains(t, err, "POSTGRES_DSN")

	t.Setenv("STORAGE", "memory")
	t.Setenv("BROKER", "kafka")
	t.Setenv("KAFKA_BROKERS", "")
	_, err = Load()
	assert.ErrorContains(t, err, "KAFKA_BROKERS")
}

func TestLoadParsesBrokersAndFees(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("BROKER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PRICING_FLAT_FEE", "2500")
	t.Setenv("IDEMP_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, int64(2500), cfg.PricingFlatFee)
	assert.Equal(t, time.Hour, cfg.IdempotencyTTL)

	t.Setenv("PRICING_FLAT_FEE", "-1")
	_, err = Load()
	assert.Error(t, err)
}
