package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, DriverPostgres, cfg.StoreDriver)
	require.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	require.Equal(t, 25, cfg.OutboxBatchSize)
	require.Equal(t, 5, cfg.DLQMaxRetries)
	require.Equal(t, time.Minute, cfg.DLQBaseDelay)
	require.Equal(t, []string{"activity_events", "meet_events", "conversation_events"}, cfg.ConsumerTopics)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MEETUP_STORE_DRIVER", " Memory ")
	t.Setenv("MEETUP_KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("MEETUP_DLQ_BASE_DELAY", "15s")
	t.Setenv("MEETUP_JWT_ISSUER", "tests")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, DriverMemory, cfg.StoreDriver)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 15*time.Second, cfg.DLQBaseDelay)
	require.Equal(t, "tests", cfg.JWTIssuer)
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MEETUP_HTTP_ADDRESS=:9999\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MEETUP_HTTP_ADDRESS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.HTTPAddress)
}

func TestLoadRejectsInvalid(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("MEETUP_STORE_DRIVER", "sqlite")
	_, err := Load(missing)
	require.ErrorContains(t, err, "STORE_DRIVER")

	t.Setenv("MEETUP_STORE_DRIVER", "memory")
	t.Setenv("MEETUP_OUTBOX_BATCH_SIZE", "0")
	_, err = Load(missing)
	require.ErrorContains(t, err, "OUTBOX_BATCH_SIZE")

	t.Setenv("MEETUP_OUTBOX_BATCH_SIZE", "abc")
	_, err = Load(missing)
	require.Error(t, err)
}
