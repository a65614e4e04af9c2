package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_ADDR", "REDIS_URL", "STORE_TIMEOUT", "RATE_LIMIT_DEFAULT_LIMIT", "QUOTA_STORE_POLICY"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 150*time.Millisecond, cfg.Quota.StoreTimeout)
	assert.Equal(t, 60, cfg.RateLimit.DefaultLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.DefaultWindow)
	assert.Empty(t, cfg.Quota.StorePolicy)
	assert.Equal(t, "quota-audit", cfg.Kafka.AuditTopic)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STORE_TIMEOUT", "75ms")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "10")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("QUOTA_STORE_POLICY", "fail_open")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 75*time.Millisecond, cfg.Quota.StoreTimeout)
	assert.Equal(t, 10, cfg.RateLimit.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.DefaultWindow)
	assert.Equal(t, "fail_open", cfg.Quota.StorePolicy)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")
	t.Setenv("REDIS_POOL_SIZE", "many")

	cfg := FromEnv()

	assert.Equal(t, 150*time.Millisecond, cfg.Quota.StoreTimeout)
	assert.Equal(t, 50, cfg.Redis.PoolSize)
}

func TestFromEnvTracing(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_TRACES_SAMPLE_RATE", "0.25")
	t.Setenv("ALLOWLIST_CLEANUP_INTERVAL", "1m")

	cfg := FromEnv()

	assert.Equal(t, "otlp", cfg.Tracing.Exporter)
	assert.True(t, cfg.Tracing.Insecure)
	assert.InDelta(t, 0.25, cfg.Tracing.SampleRate, 1e-9)
	assert.Equal(t, time.Minute, cfg.RateLimit.AllowlistCleanupInterval)
}
