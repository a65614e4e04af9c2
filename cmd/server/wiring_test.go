package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotagate/internal/platform/config"
	rlconfig "quotagate/internal/ratelimit/config"
	"quotagate/internal/ratelimit/models"
	"quotagate/internal/ratelimit/store/allowlist"
	"quotagate/internal/ratelimit/store/ledger"
	dErrors "quotagate/pkg/domain-errors"
)

func baseServerConfig() config.Server {
	return config.Server{
		RateLimit: config.RateLimitConfig{DefaultLimit: 30, DefaultWindow: 10 * time.Second},
	}
}

func TestBuildRateLimitConfigAppliesOverrides(t *testing.T) {
	cfg := baseServerConfig()
	cfg.Quota.StorePolicy = "fail_open"
	cfg.Quota.StoreTimeout = 50 * time.Millisecond

	rl, err := buildRateLimitConfig(cfg)

	require.NoError(t, err)
	assert.Equal(t, 30, rl.DefaultLimit.RequestsPerWindow)
	assert.Equal(t, rlconfig.FailOpen, rl.QuotaStorePolicy)
	assert.Equal(t, 50*time.Millisecond, rl.StoreTimeout)
}

func TestBuildRateLimitConfigRejectsBadValues(t *testing.T) {
	cfg := baseServerConfig()
	cfg.RateLimit.DefaultLimit = 0
	_, err := buildRateLimitConfig(cfg)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))

	cfg = baseServerConfig()
	cfg.Quota.StorePolicy = "sometimes"
	_, err = buildRateLimitConfig(cfg)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
}

func TestBuildRateLimitConfigLoadsPlansFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plans:
  free:
    monthly_token_budget: 500
    features: {article_writer: true}
    daily_limits: {article_writer: 2}
`), 0o600))

	cfg := baseServerConfig()
	cfg.Quota.PlansFile = path
	rl, err := buildRateLimitConfig(cfg)

	require.NoError(t, err)
	assert.Equal(t, int64(500), rl.Plans[models.TierFree].MonthlyTokenBudget)
}

func TestSelectLedger(t *testing.T) {
	ctx := context.Background()

	store, backend, err := selectLedger(ctx, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, backendMemory, backend)
	assert.IsType(t, &ledger.InMemoryStore{}, store)

	_, _, err = selectLedger(ctx, "postgres", nil, nil)
	assert.ErrorContains(t, err, "DATABASE_URL")

	_, _, err = selectLedger(ctx, "REDIS", nil, nil)
	assert.ErrorContains(t, err, "REDIS_URL")

	_, _, err = selectLedger(ctx, "cassandra", nil, nil)
	assert.ErrorContains(t, err, "unknown ledger backend")
}

func TestSelectAllowlistWithoutDatabase(t *testing.T) {
	assert.IsType(t, &allowlist.InMemoryStore{}, selectAllowlist(nil))
	assert.NoError(t, migrate(context.Background(), nil))
}

func TestLoadAssignmentsDefaultsToFree(t *testing.T) {
	tiers, err := loadAssignments("")
	require.NoError(t, err)

	a, err := tiers.ResolvePlanTier(context.Background(), "anyone")
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, a.Tier)
}

func TestServeStopsCleanlyOnCancel(t *testing.T) {
	for _, key := range []string{"REDIS_URL", "DATABASE_URL", "KAFKA_BROKERS", "PLANS_FILE", "PLAN_ASSIGNMENTS_FILE", "ADMIN_TOKEN"} {
		t.Setenv(key, "")
	}
	t.Setenv("OTEL_TRACES_EXPORTER", "none")
	t.Setenv("SERVER_ADDR", "127.0.0.1:0")
	cfg := config.FromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}
