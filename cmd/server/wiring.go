package main

import (
	"context"
	"fmt"
	"strings"

	"quotagate/internal/platform/config"
	"quotagate/internal/platform/database"
	redisclient "quotagate/internal/platform/redis"
	rlconfig "quotagate/internal/ratelimit/config"
	"quotagate/internal/ratelimit/models"
	"quotagate/internal/ratelimit/plans"
	"quotagate/internal/ratelimit/store/allowlist"
	"quotagate/internal/ratelimit/store/ledger"
	"quotagate/migrations"
)

const (
	backendPostgres = "postgres"
	backendRedis    = "redis"
	backendMemory   = "memory"
)

// buildRateLimitConfig layers environment overrides and the plans file over
// the built-in limits and validates the result. Any error is fatal.
func buildRateLimitConfig(cfg config.Server) (*rlconfig.Config, error) {
	rl := rlconfig.DefaultConfig()
	rl.DefaultLimit = rlconfig.Limit{
		RequestsPerWindow: cfg.RateLimit.DefaultLimit,
		Window:            cfg.RateLimit.DefaultWindow,
	}
	if cfg.RateLimit.LocalSweepInterval > 0 {
		rl.LocalSweepEvery = cfg.RateLimit.LocalSweepInterval
	}
	if cfg.Quota.StoreTimeout > 0 {
		rl.StoreTimeout = cfg.Quota.StoreTimeout
	}
	if cfg.Quota.StorePolicy != "" {
		policy, err := rlconfig.ParseStorePolicy(cfg.Quota.StorePolicy)
		if err != nil {
			return nil, err
		}
		rl.QuotaStorePolicy = policy
	}
	if cfg.Quota.PlansFile != "" {
		tiers, restricted, err := rlconfig.LoadPlans(cfg.Quota.PlansFile)
		if err != nil {
			return nil, err
		}
		rl.Plans = tiers
		rl.Restricted = restricted
	}
	if err := rl.Validate(); err != nil {
		return nil, err
	}
	return rl, nil
}

// migrate applies the embedded schema when a database is configured.
func migrate(ctx context.Context, pool *database.Pool) error {
	if pool == nil {
		return nil
	}
	if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// selectAllowlist keeps rate-limit exemptions in postgres when a database is
// configured so they survive restarts and are shared across replicas.
func selectAllowlist(pool *database.Pool) allowlist.Store {
	if pool == nil {
		return allowlist.NewInMemory()
	}
	return allowlist.NewPostgres(pool.DB())
}

// selectLedger picks the usage ledger backend. An explicit backend must have
// its connection configured; otherwise postgres wins over redis over memory.
func selectLedger(ctx context.Context, backend string, rdb *redisclient.Client, pool *database.Pool) (ledger.Store, string, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		switch {
		case pool != nil:
			backend = backendPostgres
		case rdb != nil:
			backend = backendRedis
		default:
			backend = backendMemory
		}
	}

	switch backend {
	case backendPostgres:
		if pool == nil {
			return nil, "", fmt.Errorf("ledger backend %q requires DATABASE_URL", backend)
		}
		return ledger.NewPostgres(pool.DB()), backend, nil
	case backendRedis:
		if rdb == nil {
			return nil, "", fmt.Errorf("ledger backend %q requires REDIS_URL", backend)
		}
		return ledger.NewRedis(rdb.Client), backend, nil
	case backendMemory:
		return ledger.NewInMemory(), backend, nil
	default:
		return nil, "", fmt.Errorf("unknown ledger backend %q: must be postgres, redis or memory", backend)
	}
}

// loadAssignments reads the user to tier file, or assigns everyone the free
// tier when none is configured.
func loadAssignments(path string) (*plans.StaticAssignments, error) {
	if path == "" {
		return plans.NewStaticAssignments(models.TierFree, nil), nil
	}
	return plans.LoadAssignments(path)
}
