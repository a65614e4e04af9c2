package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"quotagate/internal/platform/config"
	"quotagate/internal/platform/database"
	"quotagate/internal/platform/health"
	"quotagate/internal/platform/kafka/producer"
	"quotagate/internal/platform/logger"
	redisclient "quotagate/internal/platform/redis"
	"quotagate/internal/platform/tracing"
	ratelimitadmin "quotagate/internal/ratelimit/admin"
	"quotagate/internal/ratelimit/handler"
	rlmetrics "quotagate/internal/ratelimit/metrics"
	ratelimitmw "quotagate/internal/ratelimit/middleware"
	"quotagate/internal/ratelimit/observability"
	"quotagate/internal/ratelimit/plans"
	"quotagate/internal/ratelimit/service/quota"
	"quotagate/internal/ratelimit/service/ratelimiter"
	"quotagate/internal/ratelimit/store/allowlist"
	"quotagate/internal/ratelimit/store/window"
	"quotagate/internal/ratelimit/workers/cleanup"
	"quotagate/internal/ratelimit/workers/dailyreset"
	"quotagate/pkg/platform/audit/publisher"
	"quotagate/pkg/platform/middleware/admin"
	"quotagate/pkg/platform/middleware/metadata"
	"quotagate/pkg/platform/middleware/request"
	"quotagate/pkg/platform/middleware/requesttime"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
	auditBufferSize   = 1024
)

func main() {
	os.Exit(run())
}

// run wires the stores, services and HTTP surface, then blocks until a
// signal arrives or a background component fails.
func run() int {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "quotagate:", err)
		return 1
	}
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, log); err != nil {
		log.Error("quotagate stopped with error", "error", err)
		return 1
	}
	log.Info("quotagate stopped")
	return 0
}

func serve(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	rlCfg, err := buildRateLimitConfig(cfg)
	if err != nil {
		return err
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := rlmetrics.New(reg)
	healthHandler := health.New(cfg.Environment)

	redisClient, err := redisclient.New(ctx, cfg.Redis, reg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // shutdown path
	}

	pool, err := database.New(ctx, cfg.Database, reg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if pool != nil {
		defer pool.Close() //nolint:errcheck // shutdown path
		healthHandler.RegisterCheck("postgres", pool.Health)
	}

	if err := migrate(ctx, pool); err != nil {
		return err
	}
	ledgerStore, backend, err := selectLedger(ctx, cfg.Quota.LedgerBackend, redisClient, pool)
	if err != nil {
		return err
	}
	if redisClient != nil {
		// Window checks survive a Redis outage on the local store; the ledger does not.
		if backend == backendRedis {
			healthHandler.RegisterCheck("redis", redisClient.Health)
		} else {
			healthHandler.RegisterDegradableCheck("redis", redisClient.Health)
		}
	}

	var auditPublisher observability.AuditPublisher
	if cfg.Kafka.Brokers != "" {
		prod, err := producer.New(producer.Config{Brokers: cfg.Kafka.Brokers, ClientID: "quotagate"}, log)
		if err != nil {
			return fmt.Errorf("create audit producer: %w", err)
		}
		defer prod.Close() //nolint:errcheck // shutdown path
		healthHandler.RegisterDegradableCheck("kafka", prod.Healthy)

		pub := publisher.New(publisher.NewKafkaSink(prod, cfg.Kafka.AuditTopic),
			publisher.WithAsyncBuffer(auditBufferSize),
			publisher.WithLogger(log),
		)
		defer pub.Close()
		auditPublisher = pub
	}

	local := window.NewLocalStore(window.WithLogger(log), window.WithMetrics(m))
	var primary ratelimiter.WindowStore = local
	if redisClient != nil {
		primary = window.NewRedisStore(redisClient.Client)
	} else {
		log.Warn("REDIS_URL not set: rate limits are enforced per process")
	}

	limiter, err := ratelimiter.New(primary, local,
		ratelimiter.WithLogger(log),
		ratelimiter.WithAuditPublisher(auditPublisher),
		ratelimiter.WithConfig(rlCfg),
		ratelimiter.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	tiers, err := loadAssignments(cfg.Quota.AssignmentsFile)
	if err != nil {
		return err
	}
	quotaService, err := quota.New(ledgerStore, tiers, plans.NewResolverFromConfig(rlCfg),
		quota.WithLogger(log),
		quota.WithAuditPublisher(auditPublisher),
		quota.WithConfig(rlCfg),
		quota.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	resetWorker := dailyreset.New(ledgerStore,
		dailyreset.WithLogger(log),
		dailyreset.WithInterval(cfg.Quota.ResetInterval),
		dailyreset.WithMetrics(m),
		dailyreset.WithAuditPublisher(auditPublisher),
	)

	allowlistStore := selectAllowlist(pool)
	allowlistAdmin, err := ratelimitadmin.New(allowlistStore,
		ratelimitadmin.WithLogger(log),
		ratelimitadmin.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return err
	}
	cleanupWorker := cleanup.New(allowlistStore,
		cleanup.WithLogger(log),
		cleanup.WithInterval(cfg.RateLimit.AllowlistCleanupInterval),
		cleanup.WithMetrics(m),
	)

	router, err := newRouter(cfg, log, reg, healthHandler, limiter, quotaService, resetWorker, allowlistStore, allowlistAdmin)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("starting quotagate",
		"addr", cfg.Addr,
		"ledger", backend,
		"shared_window_store", redisClient != nil,
		"quota_store_policy", rlCfg.QuotaStorePolicy,
		"audit_stream", auditPublisher != nil,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down server gracefully")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return local.Run(gctx, rlCfg.LocalSweepEvery) })
	g.Go(func() error { return resetWorker.Start(gctx) })
	g.Go(func() error { return cleanupWorker.Start(gctx) })
	if redisClient != nil {
		g.Go(func() error { return redisClient.RunPoolStats(gctx, poolStatsInterval) })
	}
	if cfg.Quota.AssignmentsFile != "" {
		g.Go(func() error { return plans.WatchAssignments(gctx, cfg.Quota.AssignmentsFile, tiers, log) })
	}
	// Workers report cancellation as context.Canceled; that is a clean stop.
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newRouter(
	cfg config.Server,
	log *slog.Logger,
	reg *prometheus.Registry,
	healthHandler *health.Handler,
	limiter *ratelimiter.Service,
	quotaService *quota.Service,
	resetWorker *dailyreset.Worker,
	allowlistStore allowlist.Store,
	allowlistAdmin *ratelimitadmin.Service,
) (http.Handler, error) {
	trusted, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse TRUSTED_PROXIES: %w", err)
	}
	meta := metadata.NewMiddleware(&metadata.Config{TrustedProxies: trusted})
	rateLimit := ratelimitmw.New(limiter, log, ratelimitmw.WithAllowlist(allowlistStore))

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(requesttime.Middleware)
	r.Use(meta.Handler)
	r.Use(request.Logger(log, request.NewMetrics(reg)))

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	h := handler.New(limiter, quotaService, resetWorker, log,
		handler.WithRouteLimit(rateLimit.RateLimit),
		handler.WithAllowlistAdmin(allowlistAdmin),
	)
	h.Register(r)
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN not set: admin routes are disabled")
		return r, nil
	}
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.AdminToken, log))
		h.RegisterAdmin(r)
	})
	return r, nil
}
