// Package ratelimiter provides sliding-window admission control keyed by an
// arbitrary string (user plus route, IP, and so on).
//
// The shared Redis store is the source of truth. When it fails or times out
// the service answers from an injected per-process LocalStore instead and
// marks the result Degraded. Under horizontal scaling each instance then
// enforces the limit on its own, so the effective global limit becomes
// limit × instances until the shared store recovers.
//
// Usage:
//
//	svc, _ := ratelimiter.New(redisStore, localStore, ratelimiter.WithLogger(logger))
//	result, _ := svc.Check(ctx, "user:123:/usage/check", 60, time.Minute)
//	if !result.Allowed {
//	    // Return 429 Too Many Requests
//	}
package ratelimiter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"quotagate/internal/ratelimit/config"
	"quotagate/internal/ratelimit/metrics"
	"quotagate/internal/ratelimit/models"
	"quotagate/internal/ratelimit/observability"
	dErrors "quotagate/pkg/domain-errors"
	"quotagate/pkg/platform/audit"
	"quotagate/pkg/platform/circuit"
	"quotagate/pkg/platform/middleware/requesttime"
)

// WindowStore runs the prune-insert-count sliding window algorithm.
type WindowStore interface {
	Hit(ctx context.Context, key string, now time.Time, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
}

// Service enforces sliding-window limits. Safe for concurrent use.
type Service struct {
	primary        WindowStore
	fallback       WindowStore
	breaker        *circuit.Breaker
	config         *config.Config
	logger         *slog.Logger
	auditPublisher observability.AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher sets the audit event publisher.
func WithAuditPublisher(publisher observability.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithConfig overrides the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBreaker replaces the breaker built from the configuration.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		s.breaker = b
	}
}

// WithTracer sets the OpenTelemetry tracer. Defaults to the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New creates a rate limiter over a shared primary store and a local fallback.
func New(primary, fallback WindowStore, opts ...Option) (*Service, error) {
	if primary == nil {
		return nil, errors.New("primary window store is required")
	}
	if fallback == nil {
		return nil, errors.New("fallback window store is required")
	}

	svc := &Service{
		primary:  primary,
		fallback: fallback,
		config:   config.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}

	if svc.breaker == nil {
		svc.breaker = circuit.New("ratelimit-store",
			circuit.WithFailureThreshold(svc.config.Breaker.FailureThreshold),
			circuit.WithCooldown(svc.config.Breaker.Cooldown),
		)
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer("quotagate/ratelimiter")
	}
	return svc, nil
}

// Check records one event for key and reports whether it fits within limit
// events per window. Store failures never surface: the local fallback
// answers and the result is marked Degraded. The only error is a
// CodeConfiguration error for a non-positive limit or window.
func (s *Service) Check(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	if err := (config.Limit{RequestsPerWindow: limit, Window: window}).Validate(); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rate limit key is required")
	}

	now := requesttime.Now(ctx)
	ctx, span := s.tracer.Start(ctx, "ratelimiter.Check", trace.WithAttributes(
		attribute.Int("ratelimit.limit", limit),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	))
	defer span.End()

	result, err := s.hitPrimary(ctx, key, now, limit, window)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "shared store unavailable")
		result, err = s.hitFallback(ctx, key, now, limit, window, err)
		if err != nil {
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.Bool("ratelimit.allowed", result.Allowed),
		attribute.Bool("ratelimit.degraded", result.Degraded),
	)
	if s.metrics != nil {
		s.metrics.IncrementRateLimitCheck(result.Allowed)
	}
	return result, nil
}

// CheckDefault is Check with the configured default limit.
func (s *Service) CheckDefault(ctx context.Context, key string) (*models.RateLimitResult, error) {
	l := s.config.DefaultLimit
	return s.Check(ctx, key, l.RequestsPerWindow, l.Window)
}

// CheckRoute is Check with the limit configured for route.
func (s *Service) CheckRoute(ctx context.Context, key, route string) (*models.RateLimitResult, error) {
	l := s.config.LimitFor(route)
	return s.Check(ctx, key, l.RequestsPerWindow, l.Window)
}

// Reset clears the window for key in both stores. The local window is always
// cleared; a shared-store failure is returned as CodeStoreUnavailable.
func (s *Service) Reset(ctx context.Context, key string) error {
	if key == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "rate limit key is required")
	}
	_ = s.fallback.Reset(ctx, key)

	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()
	if err := s.primary.Reset(storeCtx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to reset shared rate limit state")
	}

	observability.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventRateLimitReset,
		"key", key,
		"decision", "reset",
	)
	return nil
}

func (s *Service) hitPrimary(ctx context.Context, key string, now time.Time, limit int, window time.Duration) (*models.RateLimitResult, error) {
	if !s.breaker.Allow() {
		return nil, errBreakerOpen
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.primary.Hit(storeCtx, key, now, limit, window)
	if s.metrics != nil {
		s.metrics.ObserveStoreLatency("shared", time.Since(start).Seconds())
	}
	if err != nil {
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.breakerChanged(ctx, true)
		}
		return nil, err
	}

	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.breakerChanged(ctx, false)
	}
	return result, nil
}

func (s *Service) hitFallback(ctx context.Context, key string, now time.Time, limit int, window time.Duration, cause error) (*models.RateLimitResult, error) {
	if s.logger != nil && !errors.Is(cause, errBreakerOpen) {
		s.logger.WarnContext(ctx, "shared rate limit store failed, using local fallback",
			"error", cause,
			"breaker_state", s.breaker.State().String(),
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementFallback()
	}

	result, err := s.fallback.Hit(ctx, key, now, limit, window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "local rate limit fallback failed")
	}
	result.Degraded = true
	return result, nil
}

func (s *Service) breakerChanged(ctx context.Context, open bool) {
	if s.metrics != nil {
		s.metrics.SetBreakerOpen(open)
	}
	if open {
		observability.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventRateLimitDegraded,
			"breaker", s.breaker.Name(),
			"decision", "fallback",
		)
		return
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "shared rate limit store recovered", "breaker", s.breaker.Name())
	}
}

var errBreakerOpen = errors.New("rate limit store circuit open")
