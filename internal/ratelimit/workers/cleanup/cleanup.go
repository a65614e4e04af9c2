// Package cleanup purges allowlist entries whose expiry has passed.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"quotagate/internal/ratelimit/metrics"
	"quotagate/pkg/platform/middleware/requesttime"
)

// CleanupResult contains the results of a cleanup run.
type CleanupResult struct {
	Removed  int64         // Expired entries deleted
	Duration time.Duration // Time taken for cleanup run
}

type AllowlistStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Option func(*AllowlistCleanupService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *AllowlistCleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *AllowlistCleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AllowlistCleanupService) {
		s.metrics = m
	}
}

type AllowlistCleanupService struct {
	store    AllowlistStore
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
}

func New(store AllowlistStore, opts ...Option) *AllowlistCleanupService {
	service := &AllowlistCleanupService{
		store:    store,
		logger:   slog.Default(),
		interval: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *AllowlistCleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Error("allowlist_cleanup_failed", "error", err)
				continue
			}
			s.logger.Info("allowlist_cleanup_completed",
				"removed", res.Removed,
				"duration_ms", res.Duration.Milliseconds(),
			)
		case <-ctx.Done():
			s.logger.Info("allowlist cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce deletes every entry expired at the context's time. Logging is
// handled by the caller (Start).
func (s *AllowlistCleanupService) RunOnce(ctx context.Context) (*CleanupResult, error) {
	start := time.Now()
	removed, err := s.store.DeleteExpired(ctx, requesttime.Now(ctx))
	duration := time.Since(start)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordCleanup("error", 0, duration.Seconds())
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordCleanup("success", removed, duration.Seconds())
	}
	return &CleanupResult{Removed: removed, Duration: duration}, nil
}
