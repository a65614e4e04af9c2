// Package dailyreset zeroes daily usage records once their UTC day is over.
package dailyreset

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quotagate/internal/ratelimit/metrics"
	"quotagate/internal/ratelimit/models"
	"quotagate/internal/ratelimit/observability"
	"quotagate/pkg/platform/audit"
	"quotagate/pkg/platform/middleware/requesttime"
)

// ResetResult contains the results of a reset run.
type ResetResult struct {
	ModifiedCount int64         // Number of daily records zeroed
	Day           models.Day    // UTC day the run treated as current
	Duration      time.Duration // Time taken for the run
}

// LedgerStore zeroes stale daily records.
type LedgerStore interface {
	ResetDailyCounters(ctx context.Context, today models.Day) (int64, error)
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithAuditPublisher(publisher observability.AuditPublisher) Option {
	return func(w *Worker) {
		w.auditPublisher = publisher
	}
}

// Worker runs the daily reset on a ticker. Runs are serialized; the store
// reset is idempotent, so extra runs in the same day modify nothing.
type Worker struct {
	store          LedgerStore
	logger         *slog.Logger
	interval       time.Duration
	metrics        *metrics.Metrics
	auditPublisher observability.AuditPublisher
	mu             sync.Mutex
}

func New(store LedgerStore, opts ...Option) *Worker {
	w := &Worker{
		store:    store,
		logger:   slog.Default(),
		interval: time.Hour,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs once immediately, then every interval until ctx is done.
func (w *Worker) Start(ctx context.Context) error {
	w.runAndLog(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runAndLog(ctx)
		case <-ctx.Done():
			w.logger.Info("daily reset worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

func (w *Worker) runAndLog(ctx context.Context) {
	res, err := w.RunOnce(ctx)
	if err != nil {
		w.logger.Error("daily_reset_failed", "error", err)
		return
	}
	w.logger.Info("daily_reset_completed",
		"day", res.Day,
		"modified_count", res.ModifiedCount,
		"duration_ms", res.Duration.Milliseconds(),
	)
}

// RunOnce zeroes every daily record dated before the current UTC day.
func (w *Worker) RunOnce(ctx context.Context) (*ResetResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	today := models.DayOf(requesttime.Now(ctx))
	start := time.Now()
	modified, err := w.store.ResetDailyCounters(ctx, today)
	duration := time.Since(start)

	if w.metrics != nil {
		w.metrics.ObserveDailyResetDuration(duration.Seconds())
	}
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncrementDailyResetRuns("error")
		}
		return nil, err
	}
	if w.metrics != nil {
		w.metrics.IncrementDailyResetRuns("success")
		w.metrics.AddDailyResetRecords(modified)
	}
	if modified > 0 {
		observability.LogAudit(ctx, w.logger, w.auditPublisher, audit.EventDailyCountersReset,
			"day", today,
			"modified_count", modified,
		)
	}

	return &ResetResult{ModifiedCount: modified, Day: today, Duration: duration}, nil
}
