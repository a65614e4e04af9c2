package window

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"quotagate/internal/ratelimit/metrics"
	"quotagate/internal/ratelimit/models"
	platformsync "quotagate/pkg/platform/sync"
)

// LocalStore is the per-process fallback for RedisStore. It runs the same
// prune-insert-count algorithm against an in-memory sharded map, so under
// horizontal scaling every instance enforces the limit on its own.
type LocalStore struct {
	windows *platformsync.ShardedMap[*localWindow]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type localWindow struct {
	stamps []int64 // unix millis, ascending
	window time.Duration
}

func (w *localWindow) prune(nowMs int64) {
	cutoff := nowMs - w.window.Milliseconds()
	i := sort.Search(len(w.stamps), func(i int) bool { return w.stamps[i] > cutoff })
	w.stamps = w.stamps[i:]
}

func (w *localWindow) insert(ms int64) {
	i := sort.Search(len(w.stamps), func(i int) bool { return w.stamps[i] > ms })
	w.stamps = append(w.stamps, 0)
	copy(w.stamps[i+1:], w.stamps[i:])
	w.stamps[i] = ms
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithLogger sets the logger used by the sweeper.
func WithLogger(logger *slog.Logger) LocalOption {
	return func(s *LocalStore) {
		s.logger = logger
	}
}

// WithMetrics reports the number of live windows after each sweep.
func WithMetrics(m *metrics.Metrics) LocalOption {
	return func(s *LocalStore) {
		s.metrics = m
	}
}

func NewLocalStore(opts ...LocalOption) *LocalStore {
	s := &LocalStore{windows: platformsync.NewShardedMap[*localWindow]()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit records an event at now and reports whether it fits within limit.
func (s *LocalStore) Hit(_ context.Context, key string, now time.Time, limit int, window time.Duration) (*models.RateLimitResult, error) {
	nowMs := now.UnixMilli()
	var count int
	var earliest int64

	s.windows.Update(key, func(w *localWindow, exists bool) (*localWindow, bool) {
		if !exists {
			w = &localWindow{}
		}
		w.window = window
		w.prune(nowMs)
		w.insert(nowMs)
		count = len(w.stamps)
		earliest = w.stamps[0]
		return w, true
	})

	return models.NewRateLimitResult(count, limit, time.UnixMilli(earliest), now, window), nil
}

// Reset drops the window for key.
func (s *LocalStore) Reset(_ context.Context, key string) error {
	s.windows.Delete(key)
	return nil
}

// Len returns the number of tracked keys.
func (s *LocalStore) Len() int {
	return s.windows.Len()
}

// Sweep removes windows whose newest event has expired and returns how many
// were removed.
func (s *LocalStore) Sweep(now time.Time) int {
	nowMs := now.UnixMilli()
	return s.windows.Sweep(func(_ string, w *localWindow) bool {
		w.prune(nowMs)
		return len(w.stamps) > 0
	})
}

// Run sweeps idle windows every interval until ctx is cancelled.
func (s *LocalStore) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			removed := s.Sweep(now)
			if removed > 0 && s.logger != nil {
				s.logger.Debug("swept idle fallback windows", "removed", removed, "remaining", s.Len())
			}
			if s.metrics != nil {
				s.metrics.SetFallbackWindows(s.Len())
			}
		}
	}
}
