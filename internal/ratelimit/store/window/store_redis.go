package window

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quotagate/internal/ratelimit/models"
	dErrors "quotagate/pkg/domain-errors"
)

//go:embed sliding_window.lua
var slidingWindowSource string

var slidingWindowScript = redis.NewScript(slidingWindowSource)

// DefaultKeyPrefix namespaces window keys away from usage ledger keys.
const DefaultKeyPrefix = "rl:"

// RedisStore keeps each window as a sorted set of event timestamps and
// mutates it with one server-side script per call.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit records an event at now and reports whether it fits within limit.
// The script loads itself on first use (EVALSHA, then EVAL on NOSCRIPT).
func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time, limit int, window time.Duration) (*models.RateLimitResult, error) {
	nowMs := now.UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	vals, err := slidingWindowScript.Run(ctx, s.client,
		[]string{s.prefix + key},
		nowMs, window.Milliseconds(), member,
	).Int64Slice()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "sliding window script failed")
	}
	if len(vals) != 2 {
		return nil, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("sliding window script returned %d values", len(vals)))
	}

	return models.NewRateLimitResult(int(vals[0]), limit, time.UnixMilli(vals[1]), now, window), nil
}

// Reset deletes the window for key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to reset rate limit window")
	}
	return nil
}
