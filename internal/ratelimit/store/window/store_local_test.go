package window

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotagate/internal/ratelimit/metrics"
)

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestLocalStore_AllowsExactlyLimit(t *testing.T) {
	store := NewLocalStore()
	ctx := context.Background()

	for i := range 3 {
		res, err := store.Hit(ctx, "k", base.Add(time.Duration(i)*time.Second), 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := store.Hit(ctx, "k", base.Add(3*time.Second), 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, base.Add(time.Minute), res.ResetAt)
	assert.Equal(t, 57, res.ResetSeconds)
}

func TestLocalStore_WindowExpires(t *testing.T) {
	store := NewLocalStore()
	ctx := context.Background()

	_, _ = store.Hit(ctx, "k", base, 1, time.Second)
	res, _ := store.Hit(ctx, "k", base.Add(100*time.Millisecond), 1, time.Second)
	assert.False(t, res.Allowed)

	res, err := store.Hit(ctx, "k", base.Add(1200*time.Millisecond), 1, time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLocalStore_OutOfOrderTimestamps(t *testing.T) {
	store := NewLocalStore()
	ctx := context.Background()

	_, _ = store.Hit(ctx, "k", base.Add(500*time.Millisecond), 5, time.Second)
	res, err := store.Hit(ctx, "k", base, 5, time.Second)
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Second), res.ResetAt, "earliest event drives reset time")
}

func TestLocalStore_Reset(t *testing.T) {
	store := NewLocalStore()
	ctx := context.Background()

	_, _ = store.Hit(ctx, "k", base, 1, time.Minute)
	require.NoError(t, store.Reset(ctx, "k"))
	assert.Equal(t, 0, store.Len())

	res, _ := store.Hit(ctx, "k", base, 1, time.Minute)
	assert.True(t, res.Allowed)
}

func TestLocalStore_ConcurrentHitsNeverExceedLimit(t *testing.T) {
	store := NewLocalStore()
	var allowed atomic.Int32
	var wg sync.WaitGroup

	for range 100 {
		wg.Go(func() {
			res, err := store.Hit(context.Background(), "hot", base, 10, time.Minute)
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(10), allowed.Load())
}

func TestLocalStore_Sweep(t *testing.T) {
	store := NewLocalStore()
	ctx := context.Background()

	_, _ = store.Hit(ctx, "old", base, 5, time.Second)
	_, _ = store.Hit(ctx, "fresh", base.Add(time.Minute), 5, time.Second)

	removed := store.Sweep(base.Add(time.Minute + 500*time.Millisecond))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
}

func TestLocalStore_RunStopsOnCancel(t *testing.T) {
	store := NewLocalStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Run(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestLocalStore_RunReportsWindowGauge(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	store := NewLocalStore(WithMetrics(m))
	_, _ = store.Hit(context.Background(), "live", time.Now(), 5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = store.Run(ctx, time.Millisecond) }()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.FallbackWindowsTracked) == 1
	}, time.Second, 5*time.Millisecond)
}
