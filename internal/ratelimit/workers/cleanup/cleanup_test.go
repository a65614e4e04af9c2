package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"quotagate/internal/ratelimit/metrics"
	"quotagate/internal/ratelimit/models"
	"quotagate/internal/ratelimit/store/allowlist"
	"quotagate/pkg/platform/middleware/requesttime"
)

type failingStore struct{}

func (failingStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("db down")
}

type AllowlistCleanerSuite struct {
	suite.Suite
	store   *allowlist.InMemoryStore
	metrics *metrics.Metrics
	service *AllowlistCleanupService
	now     time.Time
}

func TestAllowlistCleanerSuite(t *testing.T) {
	suite.Run(t, new(AllowlistCleanerSuite))
}

func (s *AllowlistCleanerSuite) SetupTest() {
	s.store = allowlist.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, WithMetrics(s.metrics), WithInterval(time.Minute))
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (s *AllowlistCleanerSuite) add(identifier string, ttl time.Duration) {
	var expires *time.Time
	if ttl > 0 {
		t := s.now.Add(ttl)
		expires = &t
	}
	entry, err := models.NewAllowlistEntry(models.AllowlistTypeUser, identifier, "test", "ops", expires, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Add(context.Background(), entry))
}

func (s *AllowlistCleanerSuite) TestRunOnceRemovesOnlyExpired() {
	s.add("short", time.Minute)
	s.add("long", time.Hour)
	s.add("forever", 0)

	ctx := requesttime.WithTime(context.Background(), s.now.Add(10*time.Minute))
	res, err := s.service.RunOnce(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), res.Removed)

	remaining, err := s.store.List(context.Background(), s.now)
	s.Require().NoError(err)
	s.Len(remaining, 2)

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.AllowlistExpiredTotal))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.CleanupRunsTotal.WithLabelValues("success")))
}

func (s *AllowlistCleanerSuite) TestRunOnceIsIdempotent() {
	s.add("short", time.Minute)
	ctx := requesttime.WithTime(context.Background(), s.now.Add(time.Hour))

	_, err := s.service.RunOnce(ctx)
	s.Require().NoError(err)
	res, err := s.service.RunOnce(ctx)
	s.Require().NoError(err)
	s.Zero(res.Removed)
}

func (s *AllowlistCleanerSuite) TestRunOnceReportsStoreError() {
	svc := New(failingStore{}, WithMetrics(s.metrics))
	res, err := svc.RunOnce(context.Background())
	s.Error(err)
	s.Nil(res)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.CleanupRunsTotal.WithLabelValues("error")))
}

func (s *AllowlistCleanerSuite) TestStartStopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ErrorIs(s.service.Start(ctx), context.Canceled)
}
