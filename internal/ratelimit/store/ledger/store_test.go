package ledger

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"quotagate/internal/ratelimit/models"
)

type InMemoryStoreSuite struct {
	contractSuite
}

func TestInMemoryStoreSuite(t *testing.T) {
	s := new(InMemoryStoreSuite)
	s.newStore = func() Store { return NewInMemory() }
	suite.Run(t, s)
}

type RedisStoreSuite struct {
	contractSuite
	mr *miniredis.Miniredis
}

func TestRedisStoreSuite(t *testing.T) {
	s := new(RedisStoreSuite)
	s.newStore = func() Store {
		s.mr = miniredis.RunT(s.T())
		client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
		s.T().Cleanup(func() { _ = client.Close() })
		return NewRedis(client)
	}
	suite.Run(t, s)
}

func (s *RedisStoreSuite) TestKeysCarryExpiry() {
	_, err := s.store.Increment(context.Background(), delta("u1", today, models.FeatureArticleWriter, 5, models.UsageSuccess))
	s.Require().NoError(err)

	s.Equal(dailyTTL, s.mr.TTL("usage:d:2026-03-10:article_writer:u1"))
	s.Equal(monthlyTTL, s.mr.TTL("usage:m:2026-03-01:u1"))
}

func (s *RedisStoreSuite) TestUserIDsMayContainColons() {
	ctx := context.Background()
	_, err := s.store.Increment(ctx, delta("tenant:42", yesterday, models.FeatureArticleWriter, 1, models.UsageSuccess))
	s.Require().NoError(err)

	n, err := s.store.ResetDailyCounters(ctx, today)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *RedisStoreSuite) TestUnavailable() {
	s.mr.Close()
	_, err := s.store.Increment(context.Background(), delta("u1", today, models.FeatureArticleWriter, 1, models.UsageSuccess))
	s.Error(err)
	_, err = s.store.GetDaily(context.Background(), "u1", today, models.FeatureArticleWriter)
	s.Error(err)
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	_, err := store.Increment(ctx, delta("u1", today, models.FeatureArticleWriter, 1, models.UsageSuccess))
	require.NoError(t, err)

	rec, err := store.GetDaily(ctx, "u1", today, models.FeatureArticleWriter)
	require.NoError(t, err)
	rec.Count = 99

	again, err := store.GetDaily(ctx, "u1", today, models.FeatureArticleWriter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.Count)
}

func TestInvalidDayIsRejected(t *testing.T) {
	store := NewRedis(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	_, err := store.ResetDailyCounters(context.Background(), "not-a-day")
	assert.Error(t, err)
}
