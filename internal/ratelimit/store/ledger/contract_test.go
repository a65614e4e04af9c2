package ledger

import (
	"context"

	"github.com/stretchr/testify/suite"

	"quotagate/internal/ratelimit/models"
	"quotagate/pkg/testutil"
)

// contractSuite holds the behavior every Store must share. Backend suites
// embed it and set newStore.
type contractSuite struct {
	suite.Suite
	newStore func() Store
	store    Store
}

const (
	today     models.Day = "2026-03-10"
	yesterday models.Day = "2026-03-09"
	period    models.Day = "2026-03-01"
)

func (s *contractSuite) SetupTest() {
	s.store = s.newStore()
}

func delta(user string, day models.Day, feature models.Feature, tokens int64, status models.UsageStatus) models.UsageDelta {
	return models.UsageDelta{UserID: user, Day: day, Feature: feature, PeriodStart: period, Tokens: tokens, Status: status}
}

func (s *contractSuite) TestMissingRecordIsZero() {
	rec, err := s.store.GetDaily(context.Background(), "nobody", today, models.FeatureArticleWriter)
	s.Require().NoError(err)
	s.Equal(models.DailyUsageRecord{UserID: "nobody", Day: today, Feature: models.FeatureArticleWriter}, *rec)

	tokens, err := s.store.MonthlyTokens(context.Background(), "nobody", period)
	s.Require().NoError(err)
	s.Zero(tokens)
}

func (s *contractSuite) TestIncrementSplitsOutcomes() {
	ctx := context.Background()
	_, err := s.store.Increment(ctx, delta("u1", today, models.FeatureArticleWriter, 100, models.UsageSuccess))
	s.Require().NoError(err)
	snap, err := s.store.Increment(ctx, delta("u1", today, models.FeatureArticleWriter, 0, models.UsageFail))
	s.Require().NoError(err)

	s.Equal(int64(2), snap.Record.Count)
	s.Equal(int64(1), snap.Record.Success)
	s.Equal(int64(1), snap.Record.Fail)
	s.Equal(int64(100), snap.Record.Tokens)
	s.Equal(int64(100), snap.MonthlyTokens)
	s.Equal(today, snap.Record.Day)

	rec, err := s.store.GetDaily(ctx, "u1", today, models.FeatureArticleWriter)
	s.Require().NoError(err)
	s.Equal(snap.Record, *rec, "reads observe the completed increment")
}

func (s *contractSuite) TestMonthlyTokensSpanFeaturesAndDays() {
	ctx := context.Background()
	_, err := s.store.Increment(ctx, delta("u1", yesterday, models.FeatureChatAssistant, 40, models.UsageSuccess))
	s.Require().NoError(err)
	snap, err := s.store.Increment(ctx, delta("u1", today, models.FeatureImageGenerator, 60, models.UsageSuccess))
	s.Require().NoError(err)
	s.Equal(int64(100), snap.MonthlyTokens)

	other, err := s.store.MonthlyTokens(ctx, "u2", period)
	s.Require().NoError(err)
	s.Zero(other)
}

func (s *contractSuite) TestListDaily() {
	ctx := context.Background()
	for _, f := range []models.Feature{models.FeatureImageGenerator, models.FeatureArticleWriter} {
		_, err := s.store.Increment(ctx, delta("u1", today, f, 1, models.UsageSuccess))
		s.Require().NoError(err)
	}
	_, err := s.store.Increment(ctx, delta("u1", yesterday, models.FeatureChatAssistant, 1, models.UsageSuccess))
	s.Require().NoError(err)

	recs, err := s.store.ListDaily(ctx, "u1", today)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(models.FeatureArticleWriter, recs[0].Feature)
	s.Equal(models.FeatureImageGenerator, recs[1].Feature)
}

func (s *contractSuite) TestResetDailyCountersIsIdempotent() {
	ctx := context.Background()
	_, err := s.store.Increment(ctx, delta("u1", yesterday, models.FeatureArticleWriter, 10, models.UsageSuccess))
	s.Require().NoError(err)
	_, err = s.store.Increment(ctx, delta("u2", yesterday, models.FeatureChatAssistant, 5, models.UsageFail))
	s.Require().NoError(err)
	_, err = s.store.Increment(ctx, delta("u1", today, models.FeatureArticleWriter, 1, models.UsageSuccess))
	s.Require().NoError(err)

	n, err := s.store.ResetDailyCounters(ctx, today)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.store.ResetDailyCounters(ctx, today)
	s.Require().NoError(err)
	s.Zero(n)

	old, err := s.store.GetDaily(ctx, "u1", yesterday, models.FeatureArticleWriter)
	s.Require().NoError(err)
	s.Zero(old.Count)
	s.Zero(old.Tokens)

	current, err := s.store.GetDaily(ctx, "u1", today, models.FeatureArticleWriter)
	s.Require().NoError(err)
	s.Equal(int64(1), current.Count)

	tokens, err := s.store.MonthlyTokens(ctx, "u1", period)
	s.Require().NoError(err)
	s.Equal(int64(11), tokens, "period totals survive the daily reset")
}

func (s *contractSuite) TestConcurrentIncrementsAreNotLost() {
	ctx := context.Background()
	const n = 50

	result := testutil.RunConcurrent(n, func(int) error {
		_, err := s.store.Increment(ctx, delta("hot", today, models.FeatureChatAssistant, 2, models.UsageSuccess))
		return err
	})
	s.Equal(int32(n), result.Successes)

	rec, err := s.store.GetDaily(ctx, "hot", today, models.FeatureChatAssistant)
	s.Require().NoError(err)
	s.Equal(int64(n), rec.Count)
	s.Equal(int64(2*n), rec.Tokens)

	tokens, err := s.store.MonthlyTokens(ctx, "hot", period)
	s.Require().NoError(err)
	s.Equal(int64(2*n), tokens)
}
