package plans

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"quotagate/internal/ratelimit/config"
	"quotagate/internal/ratelimit/models"
	dErrors "quotagate/pkg/domain-errors"
)

type ResolverSuite struct {
	suite.Suite
	resolver *Resolver
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.resolver = NewResolverFromConfig(config.DefaultConfig())
}

func (s *ResolverSuite) TestKnownTier() {
	p := s.resolver.Resolve(models.TierPro)
	s.Equal(models.TierPro, p.Tier)
	s.True(p.FeatureEnabled(models.FeatureCodeAssistant))
	s.True(s.resolver.Known(models.TierPro))
}

func (s *ResolverSuite) TestUnknownTierIsRestricted() {
	for _, tier := range []models.PlanTier{"", "platinum", "FREE"} {
		p := s.resolver.Resolve(tier)
		s.Equal(models.TierRestricted, p.Tier, "tier %q", tier)
		s.False(p.FeatureEnabled(models.FeatureArticleWriter))
		s.Equal(int64(0), p.MonthlyTokenBudget)
		s.False(s.resolver.Known(tier))
	}
}

func (s *ResolverSuite) TestTableIsCopied() {
	plans := config.DefaultPlans()
	r := NewResolver(plans, config.RestrictedPlan())
	delete(plans, models.TierFree)

	s.Equal(models.TierFree, r.Resolve(models.TierFree).Tier)
	s.Equal([]models.PlanTier{models.TierEnterprise, models.TierFree, models.TierPro}, r.Tiers())
}

func (s *ResolverSuite) TestFeatures() {
	p := models.PlanLimits{
		Features:    map[models.Feature]bool{"b": true, "a": false},
		DailyLimits: map[models.Feature]int64{"b": 1, "c": 2},
	}
	s.Equal([]models.Feature{"a", "b", "c"}, Features(p))
}

func (s *ResolverSuite) TestStaticAssignments() {
	anchor := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	a := NewStaticAssignments(models.TierFree, map[string]models.PlanAssignment{
		"u-pro": {Tier: models.TierPro, PeriodAnchor: anchor},
	})
	ctx := context.Background()

	got, err := a.ResolvePlanTier(ctx, "u-pro")
	s.Require().NoError(err)
	s.Equal(models.TierPro, got.Tier)
	s.Equal(anchor, got.PeriodAnchor)

	got, err = a.ResolvePlanTier(ctx, "someone")
	s.Require().NoError(err)
	s.Equal(models.TierFree, got.Tier)

	a.Assign("someone", models.PlanAssignment{Tier: models.TierEnterprise})
	got, _ = a.ResolvePlanTier(ctx, "someone")
	s.Equal(models.TierEnterprise, got.Tier)

	none := NewStaticAssignments("", nil)
	_, err = none.ResolvePlanTier(ctx, "u-1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ResolverSuite) TestLoadAssignments() {
	path := filepath.Join(s.T().TempDir(), "assignments.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(`
default_tier: free
users:
  u-123:
    tier: pro
    period_anchor: 2025-07-15T00:00:00Z
`), 0o600))

	a, err := LoadAssignments(path)
	s.Require().NoError(err)

	got, err := a.ResolvePlanTier(context.Background(), "u-123")
	s.Require().NoError(err)
	s.Equal(models.TierPro, got.Tier)
	s.Equal(15, got.PeriodAnchor.Day())

	_, err = LoadAssignments(filepath.Join(s.T().TempDir(), "nope.yaml"))
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
}
