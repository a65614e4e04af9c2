package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"quotagate/internal/ratelimit/models"
	dErrors "quotagate/pkg/domain-errors"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestDefaultConfigIsValid() {
	cfg := DefaultConfig()
	s.Require().NoError(cfg.Validate())
	s.Equal(FailClosed, cfg.QuotaStorePolicy)
	s.Equal(int64(3), cfg.Plans[models.TierFree].DailyLimit(models.FeatureArticleWriter))
	s.False(cfg.Plans[models.TierFree].FeatureEnabled(models.FeatureCodeAssistant))
}

func (s *ConfigSuite) TestQuotaStorePolicyDefaultsClosed() {
	s.Equal(FailClosed, DefaultQuotaStorePolicy)

	p, err := ParseStorePolicy("")
	s.Require().NoError(err)
	s.Equal(FailClosed, p)

	p, err = ParseStorePolicy("fail_open")
	s.Require().NoError(err)
	s.Equal(FailOpen, p)

	_, err = ParseStorePolicy("sometimes")
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
}

func (s *ConfigSuite) TestLimitValidation() {
	s.True(dErrors.HasCode(Limit{RequestsPerWindow: 0, Window: time.Second}.Validate(), dErrors.CodeConfiguration))
	s.True(dErrors.HasCode(Limit{RequestsPerWindow: 1, Window: 0}.Validate(), dErrors.CodeConfiguration))
	s.NoError(Limit{RequestsPerWindow: 1, Window: time.Second}.Validate())
}

func (s *ConfigSuite) TestValidateRejectsBadConfig() {
	s.Run("bad route limit", func() {
		cfg := DefaultConfig()
		cfg.RouteLimits["chat"] = Limit{RequestsPerWindow: -1, Window: time.Minute}
		err := cfg.Validate()
		s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
		s.Contains(err.Error(), "route chat")
	})

	s.Run("bad policy", func() {
		cfg := DefaultConfig()
		cfg.QuotaStorePolicy = "maybe"
		s.Error(cfg.Validate())
	})

	s.Run("zero store timeout", func() {
		cfg := DefaultConfig()
		cfg.StoreTimeout = 0
		s.Error(cfg.Validate())
	})
}

func (s *ConfigSuite) TestLimitFor() {
	cfg := DefaultConfig()
	s.Equal(120, cfg.LimitFor("usage_check").RequestsPerWindow)
	s.Equal(cfg.DefaultLimit, cfg.LimitFor("unknown"))
}

func (s *ConfigSuite) TestValidatePlans() {
	s.Run("empty table", func() {
		s.Error(ValidatePlans(nil))
	})

	s.Run("enabled feature without limit", func() {
		plans := map[models.PlanTier]models.PlanLimits{
			"basic": {Features: map[models.Feature]bool{"chat_assistant": true}},
		}
		err := ValidatePlans(plans)
		s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
		s.Contains(err.Error(), "has no daily limit")
	})

	s.Run("budget below unlimited", func() {
		plans := map[models.PlanTier]models.PlanLimits{
			"basic": {MonthlyTokenBudget: -2},
		}
		err := ValidatePlans(plans)
		s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
		s.Contains(err.Error(), "monthly_token_budget")
	})

	s.Run("daily limit below unlimited", func() {
		plans := map[models.PlanTier]models.PlanLimits{
			"basic": {DailyLimits: map[models.Feature]int64{"chat_assistant": -3}},
		}
		s.Error(ValidatePlans(plans))
	})
}

const plansYAML = `
plans:
  free:
    monthly_token_budget: 5000
    features:
      article_writer: true
      image_generator: false
    daily_limits:
      article_writer: 3
  team:
    monthly_token_budget: -1
    features:
      article_writer: true
    daily_limits:
      article_writer: -1
  restricted:
    monthly_token_budget: 0
    features:
      chat_assistant: true
    daily_limits:
      chat_assistant: 1
`

func (s *ConfigSuite) TestParsePlans() {
	plans, restricted, err := ParsePlans([]byte(plansYAML))
	s.Require().NoError(err)

	s.Len(plans, 2)
	s.Equal(models.PlanTier("team"), plans["team"].Tier)
	s.Equal(models.Unlimited, plans["team"].MonthlyTokenBudget)
	s.Equal(int64(3), plans[models.TierFree].DailyLimit(models.FeatureArticleWriter))
	s.Equal(models.TierRestricted, restricted.Tier)
	s.True(restricted.FeatureEnabled(models.FeatureChatAssistant))
}

func (s *ConfigSuite) TestLoadPlans() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "plans.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(plansYAML), 0o600))

	plans, _, err := LoadPlans(path)
	s.Require().NoError(err)
	s.Contains(plans, models.TierFree)

	_, _, err = LoadPlans(filepath.Join(dir, "missing.yaml"))
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
}

func (s *ConfigSuite) TestParsePlansRejectsGarbage() {
	_, _, err := ParsePlans([]byte("plans: [1, 2"))
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))

	_, _, err = ParsePlans([]byte("plans: {}"))
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
}
