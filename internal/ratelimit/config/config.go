package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"quotagate/internal/ratelimit/models"
	dErrors "quotagate/pkg/domain-errors"
	"quotagate/pkg/validation"
)

// StorePolicy decides what the quota enforcer does when the usage ledger
// cannot be read.
type StorePolicy string

const (
	// FailClosed rejects the operation with a store_unavailable reason.
	FailClosed StorePolicy = "fail_closed"
	// FailOpen admits the operation and marks the decision degraded.
	FailOpen StorePolicy = "fail_open"
)

// DefaultQuotaStorePolicy applies to quota-store errors. Admitting metered
// operations blind would let cost run uncapped for as long as the store is
// down, so the default rejects.
const DefaultQuotaStorePolicy = FailClosed

// ParseStorePolicy maps a config string to a policy. Empty means the default.
func ParseStorePolicy(s string) (StorePolicy, error) {
	switch StorePolicy(s) {
	case "":
		return DefaultQuotaStorePolicy, nil
	case FailClosed, FailOpen:
		return StorePolicy(s), nil
	}
	return "", dErrors.New(dErrors.CodeConfiguration,
		fmt.Sprintf("unknown quota store policy %q: must be fail_closed or fail_open", s))
}

// Limit defines a sliding window.
type Limit struct {
	RequestsPerWindow int           `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
}

// Validate rejects non-positive limits and windows.
func (l Limit) Validate() error {
	if l.RequestsPerWindow <= 0 {
		return dErrors.New(dErrors.CodeConfiguration, "rate limit must be positive")
	}
	if l.Window <= 0 {
		return dErrors.New(dErrors.CodeConfiguration, "rate limit window must be positive")
	}
	return nil
}

// BreakerConfig controls when the rate limiter stops calling the shared store.
type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
}

// Config holds rate limiting and quota configuration.
type Config struct {
	// DefaultLimit applies to routes without an override.
	DefaultLimit Limit
	// RouteLimits overrides DefaultLimit per route name.
	RouteLimits map[string]Limit

	// Plans maps each tier to its limits table.
	Plans map[models.PlanTier]models.PlanLimits
	// Restricted is served for unknown tiers.
	Restricted models.PlanLimits

	QuotaStorePolicy StorePolicy
	StoreTimeout     time.Duration
	Breaker          BreakerConfig
	LocalSweepEvery  time.Duration
}

// DefaultConfig returns the built-in limits.
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit: Limit{RequestsPerWindow: 60, Window: time.Minute},
		RouteLimits: map[string]Limit{
			"usage_check":  {RequestsPerWindow: 120, Window: time.Minute},
			"usage_record": {RequestsPerWindow: 120, Window: time.Minute},
		},
		Plans:            DefaultPlans(),
		Restricted:       RestrictedPlan(),
		QuotaStorePolicy: DefaultQuotaStorePolicy,
		StoreTimeout:     150 * time.Millisecond,
		Breaker: BreakerConfig{
			FailureThreshold: 3,
			Cooldown:         5 * time.Second,
		},
		LocalSweepEvery: time.Minute,
	}
}

// DefaultPlans returns the built-in tier table.
func DefaultPlans() map[models.PlanTier]models.PlanLimits {
	return map[models.PlanTier]models.PlanLimits{
		models.TierFree: {
			Tier: models.TierFree,
			DailyLimits: map[models.Feature]int64{
				models.FeatureArticleWriter:  3,
				models.FeatureImageGenerator: 2,
				models.FeatureChatAssistant:  20,
			},
			MonthlyTokenBudget: 100_000,
			Features: map[models.Feature]bool{
				models.FeatureArticleWriter:  true,
				models.FeatureImageGenerator: true,
				models.FeatureChatAssistant:  true,
				models.FeatureCodeAssistant:  false,
			},
		},
		models.TierPro: {
			Tier: models.TierPro,
			DailyLimits: map[models.Feature]int64{
				models.FeatureArticleWriter:  50,
				models.FeatureImageGenerator: 30,
				models.FeatureChatAssistant:  500,
				models.FeatureCodeAssistant:  100,
			},
			MonthlyTokenBudget: 2_000_000,
			Features: map[models.Feature]bool{
				models.FeatureArticleWriter:  true,
				models.FeatureImageGenerator: true,
				models.FeatureChatAssistant:  true,
				models.FeatureCodeAssistant:  true,
			},
		},
		models.TierEnterprise: {
			Tier: models.TierEnterprise,
			DailyLimits: map[models.Feature]int64{
				models.FeatureArticleWriter:  models.Unlimited,
				models.FeatureImageGenerator: models.Unlimited,
				models.FeatureChatAssistant:  models.Unlimited,
				models.FeatureCodeAssistant:  models.Unlimited,
			},
			MonthlyTokenBudget: models.Unlimited,
			Features: map[models.Feature]bool{
				models.FeatureArticleWriter:  true,
				models.FeatureImageGenerator: true,
				models.FeatureChatAssistant:  true,
				models.FeatureCodeAssistant:  true,
			},
		},
	}
}

// RestrictedPlan is the most restrictive tier: nothing enabled, no budget.
func RestrictedPlan() models.PlanLimits {
	return models.PlanLimits{
		Tier:               models.TierRestricted,
		DailyLimits:        map[models.Feature]int64{},
		MonthlyTokenBudget: 0,
		Features:           map[models.Feature]bool{},
	}
}

// Validate checks the whole configuration and returns a CodeConfiguration
// error describing the first problem found.
func (c *Config) Validate() error {
	if err := c.DefaultLimit.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeConfiguration, "default limit: "+err.Error())
	}
	for route, l := range c.RouteLimits {
		if err := l.Validate(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeConfiguration, fmt.Sprintf("route %s: %s", route, err.Error()))
		}
	}
	if _, err := ParseStorePolicy(string(c.QuotaStorePolicy)); err != nil {
		return err
	}
	if c.StoreTimeout <= 0 {
		return dErrors.New(dErrors.CodeConfiguration, "store timeout must be positive")
	}
	return ValidatePlans(c.Plans)
}

// LimitFor returns the window for a route, falling back to DefaultLimit.
func (c *Config) LimitFor(route string) Limit {
	if l, ok := c.RouteLimits[route]; ok {
		return l
	}
	return c.DefaultLimit
}

// ValidatePlans checks a tier table.
//
// Every tier must carry a budget of -1 or more, every daily limit must be
// -1 or more, and every enabled feature needs an explicit daily limit.
func ValidatePlans(plans map[models.PlanTier]models.PlanLimits) error {
	if len(plans) == 0 {
		return dErrors.New(dErrors.CodeConfiguration, "at least one plan tier is required")
	}
	for _, tier := range sortedTiers(plans) {
		p := plans[tier]
		if tier == "" {
			return dErrors.New(dErrors.CodeConfiguration, "plan tier name must not be empty")
		}
		if err := validation.ValidateWithCode(p, dErrors.CodeConfiguration); err != nil {
			return dErrors.Wrap(err, dErrors.CodeConfiguration, fmt.Sprintf("plan %s: %s", tier, err.Error()))
		}
		for f, limit := range p.DailyLimits {
			if _, err := models.ParseFeature(string(f)); err != nil {
				return dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("plan %s: invalid feature %q", tier, f))
			}
			if limit < models.Unlimited {
				return dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("plan %s: daily limit for %s must be -1 or more", tier, f))
			}
		}
		for f, enabled := range p.Features {
			if !enabled {
				continue
			}
			if _, ok := p.DailyLimits[f]; !ok {
				return dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("plan %s: enabled feature %s has no daily limit", tier, f))
			}
		}
	}
	return nil
}

func sortedTiers(plans map[models.PlanTier]models.PlanLimits) []models.PlanTier {
	tiers := make([]models.PlanTier, 0, len(plans))
	for t := range plans {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}

type plansFile struct {
	Plans map[models.PlanTier]models.PlanLimits `yaml:"plans"`
}

// LoadPlans reads a YAML plan table:
//
//	plans:
//	  free:
//	    monthly_token_budget: 100000
//	    features: {article_writer: true}
//	    daily_limits: {article_writer: 3}
//
// A "restricted" entry, when present, replaces the built-in restricted plan.
func LoadPlans(path string) (plans map[models.PlanTier]models.PlanLimits, restricted models.PlanLimits, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, models.PlanLimits{}, dErrors.Wrap(err, dErrors.CodeConfiguration, "read plans file")
	}
	return ParsePlans(raw)
}

// ParsePlans decodes and validates a YAML plan table.
func ParsePlans(raw []byte) (map[models.PlanTier]models.PlanLimits, models.PlanLimits, error) {
	var file plansFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, models.PlanLimits{}, dErrors.Wrap(err, dErrors.CodeConfiguration, "parse plans file")
	}

	restricted := RestrictedPlan()
	plans := make(map[models.PlanTier]models.PlanLimits, len(file.Plans))
	for tier, p := range file.Plans {
		p.Tier = tier
		if p.DailyLimits == nil {
			p.DailyLimits = map[models.Feature]int64{}
		}
		if p.Features == nil {
			p.Features = map[models.Feature]bool{}
		}
		if tier == models.TierRestricted {
			restricted = p
			continue
		}
		plans[tier] = p
	}

	if err := ValidatePlans(plans); err != nil {
		return nil, models.PlanLimits{}, err
	}
	if err := ValidatePlans(map[models.PlanTier]models.PlanLimits{models.TierRestricted: restricted}); err != nil {
		return nil, models.PlanLimits{}, err
	}
	return plans, restricted, nil
}
