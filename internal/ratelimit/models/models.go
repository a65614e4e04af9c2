package models

import (
	"regexp"
	"time"

	dErrors "quotagate/pkg/domain-errors"
)

// Unlimited marks a daily limit or monthly budget with no cap.
const Unlimited int64 = -1

// RateLimitResult is the outcome of one sliding-window admission check.
type RateLimitResult struct {
	Allowed      bool      `json:"allowed"`
	Limit        int       `json:"limit"`
	Remaining    int       `json:"remaining"`
	ResetSeconds int       `json:"reset_seconds"`
	ResetAt      time.Time `json:"reset_at"`
	// Degraded is set when the result came from the per-process fallback
	// store instead of the shared store.
	Degraded bool `json:"degraded,omitempty"`
}

// NewRateLimitResult derives a result from the event count after the current
// call was inserted and the timestamp of the earliest retained event.
func NewRateLimitResult(count, limit int, earliest, now time.Time, window time.Duration) *RateLimitResult {
	resetAt := earliest.Add(window)
	if resetAt.Before(now) {
		resetAt = now
	}
	resetSeconds := int((resetAt.Sub(now) + time.Second - 1) / time.Second)
	return &RateLimitResult{
		Allowed:      count <= limit,
		Limit:        limit,
		Remaining:    max(0, limit-count),
		ResetSeconds: resetSeconds,
		ResetAt:      resetAt,
	}
}

// Feature identifies a metered operation, for example "article_writer".
type Feature string

const (
	FeatureArticleWriter  Feature = "article_writer"
	FeatureImageGenerator Feature = "image_generator"
	FeatureChatAssistant  Feature = "chat_assistant"
	FeatureCodeAssistant  Feature = "code_assistant"
)

var featurePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// ParseFeature validates a feature identifier. Features are open-ended:
// a well-formed feature that no plan mentions is simply disabled.
func ParseFeature(s string) (Feature, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "feature is required")
	}
	if !featurePattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "feature must be lowercase snake_case")
	}
	return Feature(s), nil
}

func (f Feature) String() string {
	return string(f)
}

// PlanTier identifies a subscription level.
type PlanTier string

const (
	TierFree       PlanTier = "free"
	TierPro        PlanTier = "pro"
	TierEnterprise PlanTier = "enterprise"
	// TierRestricted is the fallback for unknown or unresolvable tiers.
	TierRestricted PlanTier = "restricted"
)

// PlanLimits is the immutable limits table of one tier.
type PlanLimits struct {
	Tier               PlanTier          `json:"tier" yaml:"-"`
	DailyLimits        map[Feature]int64 `json:"daily_limits" yaml:"daily_limits"`
	MonthlyTokenBudget int64             `json:"monthly_token_budget" yaml:"monthly_token_budget" validate:"gte=-1"`
	Features           map[Feature]bool  `json:"features" yaml:"features"`
}

// FeatureEnabled reports whether the tier may use f at all.
func (p PlanLimits) FeatureEnabled(f Feature) bool {
	return p.Features[f]
}

// DailyLimit returns the daily cap for f. A missing entry is treated as zero.
func (p PlanLimits) DailyLimit(f Feature) int64 {
	return p.DailyLimits[f]
}

// PlanAssignment is the external fact supplied by the subscription
// collaborator. A zero PeriodAnchor means calendar-month billing.
type PlanAssignment struct {
	Tier         PlanTier  `json:"tier" yaml:"tier"`
	PeriodAnchor time.Time `json:"period_anchor,omitempty" yaml:"period_anchor,omitempty"`
}

// UsageStatus is the outcome reported for a gated operation.
type UsageStatus string

const (
	UsageSuccess UsageStatus = "success"
	UsageFail    UsageStatus = "fail"
)

func ParseUsageStatus(s string) (UsageStatus, error) {
	switch UsageStatus(s) {
	case UsageSuccess, UsageFail:
		return UsageStatus(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "status must be 'success' or 'fail'")
}

// Day is a UTC calendar date formatted as YYYY-MM-DD.
type Day string

// DayLayout is the time layout of Day.
const DayLayout = "2006-01-02"

// DayOf returns the UTC calendar date of t.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(DayLayout))
}

// Time returns midnight UTC of the day.
func (d Day) Time() (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, string(d), time.UTC)
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid day")
	}
	return t, nil
}

func (d Day) String() string {
	return string(d)
}

// DailyUsageRecord holds one user's counters for one feature on one UTC day.
// Count always equals Success + Fail.
type DailyUsageRecord struct {
	UserID  string  `json:"user_id"`
	Day     Day     `json:"day"`
	Feature Feature `json:"feature"`
	Tokens  int64   `json:"tokens"`
	Count   int64   `json:"count"`
	Success int64   `json:"success"`
	Fail    int64   `json:"fail"`
}

// UsageDelta is one increment of the ledger, applied atomically.
type UsageDelta struct {
	UserID      string
	Day         Day
	Feature     Feature
	PeriodStart Day
	Tokens      int64
	Status      UsageStatus
}

// Counts returns the success and fail increments of the delta.
func (d UsageDelta) Counts() (success, fail int64) {
	if d.Status == UsageSuccess {
		return 1, 0
	}
	return 0, 1
}

// UsageSnapshot is the ledger state right after an increment.
type UsageSnapshot struct {
	Record        DailyUsageRecord
	MonthlyTokens int64
}

// DenialReason tells callers why an operation was not admitted.
type DenialReason string

const (
	ReasonNone               DenialReason = ""
	ReasonDailyLimit         DenialReason = "daily_limit"
	ReasonMonthlyTokenBudget DenialReason = "monthly_token_budget"
	ReasonFeatureDisabled    DenialReason = "feature_disabled"
	ReasonStoreUnavailable   DenialReason = "store_unavailable"
)

// QuotaDecision is the result of a feature-aware admission check.
// A denial is a normal result, never an error.
type QuotaDecision struct {
	Allowed            bool         `json:"allowed"`
	Reason             DenialReason `json:"reason,omitempty"`
	Message            string       `json:"message,omitempty"`
	Tier               PlanTier     `json:"tier"`
	Feature            Feature      `json:"feature"`
	Used               int64        `json:"used"`
	Limit              int64        `json:"limit"`
	MonthlyTokensUsed  int64        `json:"monthly_tokens_used"`
	MonthlyTokenBudget int64        `json:"monthly_token_budget"`
	Degraded           bool         `json:"degraded,omitempty"`
}

// FeatureUsage is one row of a usage summary.
type FeatureUsage struct {
	Feature    Feature `json:"feature"`
	Enabled    bool    `json:"enabled"`
	Count      int64   `json:"count"`
	Success    int64   `json:"success"`
	Fail       int64   `json:"fail"`
	Tokens     int64   `json:"tokens"`
	DailyLimit int64   `json:"daily_limit"`
}

// UsageSummary answers getUsageSummary for one user.
type UsageSummary struct {
	UserID             string         `json:"user_id"`
	Tier               PlanTier       `json:"tier"`
	Day                Day            `json:"day"`
	PeriodStart        Day            `json:"period_start"`
	PeriodEnd          Day            `json:"period_end"`
	Features           []FeatureUsage `json:"features"`
	MonthlyTokensUsed  int64          `json:"monthly_tokens_used"`
	MonthlyTokenBudget int64          `json:"monthly_token_budget"`
}
