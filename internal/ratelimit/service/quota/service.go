// Package quota is the feature-aware admission control for metered
// operations.
//
// CheckUsage decides, before the operation runs, whether the caller is under
// its plan's daily per-feature cap and monthly token budget. IncrementUsage
// records the outcome afterwards. The two calls are separate, so a burst of
// concurrent callers can all pass CheckUsage before any increment lands: the
// limits are soft and may be overshot by the number of in-flight operations.
// Overshoot is logged and counted, never rejected after the fact.
//
// Usage:
//
//	decision, _ := svc.CheckUsage(ctx, userID, models.FeatureArticleWriter)
//	if !decision.Allowed {
//	    return decision.Message
//	}
//	tokens, err := generate(...)
//	_ = svc.IncrementUsage(ctx, userID, models.FeatureArticleWriter, tokens, status)
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"quotagate/internal/ratelimit/config"
	"quotagate/internal/ratelimit/metrics"
	"quotagate/internal/ratelimit/models"
	"quotagate/internal/ratelimit/observability"
	"quotagate/internal/ratelimit/plans"
	"quotagate/internal/ratelimit/timewindow"
	dErrors "quotagate/pkg/domain-errors"
	"quotagate/pkg/platform/audit"
	"quotagate/pkg/platform/middleware/requesttime"
)

// PlanTierResolver supplies the caller's plan tier and billing anchor.
type PlanTierResolver interface {
	ResolvePlanTier(ctx context.Context, userID string) (models.PlanAssignment, error)
}

// UsageLedger is the part of the ledger store the enforcer reads and writes.
type UsageLedger interface {
	Increment(ctx context.Context, delta models.UsageDelta) (*models.UsageSnapshot, error)
	GetDaily(ctx context.Context, userID string, day models.Day, feature models.Feature) (*models.DailyUsageRecord, error)
	ListDaily(ctx context.Context, userID string, day models.Day) ([]models.DailyUsageRecord, error)
	MonthlyTokens(ctx context.Context, userID string, periodStart models.Day) (int64, error)
}

// Service enforces per-feature daily caps and monthly token budgets.
type Service struct {
	ledger         UsageLedger
	tiers          PlanTierResolver
	plans          *plans.Resolver
	config         *config.Config
	logger         *slog.Logger
	auditPublisher observability.AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher sets the audit event publisher.
func WithAuditPublisher(publisher observability.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithConfig overrides the default configuration. The plan table is not
// taken from it; pass a Resolver to New.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer. Defaults to the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New creates a quota enforcer.
func New(ledger UsageLedger, tiers PlanTierResolver, planResolver *plans.Resolver, opts ...Option) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("usage ledger is required")
	}
	if tiers == nil {
		return nil, errors.New("plan tier resolver is required")
	}
	if planResolver == nil {
		return nil, errors.New("plan resolver is required")
	}

	svc := &Service{
		ledger: ledger,
		tiers:  tiers,
		plans:  planResolver,
		config: config.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer("quotagate/quota")
	}
	return svc, nil
}

// resolved is one call's view of the caller's plan and calendar.
type resolved struct {
	tier   models.PlanTier
	limits models.PlanLimits
	day    models.Day
	period timewindow.Period
}

// resolve computes the plan and time boundaries once per call. A resolver
// failure or an unknown tier yields the restricted plan. The resolver error
// is returned alongside so writers can refuse to guess the billing period.
func (s *Service) resolve(ctx context.Context, userID string, now time.Time) (resolved, error) {
	assignment, err := s.tiers.ResolvePlanTier(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "plan tier resolution failed, applying restricted plan",
				"user_id", userID,
				"error", err,
			)
		}
		assignment = models.PlanAssignment{Tier: models.TierRestricted}
	} else if !s.plans.Known(assignment.Tier) && s.logger != nil {
		s.logger.WarnContext(ctx, "unknown plan tier, applying restricted plan",
			"user_id", userID,
			"tier", assignment.Tier,
		)
	}

	limits := s.plans.Resolve(assignment.Tier)
	return resolved{
		tier:   limits.Tier,
		limits: limits,
		day:    models.DayOf(now),
		period: timewindow.BillingPeriod(now, assignment.PeriodAnchor),
	}, err
}

// CheckUsage decides whether userID may run feature now. Denials are normal
// results; the only error is CodeInvalidInput for a malformed request.
func (s *Service) CheckUsage(ctx context.Context, userID string, feature models.Feature) (*models.QuotaDecision, error) {
	if err := validateSubject(userID, feature); err != nil {
		return nil, err
	}

	now := requesttime.Now(ctx)
	ctx, span := s.tracer.Start(ctx, "quota.CheckUsage", trace.WithAttributes(
		attribute.String("quota.feature", string(feature)),
	))
	defer span.End()

	r, _ := s.resolve(ctx, userID, now)
	span.SetAttributes(attribute.String("quota.tier", string(r.tier)))

	decision := &models.QuotaDecision{
		Allowed:            true,
		Tier:               r.tier,
		Feature:            feature,
		Limit:              r.limits.DailyLimit(feature),
		MonthlyTokenBudget: r.limits.MonthlyTokenBudget,
	}

	if !r.limits.FeatureEnabled(feature) {
		return s.deny(ctx, userID, decision, models.ReasonFeatureDisabled,
			fmt.Sprintf("%s is not available on the %s plan", feature, r.tier)), nil
	}

	used, monthly, err := s.readUsage(ctx, userID, r, feature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "usage ledger unavailable")
		return s.onStoreError(ctx, userID, decision, err), nil
	}
	decision.Used = used
	decision.MonthlyTokensUsed = monthly

	if limit := decision.Limit; limit != models.Unlimited && used >= limit {
		return s.deny(ctx, userID, decision, models.ReasonDailyLimit,
			fmt.Sprintf("daily limit reached for %s: %d of %d used today", feature, used, limit)), nil
	}
	if budget := decision.MonthlyTokenBudget; budget != models.Unlimited && monthly >= budget {
		return s.deny(ctx, userID, decision, models.ReasonMonthlyTokenBudget,
			fmt.Sprintf("monthly token budget exhausted: %d of %d tokens used this billing period", monthly, budget)), nil
	}

	if s.metrics != nil {
		s.metrics.IncrementQuotaDecision(string(r.tier), "")
	}
	return decision, nil
}

func (s *Service) readUsage(ctx context.Context, userID string, r resolved, feature models.Feature) (used, monthly int64, err error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(storeCtx)
	g.Go(func() error {
		rec, err := s.ledger.GetDaily(gctx, userID, r.day, feature)
		if err != nil {
			return err
		}
		used = rec.Count
		return nil
	})
	g.Go(func() error {
		var err error
		monthly, err = s.ledger.MonthlyTokens(gctx, userID, r.period.StartDay())
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return used, monthly, nil
}

// onStoreError applies the configured policy to a ledger read failure.
func (s *Service) onStoreError(ctx context.Context, userID string, decision *models.QuotaDecision, cause error) *models.QuotaDecision {
	policy := s.config.QuotaStorePolicy
	if policy == "" {
		policy = config.DefaultQuotaStorePolicy
	}
	if s.metrics != nil {
		s.metrics.IncrementQuotaStoreError("check")
	}
	observability.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventQuotaStoreFailure,
		"user_id", userID,
		"feature", decision.Feature,
		"policy", policy,
		"error", cause,
	)

	if policy == config.FailOpen {
		decision.Degraded = true
		if s.metrics != nil {
			s.metrics.IncrementQuotaDecision(string(decision.Tier), "degraded")
		}
		return decision
	}
	decision.Degraded = true
	return s.deny(ctx, userID, decision, models.ReasonStoreUnavailable,
		"usage could not be verified right now, try again shortly")
}

func (s *Service) deny(ctx context.Context, userID string, decision *models.QuotaDecision, reason models.DenialReason, message string) *models.QuotaDecision {
	decision.Allowed = false
	decision.Reason = reason
	decision.Message = message

	if s.metrics != nil {
		s.metrics.IncrementQuotaDecision(string(decision.Tier), string(reason))
	}
	observability.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventQuotaDenied,
		"user_id", userID,
		"feature", decision.Feature,
		"tier", decision.Tier,
		"reason", reason,
		"decision", "denied",
		"used", decision.Used,
		"limit", decision.Limit,
	)
	return decision
}

// IncrementUsage records one attempted operation: count always grows by one,
// exactly one of success or fail grows by one, and tokens grow by the
// reported cost, in the daily record and the period counter together.
func (s *Service) IncrementUsage(ctx context.Context, userID string, feature models.Feature, tokens int64, status models.UsageStatus) error {
	if err := validateSubject(userID, feature); err != nil {
		return err
	}
	if tokens < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "tokens must not be negative")
	}
	if _, err := models.ParseUsageStatus(string(status)); err != nil {
		return err
	}

	now := requesttime.Now(ctx)
	ctx, span := s.tracer.Start(ctx, "quota.IncrementUsage", trace.WithAttributes(
		attribute.String("quota.feature", string(feature)),
		attribute.Int64("quota.tokens", tokens),
	))
	defer span.End()

	r, err := s.resolve(ctx, userID, now)
	if err != nil {
		// Without the assignment the period anchor is unknown, and tokens
		// written under a guessed period would never be read back.
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan tier unavailable")
		if s.metrics != nil {
			s.metrics.IncrementQuotaStoreError("increment")
		}
		observability.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventQuotaStoreFailure,
			"user_id", userID,
			"feature", feature,
			"tokens", tokens,
			"status", status,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to resolve plan tier")
	}
	delta := models.UsageDelta{
		UserID:      userID,
		Day:         r.day,
		Feature:     feature,
		PeriodStart: r.period.StartDay(),
		Tokens:      tokens,
		Status:      status,
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()
	snap, err := s.ledger.Increment(storeCtx, delta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "usage ledger unavailable")
		if s.metrics != nil {
			s.metrics.IncrementQuotaStoreError("increment")
		}
		observability.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventQuotaStoreFailure,
			"user_id", userID,
			"feature", feature,
			"tokens", tokens,
			"status", status,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to record usage")
	}

	if s.metrics != nil {
		s.metrics.RecordUsage(string(feature), string(status), tokens)
	}
	observability.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventUsageRecorded,
		"user_id", userID,
		"feature", feature,
		"tokens", tokens,
		"status", status,
		"count", snap.Record.Count,
	)
	s.reportOvershoot(ctx, r, snap)
	return nil
}

func (s *Service) reportOvershoot(ctx context.Context, r resolved, snap *models.UsageSnapshot) {
	rec := snap.Record
	if limit := r.limits.DailyLimit(rec.Feature); limit != models.Unlimited && rec.Count > limit {
		s.overshoot(ctx, rec.UserID, rec.Feature, "daily", rec.Count, limit)
	}
	if budget := r.limits.MonthlyTokenBudget; budget != models.Unlimited && snap.MonthlyTokens > budget {
		s.overshoot(ctx, rec.UserID, rec.Feature, "monthly_tokens", snap.MonthlyTokens, budget)
	}
}

func (s *Service) overshoot(ctx context.Context, userID string, feature models.Feature, limitName string, value, limit int64) {
	if s.metrics != nil {
		s.metrics.IncrementOvershoot(limitName)
	}
	observability.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventSoftLimitOvershoot,
		"user_id", userID,
		"feature", feature,
		"limit_name", limitName,
		"value", value,
		"limit", limit,
	)
}

// GetUsageSummary returns today's per-feature counters for every feature the
// caller's plan mentions, plus the billing period's token use and budget.
func (s *Service) GetUsageSummary(ctx context.Context, userID string) (*models.UsageSummary, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user_id is required")
	}

	now := requesttime.Now(ctx)
	ctx, span := s.tracer.Start(ctx, "quota.GetUsageSummary")
	defer span.End()

	r, err := s.resolve(ctx, userID, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan tier unavailable")
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to resolve plan tier")
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	var records []models.DailyUsageRecord
	var monthly int64
	g, gctx := errgroup.WithContext(storeCtx)
	g.Go(func() error {
		var err error
		records, err = s.ledger.ListDaily(gctx, userID, r.day)
		return err
	})
	g.Go(func() error {
		var err error
		monthly, err = s.ledger.MonthlyTokens(gctx, userID, r.period.StartDay())
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "usage ledger unavailable")
		if s.metrics != nil {
			s.metrics.IncrementQuotaStoreError("summary")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to read usage")
	}

	byFeature := make(map[models.Feature]models.DailyUsageRecord, len(records))
	for _, rec := range records {
		byFeature[rec.Feature] = rec
	}

	features := plans.Features(r.limits)
	listed := make(map[models.Feature]bool, len(features))
	for _, f := range features {
		listed[f] = true
	}
	for _, rec := range records {
		if !listed[rec.Feature] {
			features = append(features, rec.Feature)
			listed[rec.Feature] = true
		}
	}

	summary := &models.UsageSummary{
		UserID:             userID,
		Tier:               r.tier,
		Day:                r.day,
		PeriodStart:        r.period.StartDay(),
		PeriodEnd:          r.period.LastDay(),
		Features:           make([]models.FeatureUsage, 0, len(features)),
		MonthlyTokensUsed:  monthly,
		MonthlyTokenBudget: r.limits.MonthlyTokenBudget,
	}
	for _, f := range features {
		rec := byFeature[f]
		summary.Features = append(summary.Features, models.FeatureUsage{
			Feature:    f,
			Enabled:    r.limits.FeatureEnabled(f),
			Count:      rec.Count,
			Success:    rec.Success,
			Fail:       rec.Fail,
			Tokens:     rec.Tokens,
			DailyLimit: r.limits.DailyLimit(f),
		})
	}
	return summary, nil
}

func validateSubject(userID string, feature models.Feature) error {
	if userID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "user_id is required")
	}
	if _, err := models.ParseFeature(string(feature)); err != nil {
		return err
	}
	return nil
}
