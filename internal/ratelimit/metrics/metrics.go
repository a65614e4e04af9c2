package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateLimitChecksTotal      *prometheus.CounterVec
	RateLimitFallbackTotal    prometheus.Counter
	RateLimitStoreLatency     *prometheus.HistogramVec
	RateLimitBreakerOpen      prometheus.Gauge
	QuotaDecisionsTotal       *prometheus.CounterVec
	QuotaStoreErrorsTotal     *prometheus.CounterVec
	QuotaOvershootTotal       *prometheus.CounterVec
	UsageRecordedTotal        *prometheus.CounterVec
	UsageTokensTotal          *prometheus.CounterVec
	DailyResetRunsTotal       *prometheus.CounterVec
	DailyResetRecordsTotal    prometheus.Counter
	DailyResetDurationSeconds prometheus.Histogram
	FallbackWindowsTracked    prometheus.Gauge
	CleanupRunsTotal          *prometheus.CounterVec
	CleanupDurationSeconds    prometheus.Histogram
	AllowlistExpiredTotal     prometheus.Counter
}

// New registers the metrics on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RateLimitChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_ratelimit_checks_total",
			Help: "Total number of rate limit checks by outcome",
		}, []string{"outcome"}),
		RateLimitFallbackTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "quotagate_ratelimit_fallback_total",
			Help: "Total number of rate limit checks answered by the local fallback store",
		}),
		RateLimitStoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quotagate_ratelimit_store_duration_seconds",
			Help:    "Latency of sliding window store calls",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"store"}),
		RateLimitBreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "quotagate_ratelimit_breaker_open",
			Help: "1 while the rate limit store circuit breaker is open",
		}),
		QuotaDecisionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_quota_decisions_total",
			Help: "Total number of quota checks by tier and reason",
		}, []string{"tier", "reason"}),
		QuotaStoreErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_quota_store_errors_total",
			Help: "Total number of usage ledger failures by operation",
		}, []string{"op"}),
		QuotaOvershootTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_quota_overshoot_total",
			Help: "Increments that left a user above a limit after concurrent admission",
		}, []string{"limit"}),
		UsageRecordedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_usage_recorded_total",
			Help: "Total number of usage increments by feature and status",
		}, []string{"feature", "status"}),
		UsageTokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_usage_tokens_total",
			Help: "Total tokens recorded by feature",
		}, []string{"feature"}),
		DailyResetRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_daily_reset_runs_total",
			Help: "Total number of daily reset runs",
		}, []string{"status"}),
		DailyResetRecordsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "quotagate_daily_reset_records_total",
			Help: "Total number of daily usage records zeroed",
		}),
		DailyResetDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name: "quotagate_daily_reset_duration_seconds",
			Help: "Duration of daily reset runs in seconds",
		}),
		FallbackWindowsTracked: f.NewGauge(prometheus.GaugeOpts{
			Name: "quotagate_ratelimit_fallback_windows",
			Help: "Current number of keys held by the local fallback store",
		}),
		CleanupRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_allowlist_cleanup_runs_total",
			Help: "Total number of allowlist cleanup runs",
		}, []string{"status"}),
		CleanupDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name: "quotagate_allowlist_cleanup_duration_seconds",
			Help: "Duration of allowlist cleanup runs in seconds",
		}),
		AllowlistExpiredTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "quotagate_allowlist_expired_removed_total",
			Help: "Total number of expired allowlist entries purged",
		}),
	}
}

func (m *Metrics) IncrementRateLimitCheck(allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	m.RateLimitChecksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementFallback() {
	m.RateLimitFallbackTotal.Inc()
}

func (m *Metrics) ObserveStoreLatency(store string, seconds float64) {
	m.RateLimitStoreLatency.WithLabelValues(store).Observe(seconds)
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.RateLimitBreakerOpen.Set(1)
		return
	}
	m.RateLimitBreakerOpen.Set(0)
}

func (m *Metrics) IncrementQuotaDecision(tier, reason string) {
	if reason == "" {
		reason = "allowed"
	}
	m.QuotaDecisionsTotal.WithLabelValues(tier, reason).Inc()
}

func (m *Metrics) IncrementQuotaStoreError(op string) {
	m.QuotaStoreErrorsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) IncrementOvershoot(limit string) {
	m.QuotaOvershootTotal.WithLabelValues(limit).Inc()
}

func (m *Metrics) RecordUsage(feature, status string, tokens int64) {
	m.UsageRecordedTotal.WithLabelValues(feature, status).Inc()
	if tokens > 0 {
		m.UsageTokensTotal.WithLabelValues(feature).Add(float64(tokens))
	}
}

func (m *Metrics) IncrementDailyResetRuns(status string) {
	m.DailyResetRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) AddDailyResetRecords(count int64) {
	m.DailyResetRecordsTotal.Add(float64(count))
}

func (m *Metrics) ObserveDailyResetDuration(durationSeconds float64) {
	m.DailyResetDurationSeconds.Observe(durationSeconds)
}

func (m *Metrics) SetFallbackWindows(count int) {
	m.FallbackWindowsTracked.Set(float64(count))
}

func (m *Metrics) RecordCleanup(status string, removed int64, durationSeconds float64) {
	m.CleanupRunsTotal.WithLabelValues(status).Inc()
	m.CleanupDurationSeconds.Observe(durationSeconds)
	if removed > 0 {
		m.AllowlistExpiredTotal.Add(float64(removed))
	}
}
