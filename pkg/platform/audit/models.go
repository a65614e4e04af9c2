package audit

import (
	"context"
	"time"
)

// Event is emitted from quota and rate-limit logic to capture administrative
// overrides and enforcement decisions. It is transport-agnostic so sinks can
// fan out.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	UserID    string            `json:"user_id,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Decision  string            `json:"decision,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// Sink persists or forwards audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

const (
	EventRateLimitReset     = "rate_limit_reset"
	EventRateLimitDegraded  = "rate_limit_degraded"
	EventQuotaDenied        = "quota_denied"
	EventQuotaStoreFailure  = "quota_store_failure"
	EventUsageRecorded      = "usage_recorded"
	EventSoftLimitOvershoot = "quota_soft_limit_overshoot"
	EventDailyCountersReset = "daily_counters_reset"
	EventAllowlistAdded     = "rate_limit_allowlist_added"
	EventAllowlistRemoved   = "rate_limit_allowlist_removed"
)
