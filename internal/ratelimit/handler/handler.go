package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"quotagate/internal/ratelimit/models"
	"quotagate/internal/ratelimit/workers/dailyreset"
	dErrors "quotagate/pkg/domain-errors"
	"quotagate/pkg/platform/httputil"
	adminmw "quotagate/pkg/platform/middleware/admin"
	"quotagate/pkg/platform/middleware/request"
)

// RateLimiter is the sliding-window admission service.
type RateLimiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	CheckDefault(ctx context.Context, key string) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
}

// QuotaService is the feature-aware admission and recording service.
type QuotaService interface {
	CheckUsage(ctx context.Context, userID string, feature models.Feature) (*models.QuotaDecision, error)
	IncrementUsage(ctx context.Context, userID string, feature models.Feature, tokens int64, status models.UsageStatus) error
	GetUsageSummary(ctx context.Context, userID string) (*models.UsageSummary, error)
}

// DailyResetter runs the daily counter reset on demand.
type DailyResetter interface {
	RunOnce(ctx context.Context) (*dailyreset.ResetResult, error)
}

// AllowlistAdmin manages subjects exempt from route rate limiting.
type AllowlistAdmin interface {
	AddToAllowlist(ctx context.Context, req *models.AddAllowlistRequest, actor string) (*models.AllowlistEntry, error)
	RemoveFromAllowlist(ctx context.Context, req *models.RemoveAllowlistRequest, actor string) error
	ListAllowlist(ctx context.Context) ([]*models.AllowlistEntry, error)
}

type Handler struct {
	limiter    RateLimiter
	quota      QuotaService
	resets     DailyResetter
	allowlist  AllowlistAdmin
	logger     *slog.Logger
	routeLimit func(route string) func(http.Handler) http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithRouteLimit wraps every public route in the middleware returned for
// its route name ("ratelimit_check", "usage_check", "usage_record",
// "usage_summary").
func WithRouteLimit(fn func(route string) func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.routeLimit = fn
	}
}

// WithAllowlistAdmin enables the /admin/ratelimit/allowlist routes.
func WithAllowlistAdmin(a AllowlistAdmin) Option {
	return func(h *Handler) {
		h.allowlist = a
	}
}

func New(limiter RateLimiter, quota QuotaService, resets DailyResetter, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		limiter: limiter,
		quota:   quota,
		resets:  resets,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the admission and usage routes.
func (h *Handler) Register(r chi.Router) {
	r.With(h.limit("ratelimit_check")).Post("/ratelimit/check", h.HandleCheckRateLimit)
	r.With(h.limit("usage_check")).Post("/usage/check", h.HandleCheckUsage)
	r.With(h.limit("usage_record")).Post("/usage/record", h.HandleRecordUsage)
	r.With(h.limit("usage_summary")).Get("/usage/{user_id}", h.HandleUsageSummary)
}

func (h *Handler) limit(route string) func(http.Handler) http.Handler {
	if h.routeLimit == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.routeLimit(route)
}

// RegisterAdmin mounts the administrative overrides.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/ratelimit/reset", h.HandleResetRateLimit)
	r.Post("/admin/usage/reset-daily", h.HandleResetDaily)
	if h.allowlist != nil {
		r.Get("/admin/ratelimit/allowlist", h.HandleListAllowlist)
		r.Post("/admin/ratelimit/allowlist", h.HandleAddAllowlist)
		r.Delete("/admin/ratelimit/allowlist", h.HandleRemoveAllowlist)
	}
}

// HandleCheckRateLimit implements POST /ratelimit/check.
//
// Input: { "key": "user:123:export", "limit": 10, "window_ms": 60000 }
// Output: 200 with the RateLimitResult, allowed or not.
// Omitting both limit and window_ms applies the configured default.
func (h *Handler) HandleCheckRateLimit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CheckRateLimitRequest](w, r, h.logger)
	if !ok {
		return
	}

	var (
		result *models.RateLimitResult
		err    error
	)
	if req.Limit == 0 && req.WindowMs == 0 {
		result, err = h.limiter.CheckDefault(ctx, req.Key)
	} else {
		result, err = h.limiter.Check(ctx, req.Key, req.Limit, time.Duration(req.WindowMs)*time.Millisecond)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "rate limit check failed",
			"error", err,
			"request_id", request.ID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleResetRateLimit implements POST /admin/ratelimit/reset.
//
// Input: { "key": "user:123:export" }
// Output: 204 No Content
func (h *Handler) HandleResetRateLimit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.ResetRateLimitRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.limiter.Reset(ctx, req.Key); err != nil {
		h.logger.ErrorContext(ctx, "failed to reset rate limit",
			"error", err,
			"key", req.Key,
			"request_id", request.ID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCheckUsage implements POST /usage/check.
//
// Input: { "user_id": "u-1", "feature": "article_writer" }
// Output: 200 with the QuotaDecision. Denials are still 200; the caller
// decides how to surface them.
func (h *Handler) HandleCheckUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CheckUsageRequest](w, r, h.logger)
	if !ok {
		return
	}

	decision, err := h.quota.CheckUsage(ctx, req.UserID, models.Feature(req.Feature))
	if err != nil {
		h.logger.WarnContext(ctx, "usage check failed",
			"error", err,
			"request_id", request.ID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

// HandleRecordUsage implements POST /usage/record.
//
// Input: { "user_id": "u-1", "feature": "article_writer", "tokens": 1200, "status": "success" }
// Output: 204 No Content
func (h *Handler) HandleRecordUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.RecordUsageRequest](w, r, h.logger)
	if !ok {
		return
	}

	err := h.quota.IncrementUsage(ctx, req.UserID, models.Feature(req.Feature), req.Tokens, models.UsageStatus(req.Status))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record usage",
			"error", err,
			"user_id", req.UserID,
			"feature", req.Feature,
			"request_id", request.ID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUsageSummary implements GET /usage/{user_id}.
func (h *Handler) HandleUsageSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user_id is required"))
		return
	}

	summary, err := h.quota.GetUsageSummary(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read usage summary",
			"error", err,
			"user_id", userID,
			"request_id", request.ID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleResetDaily implements POST /admin/usage/reset-daily.
// Output: { "modified_count": 12, "day": "2026-03-11" }
func (h *Handler) HandleResetDaily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.resets.RunOnce(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "daily reset failed",
			"error", err,
			"request_id", request.ID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "daily reset failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.ResetDailyResponse{
		ModifiedCount: res.ModifiedCount,
		Day:           res.Day,
	})
}

// HandleAddAllowlist implements POST /admin/ratelimit/allowlist.
//
// Input: { "type": "user", "identifier": "u-1", "reason": "load test", "expires_at": "2026-03-11T00:00:00Z" }
// Output: 201 with the stored entry
func (h *Handler) HandleAddAllowlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.AddAllowlistRequest](w, r, h.logger)
	if !ok {
		return
	}

	entry, err := h.allowlist.AddToAllowlist(ctx, req, adminmw.ActorID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to add allowlist entry",
			"error", err,
			"type", req.Type,
			"request_id", request.ID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

// HandleRemoveAllowlist implements DELETE /admin/ratelimit/allowlist.
//
// Input: { "type": "ip", "identifier": "203.0.113.9" }
// Output: 204 No Content
func (h *Handler) HandleRemoveAllowlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.RemoveAllowlistRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.allowlist.RemoveFromAllowlist(ctx, req, adminmw.ActorID(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "failed to remove allowlist entry",
			"error", err,
			"type", req.Type,
			"request_id", request.ID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAllowlist implements GET /admin/ratelimit/allowlist.
func (h *Handler) HandleListAllowlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.allowlist.ListAllowlist(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list allowlist",
			"error", err,
			"request_id", request.ID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.AllowlistResponse{Entries: entries})
}
