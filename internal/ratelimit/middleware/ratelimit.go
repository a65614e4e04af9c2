package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"quotagate/internal/platform/privacy"
	"quotagate/internal/ratelimit/models"
	"quotagate/pkg/platform/httputil"
	"quotagate/pkg/platform/middleware/metadata"
	"quotagate/pkg/platform/middleware/request"
	"quotagate/pkg/platform/middleware/requesttime"
)

// RateLimiter checks a key against the limit configured for a route.
type RateLimiter interface {
	CheckRoute(ctx context.Context, key, route string) (*models.RateLimitResult, error)
}

// Allowlist reports whether a subject is exempt from route limits.
type Allowlist interface {
	IsAllowlisted(ctx context.Context, entryType models.AllowlistEntryType, identifier string, now time.Time) (bool, error)
}

type Middleware struct {
	limiter   RateLimiter
	allowlist Allowlist
	logger    *slog.Logger
}

type Option func(*Middleware)

func WithAllowlist(a Allowlist) Option {
	return func(m *Middleware) {
		m.allowlist = a
	}
}

func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RateLimit admits requests through the sliding window for route. Callers
// forwarded with a user id are limited per user, everyone else per client IP.
// A limiter error lets the request through: admission for the gateway's own
// HTTP surface must not take the service down with it.
func (m *Middleware) RateLimit(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if m.isAllowlisted(ctx) {
				next.ServeHTTP(w, r)
				return
			}
			key := subjectKey(ctx, route)

			result, err := m.limiter.CheckRoute(ctx, key.String(), route)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"route", route,
					"request_id", request.ID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.logger.DebugContext(ctx, "rate limit exceeded",
					"route", route,
					"ip_prefix", privacy.AnonymizeIP(metadata.ClientIP(ctx)),
					"user_scoped", metadata.UserID(ctx) != "",
				)
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isAllowlisted checks the forwarded user, then the client IP. Lookup errors
// are logged and the request falls through to the limiter.
func (m *Middleware) isAllowlisted(ctx context.Context) bool {
	if m.allowlist == nil {
		return false
	}
	now := requesttime.Now(ctx)
	candidates := []struct {
		t  models.AllowlistEntryType
		id string
	}{
		{models.AllowlistTypeUser, metadata.UserID(ctx)},
		{models.AllowlistTypeIP, metadata.ClientIP(ctx)},
	}
	for _, c := range candidates {
		if c.id == "" {
			continue
		}
		ok, err := m.allowlist.IsAllowlisted(ctx, c.t, c.id, now)
		if err != nil {
			m.logger.WarnContext(ctx, "allowlist lookup failed",
				"error", err,
				"type", c.t,
				"request_id", request.ID(ctx),
			)
			return false
		}
		if ok {
			return true
		}
	}
	return false
}

func subjectKey(ctx context.Context, route string) models.RateLimitKey {
	if userID := metadata.UserID(ctx); userID != "" {
		return models.NewRateLimitKey(models.KeyPrefixUser, userID, route)
	}
	return models.NewRateLimitKey(models.KeyPrefixIP, metadata.ClientIP(ctx), route)
}

// addRateLimitHeaders sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset (unix seconds). Degraded results are flagged with
// X-RateLimit-Status.
func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if result.Degraded {
		w.Header().Set("X-RateLimit-Status", "degraded")
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	retryAfter := max(result.ResetSeconds, 1)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: retryAfter,
	})
}
