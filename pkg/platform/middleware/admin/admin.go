package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "quotagate/pkg/domain-errors"
	"quotagate/pkg/platform/httputil"
	"quotagate/pkg/platform/middleware/request"
)

type contextKeyAdminActorID struct{}

// ActorID returns the admin actor recorded by RequireAdminToken, or "".
func ActorID(ctx context.Context) string {
	if actorID, ok := ctx.Value(contextKeyAdminActorID{}).(string); ok {
		return actorID
	}
	return ""
}

// RequireAdminToken guards reset endpoints. An empty expected token rejects
// every request so a missing ADMIN_TOKEN never leaves the routes open.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get("X-Admin-Token")
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.ID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			actorID := r.Header.Get("X-Admin-Actor-ID")
			if actorID == "" {
				actorID = "admin"
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKeyAdminActorID{}, actorID)))
		})
	}
}
