// Package observability provides audit logging helpers for the ratelimit module.
package observability

import (
	"context"
	"fmt"
	"log/slog"

	"quotagate/pkg/platform/audit"
	"quotagate/pkg/platform/middleware/request"
)

// AuditPublisher emits audit events for enforcement and admin operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// reserved keys map onto Event fields rather than Attrs.
var reserved = map[string]bool{
	"user_id":  true,
	"key":      true,
	"reason":   true,
	"decision": true,
}

// LogAudit writes event to the structured logger and, when publisher is set,
// to the audit stream. attrList is a slog-style key/value list.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event string, attrList ...any) {
	requestID := request.ID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	if logger != nil {
		args := append(attrList, "event", event, "log_type", "audit")
		logger.InfoContext(ctx, event, args...)
	}

	if publisher == nil {
		return
	}

	userID := extractString(attrList, "user_id")
	subject := extractString(attrList, "key")
	if subject == "" {
		subject = userID
	}

	ev := audit.Event{
		Action:    event,
		UserID:    userID,
		Subject:   subject,
		Decision:  extractString(attrList, "decision"),
		Reason:    extractString(attrList, "reason"),
		RequestID: requestID,
		Attrs:     extraAttrs(attrList),
	}
	if err := publisher.Emit(ctx, ev); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event, "error", err)
	}
}

func extractString(attrList []any, key string) string {
	for i := 0; i+1 < len(attrList); i += 2 {
		if k, ok := attrList[i].(string); ok && k == key {
			return fmt.Sprint(attrList[i+1])
		}
	}
	return ""
}

func extraAttrs(attrList []any) map[string]string {
	var out map[string]string
	for i := 0; i+1 < len(attrList); i += 2 {
		k, ok := attrList[i].(string)
		if !ok || reserved[k] || k == "request_id" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = fmt.Sprint(attrList[i+1])
	}
	return out
}
