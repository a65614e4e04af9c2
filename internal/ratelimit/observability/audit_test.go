package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotagate/pkg/platform/audit"
	"quotagate/pkg/platform/audit/publisher"
	"quotagate/pkg/platform/middleware/request"
)

func TestLogAuditEmitsEvent(t *testing.T) {
	sink := publisher.NewMemorySink()
	pub := publisher.New(sink)
	ctx := request.WithID(context.Background(), "req-1")

	LogAudit(ctx, nil, pub, audit.EventQuotaDenied,
		"user_id", "u-1",
		"feature", "article_writer",
		"reason", "daily_limit",
		"decision", "denied",
		"used", int64(3),
	)

	events := sink.Events()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, audit.EventQuotaDenied, ev.Action)
	assert.Equal(t, "u-1", ev.UserID)
	assert.Equal(t, "u-1", ev.Subject)
	assert.Equal(t, "daily_limit", ev.Reason)
	assert.Equal(t, "denied", ev.Decision)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.Equal(t, map[string]string{"feature": "article_writer", "used": "3"}, ev.Attrs)
}

func TestLogAuditPrefersKeyAsSubject(t *testing.T) {
	sink := publisher.NewMemorySink()
	LogAudit(context.Background(), nil, publisher.New(sink), audit.EventRateLimitReset, "key", "user:7:/usage")

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "user:7:/usage", events[0].Subject)
	assert.Empty(t, events[0].UserID)
}

type failingPublisher struct{}

func (failingPublisher) Emit(context.Context, audit.Event) error { return errors.New("down") }

func TestLogAuditWarnsOnEmitFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogAudit(context.Background(), logger, failingPublisher{}, audit.EventRateLimitReset, "key", "k")

	assert.Contains(t, buf.String(), "log_type=audit")
	assert.Contains(t, buf.String(), "failed to emit audit event")
}
