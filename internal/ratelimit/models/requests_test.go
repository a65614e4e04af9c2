package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "quotagate/pkg/domain-errors"
)

func TestRecordUsageRequest(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		r := &RecordUsageRequest{UserID: " u-1 ", Feature: " Article_Writer", Tokens: 10, Status: "SUCCESS "}
		r.Normalize()
		assert.NoError(t, r.Validate())
		assert.Equal(t, "u-1", r.UserID)
		assert.Equal(t, "article_writer", r.Feature)
		assert.Equal(t, "success", r.Status)
	})

	t.Run("rejects negative tokens", func(t *testing.T) {
		r := &RecordUsageRequest{UserID: "u-1", Feature: "chat_assistant", Tokens: -5, Status: "fail"}
		err := r.Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "tokens must be at least 0", err.Error())
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		r := &RecordUsageRequest{UserID: "u-1", Feature: "chat_assistant", Status: "partial"}
		assert.Error(t, r.Validate())
	})
}

func TestCheckRateLimitRequest(t *testing.T) {
	r := &CheckRateLimitRequest{Key: "  user:1:chat "}
	r.Normalize()
	assert.NoError(t, r.Validate(), "limit and window default when zero")

	r = &CheckRateLimitRequest{Key: "   "}
	assert.Error(t, r.Validate())

	r = &CheckRateLimitRequest{Key: "k", Limit: -1}
	assert.Error(t, r.Validate())

	r = &CheckRateLimitRequest{Key: "k", WindowMs: 30 * 24 * 3600 * 1000}
	assert.NoError(t, r.Validate(), "thirty days is the longest window")

	for _, windowMs := range []int64{30*24*3600*1000 + 1, 9_300_000_000_000, math.MaxInt64} {
		r = &CheckRateLimitRequest{Key: "k", WindowMs: windowMs}
		err := r.Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "window_ms=%d", windowMs)
		assert.Equal(t, "window_ms must be at most 2592000000", err.Error())
	}
}
