package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementRateLimitCheck(true)
	m.IncrementRateLimitCheck(false)
	m.IncrementRateLimitCheck(false)
	m.IncrementQuotaDecision("free", "")
	m.RecordUsage("article_writer", "success", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RateLimitChecksTotal.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotaDecisionsTotal.WithLabelValues("free", "allowed")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.UsageTokensTotal), "zero-token usage adds no series")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestBreakerGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetBreakerOpen(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitBreakerOpen))
	m.SetBreakerOpen(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RateLimitBreakerOpen))
}
