package requesttime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithTimeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	local := time.Date(2026, 1, 1, 3, 0, 0, 0, loc)

	got := Now(WithTime(context.Background(), local))

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 2025, got.Year(), "03:00 at UTC+9 is still the previous UTC day")
	assert.True(t, got.Equal(local))
}

func TestNowFallsBackToClock(t *testing.T) {
	before := time.Now()
	got := Now(context.Background())
	assert.False(t, got.Before(before.Add(-time.Second)))
	assert.Equal(t, time.UTC, got.Location())
}

func TestMiddlewarePinsOneTimePerRequest(t *testing.T) {
	var first, second time.Time
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = Now(r.Context())
		time.Sleep(2 * time.Millisecond)
		second = Now(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, first.IsZero())
	assert.Equal(t, first, second)
}
