package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := serve(New("test"), "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessAllUp(t *testing.T) {
	h := New("test")
	h.RegisterCheck("redis", func(context.Context) error { return nil })

	rec := serve(h, "/health/ready")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, StatusReady, body.Status)
	assert.Equal(t, StatusUp, body.Checks["redis"].Status)
	assert.True(t, body.Checks["redis"].Critical)
}

func TestReadinessReportsDownDependency(t *testing.T) {
	h := New("test")
	h.RegisterCheck("redis", func(context.Context) error { return nil })
	h.RegisterCheck("postgres", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("missing deadline")
		}
		return errors.New("connection refused")
	})

	rec := serve(h, "/health/ready")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, StatusNotReady, body.Status)
	assert.Equal(t, StatusDown, body.Checks["postgres"].Status)
	assert.Equal(t, "connection refused", body.Checks["postgres"].Error)
}

func TestReadinessDegradesOnOptionalDependency(t *testing.T) {
	h := New("test")
	h.RegisterCheck("postgres", func(context.Context) error { return nil })
	h.RegisterDegradableCheck("redis", func(context.Context) error { return errors.New("i/o timeout") })

	rec := serve(h, "/health/ready")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, StatusDegraded, body.Status)
	assert.False(t, body.Checks["redis"].Critical)
}

func TestReadinessCriticalWinsOverDegraded(t *testing.T) {
	h := New("test")
	h.RegisterDegradableCheck("kafka", func(context.Context) error { return errors.New("no brokers") })
	h.RegisterCheck("postgres", func(context.Context) error { return errors.New("refused") })

	rec := serve(h, "/health/ready")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatus(t *testing.T) {
	rec := serve(New("staging"), "/health")
	var body StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "staging", body.Environment)
}
