package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/napryag/clinic_booking_bot/pkg/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, NewRouter(Config{Logger: zerolog.Nop()}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec := get(t, NewRouter(Config{Checks: map[string]Check{"session": healthy}, Logger: zerolog.Nop()}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, NewRouter(Config{Checks: map[string]Check{"session": healthy, "redis": down}, Logger: zerolog.Nop()}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"session": "ok", "redis": "connection refused"}, body)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	m.ObserveTransition("auth", "specialty")

	rec := get(t, NewRouter(Config{Gatherer: reg, Logger: zerolog.Nop()}), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clinic_wizard_transitions_total{from="auth",to="specialty"} 1`)
}

func TestMetricsEndpoint_AbsentWithoutGatherer(t *testing.T) {
	rec := get(t, NewRouter(Config{Logger: zerolog.Nop()}), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
