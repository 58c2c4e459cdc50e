package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodGet, "/substitutes", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodPost, "/substitutes/runs", http.StatusCreated, 40*time.Millisecond)
	m.ObserveDBQuery("substitute_load_store", 10*time.Millisecond)
	m.ObserveRun(RunOutcomeSuccess, 3, 1, time.Second)
	m.ObserveRun(RunOutcomeState, 5, 5, time.Second)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(true)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RunsSucceeded)
	assert.Equal(t, uint64(1), snap.RunsFailed)
	assert.Equal(t, uint64(3), snap.SlotsFilled, "failed runs add no slots")
	assert.Equal(t, uint64(1), snap.SlotsUnfilled)
	assert.InDelta(t, 0.75, snap.FillRate, 0.0001)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30.0, snap.AverageRequestDurationMs, 0.01)
	assert.InDelta(t, 10.0, snap.AverageDBQueryDurationMs, 0.01)
	assert.Greater(t, snap.Goroutines, 0)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveRun(RunOutcomeValidation, 0, 0, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `substitute_runs_total{outcome="validation_error"} 1`)
}

func TestMetricsServiceNilReceiver(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.ObserveDBQuery("q", time.Millisecond)
		m.ObserveRun(RunOutcomeSuccess, 1, 0, time.Millisecond)
		m.RecordCacheLookup(true)
	})
	assert.Zero(t, m.Snapshot().RunsSucceeded)
}
