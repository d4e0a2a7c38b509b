package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveProvider(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveProvider("predicthq", "success", 3, 120*time.Millisecond)
	m.ObserveProvider("predicthq", "failure", 0, time.Second)
	m.ObserveProvider("predicthq", "success", 2, 50*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.providerRequests.WithLabelValues("predicthq", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.providerRequests.WithLabelValues("predicthq", "failure")), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.providerRecords.WithLabelValues("predicthq")), 0)
}

func TestObserveHTTP_AndHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveHTTP("/api/events", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `leaseboost_http_requests_total{route="/api/events",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProvider("x", "empty", 0, 0)
		m.ObserveHTTP("/", 200, 0)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
