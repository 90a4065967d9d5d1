package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.CustomerCreated()
	m.CustomerCreated()
	m.CustomerDeleted()
	m.ImportFinished(1200, 3)
	m.ObserveScore(85)
	m.ObserveRequest(http.MethodGet, "/api/customer/:id", http.StatusOK, 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CustomersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CustomersDeleted))
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.CustomersImported))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ImportRowsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/customer/:id", "200")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CustomerCreated()
		m.CustomerDeleted()
		m.ImportFinished(1, 1)
		m.ObserveScore(10)
		m.ObserveRequest("GET", "/", 200, 0)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveScore(40)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "churn_insight_churn_probability_bucket")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
