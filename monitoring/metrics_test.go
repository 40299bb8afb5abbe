package monitoring

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.ObservePrediction(OutcomeAtRisk, time.Millisecond)
	m.ObservePrediction(OutcomeAtRisk, time.Millisecond)
	m.ObservePrediction(OutcomeSchemaMismatch, 0)
	m.ObserveRequest("POST /api/predict", 200)
	m.ObserveReload(nil)
	m.ObserveReload(errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues(OutcomeAtRisk)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues(OutcomeSchemaMismatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST /api/predict", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("failed")))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObservePrediction(OutcomeNotAtRisk, time.Millisecond)
	m.ClientConnected(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `wildtrack_predictions_total{outcome="not_at_risk"} 1`))
	assert.True(t, strings.Contains(text, "wildtrack_websocket_clients 1"))
	assert.True(t, strings.Contains(text, "wildtrack_inference_duration_seconds_bucket"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObservePrediction(OutcomeError, time.Second)
	m.ObserveRequest("", 500)
	m.ObserveReload(nil)
	m.ClientConnected(1)
	assert.Zero(t, m.Uptime())
}
