package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountProbesAndRejections(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.ObserveProbe("port", "Open", 15*time.Millisecond)
	m.ObserveProbe("port", "Open", 20*time.Millisecond)
	m.ObserveProbe("website", "2xx", time.Second)
	m.ObserveRejection("banner", "auth")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.probesTotal.WithLabelValues("port", "Open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.probesTotal.WithLabelValues("website", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejectionsTotal.WithLabelValues("banner", "auth")))
}

func TestMetricsHandlerExposesSeries(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.ObserveRejection("port", "rate_limit")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	assert.True(t, strings.Contains(string(body), `seca_recon_rejections_total{operation="port",reason="rate_limit"} 1`), string(body))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveProbe("port", "Open", time.Millisecond)
	m.ObserveRejection("port", "auth")
	assert.Nil(t, m.Registry())

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
