package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"misinfo/internal/metrics"
)

func TestMiddleware_CountsByRouteAndStatus(t *testing.T) {
	m := metrics.New()

	mux := http.NewServeMux()
	mux.Handle("POST /collect", m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("POST", "/collect", nil))
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "POST /collect", "400"))
	assert.Equal(t, float64(2), got)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestObserveCollected(t *testing.T) {
	m := metrics.New()
	m.ObserveCollected("youtube", "video")
	m.ObserveCollected("youtube", "video")
	m.ObserveCheck("checked")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RecordsCollected.WithLabelValues("youtube", "video")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ChecksTotal.WithLabelValues("checked")))
}

func TestHandler_Exposition(t *testing.T) {
	m := metrics.New()
	m.ObserveUpload("success")

	ts := httptest.NewServer(m.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `content_uploads_total{status="success"} 1`)
}
