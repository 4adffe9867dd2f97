package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ClaimSucceeded(2)
		m.PersistFailed("put")
		m.BackendFellBack()
		m.SetStorageUp(true)
		m.SessionIssued()
		m.CodesRemoved(3)
	})
}

func TestCounters(t *testing.T) {
	m := New()
	m.ClaimSucceeded(2)
	m.ClaimSucceeded(0)
	m.PersistFailed("put")
	m.BackendFellBack()
	m.SetStorageUp(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Claims))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GrantFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures.WithLabelValues("put")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageUp))
}

func TestHandlerExposesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/ping",status="204"} 1`)
}
