package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := New("test", reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/things/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/1", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/things/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestObserveWebhook(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test", reg)
	m.ObserveWebhook("invoice.payment_failed", "processed")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("invoice.payment_failed", "processed")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveWebhook("x", "y") })
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test", reg)
	m.ObserveWebhook("customer.subscription.created", "processed")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_webhook_events_total"))
}
