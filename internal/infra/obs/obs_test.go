package obs

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func TestNewLogger_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	newLogger("prod", &buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestMetrics_Telemetry(t *testing.T) {
	m := NewMetrics()
	m.SubmissionObserved("accepted")
	m.SubmissionObserved("accepted")
	m.PaymentSessionStarted()
	m.PaymentSessionExpired()
	m.CheckoutCompleted("online")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.submissions.WithLabelValues("accepted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.paymentSessions.WithLabelValues("expired")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.checkouts.WithLabelValues("online")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "directstay_draft_submissions_total")
}

func TestMiddleware_RequestIDAndLatency(t *testing.T) {
	m := NewMetrics()
	mw := Middleware{Metrics: m}
	r := gin.New()
	r.Use(mw.RequestID(), mw.LoggerMiddleware())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpLatency))
}

func TestHealth_Readyz(t *testing.T) {
	healthy := HealthHandlers{Checks: map[string]Check{"mongo": func(context.Context) error { return nil }}}
	broken := HealthHandlers{Checks: map[string]Check{"redis": func(context.Context) error { return errors.New("dial refused") }}, Timeout: time.Second}

	r := gin.New()
	r.GET("/ok", healthy.Readyz)
	r.GET("/bad", broken.Readyz)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bad", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "dial refused")
}
