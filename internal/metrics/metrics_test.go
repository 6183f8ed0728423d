package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	t.Parallel()

	m := New("test")
	m.OrderCreated()
	m.OrderCreated()
	m.OrderCreateFailed("insufficient_stock")
	m.OrderStatusUpdated("confirmed")
	m.ReviewAdded()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orderCreateFailures.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orderStatusUpdates.WithLabelValues("confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewsAdded))
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated()
		m.OrderCreateFailed("x")
		m.OrderStatusUpdated("shipped")
		m.ReviewAdded()
	})
	assert.Nil(t, m.Registry())
}

func TestMiddlewareAndHandler(t *testing.T) {
	t.Parallel()

	m := New("test")
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/products/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/api/products/:id", "404")))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}
