package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	ordersCreated       prometheus.Counter
	orderCreateFailures *prometheus.CounterVec
	orderStatusUpdates  *prometheus.CounterVec
	reviewsAdded        prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_created_total",
			Help: "Orders persisted.",
		}),
		orderCreateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "order_create_failures_total",
			Help: "Order placements that did not persist, by reason.",
		}, []string{"reason"}),
		orderStatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "order_status_updates_total",
			Help: "Order status changes, by target status.",
		}, []string{"status"}),
		reviewsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "reviews_added_total",
			Help: "Product reviews accepted.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ordersCreated,
		m.orderCreateFailures,
		m.orderStatusUpdates,
		m.reviewsAdded,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) OrderCreateFailed(reason string) {
	if m == nil {
		return
	}
	m.orderCreateFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) OrderStatusUpdated(status string) {
	if m == nil {
		return
	}
	m.orderStatusUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) ReviewAdded() {
	if m == nil {
		return
	}
	m.reviewsAdded.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware records request count and latency. The route label is the
// echo path template, never the raw URL.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
