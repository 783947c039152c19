package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics holds the collectors for one service. Collectors are registered
// on the given registerer so tests can use a private registry.
type HTTPMetrics struct {
	ServiceName string

	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	statusCategory  *prometheus.CounterVec
	realtimeClients prometheus.Gauge
	changeEvents    *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

// NewHTTPMetrics creates and registers the collectors.
func NewHTTPMetrics(serviceName string, reg *prometheus.Registry) *HTTPMetrics {
	m := &HTTPMetrics{
		ServiceName: serviceName,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		statusCategory: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_category_total",
				Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"service", "category"},
		),
		realtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connected_clients",
			Help: "Number of open realtime websocket connections",
		}),
		changeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realtime_change_events_total",
				Help: "Change events published to the realtime feed",
			},
			[]string{"table", "type"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.requests, m.duration, m.statusCategory, m.realtimeClients, m.changeEvents)
	return m
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// Middleware records request count, duration and status category.
func (m *HTTPMetrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		method := c.Method()
		path := c.Route().Path
		statusStr := strconv.Itoa(status)

		m.requests.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
		m.duration.WithLabelValues(m.ServiceName, method, path, statusStr).Observe(time.Since(start).Seconds())
		if cat := statusCategory(status); cat != "" {
			m.statusCategory.WithLabelValues(m.ServiceName, cat).Inc()
		}
		return err
	}
}

// ClientConnected / ClientDisconnected track realtime connections.
func (m *HTTPMetrics) ClientConnected()    { m.realtimeClients.Inc() }
func (m *HTTPMetrics) ClientDisconnected() { m.realtimeClients.Dec() }

// ChangePublished counts a change event pushed to the feed.
func (m *HTTPMetrics) ChangePublished(table, eventType string) {
	m.changeEvents.WithLabelValues(table, eventType).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *HTTPMetrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
