package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsRequestsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics("api", reg)

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/api/products/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	for _, path := range []string{"/api/products/1", "/api/products/2", "/missing"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("api", "GET", "/api/products/:id", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statusCategory.WithLabelValues("api", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusCategory.WithLabelValues("api", "4xx")))
}

func TestHandler_ExposesRealtimeGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics("api", reg)
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()
	m.ChangePublished("products", "INSERT")

	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(body), "realtime_connected_clients 1")
	assert.Contains(t, string(body), `realtime_change_events_total{table="products",type="INSERT"} 1`)
}
