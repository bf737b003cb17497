package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestHTTPMetrics_MetricsMiddleware(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := newHTTPMetrics(mp.Meter(httpInstrumentationName), nil)

	e := echo.New()
	e.Use(m.MetricsMiddleware())
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/api/tasks/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	})
	e.GET("/api/daily-goals", func(c echo.Context) error {
		return c.JSON(http.StatusOK, []string{})
	})

	for _, path := range []string{"/health", "/api/tasks/abc", "/api/tasks/def", "/api/daily-goals"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			found[metric.Name] = metric
		}
	}
	require.Contains(t, found, "ceo.http.requests_total")
	require.Contains(t, found, "ceo.http.request_duration_seconds")
	require.Contains(t, found, "ceo.http.response_size_bytes")
	require.Contains(t, found, "ceo.http.active_requests")

	sum, ok := found["ceo.http.requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byResource := map[string]int64{}
	for _, dp := range sum.DataPoints {
		resource, _ := dp.Attributes.Value("resource")
		byResource[resource.AsString()] += dp.Value
		if resource.AsString() == "task" {
			status, _ := dp.Attributes.Value("status")
			endpoint, _ := dp.Attributes.Value("endpoint")
			assert.Equal(t, int64(http.StatusNotFound), status.AsInt64())
			assert.Equal(t, "/api/tasks/:id", endpoint.AsString())
		}
	}
	assert.Equal(t, map[string]int64{"system": 1, "task": 2, "daily_goal": 1}, byResource)

	hist, ok := found["ceo.http.request_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(4), count)

	active, ok := found["ceo.http.active_requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range active.DataPoints {
		assert.Zero(t, dp.Value, "in-flight gauge returns to zero")
	}
}

func TestRouteResource(t *testing.T) {
	tests := map[string]string{
		"":                                   "system",
		"/health":                            "system",
		"/api/tasks":                         "task",
		"/api/tasks/:id/toggle-completion":   "task",
		"/api/weekly-goals/date/:date":       "weekly_goal",
		"/api/daily-goals/:id":               "daily_goal",
		"/api/linkedin-posts/status/:status": "linkedin_post",
		"/api/session":                       "session",
		"/api/stats":                         "stats",
	}
	for endpoint, want := range tests {
		assert.Equal(t, want, routeResource(routeTemplate(endpoint)), endpoint)
	}
}
