package http

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/ceo-assistant/internal/http"

// HTTPMetrics records request counts, latency and payload size for the API.
// Every instrument carries method, endpoint (the route template), status and
// resource (task, weekly_goal, daily_goal, linkedin_post or system).
type HTTPMetrics struct {
	logger         *zap.Logger
	requestsTotal  metric.Int64Counter
	requestDur     metric.Float64Histogram
	responseSize   metric.Int64Histogram
	activeRequests metric.Int64UpDownCounter
}

// NewHTTPMetrics creates instruments on the global meter provider.
func NewHTTPMetrics(logger *zap.Logger) *HTTPMetrics {
	return newHTTPMetrics(otel.Meter(httpInstrumentationName), logger)
}

func newHTTPMetrics(meter metric.Meter, logger *zap.Logger) *HTTPMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &HTTPMetrics{logger: logger}

	var err error
	m.requestsTotal, err = meter.Int64Counter(
		"ceo.http.requests_total",
		metric.WithDescription("API requests by method, endpoint, resource and status."),
		metric.WithUnit("{request}"),
	)
	m.warn("requests counter", err)

	m.requestDur, err = meter.Float64Histogram(
		"ceo.http.request_duration_seconds",
		metric.WithDescription("API request latency in seconds."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	m.warn("duration histogram", err)

	m.responseSize, err = meter.Int64Histogram(
		"ceo.http.response_size_bytes",
		metric.WithDescription("API response body size in bytes."),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(100, 500, 1000, 5000, 10000, 50000, 100000),
	)
	m.warn("response size histogram", err)

	m.activeRequests, err = meter.Int64UpDownCounter(
		"ceo.http.active_requests",
		metric.WithDescription("API requests currently in flight."),
		metric.WithUnit("{request}"),
	)
	m.warn("active requests gauge", err)

	return m
}

func (m *HTTPMetrics) warn(instrument string, err error) {
	if err != nil {
		m.logger.Warn("failed to create "+instrument, zap.Error(err))
	}
}

// MetricsMiddleware returns an Echo middleware that records HTTP metrics.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()

			if m.activeRequests != nil {
				m.activeRequests.Add(ctx, 1)
				defer m.activeRequests.Add(ctx, -1)
			}

			// Render errors here so the recorded status is the one the client sees.
			if err := next(c); err != nil {
				c.Error(err)
			}

			endpoint := routeTemplate(c.Path())
			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", endpoint),
				attribute.String("resource", routeResource(endpoint)),
				attribute.Int("status", c.Response().Status),
			)

			if m.requestsTotal != nil {
				m.requestsTotal.Add(ctx, 1, attrs)
			}
			if m.requestDur != nil {
				m.requestDur.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			if m.responseSize != nil {
				m.responseSize.Record(ctx, c.Response().Size, attrs)
			}
			return nil
		}
	}
}

// routeTemplate keeps label cardinality bounded. c.Path() is already the
// route template (/api/tasks/:id), so only unmatched requests need a value.
func routeTemplate(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// routeResource maps a route template to the entity it serves.
func routeResource(endpoint string) string {
	rest, ok := strings.CutPrefix(endpoint, "/api/")
	if !ok {
		return "system"
	}
	first, _, _ := strings.Cut(rest, "/")
	switch first {
	case "tasks":
		return "task"
	case "weekly-goals":
		return "weekly_goal"
	case "daily-goals":
		return "daily_goal"
	case "linkedin-posts":
		return "linkedin_post"
	case "session":
		return "session"
	default:
		return first
	}
}
