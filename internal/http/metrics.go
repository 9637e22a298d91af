package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fyrsmithlabs/fixd/internal/http"

// unmatchedRoute labels requests no route matched, keeping label cardinality
// independent of what clients probe.
const unmatchedRoute = "unmatched"

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	var m httpMetrics
	var err, errs error

	m.requests, err = meter.Int64Counter("fixd.http.server.requests",
		metric.WithDescription("Requests served, by method, route and status code."),
		metric.WithUnit("{request}"))
	errs = errors.Join(errs, err)

	m.duration, err = meter.Float64Histogram("fixd.http.server.duration",
		metric.WithDescription("Time to serve a request. /api/v1/fix includes engine round trips."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60))
	errs = errors.Join(errs, err)

	m.size, err = meter.Int64Histogram("fixd.http.server.response.size",
		metric.WithDescription("Response body size."),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(256, 1024, 4096, 16384, 65536, 262144, 1048576))
	errs = errors.Join(errs, err)

	m.inFlight, err = meter.Int64UpDownCounter("fixd.http.server.active_requests",
		metric.WithDescription("Requests being served."),
		metric.WithUnit("{request}"))
	errs = errors.Join(errs, err)

	if errs != nil {
		return nil, errs
	}
	return &m, nil
}

func (m *httpMetrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		start := time.Now()
		m.inFlight.Add(ctx, 1)
		defer m.inFlight.Add(ctx, -1)

		err := next(c)

		route := c.Path()
		if route == "" {
			route = unmatchedRoute
		}
		attrs := metric.WithAttributes(
			attribute.String("http.request.method", c.Request().Method),
			attribute.String("http.route", route),
			attribute.String("http.response.status_code", strconv.Itoa(responseStatus(c, err))),
		)
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		m.size.Record(ctx, c.Response().Size, attrs)
		return err
	}
}

// responseStatus is the status the client sees, including for an error the
// error handler has not written yet.
func responseStatus(c echo.Context, err error) int {
	if c.Response().Committed || err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 500
}
