// Package http provides the HTTP API for fixd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/logging"
	"github.com/fyrsmithlabs/fixd/internal/orchestrator"
	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"github.com/fyrsmithlabs/fixd/internal/telemetry"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// maxBodySize bounds request bodies; tracebacks and snippets can be large.
const maxBodySize = "4M"

// Dispatcher executes remediation tasks. *orchestrator.Orchestrator implements it.
type Dispatcher interface {
	Execute(ctx context.Context, task *remediation.Task, strategy remediation.Strategy) (*remediation.Result, error)
	Classify(fault remediation.Fault) (remediation.Classification, remediation.Strategy)
	Snapshot() orchestrator.Stats
	History() []orchestrator.HistoryEntry
}

// EventPublisher announces finished tasks. *events.Publisher implements it.
type EventPublisher interface {
	Completed(ctx context.Context, task *remediation.Task, strategy remediation.Strategy, res *remediation.Result) error
}

// Server provides HTTP endpoints for fixd.
type Server struct {
	echo       *echo.Echo
	dispatcher Dispatcher
	publisher  EventPublisher
	logger     *logging.Logger
	config     *Config
}

// HealthReporter reports on an optional subsystem. *telemetry.Telemetry implements it.
type HealthReporter interface {
	Health() telemetry.HealthStatus
}

// Config holds HTTP server configuration.
type Config struct {
	Host    string
	Port    int
	Version string

	// Telemetry, when set, is included in /health.
	Telemetry HealthReporter

	// Meter records request metrics. Defaults to the global meter provider.
	Meter metric.Meter
}

// NewServer creates a new HTTP server. publisher may be nil when events are disabled.
func NewServer(d Dispatcher, publisher EventPublisher, logger *logging.Logger, cfg *Config) (*Server, error) {
	if d == nil {
		return nil, fmt.Errorf("dispatcher cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}

	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	metrics, err := newHTTPMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create http metrics: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:       e,
		dispatcher: d,
		publisher:  publisher,
		logger:     logger.Named("http"),
		config:     cfg,
	}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(metrics.middleware)
	e.Use(s.requestLogger)

	s.registerRoutes()

	return s, nil
}

// requestLogger carries the request ID into the request context and logs the request.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		ctx := logging.WithRequestID(req.Context(), c.Response().Header().Get(echo.HeaderXRequestID))
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Info(ctx, "http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/fix", s.handleFix)
	v1.POST("/classify", s.handleClassify)
	v1.GET("/stats", s.handleStats)
	v1.GET("/history", s.handleHistory)
}

// handleHealth reports liveness. Degraded telemetry is reported but does not
// change the status code.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.config.Version}
	if s.config.Telemetry != nil {
		h := s.config.Telemetry.Health()
		resp.Telemetry = &h
	}
	return c.JSON(http.StatusOK, resp)
}

// handleFix runs a remediation task and returns its result.
func (s *Server) handleFix(c echo.Context) error {
	ctx := c.Request().Context()

	var req FixRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid fix request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Task == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "task field is required")
	}
	if req.Task.ID == "" {
		req.Task.ID = uuid.NewString()
	}

	strategy, err := remediation.ParseStrategy(req.Strategy)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := s.dispatcher.Execute(ctx, req.Task, strategy)
	if err != nil {
		if errors.Is(err, remediation.ErrInvalidTask) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error(ctx, "fix execution failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "fix execution failed")
	}

	if res.Provider != remediation.ProviderCancelled && s.publisher != nil {
		if err := s.publisher.Completed(ctx, req.Task, strategy, res); err != nil {
			s.logger.Warn(ctx, "failed to publish fix event", zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, res)
}

// handleClassify reports how a fault would be classified and dispatched.
func (s *Server) handleClassify(c echo.Context) error {
	var fault remediation.Fault
	if err := c.Bind(&fault); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if fault.Kind == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "kind field is required")
	}

	cl, strategy := s.dispatcher.Classify(fault)
	return c.JSON(http.StatusOK, ClassifyResponse{Classification: cl, Strategy: strategy})
}

// handleStats returns the dispatcher statistics.
func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.dispatcher.Snapshot())
}

// handleHistory returns recently completed tasks, oldest first. The optional
// limit query parameter keeps only the newest entries.
func (s *Server) handleHistory(c echo.Context) error {
	entries := s.dispatcher.History()

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		if limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}
	if entries == nil {
		entries = []orchestrator.HistoryEntry{}
	}

	return c.JSON(http.StatusOK, HistoryResponse{Entries: entries, Count: len(entries)})
}

// ServeHTTP serves the API without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
