package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// maxHealthErrors bounds the exporter errors kept for Health.
const maxHealthErrors = 8

// pipeline is one signal's provider, reduced to what shutdown needs.
type pipeline struct {
	name     string
	flush    func(context.Context) error
	shutdown func(context.Context) error
}

// Telemetry owns the process-wide OpenTelemetry providers. A nil or disabled
// Telemetry hands out the global (no-op unless set) providers.
type Telemetry struct {
	cfg *Config

	tracers trace.TracerProvider
	meters  metric.MeterProvider
	loggers log.LoggerProvider

	pipelines []pipeline
	closed    atomic.Bool

	mu   sync.Mutex
	errs []string
}

// HealthStatus is a point-in-time view of the telemetry pipelines.
type HealthStatus struct {
	Enabled  bool     `json:"enabled"`
	Degraded bool     `json:"degraded"`
	Errors   []string `json:"errors,omitempty"`
}

// New validates cfg and builds the enabled pipelines, registering them as the
// otel globals. Only an invalid config is an error; a pipeline that fails to
// build leaves the instance degraded.
func New(ctx context.Context, cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}
	t := &Telemetry{cfg: cfg}
	if !cfg.Enabled {
		return t, nil
	}

	res := newResource(cfg)

	if tp, err := newTracerProvider(ctx, cfg, res); err != nil {
		t.degrade(err)
	} else {
		t.tracers = tp
		t.pipelines = append(t.pipelines, pipeline{"traces", tp.ForceFlush, tp.Shutdown})
		otel.SetTracerProvider(tp)
	}

	if cfg.Metrics.Enabled {
		if mp, err := newMeterProvider(ctx, cfg, res); err != nil {
			t.degrade(err)
		} else {
			t.meters = mp
			t.pipelines = append(t.pipelines, pipeline{"metrics", mp.ForceFlush, mp.Shutdown})
			otel.SetMeterProvider(mp)
		}
	}

	if cfg.Logs.Enabled {
		if lp, err := newLoggerProvider(ctx, cfg, res); err != nil {
			t.degrade(err)
		} else {
			t.loggers = lp
			t.pipelines = append(t.pipelines, pipeline{"logs", lp.ForceFlush, lp.Shutdown})
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(t.degrade))

	return t, nil
}

func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if t == nil || t.tracers == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return t.tracers.Tracer(name, opts...)
}

func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if t == nil || t.meters == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return t.meters.Meter(name, opts...)
}

// LoggerProvider returns the OTLP log provider, or nil when logs are not
// exported.
func (t *Telemetry) LoggerProvider() log.LoggerProvider {
	if t == nil {
		return nil
	}
	return t.loggers
}

// IsEnabled reports whether telemetry was enabled and has not been shut down.
func (t *Telemetry) IsEnabled() bool {
	return t != nil && t.cfg != nil && t.cfg.Enabled && !t.closed.Load()
}

func (t *Telemetry) Health() HealthStatus {
	if t == nil {
		return HealthStatus{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return HealthStatus{
		Enabled:  t.IsEnabled(),
		Degraded: len(t.errs) > 0,
		Errors:   append([]string(nil), t.errs...),
	}
}

// degrade records a pipeline or export failure.
func (t *Telemetry) degrade(err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.errs) == maxHealthErrors {
		t.errs = t.errs[1:]
	}
	t.errs = append(t.errs, err.Error())
}

// ForceFlush exports everything buffered in every pipeline.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	for _, p := range t.pipelines {
		if err := p.flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", p.name, err))
		}
	}
	return errors.Join(errs...)
}

// Shutdown flushes and stops every pipeline, newest first. Without a deadline
// on ctx the configured shutdown timeout applies. Calls after the first are
// no-ops.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.closed.Swap(true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && t.cfg != nil && t.cfg.Shutdown.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Shutdown.Timeout.Duration())
		defer cancel()
	}

	var errs []error
	for i := len(t.pipelines) - 1; i >= 0; i-- {
		p := t.pipelines[i]
		if err := p.shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", p.name, err))
		}
	}
	return errors.Join(errs...)
}
