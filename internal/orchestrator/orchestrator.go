package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/classifier"
	"github.com/fyrsmithlabs/fixd/internal/logging"
	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/fixd/internal/orchestrator"

// DefaultParallelTimeout bounds each PARALLEL branch when no timeout is configured.
const DefaultParallelTimeout = 120 * time.Second

// Config configures the dispatcher.
type Config struct {
	// DefaultStrategy is used when Execute is called with an empty strategy (default: adaptive).
	DefaultStrategy remediation.Strategy

	// ParallelTimeout bounds each branch of a PARALLEL run (default: 120s).
	ParallelTimeout time.Duration

	// HistorySize is the number of completed tasks retained (default: 100).
	HistorySize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultStrategy: remediation.StrategyAdaptive,
		ParallelTimeout: DefaultParallelTimeout,
		HistorySize:     DefaultHistorySize,
	}
}

// Orchestrator dispatches remediation tasks to a local and a remote FixProvider.
// It is safe for concurrent use and runs no background work of its own.
type Orchestrator struct {
	local      remediation.FixProvider
	remote     remediation.FixProvider
	classifier remediation.Classifier
	config     *Config
	logger     *logging.Logger
	tracer     trace.Tracer

	stats   *StatsCollector
	history *History
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// New creates an Orchestrator. A nil classifier uses the built-in rule
// classifier, a nil config uses DefaultConfig and a nil logger discards output.
func New(local, remote remediation.FixProvider, c remediation.Classifier, cfg *Config, logger *logging.Logger, opts ...Option) (*Orchestrator, error) {
	if local == nil {
		return nil, errors.New("local provider is required")
	}
	if remote == nil {
		return nil, errors.New("remote provider is required")
	}
	if c == nil {
		c = classifier.New()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfgCopy := *cfg
	cfg = &cfgCopy
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = remediation.StrategyAdaptive
	}
	if !cfg.DefaultStrategy.Valid() {
		return nil, fmt.Errorf("invalid default strategy %q", cfg.DefaultStrategy)
	}
	if cfg.ParallelTimeout < 0 {
		return nil, fmt.Errorf("parallel timeout cannot be negative: %s", cfg.ParallelTimeout)
	}
	if cfg.ParallelTimeout == 0 {
		cfg.ParallelTimeout = DefaultParallelTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	o := &Orchestrator{
		local:      local,
		remote:     remote,
		classifier: c,
		config:     cfg,
		logger:     logger.Named("orchestrator"),
		tracer:     otel.Tracer(instrumentationName),
		stats:      NewStatsCollector(),
		history:    NewHistory(cfg.HistorySize),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Execute runs task with strategy and returns its result. An empty strategy
// means the configured default.
//
// Provider failures never surface as errors: they come back as a Result with
// Success false. The only error is a *remediation.ValidationError for a
// malformed task or an unknown strategy. When ctx ends first the result is
// tagged ProviderCancelled, carries the context error and is not recorded.
func (o *Orchestrator) Execute(ctx context.Context, task *remediation.Task, strategy remediation.Strategy) (*remediation.Result, error) {
	if err := remediation.Validate(task); err != nil {
		return nil, err
	}
	if strategy == "" {
		strategy = o.config.DefaultStrategy
	}
	if !strategy.Valid() {
		return nil, &remediation.ValidationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", strategy)}
	}

	start := time.Now()
	ctx = logging.WithTaskID(ctx, task.ID)
	ctx, span := o.tracer.Start(ctx, "orchestrator.execute",
		trace.WithAttributes(
			attribute.String("task.id", task.ID),
			attribute.String("strategy.requested", string(strategy)),
		),
	)
	defer span.End()

	resolved := strategy
	if strategy == remediation.StrategyAdaptive {
		c := o.classifier.Classify(task.Fault)
		resolved = Resolve(c)
		o.logger.Debug(ctx, "fault classified",
			zap.String("complexity", string(c.Complexity)),
			zap.String("category", c.Category),
			zap.Float64("confidence", c.Confidence),
			zap.Strings("factors", c.Factors),
		)
	}
	span.SetAttributes(attribute.String("strategy", string(resolved)))
	o.logger.Info(ctx, "remediation task started", zap.String("strategy", string(resolved)))

	res, err := o.run(ctx, task, resolved)
	elapsed := time.Since(start)

	if err != nil {
		ctxErr := ctx.Err()
		if ctxErr == nil || !errors.Is(err, ctxErr) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		TasksCancelled.Inc()
		span.SetStatus(codes.Error, "cancelled")
		o.logger.Warn(ctx, "remediation task cancelled", zap.Error(ctxErr), zap.Duration("duration", elapsed))
		cancelled := remediation.Failed(task.ID, remediation.ProviderCancelled, ctxErr.Error(), elapsed)
		cancelled.Strategy = resolved
		return cancelled, nil
	}
	res.Strategy = resolved

	o.stats.Record(resolved, res.Provider, res.Success, elapsed)
	o.history.Add(HistoryEntry{
		TaskID:        task.ID,
		Timestamp:     time.Now(),
		Strategy:      resolved,
		Success:       res.Success,
		ExecutionTime: elapsed,
		Provider:      res.Provider,
	})
	TasksTotal.WithLabelValues(string(resolved), string(res.Provider), resultLabel(res.Success)).Inc()
	TaskDuration.WithLabelValues(string(resolved)).Observe(elapsed.Seconds())

	span.SetAttributes(
		attribute.String("provider", string(res.Provider)),
		attribute.Bool("success", res.Success),
	)
	if res.Success {
		o.logger.Info(ctx, "remediation task succeeded",
			zap.String("provider", string(res.Provider)),
			zap.Duration("duration", elapsed),
		)
	} else {
		span.SetStatus(codes.Error, res.Error)
		o.logger.Warn(ctx, "remediation task failed",
			zap.String("provider", string(res.Provider)),
			zap.String("error", res.Error),
			zap.Duration("duration", elapsed),
		)
	}
	return res, nil
}

// Classify exposes the classifier and the strategy adaptive resolution would pick.
func (o *Orchestrator) Classify(fault remediation.Fault) (remediation.Classification, remediation.Strategy) {
	c := o.classifier.Classify(fault)
	return c, Resolve(c)
}

// Snapshot returns the current statistics, including each provider's own stats.
func (o *Orchestrator) Snapshot() Stats {
	s := o.stats.Snapshot()
	s.LocalProvider = o.local.Stats()
	s.RemoteProvider = o.remote.Stats()
	return s
}

// History returns the retained completed tasks, oldest first.
func (o *Orchestrator) History() []HistoryEntry {
	return o.history.Entries()
}
