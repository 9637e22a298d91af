package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	sideLocal  = "local"
	sideRemote = "remote"
)

var (
	errNilResult       = errors.New("provider returned no result")
	errProviderTimeout = errors.New("provider timed out")
)

// branch is one of the two engines, named for logs, spans and metrics.
type branch struct {
	name     string
	provider remediation.FixProvider
}

// invoke calls the provider once and always returns a result. When the provider
// returned an error, panicked or returned nil, the result is a failure carrying
// the message and the cause is returned as err.
func (o *Orchestrator) invoke(ctx context.Context, b branch, task *remediation.Task) (*remediation.Result, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.provider."+b.name,
		trace.WithAttributes(
			attribute.String("provider", b.name),
			attribute.String("task.id", task.ID),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := callProvider(ctx, b.provider, task)
	elapsed := time.Since(start)

	ProviderCallDuration.WithLabelValues(b.name).Observe(elapsed.Seconds())

	if err != nil {
		err = fmt.Errorf("%s provider: %w", b.name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ProviderCallsTotal.WithLabelValues(b.name, "error").Inc()
		o.logger.Warn(ctx, "fix provider raised",
			zap.String("provider", b.name),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return remediation.Failed(task.ID, "", err.Error(), elapsed), err
	}

	if res.ExecutionTime == 0 {
		res.ExecutionTime = elapsed
	}
	span.SetAttributes(attribute.Bool("success", res.Success))
	ProviderCallsTotal.WithLabelValues(b.name, resultLabel(res.Success)).Inc()
	o.logger.Debug(ctx, "fix provider returned",
		zap.String("provider", b.name),
		zap.Bool("success", res.Success),
		zap.Duration("duration", elapsed),
	)
	return res, nil
}

// invokeWithin is invoke bounded by ctx. It returns nil when the provider
// raised or did not answer before ctx ended.
func (o *Orchestrator) invokeWithin(ctx context.Context, b branch, task *remediation.Task) (*remediation.Result, error) {
	type answer struct {
		res *remediation.Result
		err error
	}
	done := make(chan answer, 1)
	go func() {
		res, err := o.invoke(ctx, b, task)
		done <- answer{res: res, err: err}
	}()

	select {
	case a := <-done:
		if a.err == nil {
			return a.res, nil
		}
		if ctx.Err() == nil {
			return nil, a.err
		}
	case <-ctx.Done():
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s provider: %w", b.name, errProviderTimeout)
	}
	return nil, fmt.Errorf("%s provider: %w", b.name, ctx.Err())
}

// callProvider is the single place a provider panic is recovered. The returned
// result is a copy owned by the dispatcher.
func callProvider(ctx context.Context, p remediation.FixProvider, task *remediation.Task) (res *remediation.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	out, err := p.Execute(ctx, task)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errNilResult
	}

	cp := *out
	cp.TaskID = task.ID
	if cp.ModifiedFiles == nil {
		cp.ModifiedFiles = []string{}
	} else {
		cp.ModifiedFiles = append([]string(nil), out.ModifiedFiles...)
	}
	if out.Confidence != nil {
		cp.Confidence = remediation.Score(*out.Confidence)
	}
	return &cp, nil
}
