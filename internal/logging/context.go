package logging

import (
	"context"
	"fmt"
	"regexp"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxIDLen = 128

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// ValidateID reports whether id can be logged verbatim: 1-128 characters
// from [a-zA-Z0-9_.:-]. name labels the error.
func ValidateID(id, name string) error {
	switch {
	case id == "":
		return fmt.Errorf("%s is empty", name)
	case len(id) > maxIDLen:
		return fmt.Errorf("%s is longer than %d bytes", name, maxIDLen)
	case !idPattern.MatchString(id):
		return fmt.Errorf("%s may only contain letters, digits and _.:-", name)
	}
	return nil
}

type (
	taskIDKey    struct{}
	requestIDKey struct{}
)

// WithTaskID attaches a remediation task ID. Task IDs come from callers, so
// one that fails ValidateID is stored quoted (and truncated) instead of
// being dropped.
func WithTaskID(ctx context.Context, id string) context.Context {
	if ValidateID(id, "task id") != nil {
		id = fmt.Sprintf("%q", id)
		if len(id) > maxIDLen {
			id = id[:maxIDLen]
		}
	}
	return context.WithValue(ctx, taskIDKey{}, id)
}

func TaskIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(taskIDKey{}).(string)
	return id
}

// WithRequestID attaches an HTTP request ID. The ID may be client supplied,
// so one that fails ValidateID is not attached at all.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ValidateID(id, "request id") != nil {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextFields returns the correlation fields carried by ctx.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()))
	}
	if id := TaskIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("task.id", id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request.id", id))
	}
	return fields
}
