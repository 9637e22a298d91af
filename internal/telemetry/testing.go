package telemetry

import (
	"context"
	"fmt"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry records spans synchronously and collects metrics on demand.
type TestTelemetry struct {
	*Telemetry

	spans  *tracetest.InMemoryExporter
	reader *sdkmetric.ManualReader
}

func NewTestTelemetry() *TestTelemetry {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	spans := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return &TestTelemetry{
		Telemetry: &Telemetry{
			cfg:     cfg,
			tracers: tp,
			meters:  mp,
			pipelines: []pipeline{
				{"traces", tp.ForceFlush, tp.Shutdown},
				{"metrics", mp.ForceFlush, mp.Shutdown},
			},
		},
		spans:  spans,
		reader: reader,
	}
}

// Spans returns the ended spans in end order.
func (t *TestTelemetry) Spans() tracetest.SpanStubs {
	return t.spans.GetSpans()
}

// SpanByName returns the first ended span called name.
func (t *TestTelemetry) SpanByName(name string) (tracetest.SpanStub, bool) {
	for _, s := range t.spans.GetSpans() {
		if s.Name == name {
			return s, true
		}
	}
	return tracetest.SpanStub{}, false
}

// Reset drops recorded spans. Metric instruments keep their cumulative state.
func (t *TestTelemetry) Reset() {
	t.spans.Reset()
}

// Collect reads the current value of every instrument.
func (t *TestTelemetry) Collect(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	err := t.reader.Collect(ctx, &rm)
	return rm, err
}

// MetricByName collects and returns the named metric.
func (t *TestTelemetry) MetricByName(ctx context.Context, name string) (metricdata.Metrics, bool) {
	rm, err := t.Collect(ctx)
	if err != nil {
		return metricdata.Metrics{}, false
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func (t *TestTelemetry) AssertSpanExists(tb testing.TB, name string) {
	tb.Helper()
	if _, ok := t.SpanByName(name); !ok {
		tb.Errorf("no span %q; recorded %v", name, t.spanNames())
	}
}

// AssertSpanAttribute compares by printed form, so "x", 3 and int64(3) match
// the attribute values they print as.
func (t *TestTelemetry) AssertSpanAttribute(tb testing.TB, span, key string, want interface{}) {
	tb.Helper()
	s, ok := t.SpanByName(span)
	if !ok {
		tb.Errorf("no span %q; recorded %v", span, t.spanNames())
		return
	}
	for _, kv := range s.Attributes {
		if string(kv.Key) != key {
			continue
		}
		if got := kv.Value.Emit(); got != fmt.Sprint(want) {
			tb.Errorf("span %q attribute %q = %s, want %v", span, key, got, want)
		}
		return
	}
	tb.Errorf("span %q has no attribute %q", span, key)
}

func (t *TestTelemetry) spanNames() []string {
	var names []string
	for _, s := range t.spans.GetSpans() {
		names = append(names, s.Name)
	}
	return names
}
