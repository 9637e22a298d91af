package logging

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	instrumentationName = "github.com/fyrsmithlabs/fixd"

	// Redacted replaces the value of a credential-named field.
	Redacted = "[REDACTED]"
)

// buildCore assembles outputs -> redaction -> sampling. Redaction wraps each
// output so a field is rewritten once per entry before any encoder sees it.
func buildCore(cfg *Config, out zapcore.WriteSyncer, otelProvider log.LoggerProvider) (zapcore.Core, error) {
	var r *redactor
	if cfg.Redaction.Enabled {
		var err error
		if r, err = newRedactor(cfg.Redaction); err != nil {
			return nil, err
		}
	}
	level := zapcore.Level(cfg.Level)

	var outputs []zapcore.Core
	if cfg.Output.Stdout {
		outputs = append(outputs, zapcore.NewCore(newEncoder(cfg.Format), out, level))
	}
	if cfg.Output.OTEL && otelProvider != nil {
		bridge := otelzap.NewCore(instrumentationName, otelzap.WithLoggerProvider(otelProvider))
		outputs = append(outputs, filterLevels(bridge, level.Enabled))
	}
	if len(outputs) == 0 {
		return nil, errors.New("no log output available: stdout is disabled and no OpenTelemetry provider was given")
	}

	for i, c := range outputs {
		outputs[i] = r.wrap(c)
	}
	return sample(zapcore.NewTee(outputs...), cfg.Sampling), nil
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = encodeLevel
	if format == "console" {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == TraceLevel {
		enc.AppendString("trace")
		return
	}
	zapcore.LowercaseLevelEncoder(l, enc)
}

// sample thins entries below Error. Errors take a separate unsampled path.
func sample(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	errorsOnly := filterLevels(core, func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })
	rest := zapcore.NewSamplerWithOptions(
		filterLevels(core, func(l zapcore.Level) bool { return l < zapcore.ErrorLevel }),
		cfg.Tick.Duration(), cfg.Initial, cfg.Thereafter)
	return zapcore.NewTee(errorsOnly, rest)
}

// levelFilter narrows the levels a core accepts.
type levelFilter struct {
	zapcore.Core
	allow func(zapcore.Level) bool
}

func filterLevels(core zapcore.Core, allow func(zapcore.Level) bool) zapcore.Core {
	return &levelFilter{Core: core, allow: allow}
}

func (f *levelFilter) Enabled(l zapcore.Level) bool {
	return f.allow(l) && f.Core.Enabled(l)
}

func (f *levelFilter) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilter{Core: f.Core.With(fields), allow: f.allow}
}

func (f *levelFilter) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !f.allow(e.Level) {
		return ce
	}
	return f.Core.Check(e, ce)
}

type redactor struct {
	keys     map[string]bool
	patterns []*regexp.Regexp
}

func newRedactor(cfg RedactionConfig) (*redactor, error) {
	r := &redactor{keys: make(map[string]bool, len(cfg.Keys))}
	for _, k := range cfg.Keys {
		r.keys[strings.ToLower(k)] = true
	}
	for i, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %d: %w", i, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

// wrap is a no-op on a nil redactor.
func (r *redactor) wrap(c zapcore.Core) zapcore.Core {
	if r == nil {
		return c
	}
	return &redactingCore{Core: c, r: r}
}

// sensitiveKey matches the whole key or its last "." or "_" separated tail.
func (r *redactor) sensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if r.keys[key] {
		return true
	}
	for i := 0; i < len(key); i++ {
		if (key[i] == '.' || key[i] == '_') && r.keys[key[i+1:]] {
			return true
		}
	}
	return false
}

func (r *redactor) text(s string) string {
	for _, re := range r.patterns {
		s = re.ReplaceAllString(s, Redacted)
	}
	return s
}

// fields returns fs with credentials removed. fs itself is never modified.
func (r *redactor) fields(fs []zapcore.Field) []zapcore.Field {
	out := fs
	copied := false
	set := func(i int, f zapcore.Field) {
		if !copied {
			out = append([]zapcore.Field(nil), fs...)
			copied = true
		}
		out[i] = f
	}

	for i, f := range fs {
		if f.Type == zapcore.SkipType {
			continue
		}
		if r.sensitiveKey(f.Key) {
			set(i, zap.String(f.Key, Redacted))
			continue
		}
		switch f.Type {
		case zapcore.StringType:
			if v := r.text(f.String); v != f.String {
				set(i, zap.String(f.Key, v))
			}
		case zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok && err != nil {
				if v := r.text(err.Error()); v != err.Error() {
					set(i, zap.String(f.Key, v))
				}
			}
		}
	}
	return out
}

type redactingCore struct {
	zapcore.Core
	r *redactor
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(c.r.fields(fields)), r: c.r}
}

// Check registers this core rather than the wrapped one so Write runs here.
func (c *redactingCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *redactingCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	e.Message = c.r.text(e.Message)
	return c.Core.Write(e, c.r.fields(fields))
}
