package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, zapcore.InfoLevel, zapcore.Level(cfg.Level))
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Output.Stdout)
	assert.False(t, cfg.Output.OTEL)
	assert.True(t, cfg.Redaction.Enabled)
	assert.Contains(t, cfg.Redaction.Keys, "api_key")
	assert.Equal(t, "fixd", cfg.Fields["service"])

	// defaults are copies
	cfg.Redaction.Keys[0] = "changed"
	assert.NotEqual(t, "changed", DefaultRedactionKeys[0])
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "console format", mutate: func(c *Config) { c.Format = "console" }},
		{name: "otel only", mutate: func(c *Config) { c.Output = OutputConfig{OTEL: true} }},
		{name: "sampling off ignores tick", mutate: func(c *Config) { c.Sampling = SamplingConfig{} }},
		{name: "redaction off ignores patterns", mutate: func(c *Config) { c.Redaction = RedactionConfig{Patterns: []string{"("}} }},
		{name: "bad format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: "format"},
		{name: "no output", mutate: func(c *Config) { c.Output = OutputConfig{} }, wantErr: "at least one output"},
		{name: "zero tick", mutate: func(c *Config) { c.Sampling.Tick = 0 }, wantErr: "tick"},
		{name: "zero initial", mutate: func(c *Config) { c.Sampling.Initial = 0 }, wantErr: "initial"},
		{name: "negative thereafter", mutate: func(c *Config) { c.Sampling.Thereafter = -1 }, wantErr: "thereafter"},
		{name: "bad pattern", mutate: func(c *Config) { c.Redaction.Patterns = []string{"[a-"} }, wantErr: "redaction pattern 0"},
		{name: "long pattern", mutate: func(c *Config) { c.Redaction.Patterns = []string{strings.Repeat("a", maxPatternLen+1)} }, wantErr: "longer than"},
		{name: "empty field value", mutate: func(c *Config) { c.Fields["env"] = "" }, wantErr: `field "env"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateJoinsErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	cfg.Output = OutputConfig{}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
	assert.Contains(t, err.Error(), "at least one output")
}

func TestLevel_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "trace", want: TraceLevel},
		{in: "debug", want: zapcore.DebugLevel},
		{in: "INFO", want: zapcore.InfoLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var l Level
			err := l.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, zapcore.Level(l))
		})
	}

	text, err := Level(TraceLevel).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "trace", string(text))
}
