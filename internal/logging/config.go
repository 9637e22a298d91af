package logging

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/config"
	"go.uber.org/zap/zapcore"
)

// Config is the logging section of the fixd configuration.
type Config struct {
	Level     Level             `koanf:"level"`
	Format    string            `koanf:"format"` // json or console
	Caller    bool              `koanf:"caller"`
	Output    OutputConfig      `koanf:"output"`
	Sampling  SamplingConfig    `koanf:"sampling"`
	Redaction RedactionConfig   `koanf:"redaction"`
	Fields    map[string]string `koanf:"fields"` // added to every entry
}

type OutputConfig struct {
	Stdout bool `koanf:"stdout"`
	OTEL   bool `koanf:"otel"`
}

// SamplingConfig keeps the first Initial entries with the same level and
// message per Tick, then every Thereafter-th. Error and above bypass it.
type SamplingConfig struct {
	Enabled    bool            `koanf:"enabled"`
	Tick       config.Duration `koanf:"tick"`
	Initial    int             `koanf:"initial"`
	Thereafter int             `koanf:"thereafter"`
}

// RedactionConfig names the field keys and value patterns that never reach
// an output.
type RedactionConfig struct {
	Enabled  bool     `koanf:"enabled"`
	Keys     []string `koanf:"keys"`
	Patterns []string `koanf:"patterns"`
}

// DefaultRedactionKeys are matched against the last segment of a field key,
// so "remote.api_key" and "db_password" match while "redacted_secrets" does not.
var DefaultRedactionKeys = []string{
	"api_key", "apikey", "authorization", "bearer", "credential", "credentials",
	"password", "private_key", "secret", "token",
}

// DefaultRedactionPatterns catch credentials that show up inside messages
// and free-text values such as engine error bodies.
var DefaultRedactionPatterns = []string{
	`(?i)bearer\s+[a-z0-9._~+/=-]{8,}`,
	`(?i)(api[_-]?key|x-api-key)["']?\s*[:=]\s*["']?[^\s"',]{8,}`,
}

const maxPatternLen = 512

func NewDefaultConfig() *Config {
	return &Config{
		Level:  Level(zapcore.InfoLevel),
		Format: "json",
		Caller: true,
		Output: OutputConfig{Stdout: true},
		Sampling: SamplingConfig{
			Enabled:    true,
			Tick:       config.Duration(time.Second),
			Initial:    100,
			Thereafter: 10,
		},
		Redaction: RedactionConfig{
			Enabled:  true,
			Keys:     append([]string(nil), DefaultRedactionKeys...),
			Patterns: append([]string(nil), DefaultRedactionPatterns...),
		},
		Fields: map[string]string{"service": "fixd"},
	}
}

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Format != "json" && c.Format != "console" {
		errs = append(errs, fmt.Errorf("format must be json or console, got %q", c.Format))
	}
	if !c.Output.Stdout && !c.Output.OTEL {
		errs = append(errs, errors.New("at least one output (stdout, otel) must be enabled"))
	}
	if c.Sampling.Enabled {
		if c.Sampling.Tick <= 0 {
			errs = append(errs, errors.New("sampling tick must be positive"))
		}
		if c.Sampling.Initial < 1 {
			errs = append(errs, fmt.Errorf("sampling initial must be at least 1, got %d", c.Sampling.Initial))
		}
		if c.Sampling.Thereafter < 0 {
			errs = append(errs, fmt.Errorf("sampling thereafter must not be negative, got %d", c.Sampling.Thereafter))
		}
	}
	if c.Redaction.Enabled {
		for i, p := range c.Redaction.Patterns {
			if len(p) > maxPatternLen {
				errs = append(errs, fmt.Errorf("redaction pattern %d longer than %d characters", i, maxPatternLen))
				continue
			}
			if _, err := regexp.Compile(p); err != nil {
				errs = append(errs, fmt.Errorf("redaction pattern %d: %w", i, err))
			}
		}
	}
	for k, v := range c.Fields {
		if k == "" || v == "" {
			errs = append(errs, fmt.Errorf("field %q: key and value must be non-empty", k))
		}
	}
	return errors.Join(errs...)
}
