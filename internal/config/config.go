// Package config provides configuration loading for fixd.
//
// Configuration is read from a YAML file, overridden by FIXD_* environment
// variables, and completed with defaults. Logging and telemetry sections are
// decoded by their own packages through Config.Unmarshal.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"github.com/knadh/koanf/v2"
)

// Config holds the complete fixd configuration.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Providers    ProvidersConfig    `koanf:"providers"`
	Events       EventsConfig       `koanf:"events"`
	Scrubbing    ScrubbingConfig    `koanf:"scrubbing"`

	// k retains the merged sources for sections owned by other packages.
	k *koanf.Koanf
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"http_host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// OrchestratorConfig holds dispatcher configuration.
type OrchestratorConfig struct {
	DefaultStrategy string   `koanf:"default_strategy"`
	ParallelTimeout Duration `koanf:"parallel_timeout"`
	HistorySize     int      `koanf:"history_size"`
}

// ProvidersConfig holds both fix engine clients.
type ProvidersConfig struct {
	Local  ProviderConfig `koanf:"local"`
	Remote ProviderConfig `koanf:"remote"`
}

// ProviderConfig configures one HTTP fix engine.
type ProviderConfig struct {
	Endpoint    string   `koanf:"endpoint"`
	APIKey      Secret   `koanf:"api_key"`
	Timeout     Duration `koanf:"timeout"`
	RateLimit   float64  `koanf:"rate_limit"` // requests per second
	Burst       int      `koanf:"burst"`
	MaxRetries  int      `koanf:"max_retries"`
	BaseBackoff Duration `koanf:"base_backoff"`
}

// EventsConfig holds NATS event publishing configuration.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// ScrubbingConfig controls secret redaction of fault context sent to the
// remote engine.
type ScrubbingConfig struct {
	Enabled   bool     `koanf:"enabled"`
	Gitleaks  bool     `koanf:"gitleaks"` // add the gitleaks default ruleset
	Redaction string   `koanf:"redaction"`
	AllowList []string `koanf:"allow_list"`
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg := newConfig()
	applyDefaults(cfg)
	return cfg
}

// Unmarshal decodes the section at path into out, leaving fields absent from
// every source untouched. It is a no-op for a Config not produced by a loader.
func (c *Config) Unmarshal(path string, out interface{}) error {
	if c.k == nil || !c.k.Exists(path) {
		return nil
	}
	if err := c.k.Unmarshal(path, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", path, err)
	}
	return nil
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - The default strategy is unknown
//   - A provider endpoint is not an http(s) URL
//   - Events are enabled without a NATS URL
//   - A scrubbing allow-list entry is not a valid regexp
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}

	if _, err := remediation.ParseStrategy(c.Orchestrator.DefaultStrategy); err != nil {
		errs = append(errs, fmt.Errorf("orchestrator.default_strategy: %w", err))
	}
	if c.Orchestrator.HistorySize < 0 {
		errs = append(errs, errors.New("orchestrator.history_size cannot be negative"))
	}

	for name, p := range map[string]ProviderConfig{"local": c.Providers.Local, "remote": c.Providers.Remote} {
		if err := p.validate(); err != nil {
			errs = append(errs, fmt.Errorf("providers.%s: %w", name, err))
		}
	}

	if c.Events.Enabled {
		if c.Events.URL == "" {
			errs = append(errs, errors.New("events.url is required when events are enabled"))
		}
		if strings.ContainsAny(c.Events.SubjectPrefix, " *>") {
			errs = append(errs, fmt.Errorf("events.subject_prefix contains invalid characters: %q", c.Events.SubjectPrefix))
		}
	}

	for i, p := range c.Scrubbing.AllowList {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("scrubbing.allow_list[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// newConfig returns a Config holding the defaults a zero value cannot
// express. Sources are unmarshalled on top of it.
func newConfig() *Config {
	return &Config{Scrubbing: ScrubbingConfig{Enabled: true, Gitleaks: true}}
}

func (p ProviderConfig) validate() error {
	u, err := url.Parse(p.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must be an http(s) URL: %q", p.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint has no host: %q", p.Endpoint)
	}
	if p.RateLimit < 0 {
		return errors.New("rate_limit cannot be negative")
	}
	if p.Burst < 0 {
		return errors.New("burst cannot be negative")
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	// Orchestrator defaults
	if cfg.Orchestrator.DefaultStrategy == "" {
		cfg.Orchestrator.DefaultStrategy = string(remediation.StrategyAdaptive)
	}
	if cfg.Orchestrator.ParallelTimeout == 0 {
		cfg.Orchestrator.ParallelTimeout = Duration(120 * time.Second)
	}
	if cfg.Orchestrator.HistorySize == 0 {
		cfg.Orchestrator.HistorySize = 100
	}

	// Provider defaults
	if cfg.Providers.Local.Endpoint == "" {
		cfg.Providers.Local.Endpoint = "http://localhost:8081/v1/fix"
	}
	if cfg.Providers.Local.Timeout == 0 {
		cfg.Providers.Local.Timeout = Duration(30 * time.Second)
	}
	if cfg.Providers.Remote.Endpoint == "" {
		cfg.Providers.Remote.Endpoint = "http://localhost:8082/v1/fix"
	}
	if cfg.Providers.Remote.Timeout == 0 {
		cfg.Providers.Remote.Timeout = Duration(120 * time.Second)
	}

	// Events defaults
	if cfg.Events.URL == "" {
		cfg.Events.URL = "nats://localhost:4222"
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "fixd"
	}
}
