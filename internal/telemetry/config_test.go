package telemetry

import (
	"testing"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, ProtocolGRPC, cfg.Protocol)
	assert.Equal(t, "fixd", cfg.ServiceName)
	assert.Equal(t, 1.0, cfg.Sampling.Rate)
	assert.False(t, cfg.Logs.Enabled)

	cfg.Enabled = true
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "disabled skips checks", mutate: func(c *Config) { c.Enabled = false; c.Endpoint = "" }},
		{name: "http protocol", mutate: func(c *Config) { c.Protocol = ProtocolHTTP; c.Endpoint = "http://localhost:4318" }},
		{name: "empty protocol means grpc", mutate: func(c *Config) { c.Protocol = "" }},
		{name: "remote with tls", mutate: func(c *Config) { c.Endpoint = "otel.example.com:4317"; c.Insecure = false }},
		{name: "metrics off ignores interval", mutate: func(c *Config) { c.Metrics = MetricsConfig{} }},
		{name: "no endpoint", mutate: func(c *Config) { c.Endpoint = "" }, wantErr: "endpoint is required"},
		{name: "bad protocol", mutate: func(c *Config) { c.Protocol = "thrift" }, wantErr: "protocol must be"},
		{name: "no service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: "service_name"},
		{name: "no service version", mutate: func(c *Config) { c.ServiceVersion = "" }, wantErr: "service_version"},
		{name: "insecure remote", mutate: func(c *Config) { c.Endpoint = "otel.example.com:4317" }, wantErr: "loopback"},
		{name: "rate above one", mutate: func(c *Config) { c.Sampling.Rate = 1.5 }, wantErr: "sampling.rate"},
		{name: "negative rate", mutate: func(c *Config) { c.Sampling.Rate = -0.1 }, wantErr: "sampling.rate"},
		{name: "zero interval", mutate: func(c *Config) { c.Metrics.ExportInterval = 0 }, wantErr: "export_interval"},
		{name: "zero shutdown", mutate: func(c *Config) { c.Shutdown.Timeout = 0 }, wantErr: "shutdown.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Enabled = true
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

func TestConfig_ValidateReportsAll(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.ServiceName = ""
	cfg.Shutdown.Timeout = config.Duration(-time.Second)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service_name")
	assert.Contains(t, err.Error(), "shutdown.timeout")
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		endpoint string
		want     bool
	}{
		{"localhost:4317", true},
		{"LOCALHOST", true},
		{"127.0.0.1:4317", true},
		{"127.8.9.1:4317", true},
		{"[::1]:4317", true},
		{"::1", true},
		{"http://localhost:4318/", true},
		{"otel.example.com:4317", false},
		{"10.0.0.5:4317", false},
		{"localhost.example.com:4317", false},
		{"https://127.0.0.1.nip.io:4318", false},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, isLoopback(tt.endpoint))
		})
	}
}

func TestConfig_HostPort(t *testing.T) {
	assert.Equal(t, "otel.example.com:4318", (&Config{Endpoint: "https://otel.example.com:4318/"}).hostPort())
	assert.Equal(t, "localhost:4317", (&Config{Endpoint: "localhost:4317"}).hostPort())
}

func TestConfig_TLS(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Nil(t, cfg.tlsConfig())

	cfg.Insecure = false
	cfg.TLSSkipVerify = true
	tc := cfg.tlsConfig()
	require.NotNil(t, tc)
	assert.True(t, tc.InsecureSkipVerify)
}

func TestNewResource(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Environment = "staging"

	got := map[string]string{}
	for _, kv := range newResource(cfg).Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "fixd", got["service.name"])
	assert.Equal(t, "dev", got["service.version"])
	assert.Equal(t, "staging", got["deployment.environment"])
}
