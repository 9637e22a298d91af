package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// setupTestHome points HOME at a temporary directory and returns the
// fixd config directory inside it, created with 0700 permissions.
func setupTestHome(t *testing.T) (home, configDir string) {
	t.Helper()

	home = t.TempDir()
	t.Setenv("HOME", home)

	configDir = filepath.Join(home, ".config", "fixd")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	return home, configDir
}

func writeConfig(t *testing.T, dir, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// TestLoadWithFile_ValidYAML tests loading configuration from a valid YAML file.
func TestLoadWithFile_ValidYAML(t *testing.T) {
	_, configDir := setupTestHome(t)

	configPath := writeConfig(t, configDir, `server:
  http_port: 9191
  http_host: 0.0.0.0

orchestrator:
  default_strategy: parallel
  parallel_timeout: 45s
  history_size: 20

providers:
  local:
    endpoint: http://pattern-engine:8081/v1/fix
    timeout: 5s
  remote:
    endpoint: https://model-engine.example/v1/fix
    api_key: sk-remote-123
    rate_limit: 2.5
    burst: 3
    max_retries: 5

events:
  enabled: true
  url: nats://nats:4222
  subject_prefix: ci
`, 0600)

	cfg, err := LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Orchestrator.DefaultStrategy != "parallel" {
		t.Errorf("Orchestrator.DefaultStrategy = %q, want parallel", cfg.Orchestrator.DefaultStrategy)
	}
	if cfg.Orchestrator.ParallelTimeout.Duration() != 45*time.Second {
		t.Errorf("Orchestrator.ParallelTimeout = %v, want 45s", cfg.Orchestrator.ParallelTimeout.Duration())
	}
	if cfg.Orchestrator.HistorySize != 20 {
		t.Errorf("Orchestrator.HistorySize = %d, want 20", cfg.Orchestrator.HistorySize)
	}
	if cfg.Providers.Local.Endpoint != "http://pattern-engine:8081/v1/fix" {
		t.Errorf("Providers.Local.Endpoint = %q", cfg.Providers.Local.Endpoint)
	}
	if cfg.Providers.Local.Timeout.Duration() != 5*time.Second {
		t.Errorf("Providers.Local.Timeout = %v, want 5s", cfg.Providers.Local.Timeout.Duration())
	}
	if cfg.Providers.Remote.APIKey.Value() != "sk-remote-123" {
		t.Error("Providers.Remote.APIKey not loaded")
	}
	if cfg.Providers.Remote.RateLimit != 2.5 || cfg.Providers.Remote.Burst != 3 || cfg.Providers.Remote.MaxRetries != 5 {
		t.Errorf("Providers.Remote limits = %v/%d/%d", cfg.Providers.Remote.RateLimit, cfg.Providers.Remote.Burst, cfg.Providers.Remote.MaxRetries)
	}
	// Unset in YAML, so defaulted
	if cfg.Providers.Remote.Timeout.Duration() != 120*time.Second {
		t.Errorf("Providers.Remote.Timeout = %v, want default 120s", cfg.Providers.Remote.Timeout.Duration())
	}
	if !cfg.Events.Enabled || cfg.Events.URL != "nats://nats:4222" || cfg.Events.SubjectPrefix != "ci" {
		t.Errorf("Events = %+v", cfg.Events)
	}
	// Section absent from YAML keeps its non-zero default
	if !cfg.Scrubbing.Enabled {
		t.Error("Scrubbing.Enabled = false, want default true")
	}
}

// TestLoadWithFile_ScrubbingDisabled tests that an explicit false overrides the default.
func TestLoadWithFile_ScrubbingDisabled(t *testing.T) {
	_, configDir := setupTestHome(t)

	configPath := writeConfig(t, configDir, `scrubbing:
  enabled: false
  redaction: "<secret>"
  allow_list:
    - "EXAMPLE$"
`, 0600)

	cfg, err := LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}
	if cfg.Scrubbing.Enabled {
		t.Error("Scrubbing.Enabled = true, want false")
	}
	if cfg.Scrubbing.Redaction != "<secret>" {
		t.Errorf("Scrubbing.Redaction = %q, want <secret>", cfg.Scrubbing.Redaction)
	}
	if len(cfg.Scrubbing.AllowList) != 1 || cfg.Scrubbing.AllowList[0] != "EXAMPLE$" {
		t.Errorf("Scrubbing.AllowList = %v", cfg.Scrubbing.AllowList)
	}

	t.Setenv("FIXD_SCRUBBING_ENABLED", "true")
	cfg, err = LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}
	if !cfg.Scrubbing.Enabled {
		t.Error("Scrubbing.Enabled = false, want true (from env override)")
	}
}

// TestLoadWithFile_EnvironmentOverride tests that environment variables override YAML.
func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	_, configDir := setupTestHome(t)

	configPath := writeConfig(t, configDir, `server:
  http_port: 9090
orchestrator:
  default_strategy: local_only
providers:
  remote:
    api_key: from-yaml
`, 0600)

	t.Setenv("FIXD_SERVER_HTTP_PORT", "7777")
	t.Setenv("FIXD_ORCHESTRATOR_DEFAULT_STRATEGY", "remote_first")
	t.Setenv("FIXD_PROVIDERS_REMOTE_API_KEY", "from-env")
	t.Setenv("FIXD_PROVIDERS_LOCAL_MAX_RETRIES", "1")
	t.Setenv("FIXD_EVENTS_ENABLED", "true")

	cfg, err := LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (from env override)", cfg.Server.Port)
	}
	if cfg.Orchestrator.DefaultStrategy != "remote_first" {
		t.Errorf("Orchestrator.DefaultStrategy = %q, want remote_first (from env override)", cfg.Orchestrator.DefaultStrategy)
	}
	if cfg.Providers.Remote.APIKey.Value() != "from-env" {
		t.Error("Providers.Remote.APIKey not overridden from env")
	}
	if cfg.Providers.Local.MaxRetries != 1 {
		t.Errorf("Providers.Local.MaxRetries = %d, want 1", cfg.Providers.Local.MaxRetries)
	}
	if !cfg.Events.Enabled {
		t.Error("Events.Enabled = false, want true (from env override)")
	}
}

// TestLoadWithFile_UnprefixedEnvIgnored tests that only FIXD_ variables are read.
func TestLoadWithFile_UnprefixedEnvIgnored(t *testing.T) {
	_, configDir := setupTestHome(t)
	t.Setenv("SERVER_HTTP_PORT", "7777")

	cfg, err := LoadWithFile(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want default 9090", cfg.Server.Port)
	}
}

// TestLoadWithFile_MissingFile tests handling of missing config file.
func TestLoadWithFile_MissingFile(t *testing.T) {
	_, configDir := setupTestHome(t)

	cfg, err := LoadWithFile(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFile() should not error on missing file, got: %v", err)
	}

	want := Default()
	if cfg.Server != want.Server || cfg.Orchestrator != want.Orchestrator || cfg.Events != want.Events {
		t.Errorf("LoadWithFile() = %+v, want defaults %+v", cfg, want)
	}
}

// TestLoadWithFile_DefaultPath tests using the default config path.
func TestLoadWithFile_DefaultPath(t *testing.T) {
	_, configDir := setupTestHome(t)
	writeConfig(t, configDir, "server:\n  http_port: 9393\n", 0600)

	cfg, err := LoadWithFile("")
	if err != nil {
		t.Fatalf("LoadWithFile(\"\") error = %v, want nil", err)
	}
	if cfg.Server.Port != 9393 {
		t.Errorf("Server.Port = %d, want 9393", cfg.Server.Port)
	}
}

// TestLoadWithFile_InvalidYAML tests handling of malformed YAML.
func TestLoadWithFile_InvalidYAML(t *testing.T) {
	_, configDir := setupTestHome(t)

	configPath := writeConfig(t, configDir, `server:
  http_port: not-a-number
  invalid syntax here
`, 0600)

	if _, err := LoadWithFile(configPath); err == nil {
		t.Error("LoadWithFile() should error on invalid YAML, got nil")
	}
}

// TestLoadWithFile_Validation tests configuration validation.
func TestLoadWithFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"invalid port", "server:\n  http_port: 99999\n", "invalid server port"},
		{"unknown strategy", "orchestrator:\n  default_strategy: round_robin\n", "default_strategy"},
		{"bad endpoint", "providers:\n  local:\n    endpoint: ftp://engine\n", "providers.local"},
		{"negative duration", "orchestrator:\n  parallel_timeout: -5s\n", "unmarshal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, configDir := setupTestHome(t)
			configPath := writeConfig(t, configDir, tt.yaml, 0600)

			_, err := LoadWithFile(configPath)
			if err == nil {
				t.Fatal("LoadWithFile() should fail validation, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

// TestLoadWithFile_PathTraversal tests path traversal attack prevention.
func TestLoadWithFile_PathTraversal(t *testing.T) {
	setupTestHome(t)

	_, err := LoadWithFile("../../../../etc/passwd")
	if err == nil {
		t.Fatal("Expected error for path traversal, got nil")
	}
	if !strings.Contains(err.Error(), "must be in ~/.config/fixd/ or /etc/fixd/") {
		t.Errorf("Expected path validation error, got: %v", err)
	}
}

// TestLoadWithFile_InsecurePermissions tests file permission enforcement.
func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}

	_, configDir := setupTestHome(t)
	configPath := writeConfig(t, configDir, "server:\n  http_port: 9090\n", 0644)

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("Expected error for insecure permissions, got nil")
	}
	if !strings.Contains(err.Error(), "insecure") {
		t.Errorf("Expected 'insecure permissions' error, got: %v", err)
	}
}

// TestLoadWithFile_ReadOnlyPermissions tests that 0400 permissions are accepted.
func TestLoadWithFile_ReadOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}

	_, configDir := setupTestHome(t)
	configPath := writeConfig(t, configDir, "server:\n  http_port: 9090\n", 0400)

	if _, err := LoadWithFile(configPath); err != nil {
		t.Fatalf("LoadWithFile() should succeed with 0400 permissions, got error: %v", err)
	}
}

// TestLoadWithFile_FileTooLarge tests file size limit enforcement.
func TestLoadWithFile_FileTooLarge(t *testing.T) {
	_, configDir := setupTestHome(t)

	// 2MB file exceeds the 1MB limit
	path := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(path, bytes.Repeat([]byte("# comment line\n"), 150000), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadWithFile(path)
	if err == nil {
		t.Fatal("Expected error for large file, got nil")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected 'too large' error, got: %v", err)
	}
}

// TestEnsureConfigDir tests config directory creation.
func TestEnsureConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(home, ".config", "fixd"))
	if err != nil {
		t.Fatalf("config dir not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0700 {
		t.Errorf("config dir permissions = %v, want 0700", info.Mode().Perm())
	}
}
