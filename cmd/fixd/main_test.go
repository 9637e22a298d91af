package main

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestMainIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	// No config file under the temporary home; defaults plus env apply
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FIXD_SERVER_HTTP_PORT", "8094")
	t.Setenv("FIXD_LOGGING_LEVEL", "error")
	t.Setenv("FIXD_SCRUBBING_GITLEAKS", "false")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, "")
	}()

	// Wait for server to start
	time.Sleep(200 * time.Millisecond)

	resp, err := http.Get("http://localhost:8094/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shutdown in time")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FIXD_ORCHESTRATOR_DEFAULT_STRATEGY", "round_robin")

	if err := run(context.Background(), ""); err == nil {
		t.Fatal("run() should fail on an unknown default strategy")
	}
}
