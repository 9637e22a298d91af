// Package main implements the fixctl CLI for operating a fixd server.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	httpserver "github.com/fyrsmithlabs/fixd/internal/http"
)

var (
	// serverURL is the base URL for the fixd HTTP server
	serverURL string
	// outputJSON prints raw JSON responses instead of summaries
	outputJSON bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fixctl",
	Short: "CLI for fixd server operations",
	Long: `fixctl is a command-line interface for the fixd remediation dispatcher.
It submits fix tasks, inspects dispatcher statistics and follows fix events.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9090", "fixd server URL")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output raw JSON")
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check fixd server health",
	Long: `Check the health status of the fixd HTTP server.

Examples:
  # Check health
  fixctl health

  # Check health on a different server
  fixctl health --server http://localhost:8080`,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	var health httpserver.HealthResponse
	if err := newAPIClient(serverURL, 5*time.Second).do(cmd.Context(), http.MethodGet, "/health", nil, &health); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server Status: %s\n", health.Status)
	if health.Version != "" {
		fmt.Fprintf(out, "Server Version: %s\n", health.Version)
	}
	fmt.Fprintf(out, "Server URL: %s\n", serverURL)
	if t := health.Telemetry; t != nil {
		switch {
		case !t.Enabled:
			fmt.Fprintln(out, "Telemetry: disabled")
		case t.Degraded:
			fmt.Fprintf(out, "Telemetry: degraded (%s)\n", strings.Join(t.Errors, "; "))
		default:
			fmt.Fprintln(out, "Telemetry: ok")
		}
	}
	return nil
}

// apiClient talks JSON to the fixd HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// do sends body (if any) as JSON and decodes a 200 response into out.
func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		reqJSON, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqJSON)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
