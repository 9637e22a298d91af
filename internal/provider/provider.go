package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/logging"
	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second

	// maxResponseSize bounds how much of an engine response is read.
	maxResponseSize = 10 * 1024 * 1024

	// APIKeyHeader carries the engine credential.
	APIKeyHeader = "X-API-Key"
)

// Rate limiter defaults: 50 requests per minute.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// Config configures an HTTP fix engine client.
type Config struct {
	// Name identifies the engine in logs and stats ("local" or "remote").
	Name string

	// Endpoint is the URL the task is POSTed to.
	Endpoint string

	// APIKey is sent in the X-API-Key header when set.
	APIKey string `json:"-"`

	// Timeout bounds a single HTTP attempt (default: 60s).
	Timeout time.Duration

	// RateLimit is the sustained requests per second (default: 50/min).
	RateLimit float64

	// Burst is the rate limiter burst size (default: 5).
	Burst int

	// MaxRetries is the number of retries after the first attempt (default: 3).
	// Negative disables retries.
	MaxRetries int

	// BaseBackoff is the first retry delay, doubled on each retry (default: 1s).
	BaseBackoff time.Duration
}

// HTTPProvider is a remediation.FixProvider backed by a fix engine reachable
// over HTTP. It is safe for concurrent use.
type HTTPProvider struct {
	name        string
	endpoint    string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	logger      *logging.Logger

	total      atomic.Int64
	successful atomic.Int64
	failed     atomic.Int64
	errored    atomic.Int64
	retries    atomic.Int64
}

var _ remediation.FixProvider = (*HTTPProvider)(nil)

// New creates an HTTP provider. A nil logger discards output.
func New(cfg Config, logger *logging.Logger) (*HTTPProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%s provider: endpoint required", cfg.Name)
	}
	if !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return nil, fmt.Errorf("%s provider: endpoint must be an http(s) URL: %q", cfg.Name, cfg.Endpoint)
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	limit := rate.Limit(defaultRateLimit)
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := defaultBurst
	if cfg.Burst > 0 {
		burst = cfg.Burst
	}
	retries := defaultMaxRetries
	if cfg.MaxRetries > 0 {
		retries = cfg.MaxRetries
	} else if cfg.MaxRetries < 0 {
		retries = 0
	}
	backoff := defaultBaseBackoff
	if cfg.BaseBackoff > 0 {
		backoff = cfg.BaseBackoff
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &HTTPProvider{
		name:     cfg.Name,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:     rate.NewLimiter(limit, burst),
		maxRetries:  retries,
		baseBackoff: backoff,
		logger:      logger.Named("provider").With(zap.String("provider", cfg.Name)),
	}, nil
}

// Execute sends task to the engine and returns its result.
//
// The call is rate limited and retried with exponential backoff on transport
// errors, 429 and 5xx responses. An engine that answers with a well-formed
// result reporting failure is not an error.
func (p *HTTPProvider) Execute(ctx context.Context, task *remediation.Task) (*remediation.Result, error) {
	p.total.Add(1)

	res, err := p.execute(ctx, task)
	switch {
	case err != nil:
		p.errored.Add(1)
	case res.Success:
		p.successful.Add(1)
	default:
		p.failed.Add(1)
	}
	return res, err
}

func (p *HTTPProvider) execute(ctx context.Context, task *remediation.Task) (*remediation.Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := p.baseBackoff * time.Duration(1<<(attempt-1))
			p.retries.Add(1)
			p.logger.Debug(ctx, "retrying fix engine request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		res, err := p.doRequest(ctx, body)
		if err == nil {
			return res, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs one HTTP round trip.
func (p *HTTPProvider) doRequest(ctx context.Context, body []byte) (*remediation.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set(APIKeyHeader, p.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{err: fmt.Errorf("engine request failed: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &retryableError{err: errors.New("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return nil, &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, snippet(data))}
	}
	if resp.StatusCode != http.StatusOK {
		var errResp engineError
		if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("engine error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("engine error (%d): %s", resp.StatusCode, snippet(data))
	}

	var res remediation.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if res.Confidence != nil && (*res.Confidence < 0 || *res.Confidence > 1) {
		return nil, fmt.Errorf("confidence out of range: %v", *res.Confidence)
	}
	return &res, nil
}

// Stats reports call counters for this engine.
func (p *HTTPProvider) Stats() map[string]any {
	return map[string]any{
		"name":             p.name,
		"endpoint":         p.endpoint,
		"total_calls":      p.total.Load(),
		"successful_fixes": p.successful.Load(),
		"failed_fixes":     p.failed.Load(),
		"errors":           p.errored.Load(),
		"retries":          p.retries.Load(),
	}
}

// engineError is the error body an engine may return with a non-2xx status.
type engineError struct {
	Error string `json:"error"`
}

// snippet trims a response body for error messages.
func snippet(b []byte) string {
	const max = 256
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError checks if an error should be retried.
func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
