package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/logging"
	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultPrefix is the subject root when none is configured.
const DefaultPrefix = "fixd"

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("event publisher is closed")

// unsafeToken matches characters that cannot appear in a single NATS subject token.
var unsafeToken = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// FixEvent is the payload of every fix event.
type FixEvent struct {
	TaskID        string                  `json:"task_id"`
	FaultKind     string                  `json:"fault_kind"`
	Strategy      remediation.Strategy    `json:"strategy,omitempty"`           // the strategy that ran
	Requested     remediation.Strategy    `json:"requested_strategy,omitempty"` // empty means server default
	Provider      remediation.ProviderTag `json:"provider"`
	Success       bool                    `json:"success"`
	Confidence    *float64                `json:"confidence,omitempty"`
	ModifiedFiles []string                `json:"modified_files"`
	Patch         string                  `json:"patch,omitempty"`
	Error         string                  `json:"error,omitempty"`
	ExecutionTime time.Duration           `json:"execution_time_ns"`
	Timestamp     time.Time               `json:"timestamp"`
	TraceID       string                  `json:"trace_id,omitempty"`
}

// Publisher publishes fix events to NATS.
//
// Events are published to subjects:
//   - {prefix}.fix.completed.{task_id} for every finished task
//   - {prefix}.fix.publish.{task_id} for successful tasks that asked for publication
//
// Task IDs are sanitized into a single subject token.
type Publisher struct {
	nats   *nats.Conn
	prefix string
	logger *logging.Logger
}

// NewPublisher creates a publisher on an established connection. An empty
// prefix uses DefaultPrefix and a nil logger discards output.
func NewPublisher(nc *nats.Conn, prefix string, logger *logging.Logger) (*Publisher, error) {
	if nc == nil {
		return nil, errors.New("nats connection required")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		nats:   nc,
		prefix: prefix,
		logger: logger.Named("events"),
	}, nil
}

// Connect dials NATS with the reconnect policy fixd uses.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("fixd"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// CompletedSubject returns the subject a task's completion is published to.
func (p *Publisher) CompletedSubject(taskID string) string {
	return fmt.Sprintf("%s.fix.completed.%s", p.prefix, SubjectToken(taskID))
}

// PublishSubject returns the subject a task's publication request goes to.
func (p *Publisher) PublishSubject(taskID string) string {
	return fmt.Sprintf("%s.fix.publish.%s", p.prefix, SubjectToken(taskID))
}

// Completed publishes the outcome of task. When the task asked for
// publication and the fix succeeded, a publish event follows.
//
// Returns error if JSON marshaling or a NATS publish fails.
func (p *Publisher) Completed(ctx context.Context, task *remediation.Task, strategy remediation.Strategy, res *remediation.Result) error {
	if p.nats.IsClosed() {
		return ErrClosed
	}

	ran := res.Strategy
	if ran == "" {
		ran = strategy
	}
	event := FixEvent{
		TaskID:        task.ID,
		FaultKind:     task.Fault.Kind,
		Strategy:      ran,
		Requested:     strategy,
		Provider:      res.Provider,
		Success:       res.Success,
		Confidence:    res.Confidence,
		ModifiedFiles: res.ModifiedFiles,
		Patch:         res.Patch,
		Error:         res.Error,
		ExecutionTime: res.ExecutionTime,
		Timestamp:     time.Now().UTC(),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		event.TraceID = sc.TraceID().String()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal fix event: %w", err)
	}

	subject := p.CompletedSubject(task.ID)
	if err := p.nats.Publish(subject, data); err != nil {
		return fmt.Errorf("publish completed event: %w", err)
	}
	p.logger.Debug(ctx, "fix event published", zap.String("subject", subject))

	if !task.Options.Publish || !res.Success {
		return nil
	}
	subject = p.PublishSubject(task.ID)
	if err := p.nats.Publish(subject, data); err != nil {
		return fmt.Errorf("publish publication event: %w", err)
	}
	p.logger.Debug(ctx, "fix publication requested", zap.String("subject", subject))
	return nil
}

// Subscribe delivers every completed event under prefix to handler until the
// returned subscription is drained or unsubscribed. Malformed payloads are skipped.
func Subscribe(nc *nats.Conn, prefix string, handler func(FixEvent)) (*nats.Subscription, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	sub, err := nc.Subscribe(prefix+".fix.completed.>", func(msg *nats.Msg) {
		var event FixEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flush subscription: %w", err)
	}
	return sub, nil
}

// Close flushes pending events and closes the connection.
func (p *Publisher) Close() error {
	if p.nats.IsClosed() {
		return nil
	}
	return p.nats.Drain()
}

// SubjectToken maps a task ID onto a single NATS subject token.
func SubjectToken(id string) string {
	if id == "" {
		return "_"
	}
	return unsafeToken.ReplaceAllString(id, "_")
}
