package provider

import (
	"context"
	"sync/atomic"

	"github.com/fyrsmithlabs/fixd/internal/logging"
	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"github.com/fyrsmithlabs/fixd/internal/secrets"
	"go.uber.org/zap"
)

// ScrubbingProvider redacts secrets from the fault context before handing
// the task to the wrapped provider. Results are returned unchanged.
type ScrubbingProvider struct {
	next     remediation.FixProvider
	scrubber *secrets.Scrubber
	logger   *logging.Logger

	scrubbed atomic.Int64
	redacted atomic.Int64
}

// WithScrubber wraps next so every task passes through s first.
func WithScrubber(next remediation.FixProvider, s *secrets.Scrubber, logger *logging.Logger) *ScrubbingProvider {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ScrubbingProvider{
		next:     next,
		scrubber: s,
		logger:   logger.Named("scrub"),
	}
}

// Execute scrubs task and forwards the copy.
func (p *ScrubbingProvider) Execute(ctx context.Context, task *remediation.Task) (*remediation.Result, error) {
	clean, report := p.scrubber.ScrubTask(task)
	if !report.Clean() {
		p.scrubbed.Add(1)
		p.redacted.Add(int64(report.Findings))
		p.logger.Info(ctx, "redacted secrets from fault context",
			zap.Int("findings", report.Findings),
			zap.Strings("fields", report.Fields),
			zap.Any("rules", report.ByRule))
	}
	return p.next.Execute(ctx, clean)
}

// Stats extends the wrapped provider's stats with redaction counters.
func (p *ScrubbingProvider) Stats() map[string]any {
	stats := make(map[string]any)
	for k, v := range p.next.Stats() {
		stats[k] = v
	}
	stats["scrubbed_tasks"] = p.scrubbed.Load()
	stats["redacted_secrets"] = p.redacted.Load()
	return stats
}

var _ remediation.FixProvider = (*ScrubbingProvider)(nil)
