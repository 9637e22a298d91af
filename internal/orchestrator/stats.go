package orchestrator

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/remediation"
)

// Stats is a point-in-time copy of the dispatcher counters.
type Stats struct {
	TotalTasks      int `json:"total_tasks"`
	LocalFixes      int `json:"local_fixes"`
	RemoteFixes     int `json:"remote_fixes"`
	HybridFixes     int `json:"hybrid_fixes"`
	SuccessfulFixes int `json:"successful_fixes"`
	FailedFixes     int `json:"failed_fixes"`

	// AvgExecutionTime is the mean dispatcher wall-clock time per task, in seconds.
	AvgExecutionTime float64 `json:"avg_execution_time"`

	StrategyUsage map[remediation.Strategy]int `json:"strategy_usage"`
	SuccessRate   float64                      `json:"success_rate"`

	LocalProvider  map[string]any `json:"local_provider,omitempty"`
	RemoteProvider map[string]any `json:"remote_provider,omitempty"`
}

// StatsCollector aggregates per-task outcomes. All access goes through a single mutex.
type StatsCollector struct {
	mu    sync.Mutex
	stats Stats
}

// NewStatsCollector returns a collector with every strategy bucket at zero.
func NewStatsCollector() *StatsCollector {
	usage := make(map[remediation.Strategy]int, len(remediation.AllStrategies()))
	for _, s := range remediation.AllStrategies() {
		usage[s] = 0
	}
	return &StatsCollector{stats: Stats{StrategyUsage: usage}}
}

// Record folds one completed task into the counters. Exactly one of the local,
// remote and hybrid counters moves, chosen by tag. Cancelled tasks and tags the
// orchestrator never produces are ignored.
func (c *StatsCollector) Record(strategy remediation.Strategy, tag remediation.ProviderTag, success bool, executionTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.stats
	var counter *int
	switch tag {
	case remediation.ProviderLocal:
		counter = &s.LocalFixes
	case remediation.ProviderCloud:
		counter = &s.RemoteFixes
	case remediation.ProviderHybridLocalThenCloud,
		remediation.ProviderHybridCloudThenLocal,
		remediation.ProviderParallel,
		remediation.ProviderParallelFailed:
		counter = &s.HybridFixes
	case remediation.ProviderCancelled:
		return
	default:
		// unreachable from Execute; counting it would break the per-tag sum
		return
	}

	*counter++
	s.TotalTasks++
	s.StrategyUsage[strategy]++

	if success {
		s.SuccessfulFixes++
	} else {
		s.FailedFixes++
	}

	n := float64(s.TotalTasks)
	s.AvgExecutionTime = (s.AvgExecutionTime*(n-1) + executionTime.Seconds()) / n
}

// Snapshot returns a copy of the counters with SuccessRate filled in.
func (c *StatsCollector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.stats
	out.StrategyUsage = make(map[remediation.Strategy]int, len(c.stats.StrategyUsage))
	for k, v := range c.stats.StrategyUsage {
		out.StrategyUsage[k] = v
	}
	if out.TotalTasks > 0 {
		out.SuccessRate = float64(out.SuccessfulFixes) / float64(out.TotalTasks)
	}
	return out
}

// WriteReport writes a human-readable summary of s to w.
func (s Stats) WriteReport(w io.Writer) error {
	rule := strings.Repeat("=", 60)
	var b strings.Builder

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "fixd dispatcher statistics")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Total tasks:        %d\n", s.TotalTasks)
	fmt.Fprintf(&b, "Successful:         %d (%.1f%%)\n", s.SuccessfulFixes, s.SuccessRate*100)
	fmt.Fprintf(&b, "Failed:             %d\n", s.FailedFixes)
	fmt.Fprintf(&b, "Avg execution time: %.2fs\n", s.AvgExecutionTime)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Local fixes:        %d\n", s.LocalFixes)
	fmt.Fprintf(&b, "Remote fixes:       %d\n", s.RemoteFixes)
	fmt.Fprintf(&b, "Hybrid fixes:       %d\n", s.HybridFixes)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Strategy usage:")
	for _, strategy := range remediation.AllStrategies() {
		fmt.Fprintf(&b, "  - %-13s %d\n", strategy, s.StrategyUsage[strategy])
	}
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}
