// Package orchestrator dispatches remediation tasks to two interchangeable fixing
// engines: a fast, low-cost local engine and a slower, higher-quality remote one.
//
// # Overview
//
// The Orchestrator resolves a strategy for each task, runs the matching
// algorithm against the two providers, records the outcome and returns exactly
// one Result.
//
//	Task → resolve strategy → provider(s) → select → record → Result
//
// # Strategies
//
//   - local_only / remote_only: one call to the named provider
//   - local_first: local, then remote when the local fix failed or its
//     confidence is below AcceptConfidence
//   - remote_first: remote, then local when the remote fix failed
//   - parallel: both at once, each bounded by the parallel timeout, joined and
//     compared with Select
//   - adaptive: classified, then mapped to one of the above by Resolve
//
// # Failures
//
// Providers report ordinary failure as a Result with Success false. An error,
// a panic or a nil result from a provider is converted at a single boundary
// into a failed Result carrying the message. Execute itself only returns
// validation errors.
//
// When the caller's context ends, in-flight work is abandoned and Execute
// returns a Result tagged cancelled. Cancelled tasks do not count in Stats.
//
// # Statistics
//
// Every completed task moves exactly one of the local, remote and hybrid
// counters, derived from the result's provider tag. Per-engine call counts are
// reported by each provider's own Stats and merged into Snapshot. Prometheus
// counters and OpenTelemetry spans are emitted per task and per provider call.
//
// # Usage Example
//
//	orch, err := orchestrator.New(localProvider, remoteProvider, classifier.New(), nil, logger)
//	if err != nil {
//	    return err
//	}
//	res, err := orch.Execute(ctx, task, remediation.StrategyAdaptive)
package orchestrator
