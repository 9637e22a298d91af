// Package remediation defines the remediation task and fix result model shared by
// the dispatcher, the fixing engines and the calling harness.
//
// A Task describes a fault ("something is broken") together with the artifacts it
// touches. A FixProvider turns a Task into a Result. The orchestrator package decides
// which provider, or which combination of providers, handles a given Task.
//
// # Strategies
//
// Strategy is a closed set:
//   - StrategyLocalOnly: local engine only
//   - StrategyRemoteOnly: remote engine only
//   - StrategyLocalFirst: local engine, remote engine when the local fix is weak
//   - StrategyRemoteFirst: remote engine, local engine when the remote fix fails
//   - StrategyParallel: both engines concurrently, best result wins
//   - StrategyAdaptive: resolved to one of the above from the fault classification
//
// # Provider Tags
//
// Every Result returned by the orchestrator carries a ProviderTag naming the path
// that produced it: ProviderLocal, ProviderCloud, ProviderHybridLocalThenCloud,
// ProviderHybridCloudThenLocal, ProviderParallel, ProviderParallelFailed or
// ProviderCancelled.
//
// # Confidence
//
// Result.Confidence is optional. Readers use ConfidenceOr with the default that
// applies to their comparison (DefaultConfidence for successful results, 0 for
// failed ones).
//
// # Validation
//
// Validate rejects malformed tasks with a *ValidationError. Validation errors are the
// only errors the dispatcher returns to its caller; every provider-side failure is
// reported as a Result with Success set to false.
package remediation
