package remediation

import "context"

// FixProvider is a fixing engine.
//
// Execute should report an ordinary remediation failure as a Result with Success
// false. A returned error, or a panic, is treated by the dispatcher as an
// unexpected provider exception and converted into a failed Result.
type FixProvider interface {
	// Execute attempts a fix for task. It may block on I/O and should honor ctx.
	Execute(ctx context.Context, task *Task) (*Result, error)

	// Stats returns opaque provider counters, merged verbatim into dispatcher stats.
	Stats() map[string]any
}

// Classifier maps a fault to a classification. Implementations must be pure and
// deterministic and must always return a best-effort classification.
type Classifier interface {
	Classify(fault Fault) Classification
}
