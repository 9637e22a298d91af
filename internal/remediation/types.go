package remediation

import (
	"time"
)

// Priority is the caller-assigned urgency of a task.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Location points at the place a fault originated.
type Location struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Function string `json:"function,omitempty"`
}

// Fault describes what is broken.
type Fault struct {
	// Kind is the fault type name, e.g. "ImportError" or "nil pointer dereference".
	Kind string `json:"kind"`

	// Message is the fault message as reported by the failing component.
	Message string `json:"message,omitempty"`

	// Location is where the fault originated.
	Location Location `json:"location,omitempty"`

	// Snippet is the code surrounding the fault location.
	Snippet string `json:"snippet,omitempty"`

	// Traceback is the full stack trace, if one was captured.
	Traceback string `json:"traceback,omitempty"`
}

// Options toggles the post-fix steps a caller asks for.
type Options struct {
	// Verify requests post-fix verification by the engine.
	Verify bool `json:"verify"`

	// Publish requests downstream publication of the fix (e.g. a change request).
	Publish bool `json:"publish"`
}

// Task is a unit of remediation work. It is owned by the caller and must not be
// modified once submitted.
type Task struct {
	ID       string   `json:"task_id"`
	Fault    Fault    `json:"fault"`
	Targets  []string `json:"targets,omitempty"`
	Options  Options  `json:"options"`
	Priority Priority `json:"priority,omitempty"`
}

// Complexity buckets a fault by how hard it is expected to be to fix.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Well-known classification categories.
const (
	CategoryDesignFlaw    = "design-flaw"
	CategoryArchitectural = "architectural"
	CategoryMultiFile     = "multi-file"
	CategoryUnknown       = "unknown"
)

// Classification is the classifier's view of a fault. It is produced fresh for every
// task and never persisted.
type Classification struct {
	Complexity Complexity `json:"complexity"`
	Category   string     `json:"category"`
	Confidence float64    `json:"confidence"`

	// Factors lists the complexity factors detected in the fault context.
	Factors []string `json:"factors,omitempty"`
}

// ProviderTag names the execution path that produced a Result.
type ProviderTag string

const (
	ProviderLocal                ProviderTag = "local"
	ProviderCloud                ProviderTag = "cloud"
	ProviderHybridLocalThenCloud ProviderTag = "hybrid_local_then_cloud"
	ProviderHybridCloudThenLocal ProviderTag = "hybrid_cloud_then_local"
	ProviderParallel             ProviderTag = "parallel"
	ProviderParallelFailed       ProviderTag = "parallel_failed"
	ProviderCancelled            ProviderTag = "cancelled"
)

// DefaultConfidence is the confidence assumed for a successful result whose
// provider did not report one.
const DefaultConfidence = 0.5

// Result is the outcome of a fix attempt.
type Result struct {
	TaskID             string        `json:"task_id"`
	Success            bool          `json:"success"`
	ModifiedFiles      []string      `json:"modified_files"`
	Patch              string        `json:"patch,omitempty"`
	VerificationPassed bool          `json:"verification_passed"`
	ExecutionTime      time.Duration `json:"execution_time_ns"`

	// Confidence is the provider's estimate of fix correctness in [0,1].
	// Nil when the provider did not supply one.
	Confidence *float64 `json:"confidence,omitempty"`

	Error    string      `json:"error,omitempty"`
	Provider ProviderTag `json:"provider,omitempty"`

	// Strategy is the concrete strategy that ran, adaptive already resolved.
	// Set by the orchestrator; providers leave it empty.
	Strategy Strategy `json:"strategy,omitempty"`
}

// ConfidenceOr returns the reported confidence, or def when none was reported.
func (r *Result) ConfidenceOr(def float64) float64 {
	if r == nil || r.Confidence == nil {
		return def
	}
	return *r.Confidence
}

// Score returns a pointer to v, for filling Result.Confidence.
func Score(v float64) *float64 {
	return &v
}

// Failed builds a failed result for taskID.
func Failed(taskID string, tag ProviderTag, msg string, elapsed time.Duration) *Result {
	return &Result{
		TaskID:        taskID,
		Success:       false,
		ModifiedFiles: []string{},
		ExecutionTime: elapsed,
		Error:         msg,
		Provider:      tag,
	}
}
