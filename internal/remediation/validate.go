package remediation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTask is matched by every *ValidationError via errors.Is.
var ErrInvalidTask = errors.New("invalid remediation task")

// ValidationError reports a malformed or incomplete task. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid remediation task: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidTask) match any validation error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidTask
}

const (
	maxTaskIDLen = 128
)

// Validate checks that a task carries everything the dispatcher needs.
func Validate(task *Task) error {
	if task == nil {
		return &ValidationError{Field: "task", Reason: "task is required"}
	}
	id := strings.TrimSpace(task.ID)
	if id == "" {
		return &ValidationError{Field: "task_id", Reason: "task id is required"}
	}
	if len(id) > maxTaskIDLen {
		return &ValidationError{Field: "task_id", Reason: fmt.Sprintf("exceeds max length %d", maxTaskIDLen)}
	}
	if strings.TrimSpace(task.Fault.Kind) == "" {
		return &ValidationError{Field: "fault.kind", Reason: "fault kind is required"}
	}
	if task.Fault.Location.Line < 0 {
		return &ValidationError{Field: "fault.location.line", Reason: "line cannot be negative"}
	}
	switch task.Priority {
	case "", PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", task.Priority)}
	}
	for i, target := range task.Targets {
		if strings.TrimSpace(target) == "" {
			return &ValidationError{Field: fmt.Sprintf("targets[%d]", i), Reason: "target cannot be empty"}
		}
	}
	return nil
}
