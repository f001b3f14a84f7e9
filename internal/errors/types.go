package errors

import (
	"fmt"
	"strings"
)

// CyclicDependencyError is returned by the graph when an edge would close a cycle.
// Node is the vertex the rejected edge points to; Path is the chain of incoming
// edges walked from the edge source until Node was found.
type CyclicDependencyError struct {
	Node string
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("cyclic dependency detected: %s", e.Node)
	}
	return fmt.Sprintf("cyclic dependency detected: %s <- %s", e.Node, strings.Join(e.Path, " <- "))
}

// TaskExecutionError is returned when a runnable unit of a task fails.
type TaskExecutionError struct {
	Task string
	Unit string
	Err  error
}

func (e *TaskExecutionError) Error() string {
	var sb strings.Builder
	if e.Task != "" {
		sb.WriteString(fmt.Sprintf("task %s: ", e.Task))
	}
	if e.Unit != "" {
		sb.WriteString(fmt.Sprintf("%s: ", e.Unit))
	}
	if e.Err != nil {
		sb.WriteString(e.Err.Error())
	} else {
		sb.WriteString("failed")
	}
	return sb.String()
}

func (e *TaskExecutionError) Unwrap() error {
	return e.Err
}

// NewTaskExecutionError wraps err with the description of the unit that produced it.
func NewTaskExecutionError(unit string, err error) *TaskExecutionError {
	return &TaskExecutionError{Unit: unit, Err: err}
}

// UnsupportedArgumentError is returned when a task argument value cannot be classified.
type UnsupportedArgumentError struct {
	Token string
	Key   string
	Value string
}

func (e *UnsupportedArgumentError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("unsupported argument %q in %q", e.Value, e.Token)
	}
	return fmt.Sprintf("unsupported argument type for %s: %q", e.Key, e.Value)
}

// ResolverError is returned when a gem cannot be fetched or validated.
type ResolverError struct {
	Kind     string
	Location string
	Err      error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("%s resolver failed for %s: %v", e.Kind, e.Location, e.Err)
}

func (e *ResolverError) Unwrap() error {
	return e.Err
}

// RunError is returned by the orchestrator when one or more tasks failed.
type RunError struct {
	Tasks  []string
	Errors *MultiError
}

func (e *RunError) Error() string {
	if len(e.Tasks) == 1 && e.Errors.Len() == 1 {
		return fmt.Sprintf("build failed in task %s: %v", e.Tasks[0], e.Errors.WrappedErrors()[0])
	}
	return fmt.Sprintf("build failed in tasks %s:\n%s", strings.Join(e.Tasks, ", "), e.Errors.Error())
}

func (e *RunError) Unwrap() []error {
	return e.Errors.WrappedErrors()
}
