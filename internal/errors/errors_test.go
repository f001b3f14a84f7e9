package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCyclicDependencyError_Message(t *testing.T) {
	err := &CyclicDependencyError{Node: "a", Path: []string{"c", "b", "a"}}
	assert.Equal(t, "cyclic dependency detected: a <- c <- b <- a", err.Error())

	bare := &CyclicDependencyError{Node: "a"}
	assert.Equal(t, "cyclic dependency detected: a", bare.Error())
}

func TestTaskExecutionError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("exit status 2")
	err := NewTaskExecutionError("make all", cause)
	err.Task = "compile"

	assert.Equal(t, "task compile: make all: exit status 2", err.Error())
	assert.True(t, Is(err, cause))

	var target *TaskExecutionError
	wrapped := fmt.Errorf("outer: %w", err)
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "compile", target.Task)
}

func TestMultiError(t *testing.T) {
	var errs *MultiError
	assert.Nil(t, errs.ErrorOrNil())
	assert.Equal(t, 0, errs.Len())

	errs = errs.Append(fmt.Errorf("first"), fmt.Errorf("second"))
	require.Error(t, errs.ErrorOrNil())
	assert.Equal(t, 2, errs.Len())
	assert.Contains(t, errs.Error(), "first")
	assert.Contains(t, errs.Error(), "second")
}

func TestRunError(t *testing.T) {
	cause := fmt.Errorf("boom")
	single := &RunError{Tasks: []string{"a"}, Errors: (&MultiError{}).Append(cause)}
	assert.Equal(t, "build failed in task a: boom", single.Error())
	assert.True(t, Is(single, cause))

	multi := &RunError{Tasks: []string{"a", "b"}, Errors: (&MultiError{}).Append(cause, fmt.Errorf("bang"))}
	assert.Contains(t, multi.Error(), "a, b")
	assert.Contains(t, multi.Error(), "bang")
}

func TestBuildError_Formatting(t *testing.T) {
	err := NewUnknownTaskError("deploy", "Graph construction")

	assert.Equal(t, "CONFIGURATION-003", GetErrorCode(err))
	assert.True(t, IsUserError(err))
	assert.Contains(t, err.Error(), "Task 'deploy' is not declared")
	assert.Contains(t, err.Error(), "task: deploy")

	cli := FormatForCLI(err)
	assert.Contains(t, cli, "Error [CONFIGURATION-003]")
	assert.Contains(t, cli, "How to resolve:")

	assert.Equal(t, "CONFIGURATION-003: Task 'deploy' is not declared", DisplayErrorSummary(err))
	assert.Equal(t, "UNKNOWN", GetErrorCode(fmt.Errorf("plain")))
	assert.Equal(t, "\nError: plain\n", FormatForCLI(fmt.Errorf("plain")))
}

func TestRecover(t *testing.T) {
	var recovered error
	func() {
		defer Recover(func(cause error) {
			recovered = cause
		})
		panic("exploded")
	}()

	require.Error(t, recovered)
	assert.Contains(t, recovered.Error(), "exploded")
	assert.Contains(t, ErrorWithStackTrace(recovered), "errors_test.go")
}

func TestUnsupportedArgumentError(t *testing.T) {
	err := &UnsupportedArgumentError{Token: "a:x=y", Key: "x", Value: "y"}
	assert.Equal(t, `unsupported argument type for x: "y"`, err.Error())
	assert.True(t, IsUserError(err))
}
